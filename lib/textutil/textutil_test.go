package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "demonslayer:infinitycastle", NormalizeName("  Demon Slayer: Infinity\tCastle \n"))
	require.Equal(t, "the conjuring last rites", CollapseSpace("  The   Conjuring\n Last Rites "))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Central Parkway", []string{"parkway"}))
	require.False(t, MatchName("Orleans", []string{"parkway"}))
}

func TestMatchTitle(t *testing.T) {
	targets := []string{"The Conjuring: Last Rites", "Demon Slayer"}

	cases := []struct {
		title    string
		expected bool
	}{
		{title: "The Conjuring: Last Rites", expected: true},
		{title: "THE CONJURING - LAST RITES", expected: true},
		{title: "Demon Slayer: Kimetsu no Yaiba Infinity Castle", expected: true},
		{title: "The Conjuring: Last Rite", expected: true},
		{title: "Weapons", expected: false},
		{title: "A Big Bold Beautiful Journey", expected: false},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, MatchTitle(test.title, targets, 0), test.title)
	}

	require.True(t, MatchTitle("Anything", nil, 0))
}
