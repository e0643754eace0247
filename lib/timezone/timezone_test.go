package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardClock(t *testing.T) {
	clock, err := NewStandardClock("")
	require.NoError(t, err)
	require.Equal(t, DefaultLocation, clock.Location().String())
	require.Equal(t, DefaultLocation, clock.Now().Location().String())

	_, err = NewStandardClock("Mars/Olympus_Mons")
	require.Error(t, err)
}

func TestFormat(t *testing.T) {
	clock, err := NewStandardClock("Asia/Kolkata")
	require.NoError(t, err)

	cases := []struct {
		at       time.Time
		expected string
		date     string
	}{
		{
			at:       time.Date(2025, time.September, 24, 13, 35, 9, 0, time.UTC),
			expected: "2025-09-24 07:05:09 PM",
			date:     "2025-09-24",
		},
		{
			at:       time.Date(2025, time.September, 24, 20, 0, 0, 0, time.UTC),
			expected: "2025-09-25 01:30:00 AM",
			date:     "2025-09-25",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, Format(clock, test.at))
		require.Equal(t, test.date, Date(clock, test.at))
	}

	fixed := FixedClock{At: time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC)}
	require.Equal(t, "2025-01-02 03:04:05 PM", Format(fixed, fixed.Now()))
}
