package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	var typed *int
	var fn func()

	require.Panics(t, func() { NotNil(nil, "value") })
	require.PanicsWithValue(t, "expected backend to be not nil", func() { NotNil(typed, "backend") })
	require.Panics(t, func() { NotNil(fn, "fn") })

	n := 1
	require.NotPanics(t, func() { NotNil(&n, "value") })
	require.NotPanics(t, func() { NotNil(struct{}{}, "value") })
}

func TestNotEmptyStr(t *testing.T) {
	require.PanicsWithValue(t, "expected source name to be non-empty", func() { NotEmptyStr("", "source name") })
	require.NotPanics(t, func() { NotEmptyStr("hoyts", "source name") })
}
