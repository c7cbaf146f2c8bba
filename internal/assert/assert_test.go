package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLength(t *testing.T) {
	require.NotPanics(t, func() { Length("id", "abcd", 4) })
	require.PanicsWithValue(t, "assert.Length id: expected 3 actual 4", func() { Length("id", "abcd", 3) })
}

func TestTrue(t *testing.T) {
	require.NotPanics(t, func() { True(true, "never") })
	require.PanicsWithValue(t, "assert.True: counter is -1", func() { True(false, "counter is %d", -1) })
}
