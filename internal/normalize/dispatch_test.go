package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDispatchesAllRegisteredKinds(t *testing.T) {
	for _, key := range []string{"claude", "codex", "gemini", "cursor", "opencode"} {
		n, ok := New(key)
		require.Truef(t, ok, "key %s should resolve", key)
		require.NotNil(t, n)
	}
}

func TestNewUnknownKeyFails(t *testing.T) {
	_, ok := New("turbo")
	require.False(t, ok)
}

func TestNewReturnsFreshStatePerCall(t *testing.T) {
	a, _ := New("claude")
	b, _ := New("claude")
	require.NotSame(t, a, b)
}
