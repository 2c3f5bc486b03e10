package agenterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationfUnwrapsToSentinel(t *testing.T) {
	err := Validationf("unknown agent kind %q", "turbo")
	require.True(t, errors.Is(err, ErrValidation))
	require.False(t, errors.Is(err, ErrPrecondition))
	require.Equal(t, `unknown agent kind "turbo"`, err.Error())
}

func TestPreconditionfUnwrapsToSentinel(t *testing.T) {
	err := Preconditionf("cwd %s does not exist", "/tmp/missing")
	require.True(t, errors.Is(err, ErrPrecondition))
	require.False(t, errors.Is(err, ErrValidation))
}

func TestSentinelErrorSupportsIsOnWrappedChain(t *testing.T) {
	base := Preconditionf("pool exhausted")
	wrapped := errors.New("spawn failed: " + base.Error())
	require.False(t, errors.Is(wrapped, ErrPrecondition))

	rewrapped := errorsJoinStyle(base)
	require.True(t, errors.Is(rewrapped, ErrPrecondition))
}

func errorsJoinStyle(err error) error {
	return &wrapper{inner: err}
}

type wrapper struct{ inner error }

func (w *wrapper) Error() string { return "outer: " + w.inner.Error() }
func (w *wrapper) Unwrap() error { return w.inner }

func TestDistinctSentinelsAreNotEqual(t *testing.T) {
	require.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
	require.False(t, errors.Is(ErrPoolExhausted, ErrTransientIO))
	require.False(t, errors.Is(ErrChildFailure, ErrValidation))
}
