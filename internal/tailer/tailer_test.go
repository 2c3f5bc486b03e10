package tailer

import (
	"strings"
	"testing"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	return log
}

func TestRunEmitsResultOnEOFWhenNoneSeen(t *testing.T) {
	var appended []canonical.Event
	appendFn := func(ev canonical.Event) error {
		appended = append(appended, ev)
		return nil
	}

	tl, err := New("agent-1", "claude", "claude", appendFn, testLogger(t))
	require.NoError(t, err)

	input := strings.NewReader(`{"type":"system","subtype":"init","model":"claude-x","session_id":"s1"}` + "\n")
	exitCode := make(chan int, 1)
	exitCode <- 0

	result := tl.Run(input, exitCode)
	require.False(t, result.SawResult)
	require.Equal(t, 2, len(appended)) // init event + synthesized result
	require.Equal(t, canonical.TypeResult, appended[len(appended)-1].Type)
	require.Equal(t, canonical.ResultSuccess, appended[len(appended)-1].Status)
}

func TestRunHonorsExplicitResultEvent(t *testing.T) {
	var appended []canonical.Event
	appendFn := func(ev canonical.Event) error {
		appended = append(appended, ev)
		return nil
	}

	tl, err := New("agent-2", "claude", "claude", appendFn, testLogger(t))
	require.NoError(t, err)

	input := strings.NewReader(`{"type":"result","subtype":"success","duration_ms":10}` + "\n")
	exitCode := make(chan int, 1)
	exitCode <- 0

	result := tl.Run(input, exitCode)
	require.True(t, result.SawResult)
	require.Len(t, appended, 1)
}

func TestRunCountsInvalidLines(t *testing.T) {
	appendFn := func(ev canonical.Event) error { return nil }
	tl, err := New("agent-3", "claude", "claude", appendFn, testLogger(t))
	require.NoError(t, err)

	input := strings.NewReader("not json\n{also not json\n")
	exitCode := make(chan int, 1)
	exitCode <- 0

	result := tl.Run(input, exitCode)
	require.Equal(t, 2, result.InvalidLines)
}
