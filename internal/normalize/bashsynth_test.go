package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kdlbs/agentsup/internal/canonical"
)

func fixedNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestSynthesizeFileEventsRedirect(t *testing.T) {
	events := synthesizeFileEvents("claude", "echo hi > out.txt", fixedNow())
	require.Len(t, events, 1)
	require.Equal(t, canonical.TypeFileWrite, events[0].Type)
	require.Equal(t, "out.txt", events[0].Path)
}

func TestSynthesizeFileEventsAppendRedirect(t *testing.T) {
	events := synthesizeFileEvents("claude", "echo hi >>log.txt", fixedNow())
	require.Len(t, events, 1)
	require.Equal(t, "log.txt", events[0].Path)
}

func TestSynthesizeFileEventsCat(t *testing.T) {
	events := synthesizeFileEvents("claude", "cat a.go b.go", fixedNow())
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeFileRead, events[0].Type)
	require.Equal(t, "a.go", events[0].Path)
	require.Equal(t, "b.go", events[1].Path)
}

func TestSynthesizeFileEventsRm(t *testing.T) {
	events := synthesizeFileEvents("claude", "rm -f a.go b.go", fixedNow())
	require.Len(t, events, 2)
	for _, e := range events {
		require.Equal(t, canonical.TypeFileDelete, e.Type)
	}
}

func TestSynthesizeFileEventsMv(t *testing.T) {
	events := synthesizeFileEvents("claude", "mv a.go b.go", fixedNow())
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeFileDelete, events[0].Type)
	require.Equal(t, "a.go", events[0].Path)
	require.Equal(t, canonical.TypeFileWrite, events[1].Type)
	require.Equal(t, "b.go", events[1].Path)
}

func TestSynthesizeFileEventsCp(t *testing.T) {
	events := synthesizeFileEvents("claude", "cp a.go b.go", fixedNow())
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeFileRead, events[0].Type)
	require.Equal(t, canonical.TypeFileWrite, events[1].Type)
}

func TestSynthesizeFileEventsUnrecognizedCommandYieldsNothing(t *testing.T) {
	events := synthesizeFileEvents("claude", "ls -la", fixedNow())
	require.Empty(t, events)
}

func TestSynthesizeFileEventsQuotedPath(t *testing.T) {
	events := synthesizeFileEvents("claude", `cat "my file.go"`, fixedNow())
	require.Len(t, events, 1)
	require.Equal(t, "my file.go", events[0].Path)
}
