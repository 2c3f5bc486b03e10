package summarize

import (
	"testing"
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/stretchr/testify/require"
)

func ts(seconds int) time.Time {
	return time.Unix(1700000000+int64(seconds), 0).UTC()
}

func TestFoldAccumulatesFilesAndTools(t *testing.T) {
	events := []canonical.Event{
		{Type: canonical.TypeFileCreate, Path: "a.go", Timestamp: ts(0)},
		{Type: canonical.TypeFileWrite, Path: "a.go", Timestamp: ts(1)},
		{Type: canonical.TypeFileWrite, Path: "a.go", Timestamp: ts(2)},
		{Type: canonical.TypeFileRead, Path: "b.go", Timestamp: ts(3)},
		{Type: canonical.TypeBash, Command: "go test ./...", Tool: "Bash", Timestamp: ts(4)},
		{Type: canonical.TypeError, Message: "boom", Timestamp: ts(5)},
		{Type: canonical.TypeMessage, Content: "partial", Complete: canonical.BoolPtr(false), Timestamp: ts(6)},
		{Type: canonical.TypeMessage, Content: "done", Complete: canonical.BoolPtr(true), Timestamp: ts(7)},
	}

	s := Fold(events)
	require.Equal(t, []string{"a.go"}, s.FilesCreated)
	require.Equal(t, []string{"a.go"}, s.FilesModified)
	require.Equal(t, []string{"b.go"}, s.FilesRead)
	require.Equal(t, []string{"go test ./..."}, s.BashCommands)
	require.Contains(t, s.ToolsUsed, "Bash")
	require.Equal(t, []string{"boom"}, s.Errors)
	require.Equal(t, []string{"done"}, s.LastMessages)
	require.Equal(t, "done", s.FinalMessage)
	require.Equal(t, 5, s.ToolCallCount)
}

func TestFoldCapsBashCommandsAt100(t *testing.T) {
	var events []canonical.Event
	for i := 0; i < 150; i++ {
		events = append(events, canonical.Event{Type: canonical.TypeBash, Command: "cmd", Timestamp: ts(i)})
	}
	s := Fold(events)
	require.Len(t, s.BashCommands, maxBashCommands)
}

func TestFoldCapsLastMessagesAtFive(t *testing.T) {
	var events []canonical.Event
	for i := 0; i < 8; i++ {
		events = append(events, canonical.Event{
			Type: canonical.TypeMessage, Content: string(rune('a' + i)),
			Complete: canonical.BoolPtr(true), Timestamp: ts(i),
		})
	}
	s := Fold(events)
	require.Len(t, s.LastMessages, defaultLastN)
	require.Equal(t, string(rune('a'+7)), s.LastMessages[len(s.LastMessages)-1])
}

func TestGetDeltaStrictInequalityAndCursorAdvance(t *testing.T) {
	events := []canonical.Event{
		{Type: canonical.TypeFileRead, Path: "a.go", Timestamp: ts(0)},
		{Type: canonical.TypeFileRead, Path: "b.go", Timestamp: ts(5)},
		{Type: canonical.TypeFileRead, Path: "c.go", Timestamp: ts(10)},
	}

	d := GetDelta(events, ts(5))
	require.Equal(t, []string{"c.go"}, d.Summary.FilesRead)
	require.Equal(t, ts(10), d.Cursor)
}

func TestGetDeltaEmptySinceReturnsEverything(t *testing.T) {
	events := []canonical.Event{
		{Type: canonical.TypeFileRead, Path: "a.go", Timestamp: ts(0)},
	}
	d := GetDelta(events, time.Time{})
	require.Equal(t, []string{"a.go"}, d.Summary.FilesRead)
}

func TestTruncateBashCommandPlain(t *testing.T) {
	short := "echo hi"
	require.Equal(t, short, TruncateBashCommand(short))

	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	truncated := TruncateBashCommand(long)
	require.Len(t, truncated, bashTruncateLen)
	require.Contains(t, truncated, "...")
}

func TestTruncateBashCommandHeredoc(t *testing.T) {
	cmd := "cat <<EOF > /tmp/out.txt\nsome very long body that would otherwise blow the budget\nEOF"
	got := TruncateBashCommand(cmd)
	require.Equal(t, "cat <<EOF > /tmp/out.txt", got)
}

func TestFilterByPriorityExcludesVerboseByDefault(t *testing.T) {
	events := []canonical.Event{
		{Type: canonical.TypeThinking, Content: "hmm", Timestamp: ts(0)},
		{Type: canonical.TypeMessage, Content: "partial", Complete: canonical.BoolPtr(false), Timestamp: ts(1)},
		{Type: canonical.TypeToolUse, Tool: "Read", Timestamp: ts(2)},
		{Type: canonical.TypeError, Message: "oops", Timestamp: ts(3)},
	}

	filtered := FilterByPriority(events, false)
	require.Len(t, filtered, 2)

	all := FilterByPriority(events, true)
	require.Len(t, all, 4)
}
