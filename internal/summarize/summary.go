// Package summarize implements the Summarizer of §4.5: a deterministic
// linear-pass fold of canonical events into a structured summary, plus a
// "delta since cursor" projection for token-efficient polling.
package summarize

import (
	"strings"
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/stringutil"
)

const (
	maxBashCommands  = 100
	defaultLastN     = 5
	bashTruncateLen  = 120
)

// Summary is the accumulated fold of one agent's event log.
type Summary struct {
	FilesCreated  []string `json:"files_created"`
	FilesModified []string `json:"files_modified"`
	FilesRead     []string `json:"files_read"`
	FilesDeleted  []string `json:"files_deleted"`
	BashCommands  []string `json:"bash_commands"`
	ToolsUsed     []string `json:"tools_used"`
	ToolCallCount int      `json:"tool_call_count"`
	Errors        []string `json:"errors"`
	LastMessages  []string `json:"last_messages"`
	FinalMessage  string   `json:"final_message"`
}

// Fold performs the single linear pass described in §4.5 over events,
// which must already be in per-agent timestamp order (the Event Store's
// append-only guarantee).
func Fold(events []canonical.Event) Summary {
	acc := newAccumulator()
	for _, ev := range events {
		acc.apply(ev)
	}
	return acc.summary(defaultLastN)
}

// accumulator tracks first-seen ordered sets alongside the plain Summary
// fields so repeated paths/tools are not double counted.
type accumulator struct {
	filesCreated  orderedSet
	filesModified orderedSet
	filesRead     orderedSet
	filesDeleted  orderedSet
	toolsUsed     orderedSet
	bashCommands  []string
	toolCallCount int
	errors        []string
	messages      []string
	finalMessage  string
}

func newAccumulator() *accumulator {
	return &accumulator{
		filesCreated:  newOrderedSet(),
		filesModified: newOrderedSet(),
		filesRead:     newOrderedSet(),
		filesDeleted:  newOrderedSet(),
		toolsUsed:     newOrderedSet(),
	}
}

func (a *accumulator) apply(ev canonical.Event) {
	switch ev.Type {
	case canonical.TypeFileCreate:
		a.filesCreated.add(ev.Path)
		a.toolCallCount++
	case canonical.TypeFileWrite:
		a.filesModified.add(ev.Path)
		a.toolCallCount++
	case canonical.TypeFileRead:
		a.filesRead.add(ev.Path)
		a.toolCallCount++
	case canonical.TypeFileDelete:
		a.filesDeleted.add(ev.Path)
		a.toolCallCount++
	case canonical.TypeBash:
		a.toolCallCount++
		if ev.Tool != "" {
			a.toolsUsed.add(ev.Tool)
		}
		a.bashCommands = append(a.bashCommands, ev.Command)
		if len(a.bashCommands) > maxBashCommands {
			a.bashCommands = a.bashCommands[len(a.bashCommands)-maxBashCommands:]
		}
	case canonical.TypeToolUse:
		a.toolCallCount++
		if ev.Tool != "" {
			a.toolsUsed.add(ev.Tool)
		}
	case canonical.TypeError:
		a.errors = append(a.errors, ev.Message)
	case canonical.TypeMessage:
		if ev.Complete != nil && *ev.Complete {
			a.messages = append(a.messages, ev.Content)
			a.finalMessage = ev.Content
		}
	}
}

func (a *accumulator) summary(lastN int) Summary {
	last := a.messages
	if len(last) > lastN {
		last = last[len(last)-lastN:]
	}
	return Summary{
		FilesCreated:  a.filesCreated.items(),
		FilesModified: a.filesModified.items(),
		FilesRead:     a.filesRead.items(),
		FilesDeleted:  a.filesDeleted.items(),
		BashCommands:  a.bashCommands,
		ToolsUsed:     a.toolsUsed.items(),
		ToolCallCount: a.toolCallCount,
		Errors:        a.errors,
		LastMessages:  append([]string(nil), last...),
		FinalMessage:  a.finalMessage,
	}
}

// Delta implements getDelta(events, since): a new-events-only projection
// of the summary fields, plus the cursor for the next call. since zero
// value is treated as the epoch, per §4.5.
type Delta struct {
	Summary Summary
	Cursor  time.Time
}

// GetDelta partitions events by ts > since (strict), folds only the new
// partition into a Summary, and returns the max timestamp across *all*
// events (not just the new partition) as the next cursor.
func GetDelta(events []canonical.Event, since time.Time) Delta {
	var cursor time.Time
	var fresh []canonical.Event
	for _, ev := range events {
		if ev.Timestamp.After(cursor) {
			cursor = ev.Timestamp
		}
		if ev.Timestamp.After(since) {
			fresh = append(fresh, ev)
		}
	}
	return Delta{Summary: Fold(fresh), Cursor: cursor}
}

// TruncateBashCommand implements the API-boundary cosmetic truncation of
// §4.5: 120 chars, with a heredoc redirect shown as its opening line only
// (e.g. `cat <<EOF > /tmp/x`, quotes removed) instead of its body.
func TruncateBashCommand(command string) string {
	if _, ok := heredocTarget(command); ok {
		head, _, _ := strings.Cut(command, "\n")
		head = strings.NewReplacer("'", "", `"`, "").Replace(head)
		return stringutil.TruncateStringWithEllipsis(head, bashTruncateLen)
	}
	return stringutil.TruncateStringWithEllipsis(command, bashTruncateLen)
}

// heredocTarget recognizes `cmd <<TAG ... > path` / `>> path` shapes and
// returns the redirect target instead of the (potentially huge) body.
func heredocTarget(command string) (string, bool) {
	if !strings.Contains(command, "<<") {
		return "", false
	}
	idx := strings.LastIndex(command, ">>")
	op := 2
	if idx < 0 {
		idx = strings.LastIndex(command, ">")
		op = 1
		if idx < 0 {
			return "", false
		}
	}
	target := strings.TrimSpace(command[idx+op:])
	if target == "" {
		return "", false
	}
	fields := strings.Fields(target)
	return fields[0], true
}

// FilterByPriority implements the raw-event inclusion rule of §4.5: a
// default request never includes verbose events (thinking, incomplete
// message deltas, unknown records); includeVerbose opts back in.
func FilterByPriority(events []canonical.Event, includeVerbose bool) []canonical.Event {
	if includeVerbose {
		return events
	}
	out := make([]canonical.Event, 0, len(events))
	for _, ev := range events {
		if canonical.ClassifyPriority(ev) == canonical.PriorityVerbose {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// orderedSet tracks first-seen insertion order, de-duplicating repeats —
// used for the files_*/tools_used fields, which the spec defines as
// "ordered sets."
type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() orderedSet {
	return orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

func (s *orderedSet) items() []string {
	return append([]string(nil), s.order...)
}
