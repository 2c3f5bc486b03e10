package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// codexNormalizer handles Codex CLI's `exec --json` event shape: flat
// top-level {"type": "thread.started"|"turn.started"|"item.completed"|
// "turn.completed"|"turn.failed"|"error", ...} records.
type codexNormalizer struct{}

func newCodexNormalizer() *codexNormalizer { return &codexNormalizer{} }

func (n *codexNormalizer) Normalize(raw map[string]any, now func() time.Time) []canonical.Event {
	ts := parseTimestamp(raw, now)
	typ := getString(raw, "type")

	switch typ {
	case "thread.started":
		return []canonical.Event{{
			Type: canonical.TypeInit, Agent: "codex", Timestamp: ts,
			SessionID: getString(raw, "thread_id"),
		}}

	case "turn.started":
		return []canonical.Event{{Type: canonical.TypeTurnStart, Agent: "codex", Timestamp: ts}}

	case "item.completed":
		return n.normalizeItem(getMap(raw, "item"), ts)

	case "turn.completed":
		ev := canonical.Event{Type: canonical.TypeResult, Agent: "codex", Timestamp: ts, Status: canonical.ResultSuccess}
		ev.Usage = parseUsage(getMap(raw, "usage"))
		return []canonical.Event{ev}

	case "turn.failed":
		ev := canonical.Event{Type: canonical.TypeResult, Agent: "codex", Timestamp: ts, Status: canonical.ResultError}
		return []canonical.Event{ev}

	case "error":
		return []canonical.Event{{
			Type: canonical.TypeError, Agent: "codex", Timestamp: ts,
			Message: getString(raw, "message"),
		}}

	default:
		return []canonical.Event{unknownEvent("codex", raw, ts)}
	}
}

func (n *codexNormalizer) normalizeItem(item map[string]any, ts time.Time) []canonical.Event {
	if item == nil {
		return nil
	}
	switch getString(item, "type") {
	case "agent_message":
		return []canonical.Event{{
			Type: canonical.TypeMessage, Agent: "codex", Timestamp: ts,
			Content: getString(item, "text"), Complete: canonical.BoolPtr(true),
		}}

	case "command_execution":
		command := getString(item, "command")
		events := []canonical.Event{{
			Type: canonical.TypeBash, Agent: "codex", Timestamp: ts,
			Tool: "command_execution", Command: command,
		}}
		events = append(events, synthesizeFileEvents("codex", command, ts)...)
		return events

	case "file_change":
		var events []canonical.Event
		for _, raw := range getSlice(item, "changes") {
			change, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			events = append(events, fileChangeEvent("codex", change, ts))
		}
		return events

	case "tool_call":
		name := getString(item, "name")
		args := getMap(item, "arguments")
		return classifyCodexToolCall(name, args, ts)

	default:
		return []canonical.Event{unknownEvent("codex", item, ts)}
	}
}

func fileChangeEvent(agent string, change map[string]any, ts time.Time) canonical.Event {
	path := getString(change, "path")
	kind := getString(getMap(change, "kind"), "type")
	typ := canonical.TypeFileWrite
	switch kind {
	case "add":
		typ = canonical.TypeFileCreate
	case "delete":
		typ = canonical.TypeFileDelete
	case "modify":
		typ = canonical.TypeFileWrite
	}
	return canonical.Event{Type: typ, Agent: agent, Timestamp: ts, Tool: "file_change", Path: path}
}

var codexWriteNames = map[string]bool{"write_file": true, "apply_patch": true, "edit_file": true}
var codexReadNames = map[string]bool{"read_file": true}
var codexShellNames = map[string]bool{"exec_command": true, "shell": true, "run_command": true}

func classifyCodexToolCall(name string, args map[string]any, ts time.Time) []canonical.Event {
	switch {
	case codexWriteNames[name]:
		return []canonical.Event{{
			Type: canonical.TypeFileWrite, Agent: "codex", Timestamp: ts,
			Tool: name, Path: getString(args, "path"),
		}}
	case codexReadNames[name]:
		return []canonical.Event{{
			Type: canonical.TypeFileRead, Agent: "codex", Timestamp: ts,
			Tool: name, Path: getString(args, "path"),
		}}
	case codexShellNames[name]:
		command := getString(args, "command")
		events := []canonical.Event{{
			Type: canonical.TypeBash, Agent: "codex", Timestamp: ts,
			Tool: name, Command: command,
		}}
		events = append(events, synthesizeFileEvents("codex", command, ts)...)
		return events
	default:
		return []canonical.Event{{
			Type: canonical.TypeToolUse, Agent: "codex", Timestamp: ts,
			Tool: name, Args: args,
		}}
	}
}

func parseUsage(m map[string]any) *canonical.Usage {
	if m == nil {
		return nil
	}
	u := canonical.Usage{}
	if v, ok := getFloat(m, "input_tokens"); ok {
		u.InputTokens = int(v)
	}
	if v, ok := getFloat(m, "output_tokens"); ok {
		u.OutputTokens = int(v)
	}
	return &u
}
