package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// cursorNormalizer handles the cursor-agent CLI's event shape: a single
// "tool_call" record type carrying its own lifecycle via "subtype"
// ("started"/"completed") rather than separate tool_use/tool_result
// records, plus "text" and "result" records.
type cursorNormalizer struct{}

func newCursorNormalizer() *cursorNormalizer { return &cursorNormalizer{} }

func (n *cursorNormalizer) Normalize(raw map[string]any, now func() time.Time) []canonical.Event {
	ts := parseTimestamp(raw, now)
	typ := getString(raw, "type")

	switch typ {
	case "init":
		return []canonical.Event{{
			Type: canonical.TypeInit, Agent: "cursor", Timestamp: ts,
			Model: getString(raw, "model"), SessionID: getString(raw, "session_id"),
		}}

	case "text":
		content := getString(raw, "text")
		complete := getBool(raw, "complete")
		if !complete && content == "" {
			return nil
		}
		return []canonical.Event{{
			Type: canonical.TypeMessage, Agent: "cursor", Timestamp: ts,
			Content: content, Complete: canonical.BoolPtr(complete),
		}}

	case "tool_call":
		return n.normalizeToolCall(raw, ts)

	case "result":
		status := canonical.ResultError
		if getString(raw, "status") == "success" || getString(raw, "status") == "completed" {
			status = canonical.ResultSuccess
		}
		ev := canonical.Event{Type: canonical.TypeResult, Agent: "cursor", Timestamp: ts, Status: status}
		ev.Usage = parseUsage(getMap(raw, "usage"))
		return []canonical.Event{ev}

	default:
		return []canonical.Event{unknownEvent("cursor", raw, ts)}
	}
}

// normalizeToolCall handles the defining quirk of cursor-agent's shape:
// started and completed are two records of the same type, disambiguated
// only by subtype, and the completed record carries both inputs and
// outputs — so unlike claude/gemini there is no pairing table, the whole
// projection happens inline once subtype=="completed" arrives.
func (n *cursorNormalizer) normalizeToolCall(raw map[string]any, ts time.Time) []canonical.Event {
	if getString(raw, "subtype") != "completed" {
		return nil
	}
	name := getString(raw, "tool")
	args := getMap(raw, "args")
	result := getMap(raw, "result")
	success := !getBool(result, "error")

	desc := classifyCursorTool(name, args)

	var events []canonical.Event
	switch desc.tool {
	case "bash":
		events = append(events, canonical.Event{
			Type: canonical.TypeBash, Agent: "cursor", Timestamp: ts,
			Tool: name, Command: desc.command,
		})
		events = append(events, synthesizeFileEvents("cursor", desc.command, ts)...)
	case "file_write":
		events = append(events, canonical.Event{
			Type: canonical.TypeFileWrite, Agent: "cursor", Timestamp: ts,
			Tool: name, Path: desc.path,
		})
	case "file_read":
		events = append(events, canonical.Event{
			Type: canonical.TypeFileRead, Agent: "cursor", Timestamp: ts,
			Tool: name, Path: desc.path,
		})
	default:
		events = append(events, canonical.Event{
			Type: canonical.TypeToolUse, Agent: "cursor", Timestamp: ts,
			Tool: name, Args: args,
		})
	}

	if !success {
		events = append(events, canonical.Event{
			Type: canonical.TypeError, Agent: "cursor", Timestamp: ts,
			Message: getString(result, "message"),
		})
	}
	return events
}

var cursorWriteNames = map[string]bool{"write": true, "edit": true}
var cursorReadNames = map[string]bool{"read": true}
var cursorShellNames = map[string]bool{"shell": true, "run": true}

func classifyCursorTool(name string, args map[string]any) claudePending {
	switch {
	case cursorWriteNames[name]:
		return claudePending{tool: "file_write", path: getString(args, "path")}
	case cursorReadNames[name]:
		return claudePending{tool: "file_read", path: getString(args, "path")}
	case cursorShellNames[name]:
		return claudePending{tool: "bash", command: getString(args, "command")}
	default:
		return claudePending{tool: "generic"}
	}
}
