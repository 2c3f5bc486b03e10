package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// opencodeNormalizer handles opencode's SST-style step/part event shape:
// {"type": "step_start"|"step-start"|"step_finish"|"part"|"tool_use",
// "part": {"type": ...}, ...}. A step_finish is a success result only when
// its reason (part.reason, else top-level reason) is "stop".
// Tool lifecycle is carried entirely inside a "part" of type "tool", whose
// own "state.status" field (pending/running/completed/error) tracks
// progress — so, like cursor, there is no separate tool_use/tool_result
// record pair to reconcile, only a status to gate on.
type opencodeNormalizer struct{}

func newOpencodeNormalizer() *opencodeNormalizer { return &opencodeNormalizer{} }

func (n *opencodeNormalizer) Normalize(raw map[string]any, now func() time.Time) []canonical.Event {
	ts := parseTimestamp(raw, now)
	typ := getString(raw, "type")

	switch typ {
	case "step_start", "step-start":
		sessionID := getString(getMap(raw, "part"), "sessionID")
		if sessionID == "" {
			sessionID = getString(raw, "session_id")
		}
		return []canonical.Event{{
			Type: canonical.TypeInit, Agent: "opencode", Timestamp: ts,
			Model: getString(raw, "model"), SessionID: sessionID,
		}}

	case "part", "tool_use":
		return n.normalizePart(getMap(raw, "part"), ts)

	case "step_finish":
		reason := getString(getMap(raw, "part"), "reason")
		if reason == "" {
			reason = getString(raw, "reason")
		}
		status := canonical.ResultError
		if reason == "stop" {
			status = canonical.ResultSuccess
		}
		ev := canonical.Event{Type: canonical.TypeResult, Agent: "opencode", Timestamp: ts, Status: status}
		ev.Usage = parseUsage(getMap(raw, "usage"))
		return []canonical.Event{ev}

	default:
		return []canonical.Event{unknownEvent("opencode", raw, ts)}
	}
}

func (n *opencodeNormalizer) normalizePart(part map[string]any, ts time.Time) []canonical.Event {
	if part == nil {
		return nil
	}
	switch getString(part, "type") {
	case "text":
		text := getString(part, "text")
		complete := getBool(part, "complete")
		if !complete && text == "" {
			return nil
		}
		return []canonical.Event{{
			Type: canonical.TypeMessage, Agent: "opencode", Timestamp: ts,
			Content: text, Complete: canonical.BoolPtr(complete),
		}}

	case "reasoning":
		text := getString(part, "text")
		if text == "" {
			return nil
		}
		return []canonical.Event{{
			Type: canonical.TypeThinking, Agent: "opencode", Timestamp: ts,
			Content: text, Complete: canonical.BoolPtr(getBool(part, "complete")),
		}}

	case "tool":
		return n.normalizeToolPart(part, ts)

	default:
		return []canonical.Event{unknownEvent("opencode", part, ts)}
	}
}

func (n *opencodeNormalizer) normalizeToolPart(part map[string]any, ts time.Time) []canonical.Event {
	state := getMap(part, "state")
	if getString(state, "status") != "completed" && getString(state, "status") != "error" {
		return nil
	}
	name := getString(part, "tool")
	args := getMap(state, "input")
	desc := classifyOpencodeTool(name, args)

	var events []canonical.Event
	switch desc.tool {
	case "bash":
		events = append(events, canonical.Event{
			Type: canonical.TypeBash, Agent: "opencode", Timestamp: ts,
			Tool: name, Command: desc.command,
		})
		events = append(events, synthesizeFileEvents("opencode", desc.command, ts)...)
	case "file_write":
		events = append(events, canonical.Event{
			Type: canonical.TypeFileWrite, Agent: "opencode", Timestamp: ts,
			Tool: name, Path: desc.path,
		})
	case "file_read":
		events = append(events, canonical.Event{
			Type: canonical.TypeFileRead, Agent: "opencode", Timestamp: ts,
			Tool: name, Path: desc.path,
		})
	default:
		events = append(events, canonical.Event{
			Type: canonical.TypeToolUse, Agent: "opencode", Timestamp: ts,
			Tool: name, Args: args,
		})
	}

	if getString(state, "status") == "error" {
		events = append(events, canonical.Event{
			Type: canonical.TypeError, Agent: "opencode", Timestamp: ts,
			Message: getString(state, "error"),
		})
	}
	return events
}

var opencodeWriteNames = map[string]bool{"write": true, "edit": true, "patch": true}
var opencodeReadNames = map[string]bool{"read": true}
var opencodeShellNames = map[string]bool{"bash": true, "shell": true}

func classifyOpencodeTool(name string, args map[string]any) claudePending {
	switch {
	case opencodeWriteNames[name]:
		return claudePending{tool: "file_write", path: getString(args, "filePath")}
	case opencodeReadNames[name]:
		return claudePending{tool: "file_read", path: getString(args, "filePath")}
	case opencodeShellNames[name]:
		return claudePending{tool: "bash", command: getString(args, "command")}
	default:
		return claudePending{tool: "generic"}
	}
}
