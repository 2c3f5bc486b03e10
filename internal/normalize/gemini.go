package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// geminiNormalizer handles Gemini CLI's streamed event shape:
// {"type": "init"|"message"|"tool_call"|"tool_result"|"stats", ...} with
// message deltas carrying an explicit "delta" boolean.
type geminiNormalizer struct {
	pending map[string]claudePending
}

func newGeminiNormalizer() *geminiNormalizer {
	return &geminiNormalizer{pending: make(map[string]claudePending)}
}

func (n *geminiNormalizer) Normalize(raw map[string]any, now func() time.Time) []canonical.Event {
	ts := parseTimestamp(raw, now)
	typ := getString(raw, "type")

	switch typ {
	case "init":
		return []canonical.Event{{
			Type: canonical.TypeInit, Agent: "gemini", Timestamp: ts,
			Model: getString(raw, "model"), SessionID: getString(raw, "session_id"),
		}}

	case "message":
		content := getString(raw, "content")
		delta := getBool(raw, "delta")
		if delta && content == "" {
			return nil
		}
		return []canonical.Event{{
			Type: canonical.TypeMessage, Agent: "gemini", Timestamp: ts,
			Content: content, Complete: canonical.BoolPtr(!delta),
		}}

	case "tool_call":
		return n.normalizeToolCall(raw, ts)

	case "tool_result":
		return n.normalizeToolResult(raw, ts)

	case "stats":
		ev := canonical.Event{Type: canonical.TypeResult, Agent: "gemini", Timestamp: ts, Status: canonical.ResultSuccess}
		ev.Usage = parseUsage(getMap(raw, "usage"))
		return []canonical.Event{ev}

	default:
		return []canonical.Event{unknownEvent("gemini", raw, ts)}
	}
}

func (n *geminiNormalizer) normalizeToolCall(raw map[string]any, ts time.Time) []canonical.Event {
	id := getString(raw, "call_id")
	name := getString(raw, "name")
	args := getMap(raw, "args")

	desc := classifyGeminiTool(name, args)
	if id != "" {
		n.pending[id] = desc
	}

	switch desc.tool {
	case "bash":
		events := []canonical.Event{{
			Type: canonical.TypeBash, Agent: "gemini", Timestamp: ts,
			Tool: name, Command: desc.command,
		}}
		return append(events, synthesizeFileEvents("gemini", desc.command, ts)...)
	default:
		return []canonical.Event{{
			Type: canonical.TypeToolUse, Agent: "gemini", Timestamp: ts,
			Tool: name, Args: args,
		}}
	}
}

func (n *geminiNormalizer) normalizeToolResult(raw map[string]any, ts time.Time) []canonical.Event {
	id := getString(raw, "call_id")
	success := !getBool(raw, "error")

	desc, found := n.pending[id]
	if found {
		delete(n.pending, id)
	}

	switch {
	case found && desc.tool == "file_write":
		return []canonical.Event{{
			Type: canonical.TypeFileWrite, Agent: "gemini", Timestamp: ts,
			Tool: "write_file", Path: desc.path,
		}}
	case found && desc.tool == "file_read":
		return []canonical.Event{{
			Type: canonical.TypeFileRead, Agent: "gemini", Timestamp: ts,
			Tool: "read_file", Path: desc.path,
		}}
	case !success:
		return []canonical.Event{{
			Type: canonical.TypeError, Agent: "gemini", Timestamp: ts,
			Message: getString(raw, "output"),
		}}
	default:
		return []canonical.Event{{
			Type: canonical.TypeToolResult, Agent: "gemini", Timestamp: ts,
			ToolUseID: id, Success: canonical.BoolPtr(success),
		}}
	}
}

var geminiWriteNames = map[string]bool{"write_file": true, "replace": true, "edit": true}
var geminiReadNames = map[string]bool{"read_file": true}
var geminiShellNames = map[string]bool{"run_shell_command": true, "shell": true}

func classifyGeminiTool(name string, args map[string]any) claudePending {
	switch {
	case geminiWriteNames[name]:
		return claudePending{tool: "file_write", path: getString(args, "file_path")}
	case geminiReadNames[name]:
		return claudePending{tool: "file_read", path: getString(args, "file_path")}
	case geminiShellNames[name]:
		return claudePending{tool: "bash", command: getString(args, "command")}
	default:
		return claudePending{tool: "generic"}
	}
}
