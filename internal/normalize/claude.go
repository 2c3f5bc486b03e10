package normalize

import (
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
)

// claudePending describes a tool_use whose matching tool_result has not
// yet arrived. It is the "small descriptor" §9 calls for: enough to
// project the eventual tool_result into a specific canonical type instead
// of a generic tool_result.
type claudePending struct {
	tool    string
	command string
	path    string
}

// claudeNormalizer handles Claude Code's stream-json event shape:
// top-level {"type": "system"|"thinking"|"assistant"|"user"|"result", ...}.
type claudeNormalizer struct {
	pending map[string]claudePending
}

func newClaudeNormalizer() *claudeNormalizer {
	return &claudeNormalizer{pending: make(map[string]claudePending)}
}

func (n *claudeNormalizer) Normalize(raw map[string]any, now func() time.Time) []canonical.Event {
	ts := parseTimestamp(raw, now)
	typ := getString(raw, "type")

	switch typ {
	case "system":
		if getString(raw, "subtype") == "init" {
			return []canonical.Event{{
				Type:      canonical.TypeInit,
				Agent:     "claude",
				Timestamp: ts,
				Model:     getString(raw, "model"),
				SessionID: getString(raw, "session_id"),
			}}
		}
		return []canonical.Event{unknownEvent("claude", raw, ts)}

	case "thinking":
		text := getString(raw, "text")
		subtype := getString(raw, "subtype")
		if subtype == "delta" && text == "" {
			return nil
		}
		complete := subtype == "completed"
		return []canonical.Event{{
			Type:      canonical.TypeThinking,
			Agent:     "claude",
			Timestamp: ts,
			Content:   text,
			Complete:  canonical.BoolPtr(complete),
		}}

	case "assistant":
		return n.normalizeAssistant(raw, ts)

	case "user":
		return n.normalizeUser(raw, ts)

	case "result":
		return []canonical.Event{n.normalizeResult(raw, ts)}

	default:
		return []canonical.Event{unknownEvent("claude", raw, ts)}
	}
}

func (n *claudeNormalizer) normalizeAssistant(raw map[string]any, ts time.Time) []canonical.Event {
	message := getMap(raw, "message")
	content := getSlice(message, "content")
	var events []canonical.Event

	for _, item := range content {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		switch getString(block, "type") {
		case "text":
			events = append(events, canonical.Event{
				Type:      canonical.TypeMessage,
				Agent:     "claude",
				Timestamp: ts,
				Content:   getString(block, "text"),
				Complete:  canonical.BoolPtr(true),
			})
		case "tool_use":
			id := getString(block, "id")
			name := getString(block, "name")
			args := getMap(block, "input")
			events = append(events, canonical.Event{
				Type:      canonical.TypeToolUse,
				Agent:     "claude",
				Timestamp: ts,
				Tool:      name,
				Args:      args,
			})
			if id != "" {
				n.pending[id] = classifyClaudeTool(name, args)
			}
		}
	}
	if len(events) == 0 {
		return []canonical.Event{unknownEvent("claude", raw, ts)}
	}
	return events
}

func (n *claudeNormalizer) normalizeUser(raw map[string]any, ts time.Time) []canonical.Event {
	message := getMap(raw, "message")
	content := getSlice(message, "content")
	var events []canonical.Event

	for _, item := range content {
		block, ok := item.(map[string]any)
		if !ok || getString(block, "type") != "tool_result" {
			continue
		}
		toolUseID := getString(block, "tool_use_id")
		isError := getBool(block, "is_error")
		success := !isError

		desc, found := n.pending[toolUseID]
		if found {
			delete(n.pending, toolUseID)
		}

		switch {
		case found && desc.tool == "bash":
			events = append(events, canonical.Event{
				Type: canonical.TypeBash, Agent: "claude", Timestamp: ts,
				Tool: "Bash", Command: desc.command,
			})
			events = append(events, synthesizeFileEvents("claude", desc.command, ts)...)
		case found && desc.tool == "file_write":
			events = append(events, canonical.Event{
				Type: canonical.TypeFileWrite, Agent: "claude", Timestamp: ts,
				Tool: "Write", Path: desc.path,
			})
		case found && desc.tool == "file_read":
			events = append(events, canonical.Event{
				Type: canonical.TypeFileRead, Agent: "claude", Timestamp: ts,
				Tool: "Read", Path: desc.path,
			})
		case isError:
			events = append(events, canonical.Event{
				Type: canonical.TypeError, Agent: "claude", Timestamp: ts,
				Message: toolResultText(block),
			})
		default:
			events = append(events, canonical.Event{
				Type: canonical.TypeToolResult, Agent: "claude", Timestamp: ts,
				ToolUseID: toolUseID, Success: canonical.BoolPtr(success),
			})
		}
	}
	if len(events) == 0 {
		return []canonical.Event{unknownEvent("claude", raw, ts)}
	}
	return events
}

func (n *claudeNormalizer) normalizeResult(raw map[string]any, ts time.Time) canonical.Event {
	subtype := getString(raw, "subtype")
	status := canonical.ResultError
	if subtype == "success" {
		status = canonical.ResultSuccess
	}
	ev := canonical.Event{
		Type: canonical.TypeResult, Agent: "claude", Timestamp: ts,
		Status: status,
	}
	if ms, ok := getFloat(raw, "duration_ms"); ok {
		v := int64(ms)
		ev.DurationMs = &v
	}
	if usage := getMap(raw, "usage"); usage != nil {
		u := canonical.Usage{}
		if v, ok := getFloat(usage, "input_tokens"); ok {
			u.InputTokens = int(v)
		}
		if v, ok := getFloat(usage, "output_tokens"); ok {
			u.OutputTokens = int(v)
		}
		ev.Usage = &u
	}
	return ev
}

// classifyClaudeTool maps a Claude Code tool name to the descriptor used
// to project its eventual tool_result, mirroring the tool-name families
// the ecosystem's own stream-json normalizer dispatches on.
func classifyClaudeTool(name string, args map[string]any) claudePending {
	switch name {
	case "Bash":
		return claudePending{tool: "bash", command: getString(args, "command")}
	case "Write", "Edit", "NotebookEdit":
		return claudePending{tool: "file_write", path: getString(args, "file_path")}
	case "Read":
		return claudePending{tool: "file_read", path: getString(args, "file_path")}
	default:
		return claudePending{tool: "generic"}
	}
}

func toolResultText(block map[string]any) string {
	if s := getString(block, "content"); s != "" {
		return s
	}
	return "tool result error"
}
