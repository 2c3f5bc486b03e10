// Package canonical defines the normalized event schema that every vendor
// normalizer (internal/normalize) produces into, and that the Event Store,
// Summarizer, and Tool API all consume uniformly regardless of which
// AgentKind emitted the original record.
package canonical

import "time"

// Type enumerates the canonical event kinds of the data model.
type Type string

const (
	TypeInit       Type = "init"
	TypeTurnStart  Type = "turn_start"
	TypeMessage    Type = "message"
	TypeThinking   Type = "thinking"
	TypeToolUse    Type = "tool_use"
	TypeBash       Type = "bash"
	TypeFileRead   Type = "file_read"
	TypeFileWrite  Type = "file_write"
	TypeFileCreate Type = "file_create"
	TypeFileDelete Type = "file_delete"
	TypeToolResult Type = "tool_result"
	TypeError      Type = "error"
	TypeResult     Type = "result"
	TypeUnknown    Type = "unknown"
)

// ResultStatus enumerates the terminal outcomes a result event can report.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// Usage carries vendor-reported token accounting, when available.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// Event is the single canonical record every normalizer produces. Fields
// not applicable to a given Type are left zero-valued; json tags use
// omitempty throughout so a serialized event only carries what its Type
// actually uses, keeping events.jsonl compact.
type Event struct {
	Type      Type      `json:"type"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`

	// init
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`

	// message / thinking
	Content  string `json:"content,omitempty"`
	Complete *bool  `json:"complete,omitempty"`

	// tool_use
	Tool string         `json:"tool,omitempty"`
	Args map[string]any `json:"args,omitempty"`

	// bash / file_*
	Command string `json:"command,omitempty"`
	Path    string `json:"path,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Success   *bool  `json:"success,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// result
	Status     ResultStatus `json:"status,omitempty"`
	DurationMs *int64       `json:"duration_ms,omitempty"`
	Usage      *Usage       `json:"usage,omitempty"`

	// unknown
	Raw map[string]any `json:"raw,omitempty"`
}

// BoolPtr is a small convenience constructor normalizers use constantly
// when filling the Complete/Success pointer fields above.
func BoolPtr(b bool) *bool { return &b }

// Priority classifies an event for the raw-event filter of §4.5: default
// responses never include Verbose.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityVerbose   Priority = "verbose"
)

var criticalTypes = map[Type]bool{
	TypeInit: true, TypeResult: true, TypeError: true,
	TypeFileWrite: true, TypeFileCreate: true, TypeFileDelete: true,
}

var importantTypes = map[Type]bool{
	TypeToolUse: true, TypeBash: true, TypeFileRead: true,
}

// ClassifyPriority implements the §4.5 priority table. A complete message
// is important; an incomplete message, any thinking event, and unknown
// events are verbose.
func ClassifyPriority(e Event) Priority {
	if criticalTypes[e.Type] {
		return PriorityCritical
	}
	if e.Type == TypeMessage {
		if e.Complete != nil && *e.Complete {
			return PriorityImportant
		}
		return PriorityVerbose
	}
	if importantTypes[e.Type] {
		return PriorityImportant
	}
	return PriorityVerbose
}
