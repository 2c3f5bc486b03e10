// Package toolapi implements the four Tool API operations of §4.6 as
// transport-agnostic Go functions, then exposes them as MCP tools
// (mark3labs/mcp-go) over stdio, and optionally over a debug HTTP/SSE
// transport for interactive inspection.
package toolapi

import (
	"time"

	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/kdlbs/agentsup/internal/store"
)

// SpawnInput is Spawn's input per §4.6.
type SpawnInput struct {
	TaskName        string         `json:"task_name"`
	AgentType       registry.Kind  `json:"agent_type"`
	Prompt          string         `json:"prompt"`
	Cwd             string         `json:"cwd,omitempty"`
	Mode            registry.Mode  `json:"mode,omitempty"`
	Effort          registry.Effort `json:"effort,omitempty"`
	ParentSessionID string         `json:"parent_session_id,omitempty"`
	WorkspaceDir    string         `json:"workspace_dir,omitempty"`
}

// SpawnOutput is Spawn's success response.
type SpawnOutput struct {
	TaskName  string        `json:"task_name"`
	AgentID   string        `json:"agent_id"`
	AgentType registry.Kind `json:"agent_type"`
	Status    store.Status  `json:"status"`
	StartedAt time.Time     `json:"started_at"`
}

// StatusInput is Status's input per §4.6.
type StatusInput struct {
	TaskName        string `json:"task_name,omitempty"`
	ParentSessionID string `json:"parent_session_id,omitempty"`
	Filter          string `json:"filter,omitempty"`
	Since           string `json:"since,omitempty"`
}

// AgentStatus is one agent's entry in Status's output.
type AgentStatus struct {
	AgentID       string        `json:"agent_id"`
	AgentType     registry.Kind `json:"agent_type"`
	Status        store.Status  `json:"status"`
	Duration      string        `json:"duration"`
	FilesCreated  []string      `json:"files_created,omitempty"`
	FilesModified []string      `json:"files_modified,omitempty"`
	FilesRead     []string      `json:"files_read,omitempty"`
	FilesDeleted  []string      `json:"files_deleted,omitempty"`
	BashCommands  []string      `json:"bash_commands,omitempty"`
	Messages      []string      `json:"messages,omitempty"`
	Cursor        time.Time     `json:"cursor"`
	HasErrors     bool          `json:"has_errors"`
}

// StatusSummary is the task-wide counts in Status's output, computed over
// the full lookup set regardless of the requested filter.
type StatusSummary struct {
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Stopped   int `json:"stopped"`
}

// StatusOutput is Status's success response.
type StatusOutput struct {
	TaskName string        `json:"task_name"`
	Agents   []AgentStatus `json:"agents"`
	Summary  StatusSummary `json:"summary"`
	Cursor   time.Time     `json:"cursor"`
}

// StopInput is Stop's input per §4.6.
type StopInput struct {
	TaskName string `json:"task_name"`
	AgentID  string `json:"agent_id,omitempty"`
}

// StopOutput is Stop's success response.
type StopOutput struct {
	TaskName       string   `json:"task_name"`
	Stopped        []string `json:"stopped"`
	AlreadyStopped []string `json:"already_stopped"`
	NotFound       []string `json:"not_found"`
}

// TasksInput is Tasks' input per §4.6.
type TasksInput struct {
	Limit int `json:"limit,omitempty"`
}

// TaskSummary is one task's entry in Tasks' output.
type TaskSummary struct {
	TaskName     string    `json:"task_name"`
	AgentCount   int       `json:"agent_count"`
	Running      int       `json:"running"`
	Completed    int       `json:"completed"`
	Failed       int       `json:"failed"`
	Stopped      int       `json:"stopped"`
	WorkspaceDir string    `json:"workspace_dir,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// TasksOutput is Tasks' success response.
type TasksOutput struct {
	Tasks []TaskSummary `json:"tasks"`
}

const defaultTasksLimit = 10
