package store

import (
	"time"

	"github.com/kdlbs/agentsup/internal/registry"
)

// Status enumerates the agent lifecycle states. running is the only
// non-terminal state; the other three are absorbing.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Agent is the supervisor's unit of scheduling, persisted as meta.json
// (minus Pid, which is runtime-only) and held in the Process Manager's
// in-memory index.
type Agent struct {
	AgentID         string         `json:"agent_id"`
	TaskName        string         `json:"task_name"`
	Kind            registry.Kind  `json:"kind"`
	Prompt          string         `json:"prompt"`
	Cwd             string         `json:"cwd,omitempty"`
	Mode            registry.Mode  `json:"mode"`
	Effort          registry.Effort `json:"effort"`
	ParentSessionID string         `json:"parent_session_id,omitempty"`
	WorkspaceDir    string         `json:"workspace_dir,omitempty"`
	Status          Status         `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	SessionID       string         `json:"session_id,omitempty"`
	EventLogPath    string         `json:"event_log_path"`

	// Pid is runtime-only: populated for in-memory running agents, never
	// written to meta.json, and absent on anything loaded from disk.
	Pid int `json:"-"`
}

// Clone returns a deep-enough copy safe to hand to a caller outside the
// Process Manager's lock.
func (a Agent) Clone() Agent {
	clone := a
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		clone.CompletedAt = &t
	}
	return clone
}
