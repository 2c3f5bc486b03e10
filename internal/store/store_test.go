package store

import (
	"testing"
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), testLogger(t))
	require.NoError(t, err)
	return s
}

func TestCreateAndWriteMeta(t *testing.T) {
	s := newTestStore(t)
	agent := Agent{
		AgentID:   "agent-1",
		TaskName:  "task-a",
		Kind:      registry.KindClaude,
		Mode:      registry.ModePlan,
		Effort:    registry.EffortDefault,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	path, err := s.Create(agent)
	require.NoError(t, err)
	require.Contains(t, path, "events.jsonl")

	_, err = s.Create(agent)
	require.Error(t, err)
}

func TestAppendAndReadAll(t *testing.T) {
	s := newTestStore(t)
	agent := Agent{AgentID: "agent-2", Kind: registry.KindClaude, Status: StatusRunning, StartedAt: time.Now().UTC()}
	_, err := s.Create(agent)
	require.NoError(t, err)

	ts := time.Now().UTC()
	require.NoError(t, s.Append("agent-2", canonical.Event{Type: canonical.TypeInit, Agent: "claude", Timestamp: ts, SessionID: "s1"}))
	require.NoError(t, s.Append("agent-2", canonical.Event{Type: canonical.TypeMessage, Agent: "claude", Timestamp: ts.Add(time.Second), Content: "hi", Complete: canonical.BoolPtr(true)}))

	events, err := s.ReadAll("agent-2")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, canonical.TypeInit, events[0].Type)
}

func TestReadSinceStrictInequality(t *testing.T) {
	s := newTestStore(t)
	agent := Agent{AgentID: "agent-3", Kind: registry.KindClaude, Status: StatusRunning, StartedAt: time.Now().UTC()}
	_, err := s.Create(agent)
	require.NoError(t, err)

	base := time.Now().UTC()
	require.NoError(t, s.Append("agent-3", canonical.Event{Type: canonical.TypeMessage, Agent: "claude", Timestamp: base, Content: "a", Complete: canonical.BoolPtr(true)}))
	require.NoError(t, s.Append("agent-3", canonical.Event{Type: canonical.TypeMessage, Agent: "claude", Timestamp: base.Add(time.Second), Content: "b", Complete: canonical.BoolPtr(true)}))

	since, err := s.ReadSince("agent-3", base)
	require.NoError(t, err)
	require.Len(t, since, 1)
	require.Equal(t, "b", since[0].Content)
}

func TestAppendRejectsInvalidEvent(t *testing.T) {
	s := newTestStore(t)
	agent := Agent{AgentID: "agent-4", Kind: registry.KindClaude, Status: StatusRunning, StartedAt: time.Now().UTC()}
	_, err := s.Create(agent)
	require.NoError(t, err)

	require.NoError(t, s.Append("agent-4", canonical.Event{Type: "not-a-real-type", Agent: "claude", Timestamp: time.Now().UTC()}))

	events, err := s.ReadAll("agent-4")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, canonical.TypeError, events[0].Type)
}

func TestLoadAllReclassifiesDeadRunningAgent(t *testing.T) {
	s := newTestStore(t)
	agent := Agent{
		AgentID: "agent-5", Kind: registry.KindClaude, Status: StatusRunning,
		StartedAt: time.Now().UTC(), Pid: 999999999,
	}
	_, err := s.Create(agent)
	require.NoError(t, err)
	require.NoError(t, s.WriteMeta(agent))

	reg, err := registry.Load()
	require.NoError(t, err)

	agents, err := s.LoadAll(reg)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	require.Equal(t, StatusFailed, agents[0].Status)
	require.NotNil(t, agents[0].CompletedAt)

	events, err := s.ReadAll("agent-5")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, canonical.TypeError, events[0].Type)
}
