package toolapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/process"
	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/kdlbs/agentsup/internal/store"
)

type fakeManager struct {
	spawnErr       error
	spawned        store.Agent
	agents         map[string]store.Agent
	byTask         map[string][]store.Agent
	byParent       map[string][]store.Agent
	tasks          []string
	stopOutcome    process.StopOutcome
	stopByTaskIDs  []string
	alreadyStopped []string
}

func (f *fakeManager) Spawn(ctx context.Context, req process.SpawnRequest) (store.Agent, error) {
	if f.spawnErr != nil {
		return store.Agent{}, f.spawnErr
	}
	return f.spawned, nil
}

func (f *fakeManager) Get(agentID string) (store.Agent, bool) {
	a, ok := f.agents[agentID]
	return a, ok
}

func (f *fakeManager) ListByTask(taskName string) []store.Agent { return f.byTask[taskName] }

func (f *fakeManager) ListByParentSession(parentSessionID string) []store.Agent {
	return f.byParent[parentSessionID]
}

func (f *fakeManager) Tasks() []string { return f.tasks }

func (f *fakeManager) Stop(ctx context.Context, agentID string) process.StopOutcome {
	return f.stopOutcome
}

func (f *fakeManager) StopByTask(ctx context.Context, taskName string) ([]string, []string) {
	return f.stopByTaskIDs, f.alreadyStopped
}

type fakeEventStore struct {
	events map[string][]canonical.Event
}

func (f *fakeEventStore) ReadAll(agentID string) ([]canonical.Event, error) {
	return f.events[agentID], nil
}

func TestSpawnRequiresFields(t *testing.T) {
	svc := &Service{manager: &fakeManager{}, store: &fakeEventStore{}}
	_, err := svc.Spawn(context.Background(), SpawnInput{})
	require.Error(t, err)
}

func TestSpawnSuccess(t *testing.T) {
	now := time.Now().UTC()
	fm := &fakeManager{spawned: store.Agent{
		AgentID: "a1", TaskName: "t1", Kind: registry.KindClaude,
		Status: store.StatusRunning, StartedAt: now,
	}}
	svc := &Service{manager: fm, store: &fakeEventStore{}}

	out, err := svc.Spawn(context.Background(), SpawnInput{
		TaskName: "t1", AgentType: registry.KindClaude, Prompt: "do work",
	})
	require.NoError(t, err)
	require.Equal(t, "a1", out.AgentID)
	require.Equal(t, store.StatusRunning, out.Status)
}

func TestStatusRequiresTaskNameOrParentSession(t *testing.T) {
	svc := &Service{manager: &fakeManager{}, store: &fakeEventStore{}}
	_, err := svc.Status(context.Background(), StatusInput{})
	require.Error(t, err)
}

func TestStatusFiltersButSummaryCountsAll(t *testing.T) {
	agents := []store.Agent{
		{AgentID: "a1", TaskName: "t1", Kind: registry.KindClaude, Status: store.StatusRunning, StartedAt: time.Now()},
		{AgentID: "a2", TaskName: "t1", Kind: registry.KindCodex, Status: store.StatusCompleted, StartedAt: time.Now()},
	}
	fm := &fakeManager{byTask: map[string][]store.Agent{"t1": agents}}
	fes := &fakeEventStore{events: map[string][]canonical.Event{
		"a1": {{Type: canonical.TypeFileRead, Path: "x.go", Timestamp: time.Now()}},
		"a2": {{Type: canonical.TypeFileRead, Path: "y.go", Timestamp: time.Now()}},
	}}
	svc := &Service{manager: fm, store: fes}

	out, err := svc.Status(context.Background(), StatusInput{TaskName: "t1", Filter: "running"})
	require.NoError(t, err)
	require.Len(t, out.Agents, 1)
	require.Equal(t, "a1", out.Agents[0].AgentID)
	require.Equal(t, 1, out.Summary.Running)
	require.Equal(t, 1, out.Summary.Completed)
}

func TestStopRejectsMismatchedTask(t *testing.T) {
	fm := &fakeManager{agents: map[string]store.Agent{
		"a1": {AgentID: "a1", TaskName: "other-task"},
	}}
	svc := &Service{manager: fm, store: &fakeEventStore{}}

	_, err := svc.Stop(context.Background(), StopInput{TaskName: "t1", AgentID: "a1"})
	require.Error(t, err)
}

func TestStopByTaskWithoutAgentID(t *testing.T) {
	fm := &fakeManager{stopByTaskIDs: []string{"a1", "a2"}}
	svc := &Service{manager: fm, store: &fakeEventStore{}}

	out, err := svc.Stop(context.Background(), StopInput{TaskName: "t1"})
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a2"}, out.Stopped)
}

func TestTasksSortsByModifiedDescAndTruncates(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	fm := &fakeManager{
		tasks: []string{"t1", "t2", "t3"},
		byTask: map[string][]store.Agent{
			"t1": {{TaskName: "t1", Status: store.StatusCompleted, StartedAt: older, CompletedAt: &older}},
			"t2": {{TaskName: "t2", Status: store.StatusRunning, StartedAt: newer}},
			"t3": {{TaskName: "t3", Status: store.StatusCompleted, StartedAt: older, CompletedAt: &older}},
		},
	}
	svc := &Service{manager: fm, store: &fakeEventStore{}}

	out, err := svc.Tasks(TasksInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Tasks, 2)
	require.Equal(t, "t2", out.Tasks[0].TaskName)
}
