package process

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/kdlbs/agentsup/internal/agenterr"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/kdlbs/agentsup/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.New(t.TempDir(), testLogger(t))
	require.NoError(t, err)
	reg, err := registry.Load()
	require.NoError(t, err)
	return New(st, reg, testLogger(t), Options{
		MaxConcurrent: 2,
		GracePeriod:   50 * time.Millisecond,
		DefaultMode:   registry.ModePlan,
		DefaultEffort: registry.EffortDefault,
		LoopFileName:  "LOOP.md",
	})
}

func TestSpawnRejectsUnknownKind(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Spawn(context.Background(), SpawnRequest{TaskName: "t1", Kind: "not-a-kind", Prompt: "hi"})
	require.Error(t, err)
	require.ErrorIs(t, err, agenterr.ErrValidation)
}

func TestSpawnRejectsInvalidMode(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Spawn(context.Background(), SpawnRequest{TaskName: "t1", Kind: registry.KindClaude, Prompt: "hi", Mode: "bogus"})
	require.Error(t, err)
	require.ErrorIs(t, err, agenterr.ErrValidation)
}

func TestSpawnRalphRequiresCwdAndLoopFile(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Spawn(context.Background(), SpawnRequest{TaskName: "t1", Kind: registry.KindClaude, Prompt: "hi", Mode: registry.ModeRalph})
	require.Error(t, err)
	require.ErrorIs(t, err, agenterr.ErrPrecondition)
}

func TestSpawnRalphInHomeDirRejected(t *testing.T) {
	m := newTestManager(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	_, spawnErr := m.Spawn(context.Background(), SpawnRequest{
		TaskName: "t1", Kind: registry.KindClaude, Prompt: "hi", Mode: registry.ModeRalph, Cwd: home,
	})
	require.Error(t, spawnErr)
}

func TestSpawnFailsChildStartGracefully(t *testing.T) {
	m := newTestManager(t)
	// The vendor binaries are never present in a test environment, so this
	// exercises the failSpawn path: an agent record is created, then
	// immediately marked failed with an error event, and the pool slot is
	// released rather than leaked.
	_, err := m.Spawn(context.Background(), SpawnRequest{TaskName: "t1", Kind: registry.KindClaude, Prompt: "hi"})
	require.Error(t, err)
	require.True(t, errors.Is(err, agenterr.ErrChildFailure))

	agents := m.ListByTask("t1")
	require.Len(t, agents, 1)
	require.Equal(t, store.StatusFailed, agents[0].Status)
}

func TestPoolExhaustion(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 2; i++ {
		require.True(t, m.pool.tryAdmit())
	}
	require.False(t, m.pool.tryAdmit())
}

func TestStopUnknownAgentReturnsNotFound(t *testing.T) {
	m := newTestManager(t)
	outcome := m.Stop(context.Background(), "does-not-exist")
	require.Equal(t, OutcomeNotFound, outcome)
}
