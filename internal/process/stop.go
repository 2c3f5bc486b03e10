package process

import (
	"context"

	"go.uber.org/zap"

	"github.com/kdlbs/agentsup/internal/store"
)

// StopOutcome reports which bucket a single stop() application fell into,
// for the Tool API's Stop response partition.
type StopOutcome string

const (
	OutcomeStopped        StopOutcome = "stopped"
	OutcomeAlreadyStopped StopOutcome = "already_stopped"
	OutcomeNotFound       StopOutcome = "not_found"
)

// Stop implements §4.4's stop(agent_id): graceful termination, a bounded
// grace wait, then a force-kill of stragglers. ctx's deadline (the Tool
// API's implicit caller deadline) is honored — Stop returns promptly if it
// elapses mid-wait, per §5's cancellation requirement, rather than
// extending the grace window.
func (m *Manager) Stop(ctx context.Context, agentID string) StopOutcome {
	m.mu.RLock()
	agent, known := m.agents[agentID]
	ra, isRunning := m.running[agentID]
	m.mu.RUnlock()

	if !known {
		return OutcomeNotFound
	}
	if !isRunning || agent.Status != store.StatusRunning {
		return OutcomeAlreadyStopped
	}

	pid := ra.cmd.Process.Pid
	_ = terminateProcessGroup(pid)

	grace, cancel := context.WithTimeout(ctx, m.opts.GracePeriod)
	defer cancel()

	select {
	case <-ra.done:
	case <-grace.Done():
		_ = killProcessGroup(pid)
		select {
		case <-ra.done:
		case <-ctx.Done():
			// Caller's own deadline elapsed; return without blocking further.
			// transitionTerminal will still run once the wait goroutine
			// observes the kill, so state converges even though this call
			// returns now.
		}
	}

	m.transitionTerminal(agentID, store.StatusStopped)
	m.logger.Info("agent stopped", zap.String("agent_id", agentID))
	return OutcomeStopped
}

// StopByTask implements stopByTask: apply Stop to every running agent in
// the task, partitioning outcomes.
func (m *Manager) StopByTask(ctx context.Context, taskName string) (stopped, alreadyStopped []string) {
	m.mu.RLock()
	ids := append([]string(nil), m.byTask[taskName]...)
	m.mu.RUnlock()

	for _, id := range ids {
		switch m.Stop(ctx, id) {
		case OutcomeStopped:
			stopped = append(stopped, id)
		case OutcomeAlreadyStopped:
			alreadyStopped = append(alreadyStopped, id)
		}
	}
	return stopped, alreadyStopped
}

// ShutdownAll implements the supervisor-shutdown sequence of §5: terminate
// every live agent, wait the grace window, force-kill stragglers, and
// persist final meta.json for each — bounded overall by the caller's
// context (cmd/agentsup passes constants.ShutdownTimeout).
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Stop(ctx, id)
	}
}

// transitionTerminal's pool release can race a concurrent StopByTask call
// iterating the same task's agent list; both converge on the same
// absorbing terminal state because transitionTerminal checks
// agent.Status == running before mutating, making the second caller's
// write a no-op.
