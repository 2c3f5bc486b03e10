package process

import "github.com/kdlbs/agentsup/internal/store"

// Get returns a snapshot of one agent's record.
func (m *Manager) Get(agentID string) (store.Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[agentID]
	if !ok {
		return store.Agent{}, false
	}
	return a.Clone(), true
}

// ListByTask returns every agent sharing taskName, per §4.4's listByTask.
func (m *Manager) ListByTask(taskName string) []store.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(m.byTask[taskName])
}

// ListByParentSession returns every agent with the given parent_session_id.
func (m *Manager) ListByParentSession(parentSessionID string) []store.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(m.byParent[parentSessionID])
}

// ListAll returns every agent the Manager knows about.
func (m *Manager) ListAll() []store.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a.Clone())
	}
	return out
}

// Tasks returns the distinct task names currently tracked, in no
// particular order; the Tool API's Tasks operation sorts and truncates.
func (m *Manager) Tasks() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byTask))
	for task := range m.byTask {
		out = append(out, task)
	}
	return out
}

func (m *Manager) snapshotLocked(ids []string) []store.Agent {
	out := make([]store.Agent, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.agents[id]; ok {
			out = append(out, a.Clone())
		}
	}
	return out
}
