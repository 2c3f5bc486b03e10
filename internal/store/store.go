// Package store implements the Event Store: append-only per-agent event
// logs plus a per-agent meta.json record, all under a single root
// directory, per §4.1.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kdlbs/agentsup/internal/agenterr"
	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/registry"
	"go.uber.org/zap"
)

const (
	metaFileName   = "meta.json"
	eventsFileName = "events.jsonl"
	dirPerm        = 0o755
	filePerm       = 0o644
)

// Store is the filesystem-backed Event Store. Writes to events.jsonl are
// single-producer per agent (the Tailer); Store only guards meta.json
// rewrites and directory creation, which can race across goroutines.
type Store struct {
	root   string
	logger *logger.Logger
	mu     sync.Mutex
}

// New creates a Store rooted at root, creating the directory if absent.
func New(root string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("store: create root %s: %w", root, err)
	}
	return &Store{root: root, logger: log.WithFields(zap.String("component", "store"))}, nil
}

// Root returns the resolved store root.
func (s *Store) Root() string { return s.root }

func (s *Store) agentDir(agentID string) string {
	return filepath.Join(s.root, agentID)
}

// Create persists a new agent's meta.json and returns the event log path.
// It fails with agenterr.ErrAlreadyExists if the agent directory already
// exists.
func (s *Store) Create(agent Agent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.agentDir(agent.AgentID)
	if _, err := os.Stat(dir); err == nil {
		return "", agenterr.Preconditionf("%w: agent %s", agenterr.ErrAlreadyExists, agent.AgentID)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("store: create agent dir: %w", err)
	}

	eventLogPath := filepath.Join(dir, eventsFileName)
	if f, err := os.OpenFile(eventLogPath, os.O_CREATE|os.O_WRONLY, filePerm); err != nil {
		return "", fmt.Errorf("store: create event log: %w", err)
	} else {
		_ = f.Close()
	}

	agent.EventLogPath = eventLogPath
	if err := s.writeMetaLocked(agent); err != nil {
		return "", err
	}
	return eventLogPath, nil
}

// WriteMeta atomically rewrites meta.json for agent. Called on every
// terminal transition and on spawn.
func (s *Store) WriteMeta(agent Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeMetaLocked(agent)
}

func (s *Store) writeMetaLocked(agent Agent) error {
	dir := s.agentDir(agent.AgentID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("store: ensure agent dir: %w", err)
	}

	payload, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal meta: %w", err)
	}

	metaPath := filepath.Join(dir, metaFileName)
	tmp, err := os.CreateTemp(dir, metaFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp meta: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: write temp meta: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: sync temp meta: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: close temp meta: %w", err)
	}
	if err := os.Rename(tmpPath, metaPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename meta into place: %w", err)
	}
	return nil
}

// Append validates event against the canonical schema and appends it to
// agentID's event log. A schema-invalid event is never written; an error
// event describing the rejection is appended in its place instead. On
// disk error, Append returns it to the caller, per §4.1's "never blocks
// indefinitely" contract — there is no retry loop here. The Tailer logs
// such an error and keeps tailing; it does not change the agent's status.
func (s *Store) Append(agentID string, event canonical.Event) error {
	if err := canonical.Validate(event); err != nil && event.Type != canonical.TypeUnknown {
		event = canonical.Event{
			Type:      canonical.TypeError,
			Agent:     event.Agent,
			Timestamp: event.Timestamp,
			Message:   fmt.Sprintf("rejected invalid %s event: %s", event.Type, canonical.ValidationSummary(err)),
		}
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	line = append(line, '\n')

	path := filepath.Join(s.agentDir(agentID), eventsFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("%w: open event log: %v", agenterr.ErrTransientIO, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("%w: append event log: %v", agenterr.ErrTransientIO, err)
	}
	return nil
}

// ReadAll reads every event in agentID's log, tolerating a malformed
// trailing line (a partial write from a crashed Tailer).
func (s *Store) ReadAll(agentID string) ([]canonical.Event, error) {
	return s.readFiltered(agentID, time.Time{}, false)
}

// ReadSince returns only events with ts strictly after since.
func (s *Store) ReadSince(agentID string, since time.Time) ([]canonical.Event, error) {
	return s.readFiltered(agentID, since, true)
}

func (s *Store) readFiltered(agentID string, since time.Time, strict bool) ([]canonical.Event, error) {
	path := filepath.Join(s.agentDir(agentID), eventsFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, agenterr.Preconditionf("%w: agent %s", agenterr.ErrNotFound, agentID)
		}
		return nil, fmt.Errorf("store: open event log: %w", err)
	}
	defer f.Close()

	var events []canonical.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev canonical.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			// Tolerate a malformed (typically partial, trailing) line.
			continue
		}
		if strict && !ev.Timestamp.After(since) {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// LoadAll reads every meta.json under the store root. Agents recorded as
// running are reclassified as failed unless their pid is still alive and
// running the expected program for their kind — reg resolves that
// expected program name.
func (s *Store) LoadAll(reg *registry.Registry) ([]Agent, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read root: %w", err)
	}

	var agents []Agent
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(s.root, entry.Name(), metaFileName)
		raw, err := os.ReadFile(metaPath)
		if err != nil {
			s.logger.Warn("skipping agent dir with unreadable meta.json",
				zap.String("agent_id", entry.Name()), zap.Error(err))
			continue
		}
		var agent Agent
		if err := json.Unmarshal(raw, &agent); err != nil {
			s.logger.Warn("skipping agent dir with corrupt meta.json",
				zap.String("agent_id", entry.Name()), zap.Error(err))
			continue
		}
		agent.EventLogPath = filepath.Join(s.root, entry.Name(), eventsFileName)

		if agent.Status == StatusRunning {
			s.reclassifyIfDead(&agent, reg)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

func (s *Store) reclassifyIfDead(agent *Agent, reg *registry.Registry) {
	alive := pidAlive(agent.Pid)
	if alive && reg != nil {
		if kc, ok := reg.Lookup(agent.Kind); ok {
			if prog, ok := pidProgram(agent.Pid); ok && prog != filepath.Base(kc.Program) {
				alive = false
			}
		}
	}
	if alive {
		return
	}

	now := time.Now().UTC()
	agent.Status = StatusFailed
	agent.CompletedAt = &now
	agent.Pid = 0
	if err := s.WriteMeta(*agent); err != nil {
		s.logger.Warn("failed to persist reclassified agent", zap.String("agent_id", agent.AgentID), zap.Error(err))
	}
	errEvent := canonical.Event{
		Type:      canonical.TypeError,
		Agent:     string(agent.Kind),
		Timestamp: now,
		Message:   "agent reclassified as failed: process not found at supervisor startup",
	}
	if err := s.Append(agent.AgentID, errEvent); err != nil {
		s.logger.Warn("failed to append recovery error event", zap.String("agent_id", agent.AgentID), zap.Error(err))
	}
}
