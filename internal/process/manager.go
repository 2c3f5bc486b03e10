// Package process implements the Process Manager of §4.4: spawning and
// tracking vendor CLI child processes, enforcing the pool bound, handling
// graceful/forced termination, and recovering agent state at startup.
package process

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kdlbs/agentsup/internal/agenterr"
	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/constants"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/registry"
	"github.com/kdlbs/agentsup/internal/store"
	"github.com/kdlbs/agentsup/internal/tailer"
	"github.com/kdlbs/agentsup/internal/tracing"
)

const tracerName = "agentsup-process"

// Options configures a Manager, mirroring the AgentConfig/PoolConfig
// sections of the supervisor's configuration.
type Options struct {
	MaxConcurrent int
	GracePeriod   time.Duration
	DefaultMode   registry.Mode
	DefaultEffort registry.Effort
	LoopFileName  string
}

// SpawnRequest is the Tool API's Spawn input, already validated for
// required-field presence by the caller.
type SpawnRequest struct {
	TaskName        string
	Kind            registry.Kind
	Prompt          string
	Cwd             string
	Mode            registry.Mode
	Effort          registry.Effort
	ParentSessionID string
	WorkspaceDir    string
}

// runningAgent tracks the live, in-process half of a running Agent: the
// store record plus everything needed to terminate and reap it.
type runningAgent struct {
	agent  store.Agent
	cmd    *exec.Cmd
	stderr *stderrRing
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the in-memory agent_id -> Agent index described in §3's
// Ownership note, and is the only component that mutates Agent records.
type Manager struct {
	store    *store.Store
	registry *registry.Registry
	logger   *logger.Logger
	opts     Options
	pool     *pool

	mu       sync.RWMutex
	agents   map[string]store.Agent
	running  map[string]*runningAgent
	byTask   map[string][]string
	byParent map[string][]string
}

// New constructs a Manager. Callers must call Recover once at startup
// before serving any Tool API requests.
func New(st *store.Store, reg *registry.Registry, log *logger.Logger, opts Options) *Manager {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = constants.DefaultPoolSize
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = constants.DefaultGracePeriod
	}
	return &Manager{
		store:    st,
		registry: reg,
		logger:   log.WithFields(zap.String("component", "process-manager")),
		opts:     opts,
		pool:     newPool(opts.MaxConcurrent),
		agents:   make(map[string]store.Agent),
		running:  make(map[string]*runningAgent),
		byTask:   make(map[string][]string),
		byParent: make(map[string][]string),
	}
}

// Recover implements §4.4's Recovery: repopulate the index from the store,
// reclassifying any agent recorded as running (from a prior supervisor
// instance) whose pid is no longer alive or valid. Historical tailers are
// never resumed; those event logs are final as of their last append.
func (m *Manager) Recover() error {
	agents, err := m.store.LoadAll(m.registry)
	if err != nil {
		return fmt.Errorf("process: recover: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range agents {
		m.indexLocked(a)
	}
	m.logger.Info("recovery complete", zap.Int("agent_count", len(agents)))
	return nil
}

func (m *Manager) indexLocked(a store.Agent) {
	m.agents[a.AgentID] = a
	m.byTask[a.TaskName] = append(m.byTask[a.TaskName], a.AgentID)
	if a.ParentSessionID != "" {
		m.byParent[a.ParentSessionID] = append(m.byParent[a.ParentSessionID], a.AgentID)
	}
}

// Spawn implements the nine-step algorithm of §4.4.
func (m *Manager) Spawn(ctx context.Context, req SpawnRequest) (store.Agent, error) {
	// 1. Resolve and validate mode.
	mode := req.Mode
	if mode == "" {
		mode = m.opts.DefaultMode
	}
	if !registry.ValidMode(mode) {
		return store.Agent{}, agenterr.Validationf("%w: invalid mode %q", agenterr.ErrValidation, mode)
	}
	effort := req.Effort
	if effort == "" {
		effort = m.opts.DefaultEffort
	}
	if effort == "" {
		effort = registry.EffortDefault
	}
	if !registry.ValidEffort(effort) {
		return store.Agent{}, agenterr.Validationf("%w: invalid effort %q", agenterr.ErrValidation, effort)
	}

	kindCfg, ok := m.registry.Lookup(req.Kind)
	if !ok {
		return store.Agent{}, agenterr.Validationf("%w: unknown agent kind %q", agenterr.ErrValidation, req.Kind)
	}

	// 2. ralph-mode safety guard.
	prompt := req.Prompt
	if mode == registry.ModeRalph {
		if err := checkRalphSafety(req.Cwd, m.opts.LoopFileName); err != nil {
			return store.Agent{}, err
		}
		prompt = ralphPreamble(req.Prompt, m.opts.LoopFileName)
	}

	// 3. Build argument vector.
	args := kindCfg.BuildArgs(prompt, mode, effort)

	// 4. Enforce the pool.
	if !m.pool.tryAdmit() {
		return store.Agent{}, agenterr.Preconditionf("%w", agenterr.ErrPoolExhausted)
	}
	admitted := true
	defer func() {
		if !admitted {
			m.pool.release()
		}
	}()

	// 5. Allocate agent_id.
	agentID := uuid.New().String()

	// 6. Create the agent record.
	now := time.Now().UTC()
	agent := store.Agent{
		AgentID:         agentID,
		TaskName:        req.TaskName,
		Kind:            req.Kind,
		Prompt:          req.Prompt,
		Cwd:             req.Cwd,
		Mode:            mode,
		Effort:          effort,
		ParentSessionID: req.ParentSessionID,
		WorkspaceDir:    req.WorkspaceDir,
		Status:          store.StatusRunning,
		StartedAt:       now,
	}
	eventLogPath, err := m.store.Create(agent)
	if err != nil {
		admitted = false
		return store.Agent{}, fmt.Errorf("process: create agent record: %w", err)
	}
	agent.EventLogPath = eventLogPath

	// 7. Fork the child.
	_, startSpan := tracing.Tracer(tracerName).Start(ctx, "process.start_child", trace.WithSpanKind(trace.SpanKindInternal))
	startSpan.SetAttributes(attribute.String("agent_id", agentID), attribute.String("kind", string(req.Kind)))

	cmd := exec.Command(kindCfg.Program, args...)
	if req.Cwd != "" {
		cmd.Dir = req.Cwd
	}
	cmd.Stdin = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		startSpan.RecordError(err)
		startSpan.End()
		admitted = false
		return store.Agent{}, m.failSpawn(agent, fmt.Errorf("%w: stdout pipe: %v", agenterr.ErrChildFailure, err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		startSpan.RecordError(err)
		startSpan.End()
		admitted = false
		return store.Agent{}, m.failSpawn(agent, fmt.Errorf("%w: stderr pipe: %v", agenterr.ErrChildFailure, err))
	}
	setProcGroup(cmd)

	if err := cmd.Start(); err != nil {
		startSpan.RecordError(err)
		startSpan.End()
		admitted = false
		return store.Agent{}, m.failSpawn(agent, fmt.Errorf("%w: start: %v", agenterr.ErrChildFailure, err))
	}
	startSpan.SetAttributes(attribute.Int("pid", cmd.Process.Pid))
	startSpan.End()

	// 8. Record the pid, start stderr capture and the Tailer.
	agent.Pid = cmd.Process.Pid
	if err := m.store.WriteMeta(agent); err != nil {
		m.logger.Warn("failed to persist pid", zap.String("agent_id", agentID), zap.Error(err))
	}

	ring := newStderrRing(constants.StderrBufferLines)
	go ring.consume(stderr)

	runCtx, cancel := context.WithCancel(context.Background())
	ra := &runningAgent{agent: agent, cmd: cmd, stderr: ring, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.agents[agentID] = agent
	m.running[agentID] = ra
	m.byTask[req.TaskName] = append(m.byTask[req.TaskName], agentID)
	if req.ParentSessionID != "" {
		m.byParent[req.ParentSessionID] = append(m.byParent[req.ParentSessionID], agentID)
	}
	m.mu.Unlock()

	go m.runTailer(runCtx, ra, stdout, kindCfg.Normalizer)

	// 9. Return identity and status.
	return agent, nil
}

func (m *Manager) failSpawn(agent store.Agent, err error) error {
	now := time.Now().UTC()
	agent.Status = store.StatusFailed
	agent.CompletedAt = &now
	_ = m.store.WriteMeta(agent)
	_ = m.store.Append(agent.AgentID, canonical.Event{
		Type: canonical.TypeError, Agent: string(agent.Kind), Timestamp: now,
		Message: err.Error(),
	})
	m.mu.Lock()
	m.indexLocked(agent)
	m.mu.Unlock()
	return err
}

// runTailer drives one agent's Tailer to completion and applies the final
// status to the Manager's index, per the ownership rule that only the
// Manager mutates Agent records: the Tailer itself never writes meta.json
// or the in-memory index.
func (m *Manager) runTailer(ctx context.Context, ra *runningAgent, stdout io.ReadCloser, normalizerKey string) {
	defer close(ra.done)

	agentID := ra.agent.AgentID
	appendFn := func(ev canonical.Event) error { return m.store.Append(agentID, ev) }

	tl, err := tailer.New(agentID, string(ra.agent.Kind), normalizerKey, appendFn, m.logger)
	if err != nil {
		m.logger.Error("failed to construct tailer", zap.String("agent_id", agentID), zap.Error(err))
		m.transitionTerminal(agentID, store.StatusFailed)
		return
	}

	exitCode := make(chan int, 1)
	go func() {
		_, waitSpan := tracing.Tracer(tracerName).Start(ctx, "process.wait_child", trace.WithSpanKind(trace.SpanKindInternal))
		waitSpan.SetAttributes(attribute.String("agent_id", agentID))
		defer waitSpan.End()

		waitErr := ra.cmd.Wait()
		code := 0
		if waitErr != nil {
			if exitErr, ok := waitErr.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				code = 1
			}
			waitSpan.RecordError(waitErr)
		}
		waitSpan.SetAttributes(attribute.Int("exit_code", code))
		exitCode <- code
	}()

	result := tl.Run(stdout, exitCode)

	if result.FinalStatus == store.StatusFailed {
		if tail := ra.stderr.Tail(); len(tail) > 0 {
			_ = m.store.Append(agentID, canonical.Event{
				Type: canonical.TypeError, Agent: string(ra.agent.Kind), Timestamp: time.Now().UTC(),
				Message: fmt.Sprintf("child exited non-zero; stderr tail: %s", joinTail(tail)),
			})
		}
	}

	m.transitionTerminal(agentID, result.FinalStatus)
}

func joinTail(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += " | "
		}
		out += l
	}
	return out
}

// transitionTerminal applies a running->terminal state transition,
// persists meta.json, releases the pool slot, and removes the agent from
// the running set. Terminal states are absorbing: a second call for an
// already-terminal agent is a no-op.
func (m *Manager) transitionTerminal(agentID string, status store.Status) {
	m.mu.Lock()
	agent, ok := m.agents[agentID]
	if !ok || agent.Status != store.StatusRunning {
		m.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	agent.Status = status
	agent.CompletedAt = &now
	agent.Pid = 0
	m.agents[agentID] = agent
	delete(m.running, agentID)
	m.mu.Unlock()

	m.pool.release()
	if err := m.store.WriteMeta(agent); err != nil {
		m.logger.Warn("failed to persist terminal meta", zap.String("agent_id", agentID), zap.Error(err))
	}
}
