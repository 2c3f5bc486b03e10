// Package tailer implements the Line Tailer of §4.3: per-agent consumption
// of a child's stdout, JSON-line parsing, normalizer dispatch, and
// append-only persistence of the resulting canonical events.
package tailer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/common/constants"
	"github.com/kdlbs/agentsup/internal/common/logger"
	"github.com/kdlbs/agentsup/internal/normalize"
	"github.com/kdlbs/agentsup/internal/store"
	"go.uber.org/zap"
)

// AppendFunc persists one canonical event for the agent being tailed. It
// is store.Store.Append bound to a specific agent_id; injected so this
// package never depends on how events ultimately land on disk beyond the
// Store's contract.
type AppendFunc func(event canonical.Event) error

// Result reports what a completed tail run observed, for the Process
// Manager to apply to its in-memory Agent record and meta.json — the
// Tailer itself never mutates Agent state directly, per the ownership
// note of §3: it "publishes status changes through the Manager."
type Result struct {
	SawResult    bool
	FinalStatus  store.Status
	InvalidLines int
}

// Tailer drains one agent's stdout to completion. A fresh Tailer (and a
// fresh Normalizer, via normalize.New) is required per running agent;
// neither is shared across agents.
type Tailer struct {
	agentID         string
	agentKind       string
	norm            normalize.Normalizer
	append          AppendFunc
	logger          *logger.Logger
	now             func() time.Time
	lastLineInvalid bool
}

// New constructs a Tailer for one agent. normalizerKey selects the
// Normalizer from the dispatch table (the registry's KindConfig.Normalizer
// field for the agent's kind).
func New(agentID, agentKind, normalizerKey string, appendFn AppendFunc, log *logger.Logger) (*Tailer, error) {
	norm, ok := normalize.New(normalizerKey)
	if !ok {
		return nil, fmt.Errorf("tailer: no normalizer registered for %q", normalizerKey)
	}
	return &Tailer{
		agentID:   agentID,
		agentKind: agentKind,
		norm:      norm,
		append:    appendFn,
		logger:    log.WithFields(zap.String("component", "tailer"), zap.String("agent_id", agentID)),
		now:       time.Now,
	}, nil
}

// Run consumes stdout line-by-line until EOF, then waits on exitCode (sent
// once the Process Manager's cmd.Wait() returns) to decide the synthetic
// result it emits if the child never produced one of its own.
func (t *Tailer) Run(stdout io.Reader, exitCode <-chan int) Result {
	reader := bufio.NewReaderSize(stdout, 64*1024)
	sawResult := false
	invalidLines := 0
	invalidSinceReport := 0

	for {
		line, err := readLine(reader, constants.MaxLineBytes)
		if len(line) > 0 {
			if len(line) >= constants.MaxLineBytes {
				t.appendSafe(canonical.Event{
					Type: canonical.TypeError, Agent: t.agentKind, Timestamp: t.now().UTC(),
					Message: "stdout line exceeded maximum length and was truncated",
				})
			}
			if t.processLine(line) {
				sawResult = true
			} else if t.lastLineInvalid {
				invalidLines++
				invalidSinceReport++
				if invalidSinceReport >= constants.InvalidLineReportEvery {
					t.appendSafe(canonical.Event{
						Type: canonical.TypeError, Agent: t.agentKind, Timestamp: t.now().UTC(),
						Message: fmt.Sprintf("dropped %d invalid JSON lines", invalidSinceReport),
					})
					invalidSinceReport = 0
				}
			}
		}
		if err != nil {
			break
		}
	}

	code := <-exitCode
	finalStatus := store.StatusCompleted
	if code != 0 {
		finalStatus = store.StatusFailed
	}
	if !sawResult {
		status := canonical.ResultSuccess
		if code != 0 {
			status = canonical.ResultError
		}
		t.appendSafe(canonical.Event{
			Type: canonical.TypeResult, Agent: t.agentKind, Timestamp: t.now().UTC(),
			Status: status,
		})
	}

	return Result{SawResult: sawResult, FinalStatus: finalStatus, InvalidLines: invalidLines}
}

// processLine sets t.lastLineInvalid so Run can distinguish "valid JSON,
// zero events" (e.g. a suppressed empty thinking delta) from "invalid
// JSON." Safe as plain state: Run is the sole caller, single-goroutine.
func (t *Tailer) processLine(line []byte) (sawResult bool) {
	t.lastLineInvalid = false
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		t.lastLineInvalid = true
		return false
	}

	events := t.norm.Normalize(raw, t.now)
	for _, ev := range events {
		if ev.Type == canonical.TypeResult {
			sawResult = true
		}
		t.appendSafe(ev)
	}
	return sawResult
}

func (t *Tailer) appendSafe(ev canonical.Event) {
	if err := t.append(ev); err != nil {
		t.logger.Warn("failed to append event", zap.String("event_type", string(ev.Type)), zap.Error(err))
	}
}

// readLine reads a single newline-delimited record, enforcing maxLen by
// truncating (but still consuming) pathologically long lines rather than
// letting bufio.Reader fail outright.
func readLine(r *bufio.Reader, maxLen int) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if len(line) < maxLen {
			room := maxLen - len(line)
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			line = append(line, chunk...)
		}
		if err != nil {
			return line, err
		}
		if !isPrefix {
			return line, nil
		}
	}
}
