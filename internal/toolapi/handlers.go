package toolapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kdlbs/agentsup/internal/agenterr"
	"github.com/kdlbs/agentsup/internal/canonical"
	"github.com/kdlbs/agentsup/internal/process"
	"github.com/kdlbs/agentsup/internal/store"
	"github.com/kdlbs/agentsup/internal/summarize"
	"github.com/kdlbs/agentsup/internal/tracing"
)

const tracerName = "agentsup-toolapi"

// manager is the subset of *process.Manager the Tool API depends on,
// narrowed for testability.
type manager interface {
	Spawn(ctx context.Context, req process.SpawnRequest) (store.Agent, error)
	Get(agentID string) (store.Agent, bool)
	ListByTask(taskName string) []store.Agent
	ListByParentSession(parentSessionID string) []store.Agent
	Tasks() []string
	Stop(ctx context.Context, agentID string) process.StopOutcome
	StopByTask(ctx context.Context, taskName string) (stopped, alreadyStopped []string)
}

// eventStore is the subset of *store.Store the Tool API depends on for
// the Status operation's delta projection.
type eventStore interface {
	ReadAll(agentID string) ([]canonical.Event, error)
}

// Service implements the four Tool API operations over a Manager and the
// Event Store.
type Service struct {
	manager manager
	store   eventStore
}

// NewService constructs a Service. m and st are typically
// *process.Manager and *store.Store respectively.
func NewService(m *process.Manager, st *store.Store) *Service {
	return &Service{manager: m, store: st}
}

// Spawn implements §4.6's Spawn.
func (s *Service) Spawn(ctx context.Context, in SpawnInput) (*SpawnOutput, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "toolapi.spawn", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("task_name", in.TaskName), attribute.String("agent_type", string(in.AgentType)))

	if in.TaskName == "" {
		return nil, agenterr.Validationf("%w: task_name is required", agenterr.ErrValidation)
	}
	if in.AgentType == "" {
		return nil, agenterr.Validationf("%w: agent_type is required", agenterr.ErrValidation)
	}
	if in.Prompt == "" {
		return nil, agenterr.Validationf("%w: prompt is required", agenterr.ErrValidation)
	}

	agent, err := s.manager.Spawn(ctx, process.SpawnRequest{
		TaskName:        in.TaskName,
		Kind:            in.AgentType,
		Prompt:          in.Prompt,
		Cwd:             in.Cwd,
		Mode:            in.Mode,
		Effort:          in.Effort,
		ParentSessionID: in.ParentSessionID,
		WorkspaceDir:    in.WorkspaceDir,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("agent_id", agent.AgentID))

	return &SpawnOutput{
		TaskName:  agent.TaskName,
		AgentID:   agent.AgentID,
		AgentType: agent.Kind,
		Status:    agent.Status,
		StartedAt: agent.StartedAt,
	}, nil
}

// Status implements §4.6's Status: disjunctive lookup by task_name or
// parent_session_id, status filtering, and a per-agent delta-since-cursor
// projection.
func (s *Service) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	_, span := tracing.Tracer(tracerName).Start(ctx, "toolapi.status", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("task_name", in.TaskName), attribute.String("parent_session_id", in.ParentSessionID))

	if in.TaskName == "" && in.ParentSessionID == "" {
		err := agenterr.Validationf("%w: one of task_name or parent_session_id is required", agenterr.ErrValidation)
		span.RecordError(err)
		return nil, err
	}

	var agents []store.Agent
	if in.ParentSessionID != "" && in.TaskName == "" {
		agents = s.manager.ListByParentSession(in.ParentSessionID)
	} else {
		agents = s.manager.ListByTask(in.TaskName)
	}

	since, err := parseSince(in.Since)
	if err != nil {
		return nil, agenterr.Validationf("%w: invalid since timestamp: %v", agenterr.ErrValidation, err)
	}

	filter := in.Filter
	if filter == "" {
		filter = "all"
	}

	summary := StatusSummary{}
	var maxCursor time.Time
	out := make([]AgentStatus, 0, len(agents))
	for _, a := range agents {
		switch a.Status {
		case store.StatusRunning:
			summary.Running++
		case store.StatusCompleted:
			summary.Completed++
		case store.StatusFailed:
			summary.Failed++
		case store.StatusStopped:
			summary.Stopped++
		}

		if filter != "all" && string(a.Status) != filter {
			continue
		}

		events, err := s.store.ReadAll(a.AgentID)
		if err != nil {
			events = nil
		}
		delta := summarize.GetDelta(events, since)
		cursor := delta.Cursor
		if cursor.IsZero() {
			cursor = time.Now().UTC()
		}
		if cursor.After(maxCursor) {
			maxCursor = cursor
		}

		out = append(out, AgentStatus{
			AgentID:       a.AgentID,
			AgentType:     a.Kind,
			Status:        a.Status,
			Duration:      agentDuration(a).String(),
			FilesCreated:  delta.Summary.FilesCreated,
			FilesModified: delta.Summary.FilesModified,
			FilesRead:     delta.Summary.FilesRead,
			FilesDeleted:  delta.Summary.FilesDeleted,
			BashCommands:  truncateAll(delta.Summary.BashCommands),
			Messages:      delta.Summary.LastMessages,
			Cursor:        cursor,
			HasErrors:     len(delta.Summary.Errors) > 0,
		})
	}

	taskName := in.TaskName
	if taskName == "" && len(agents) > 0 {
		taskName = agents[0].TaskName
	}
	if maxCursor.IsZero() {
		maxCursor = time.Now().UTC()
	}

	return &StatusOutput{TaskName: taskName, Agents: out, Summary: summary, Cursor: maxCursor}, nil
}

// Stop implements §4.6's Stop.
func (s *Service) Stop(ctx context.Context, in StopInput) (*StopOutput, error) {
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "toolapi.stop", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.String("task_name", in.TaskName), attribute.String("agent_id", in.AgentID))

	if in.TaskName == "" {
		err := agenterr.Validationf("%w: task_name is required", agenterr.ErrValidation)
		span.RecordError(err)
		return nil, err
	}

	if in.AgentID != "" {
		agent, ok := s.manager.Get(in.AgentID)
		if !ok || agent.TaskName != in.TaskName {
			return nil, agenterr.Preconditionf("%w: agent %s does not belong to task %s", agenterr.ErrNotFound, in.AgentID, in.TaskName)
		}
		switch s.manager.Stop(ctx, in.AgentID) {
		case process.OutcomeStopped:
			return &StopOutput{TaskName: in.TaskName, Stopped: []string{in.AgentID}}, nil
		case process.OutcomeAlreadyStopped:
			return &StopOutput{TaskName: in.TaskName, AlreadyStopped: []string{in.AgentID}}, nil
		default:
			return &StopOutput{TaskName: in.TaskName, NotFound: []string{in.AgentID}}, nil
		}
	}

	stopped, alreadyStopped := s.manager.StopByTask(ctx, in.TaskName)
	return &StopOutput{TaskName: in.TaskName, Stopped: stopped, AlreadyStopped: alreadyStopped}, nil
}

// Tasks implements §4.6's Tasks.
func (s *Service) Tasks(in TasksInput) (*TasksOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultTasksLimit
	}

	names := s.manager.Tasks()
	summaries := make([]TaskSummary, 0, len(names))
	now := time.Now().UTC()
	for _, name := range names {
		agents := s.manager.ListByTask(name)
		if len(agents) == 0 {
			continue
		}
		ts := TaskSummary{TaskName: name, AgentCount: len(agents)}
		for _, a := range agents {
			switch a.Status {
			case store.StatusRunning:
				ts.Running++
			case store.StatusCompleted:
				ts.Completed++
			case store.StatusFailed:
				ts.Failed++
			case store.StatusStopped:
				ts.Stopped++
			}
			if ts.WorkspaceDir == "" {
				ts.WorkspaceDir = a.WorkspaceDir
			}
			if ts.CreatedAt.IsZero() || a.StartedAt.Before(ts.CreatedAt) {
				ts.CreatedAt = a.StartedAt
			}
			modified := now
			if a.CompletedAt != nil {
				modified = *a.CompletedAt
			}
			if modified.After(ts.ModifiedAt) {
				ts.ModifiedAt = modified
			}
		}
		summaries = append(summaries, ts)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ModifiedAt.After(summaries[j].ModifiedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}

	return &TasksOutput{Tasks: summaries}, nil
}

func agentDuration(a store.Agent) time.Duration {
	end := time.Now().UTC()
	if a.CompletedAt != nil {
		end = *a.CompletedAt
	}
	return end.Sub(a.StartedAt)
}

func truncateAll(cmds []string) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = summarize.TruncateBashCommand(c)
	}
	return out
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse since: %w", err)
	}
	return t, nil
}
