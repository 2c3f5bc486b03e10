package toolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kdlbs/agentsup/internal/agenterr"
	"github.com/kdlbs/agentsup/internal/common/logger"
)

// RegisterTools registers the four Tool API operations on an MCP server,
// matching the in-band {error} failure semantics of §4.6: only tool
// argument decoding failures surface as protocol-level errors, everything
// else — including every agenterr sentinel — is returned as a JSON
// {"error": "..."} text result so the calling agent can react to it
// in-band rather than treating it as a dead tool call.
func RegisterTools(s *server.MCPServer, svc *Service, log *logger.Logger) {
	s.AddTool(
		mcp.NewTool("spawn",
			mcp.WithDescription("Start a new coding agent (claude, codex, gemini, cursor, or opencode) on a task."),
			mcp.WithString("task_name", mcp.Required(), mcp.Description("Name grouping this agent with others working the same task")),
			mcp.WithString("agent_type", mcp.Required(), mcp.Description("One of: claude, codex, gemini, cursor, opencode")),
			mcp.WithString("prompt", mcp.Required(), mcp.Description("The instruction to give the agent")),
			mcp.WithString("cwd", mcp.Description("Working directory for the agent process (required for ralph mode)")),
			mcp.WithString("mode", mcp.Description("plan, edit, or ralph (default: plan)")),
			mcp.WithString("effort", mcp.Description("fast, default, or detailed (default: default)")),
			mcp.WithString("parent_session_id", mcp.Description("Session ID of the caller, for grouping")),
			mcp.WithString("workspace_dir", mcp.Description("Workspace directory to associate with the task")),
		),
		spawnHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Get the status and incremental progress of agents for a task or parent session."),
			mcp.WithString("task_name", mcp.Description("Task name to look up (required unless parent_session_id is given)")),
			mcp.WithString("parent_session_id", mcp.Description("Parent session ID to look up by, if task_name is omitted")),
			mcp.WithString("filter", mcp.Description("running, completed, failed, stopped, or all (default: all)")),
			mcp.WithString("since", mcp.Description("RFC3339 timestamp; only report activity after this point")),
		),
		statusHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("stop",
			mcp.WithDescription("Stop one agent, or every running agent, in a task."),
			mcp.WithString("task_name", mcp.Required(), mcp.Description("Task name the agent(s) belong to")),
			mcp.WithString("agent_id", mcp.Description("Specific agent to stop; omit to stop every running agent in the task")),
		),
		stopHandler(svc, log),
	)

	s.AddTool(
		mcp.NewTool("tasks",
			mcp.WithDescription("List known tasks, most recently active first."),
			mcp.WithString("limit", mcp.Description("Maximum tasks to return, as an integer (default 10)")),
		),
		tasksHandler(svc, log),
	)

	log.Info("registered MCP tools")
}

func spawnHandler(svc *Service, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskName, err := req.RequireString("task_name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		agentType, err := req.RequireString("agent_type")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		in := SpawnInput{
			TaskName:        taskName,
			AgentType:       kindOf(agentType),
			Prompt:          prompt,
			Cwd:             req.GetString("cwd", ""),
			Mode:            modeOf(req.GetString("mode", "")),
			Effort:          effortOf(req.GetString("effort", "")),
			ParentSessionID: req.GetString("parent_session_id", ""),
			WorkspaceDir:    req.GetString("workspace_dir", ""),
		}

		out, err := svc.Spawn(ctx, in)
		if err != nil {
			return errorResult(log, "spawn", err), nil
		}
		return jsonResult(out)
	}
}

func statusHandler(svc *Service, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := StatusInput{
			TaskName:        req.GetString("task_name", ""),
			ParentSessionID: req.GetString("parent_session_id", ""),
			Filter:          req.GetString("filter", ""),
			Since:           req.GetString("since", ""),
		}
		out, err := svc.Status(ctx, in)
		if err != nil {
			return errorResult(log, "status", err), nil
		}
		return jsonResult(out)
	}
}

func stopHandler(svc *Service, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskName, err := req.RequireString("task_name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in := StopInput{TaskName: taskName, AgentID: req.GetString("agent_id", "")}
		out, err := svc.Stop(ctx, in)
		if err != nil {
			return errorResult(log, "stop", err), nil
		}
		return jsonResult(out)
	}
}

func tasksHandler(svc *Service, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := 0
		if s := req.GetString("limit", ""); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				limit = n
			}
		}
		out, err := svc.Tasks(TasksInput{Limit: limit})
		if err != nil {
			return errorResult(log, "tasks", err), nil
		}
		return jsonResult(out)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// errorResult renders any error, including the agenterr sentinels, as the
// in-band {"error": "..."} shape §4.6 mandates, logging at a level that
// reflects whether this was a client mistake or a server-side condition.
func errorResult(log *logger.Logger, op string, err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errIsValidationOrPrecondition(err):
		log.Debug(op + " rejected: " + err.Error())
	default:
		log.Warn(op + " failed: " + err.Error())
	}
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return mcp.NewToolResultText(string(payload))
}

func errIsValidationOrPrecondition(err error) bool {
	return isErr(err, agenterr.ErrValidation) || isErr(err, agenterr.ErrPrecondition) ||
		isErr(err, agenterr.ErrPoolExhausted) || isErr(err, agenterr.ErrNotFound)
}
