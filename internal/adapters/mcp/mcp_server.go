// Package mcp exposes the daemon's timers, tasks, and entries as MCP
// (Model Context Protocol) tools over stdio, so assistants can drive and
// inspect the timer through the same control plane as the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/mootimer/internal/domain"
	"github.com/xvierd/mootimer/internal/rpc"
)

// Server bridges MCP tool calls onto the daemon's JSON-RPC socket.
type Server struct {
	server *server.MCPServer
	client *rpc.Client
}

// NewServer creates the MCP server around an already connected RPC client.
func NewServer(client *rpc.Client) *Server {
	s := &Server{
		client: client,
		server: server.NewMCPServer(
			"mootimer",
			"1.0.0",
			server.WithLogging(),
		),
	}
	s.registerTools()
	return s
}

// Start serves MCP requests on stdio until the transport closes or ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	stdio := server.NewStdioServer(s.server)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool(
		"start_timer",
		mcp.WithDescription("Start a timer: open-ended manual, pomodoro, or fixed countdown"),
		mcp.WithString(
			"mode",
			mcp.Description("Timer mode: manual, pomodoro, or countdown (default: manual)"),
			mcp.Enum("manual", "pomodoro", "countdown"),
		),
		mcp.WithString(
			"profile_id",
			mcp.Description("Profile to start the timer in (default: the configured default profile)"),
		),
		mcp.WithString(
			"task_id",
			mcp.Description("Optional task to associate with the timer"),
		),
		mcp.WithNumber(
			"duration_minutes",
			mcp.Description("Countdown length in minutes (countdown mode only)"),
		),
	)
	s.server.AddTool(startTool, s.handleStartTimer)

	s.server.AddTool(
		mcp.NewTool(
			"stop_timer",
			mcp.WithDescription("Stop the active timer and record its entry"),
			mcp.WithString("profile_id", mcp.Description("Profile whose timer to stop")),
		),
		s.handleStopTimer,
	)
	s.server.AddTool(
		mcp.NewTool(
			"pause_timer",
			mcp.WithDescription("Pause the active timer"),
			mcp.WithString("profile_id", mcp.Description("Profile whose timer to pause")),
		),
		s.timerAction("timer.pause"),
	)
	s.server.AddTool(
		mcp.NewTool(
			"resume_timer",
			mcp.WithDescription("Resume a paused timer"),
			mcp.WithString("profile_id", mcp.Description("Profile whose timer to resume")),
		),
		s.timerAction("timer.resume"),
	)
	s.server.AddTool(
		mcp.NewTool(
			"get_timer",
			mcp.WithDescription("Get the active timer of a profile, if any"),
			mcp.WithString("profile_id", mcp.Description("Profile to inspect")),
		),
		s.handleGetTimer,
	)

	listTasksTool := mcp.NewTool(
		"list_tasks",
		mcp.WithDescription("List tasks in a profile, optionally filtered by status"),
		mcp.WithString("profile_id", mcp.Description("Profile to list tasks from")),
		mcp.WithString(
			"status",
			mcp.Description("Filter by status: todo, in_progress, done, archived"),
			mcp.Enum("todo", "in_progress", "done", "archived"),
		),
	)
	s.server.AddTool(listTasksTool, s.handleListTasks)

	createTaskTool := mcp.NewTool(
		"create_task",
		mcp.WithDescription("Create a task"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("profile_id", mcp.Description("Profile to create the task in")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("url", mcp.Description("Optional link, http or https")),
	)
	s.server.AddTool(createTaskTool, s.handleCreateTask)

	s.server.AddTool(
		mcp.NewTool(
			"entries_today",
			mcp.WithDescription("List today's recorded entries for a profile"),
			mcp.WithString("profile_id", mcp.Description("Profile to query")),
		),
		s.handleEntriesToday,
	)
	s.server.AddTool(
		mcp.NewTool(
			"stats_today",
			mcp.WithDescription("Summarize today's tracked time for a profile"),
			mcp.WithString("profile_id", mcp.Description("Profile to query")),
		),
		s.handleStatsToday,
	)
}

// call proxies to the daemon and renders the result as pretty JSON.
func (s *Server) call(method string, params any) (*mcp.CallToolResult, error) {
	var result json.RawMessage
	if err := s.client.Call(method, params, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	var pretty any
	if err := json.Unmarshal(result, &pretty); err != nil {
		return nil, fmt.Errorf("failed to decode daemon response: %w", err)
	}
	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStartTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := map[string]any{}
	if profile := request.GetString("profile_id", ""); profile != "" {
		params["profile_id"] = profile
	}
	if taskID := request.GetString("task_id", ""); taskID != "" {
		params["task_id"] = taskID
	}

	mode := request.GetString("mode", string(domain.ModeManual))
	switch domain.TimerMode(mode) {
	case domain.ModeManual:
		return s.call("timer.start_manual", params)
	case domain.ModePomodoro:
		return s.call("timer.start_pomodoro", params)
	case domain.ModeCountdown:
		if d := request.GetFloat("duration_minutes", 0); d > 0 {
			params["duration_minutes"] = int(d)
		}
		return s.call("timer.start_countdown", params)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", mode)), nil
	}
}

func (s *Server) handleStopTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call("timer.stop", profileParams(request))
}

func (s *Server) timerAction(method string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.call(method, profileParams(request))
	}
}

func (s *Server) handleGetTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call("timer.get_by_profile", profileParams(request))
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := profileParams(request)
	if status := request.GetString("status", ""); status != "" {
		params["status"] = status
	}
	return s.call("task.list", params)
}

func (s *Server) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	params := profileParams(request)
	params["title"] = title
	if description := request.GetString("description", ""); description != "" {
		params["description"] = description
	}
	if url := request.GetString("url", ""); url != "" {
		params["url"] = url
	}
	return s.call("task.create", params)
}

func (s *Server) handleEntriesToday(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call("entry.today", profileParams(request))
}

func (s *Server) handleStatsToday(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.call("entry.stats_today", profileParams(request))
}

func profileParams(request mcp.CallToolRequest) map[string]any {
	params := map[string]any{}
	if profile := request.GetString("profile_id", ""); profile != "" {
		params["profile_id"] = profile
	}
	return params
}
