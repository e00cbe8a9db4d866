package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jupiter/internal/application"
	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

// RegisterWriteTools adds the tools that change local or remote state.
func RegisterWriteTools(s *server.MCPServer, env *application.Env) {
	s.AddTool(inboxTaskCreateTool(), inboxTaskCreateHandler(env))
	s.AddTool(inboxTaskArchiveTool(), inboxTaskArchiveHandler(env))
	s.AddTool(syncTool(), syncHandler(env))
	s.AddTool(genTool(), genHandler(env))
	s.AddTool(gcTool(), gcHandler(env))
}

// --- inbox_task_create ---

func inboxTaskCreateTool() mcp.Tool {
	return mcp.NewTool("inbox_task_create",
		mcp.WithDescription("Create an inbox task and publish it to the remote inbox."),
		mcp.WithString("name",
			mcp.Description("Task name"),
			mcp.Required(),
		),
		mcp.WithString("project",
			mcp.Description("Project key or ref id. Omit for the default project."),
		),
		mcp.WithString("big_plan",
			mcp.Description("Ref id of the big plan the task belongs to"),
		),
		mcp.WithString("eisen",
			mcp.Description("regular, important, urgent or important-and-urgent"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date as YYYY-MM-DD"),
		),
		mcp.WithString("notes",
			mcp.Description("Free text notes"),
		),
	)
}

func inboxTaskCreateHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := commands.InboxTaskArgs{
			Name:    req.GetString("name", ""),
			Project: req.GetString("project", ""),
			BigPlan: req.GetString("big_plan", ""),
			Eisen:   req.GetString("eisen", ""),
			DueDate: req.GetString("due_date", ""),
			Notes:   req.GetString("notes", ""),
		}
		result, err := commands.NewInboxTaskCreateCommand(env, args).Execute(ctx)
		if err != nil {
			if result != nil {
				return mcp.NewToolResultError(result.Message + ": " + err.Error()), nil
			}
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- inbox_task_archive ---

func inboxTaskArchiveTool() mcp.Tool {
	return mcp.NewTool("inbox_task_archive",
		mcp.WithDescription("Archive an inbox task and remove it from the remote inbox."),
		mcp.WithString("ref_id",
			mcp.Description("Ref id of the task"),
			mcp.Required(),
		),
	)
}

func inboxTaskArchiveHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewArchiveCommand(env, domain.FamilyInboxTask, req.GetString("ref_id", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- sync ---

func syncTool() mcp.Tool {
	return mcp.NewTool("sync",
		mcp.WithDescription("Reconcile local entities with the remote workspace."),
		mcp.WithString("targets",
			mcp.Description("Comma-separated families to sync (e.g. inbox-tasks,big-plans). Omit for all."),
		),
		mcp.WithString("prefer",
			mcp.Description("Side that wins conflicts: local or remote (default remote)"),
		),
	)
}

func syncHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewSyncCommand(env, splitList(req.GetString("targets", "")), req.GetString("prefer", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- gen ---

func genTool() mcp.Tool {
	return mcp.NewTool("gen",
		mcp.WithDescription("Generate inbox tasks from habits, chores, metrics, persons and push tasks."),
		mcp.WithString("periods",
			mcp.Description("Comma-separated periods (daily,weekly,monthly,quarterly,yearly). Omit for all."),
		),
		mcp.WithString("targets",
			mcp.Description("Comma-separated template families. Omit for all."),
		),
		mcp.WithString("date",
			mcp.Description("Reference day as YYYY-MM-DD. Omit for today."),
		),
	)
}

func genHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewGenCommand(env,
			splitList(req.GetString("periods", "")),
			splitList(req.GetString("targets", "")),
			req.GetString("date", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- gc ---

func gcTool() mcp.Tool {
	return mcp.NewTool("gc",
		mcp.WithDescription("Archive finished inbox tasks and remove archived entities from the remote."),
		mcp.WithString("targets",
			mcp.Description("Comma-separated families to collect. Omit for all."),
		),
		mcp.WithString("older_than",
			mcp.Description("Only collect entries untouched for this long, e.g. 168h"),
		),
	)
}

func gcHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var olderThan time.Duration
		if raw := req.GetString("older_than", ""); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return toolError(&application.ValidationError{Field: "older_than", Message: err.Error()})
			}
			olderThan = d
		}
		result, err := commands.NewGCCommand(env, splitList(req.GetString("targets", "")), olderThan).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
