package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jupiter/internal/application"
	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

// RegisterReadTools adds the read-only tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, env *application.Env) {
	s.AddTool(inboxTaskListTool(), inboxTaskListHandler(env))
}

// --- inbox_task_list ---

func inboxTaskListTool() mcp.Tool {
	return mcp.NewTool("inbox_task_list",
		mcp.WithDescription("List inbox tasks with their ref id, status, project and due date."),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status (e.g. accepted, in-progress, done)"),
		),
		mcp.WithString("ref_ids",
			mcp.Description("Comma-separated ref ids to restrict the list to"),
		),
		mcp.WithBoolean("show_archived",
			mcp.Description("Include archived tasks"),
		),
	)
}

func inboxTaskListHandler(env *application.Env) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var status domain.InboxTaskStatus
		if raw := req.GetString("status", ""); raw != "" {
			s, err := application.ValidateEnum("status", raw, domain.AllInboxTaskStatuses)
			if err != nil {
				return toolError(err)
			}
			status = s
		}

		cmd := commands.NewInboxTaskShowCommand(env, splitList(req.GetString("ref_ids", "")), req.GetBool("show_archived", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		tasks := result.Leaves
		if status != "" {
			filtered := tasks[:0]
			for _, t := range tasks {
				if t.Payload.Status == status {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		return formatEntities(tasks, formatInboxTask)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatInboxTask(t domain.InboxTask) string {
	line := fmt.Sprintf("#%d  %s  [%s]", t.RefID, t.Name, t.Payload.Status)
	if t.Payload.DueDate != nil {
		line += "  due " + t.Payload.DueDate.Format("2006-01-02")
	}
	if t.Archived {
		line += "  (archived)"
	}
	return line
}

// splitList reads a comma-separated argument
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
