package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"jupiter/internal/application"
	"jupiter/internal/config"
	"jupiter/internal/testkit"
)

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned a transport error: %v", err)
	}
	var sb strings.Builder
	for _, c := range res.Content {
		if text, ok := c.(mcp.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), res.IsError
}

func TestInboxTaskTools(t *testing.T) {
	kit := testkit.New(t, "UTC")
	env := application.NewEnv(kit.Store, kit.Remote, kit.Clock, nil, nil, config.Default())

	out, isErr := call(t, inboxTaskCreateHandler(env), map[string]any{"name": "Buy milk", "due_date": "2022-05-25"})
	if isErr {
		t.Fatalf("create failed: %s", out)
	}

	out, isErr = call(t, inboxTaskListHandler(env), map[string]any{})
	if isErr || !strings.Contains(out, "Buy milk") || !strings.Contains(out, "due 2022-05-25") {
		t.Errorf("expected the task in the list, got %q", out)
	}

	refID := strings.TrimPrefix(strings.Fields(out)[0], "#")
	out, isErr = call(t, inboxTaskListHandler(env), map[string]any{"status": "done"})
	if isErr || out != "No results." {
		t.Errorf("expected no done tasks, got %q", out)
	}

	out, isErr = call(t, inboxTaskArchiveHandler(env), map[string]any{"ref_id": refID})
	if isErr {
		t.Fatalf("archive failed: %s", out)
	}
	out, _ = call(t, inboxTaskListHandler(env), map[string]any{})
	if out != "No results." {
		t.Errorf("expected the archived task to be hidden, got %q", out)
	}
}

func TestToolErrorsAreResults(t *testing.T) {
	kit := testkit.New(t, "UTC")
	env := application.NewEnv(kit.Store, kit.Remote, kit.Clock, nil, nil, config.Default())

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		errMsg  string
	}{
		{"missing name", inboxTaskCreateHandler(env), map[string]any{}, "name is required"},
		{"bad status", inboxTaskListHandler(env), map[string]any{"status": "someday"}, "invalid status"},
		{"bad sync target", syncHandler(env), map[string]any{"targets": "notes"}, "unsupported target"},
		{"bad gen period", genHandler(env), map[string]any{"periods": "hourly"}, "invalid period"},
		{"bad gc window", gcHandler(env), map[string]any{"older_than": "a week"}, "older_than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := call(t, tt.handler, tt.args)
			if !isErr {
				t.Fatalf("expected an error result, got %q", out)
			}
			if !strings.Contains(out, tt.errMsg) {
				t.Errorf("expected %q in %q", tt.errMsg, out)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" habits, ,chores,")
	if len(got) != 2 || got[0] != "habits" || got[1] != "chores" {
		t.Errorf("unexpected split %v", got)
	}
	if splitList("") != nil {
		t.Error("expected nil for an empty list")
	}
}
