package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/testutil"
	"github.com/starford/dagaz/internal/trackers"
	"github.com/starford/dagaz/internal/trackservice"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	defs := []*trackers.Definition{{
		Name:       "exercise",
		Folder:     "diary",
		DateFormat: "YYYY-MM-DD",
		Queries:    []trackers.QueryDef{{Type: trackers.TypeTag, Target: "pushup"}},
	}}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := trackservice.New(store, db, defs, logger)

	return New(svc), vaultDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; exercise the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_trackers":
		result, err = srv.listTrackers(ctx, req)
	case "run_tracker":
		result, err = srv.runTracker(ctx, req)
	case "get_latest_datasets":
		result, err = srv.getLatestDatasets(ctx, req)
	case "write_entry":
		result, err = srv.writeEntry(ctx, req)
	case "get_tracker_contract":
		result, err = srv.getTrackerContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListTrackers(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_trackers", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"exercise"`) {
		t.Errorf("list result = %q", text)
	}
}

func TestWriteEntryThenRunTracker(t *testing.T) {
	srv, vaultDir := testServer(t)

	r := callTool(t, srv, "write_entry", map[string]interface{}{
		"path":    "diary/2023-01-05.md",
		"content": "did sets #pushup:30\n",
	})
	if text := resultText(r); text != "created: diary/2023-01-05.md" {
		t.Errorf("write result = %q", text)
	}
	if _, err := os.Stat(filepath.Join(vaultDir, "diary", "2023-01-05.md")); err != nil {
		t.Fatal(err)
	}

	r = callTool(t, srv, "write_entry", map[string]interface{}{
		"path":    "diary/2023-01-07.md",
		"content": "more sets #pushup:25\n",
	})
	if r.IsError {
		t.Fatalf("second write error: %q", resultText(r))
	}

	r = callTool(t, srv, "run_tracker", map[string]interface{}{"name": "exercise"})
	if r.IsError {
		t.Fatalf("run error: %q", resultText(r))
	}
	text := resultText(r)
	// Dates serialize as plain day keys, values as numbers, gap days as null.
	if !strings.Contains(text, `"date": "2023-01-05"`) || !strings.Contains(text, `"value": 30`) {
		t.Errorf("run result = %q", text)
	}
	if !strings.Contains(text, `"date": "2023-01-06"`) || !strings.Contains(text, `"value": null`) {
		t.Errorf("run result missing gap day: %q", text)
	}
	if !strings.Contains(text, `"window_start": "2023-01-05"`) {
		t.Errorf("run result missing window: %q", text)
	}

	r = callTool(t, srv, "get_latest_datasets", map[string]interface{}{"name": "exercise"})
	if r.IsError {
		t.Fatalf("latest error: %q", resultText(r))
	}
	if !strings.Contains(resultText(r), `"pushup"`) {
		t.Errorf("latest result = %q", resultText(r))
	}
}

func TestWriteEntry_RejectsDuplicateAndBadPath(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "write_entry", map[string]interface{}{
		"path": "diary/2023-01-05.md", "content": "#pushup\n",
	})
	r := callTool(t, srv, "write_entry", map[string]interface{}{
		"path": "diary/2023-01-05.md", "content": "#pushup\n",
	})
	if !r.IsError {
		t.Error("expected duplicate write to fail")
	}

	r = callTool(t, srv, "write_entry", map[string]interface{}{
		"path": "diary/note.txt", "content": "x",
	})
	if !r.IsError {
		t.Error("expected non-markdown path to fail")
	}
}

func TestRunTracker_Errors(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "run_tracker", map[string]interface{}{"name": "nope"})
	if !r.IsError || !strings.Contains(resultText(r), "tracker not found") {
		t.Errorf("result = %q", resultText(r))
	}

	// Empty vault: the engine's no-data message must surface verbatim.
	r = callTool(t, srv, "run_tracker", map[string]interface{}{"name": "exercise"})
	if !r.IsError || resultText(r) != "no notes found under the given search condition" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestGetTrackerContract(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_tracker_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "date_format") || !strings.Contains(text, "queries") {
		t.Errorf("contract missing sections: %q", text)
	}
}
