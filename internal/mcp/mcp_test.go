package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jwhitman/tally/internal/config"
	"github.com/jwhitman/tally/internal/index"
	"github.com/jwhitman/tally/internal/ops"
	"github.com/jwhitman/tally/internal/vault"
)

// Report ranges anchor on local midnight; pin the zone so date math in
// these tests doesn't depend on the machine's TZ.
func TestMain(m *testing.M) {
	time.Local = time.UTC
	os.Exit(m.Run())
}

// testEnv creates a temporary vault and index for handler tests.
func testEnv(t *testing.T) *ops.Env {
	t.Helper()

	v, err := vault.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open vault: %v", err)
	}
	db, err := index.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init index: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	cfg.DefaultNote = "Log.md"

	clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return &ops.Env{Vault: v, DB: db, Cfg: cfg, Clock: ops.FixedClock{T: clock}}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleClockIn(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "clock in with explicit task id",
			args:      map[string]any{"task_id": "task-1"},
			wantError: false,
		},
		{
			name:      "second clock rejected",
			args:      map[string]any{"task_id": "task-2"},
			wantError: true,
			errorCode: "CLOCK_ALREADY_OPEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleClockIn(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else {
				output := parseOutput(t, result)
				if output["task_id"] != "task-1" {
					t.Errorf("task_id = %v, want task-1", output["task_id"])
				}
				if output["start"] != "2025-03-10T09:00:00+00:00" {
					t.Errorf("start = %v", output["start"])
				}
			}
		})
	}
}

func TestHandleClockOut(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)
	ctx := context.Background()

	result, err := h.HandleClockIn(ctx, makeRequest(map[string]any{"task_id": "task-1"}))
	if err != nil || result.IsError {
		t.Fatalf("clock in failed: %v %v", err, extractErrorMessage(result))
	}

	env.Clock = ops.FixedClock{T: time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)}
	result, err = h.HandleClockOut(ctx, makeRequest(map[string]any{
		"task_id": "task-1",
		"attrs":   map[string]any{"notes": "done"},
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	output := parseOutput(t, result)
	if output["duration"] != "1h 30m" {
		t.Errorf("duration = %v, want 1h 30m", output["duration"])
	}
}

func TestHandleClockOut_NoTarget(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	result, err := h.HandleClockOut(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleStartAndReport(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)
	ctx := context.Background()

	result, err := h.HandleStart(ctx, makeRequest(map[string]any{"activity": "writing"}))
	if err != nil || result.IsError {
		t.Fatalf("start failed: %v %v", err, extractErrorMessage(result))
	}

	env.Clock = ops.FixedClock{T: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)}
	result, err = h.HandleClockOut(ctx, makeRequest(map[string]any{"activity": "writing"}))
	if err != nil || result.IsError {
		t.Fatalf("clock out failed: %v %v", err, extractErrorMessage(result))
	}

	result, err = h.HandleReportDay(ctx, makeRequest(map[string]any{"date": "2025-03-10"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	rows, ok := output["rows"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("rows = %v, want one row", output["rows"])
	}
	row := rows[0].(map[string]any)
	if row["label"] != "writing" || row["duration"] != "1h" {
		t.Errorf("row = %v, want writing 1h", row)
	}
}

func TestHandleHeadings(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	text := "# Daily\n\n## Activities\n\n```activities\n- activity: writing\n  log: []\n```\n"
	if err := env.Vault.WriteNote("Log.md", text); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	result, err := h.HandleHeadings(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["note"] != "Log.md" {
		t.Errorf("note = %v, want Log.md", output["note"])
	}
	headings, ok := output["headings"].([]any)
	if !ok || len(headings) != 2 {
		t.Fatalf("headings = %v, want two entries", output["headings"])
	}
	first := headings[0].(map[string]any)
	if first["text"] != "Daily" || first["level"] != float64(1) || first["line"] != float64(1) {
		t.Errorf("first heading = %v, want Daily level 1 line 1", first)
	}
}

func TestHandleHeadings_MissingNote(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	result, err := h.HandleHeadings(context.Background(), makeRequest(map[string]any{"note": "nope.md"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleActive_Empty(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	result, err := h.HandleActive(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	clocks, ok := output["clocks"].([]any)
	if !ok || len(clocks) != 0 {
		t.Errorf("clocks = %v, want empty list", output["clocks"])
	}
}

func TestHandleNote_NotFound(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	result, err := h.HandleNote(context.Background(), makeRequest(map[string]any{
		"activity": "missing",
		"text":     "hello",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleReindex(t *testing.T) {
	env := testEnv(t)
	h := NewHandlers(env)

	if err := env.Vault.WriteNote("a.md", "nothing here\n"); err != nil {
		t.Fatalf("WriteNote: %v", err)
	}

	result, err := h.HandleReindex(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	output := parseOutput(t, result)
	if output["notes"] != float64(1) {
		t.Errorf("notes = %v, want 1", output["notes"])
	}
}

func TestServerRegistration(t *testing.T) {
	env := testEnv(t)
	s := NewServer(env, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	env := testEnv(t)
	env.Cfg.DisabledTools = []string{"tally_reindex", "tally_goals"}
	s := NewServer(env, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		unknown []string
	}{
		{"all known", []string{"tally_clock_in", "tally_active"}, []string{}},
		{"one unknown", []string{"tally_clock_in", "tally_bogus"}, []string{"tally_bogus"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDisabledTools(tt.input)
			if len(got) != len(tt.unknown) {
				t.Fatalf("unknown = %v, want %v", got, tt.unknown)
			}
			for i := range got {
				if got[i] != tt.unknown[i] {
					t.Errorf("unknown = %v, want %v", got, tt.unknown)
				}
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("got %d names, want %d", len(names), len(toolRegistry))
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	result := errorResult(fmt.Errorf("sql: database is locked"))
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "INTERNAL")

	text := result.Content[0].(mcp.TextContent).Text
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	errorObj := payload["error"].(map[string]any)
	if _, ok := errorObj["details"]; ok {
		t.Error("internal error leaked details")
	}
}

func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
