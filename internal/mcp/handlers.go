package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jwhitman/tally/internal/errors"
	"github.com/jwhitman/tally/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// ClockInRequest represents the arguments for clock_in.
type ClockInRequest struct {
	Note   string `json:"note,omitempty"`
	TaskID string `json:"task_id,omitempty"`
}

// ClockOutRequest represents the arguments for clock_out.
type ClockOutRequest struct {
	Note     string         `json:"note,omitempty"`
	Activity string         `json:"activity,omitempty"`
	Start    string         `json:"start,omitempty"`
	TaskID   string         `json:"task_id,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// CancelRequest represents the arguments for cancel.
type CancelRequest struct {
	Note   string `json:"note,omitempty"`
	TaskID string `json:"task_id"`
}

// StartRequest represents the arguments for start.
type StartRequest struct {
	Note     string         `json:"note,omitempty"`
	Activity string         `json:"activity"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// AddTaskRequest represents the arguments for add_task.
type AddTaskRequest struct {
	Note   string `json:"note,omitempty"`
	TaskID string `json:"task_id"`
}

// NoteRequest represents the arguments for note.
type NoteRequest struct {
	Note     string `json:"note,omitempty"`
	Activity string `json:"activity,omitempty"`
	Text     string `json:"text"`
}

// HeadingsRequest represents the arguments for headings.
type HeadingsRequest struct {
	Note string `json:"note,omitempty"`
}

// ReportRequest represents the arguments for report_day and report_week.
type ReportRequest struct {
	Date  string `json:"date,omitempty"`
	ByDay bool   `json:"by_day,omitempty"`
}

// GoalsRequest represents the arguments for goals.
type GoalsRequest struct {
	Date string `json:"date,omitempty"`
}

// Handler implementations

// HandleClockIn handles the clock_in tool call.
func (h *Handlers) HandleClockIn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClockInRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ClockIn(h.env, ops.ClockInInput{
		Note:   input.Note,
		TaskID: input.TaskID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClockOut handles the clock_out tool call.
func (h *Handlers) HandleClockOut(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClockOutRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ClockOut(h.env, ops.ClockOutInput{
		Note:     input.Note,
		Activity: input.Activity,
		Start:    input.Start,
		TaskID:   input.TaskID,
		Attrs:    input.Attrs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCancel handles the cancel tool call.
func (h *Handlers) HandleCancel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CancelRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Cancel(h.env, ops.CancelInput{
		Note:   input.Note,
		TaskID: input.TaskID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStart handles the start tool call.
func (h *Handlers) HandleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StartRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Start(h.env, ops.StartInput{
		Note:     input.Note,
		Activity: input.Activity,
		Attrs:    input.Attrs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAddTask handles the add_task tool call.
func (h *Handlers) HandleAddTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddTaskRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AddTask(h.env, ops.AddTaskInput{
		Note:   input.Note,
		TaskID: input.TaskID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNote handles the note tool call.
func (h *Handlers) HandleNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NoteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Note(h.env, ops.NoteInput{
		Note:     input.Note,
		Activity: input.Activity,
		Text:     input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHeadings handles the headings tool call.
func (h *Handlers) HandleHeadings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HeadingsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Headings(h.env, ops.HeadingsInput{Note: input.Note})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportDay handles the report_day tool call.
func (h *Handlers) HandleReportDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ReportDay(h.env, ops.ReportInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReportWeek handles the report_week tool call.
func (h *Handlers) HandleReportWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ReportWeek(h.env, ops.ReportInput{Date: input.Date, ByDay: input.ByDay})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleActive handles the active tool call.
func (h *Handlers) HandleActive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Active(h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGoals handles the goals tool call.
func (h *Handlers) HandleGoals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GoalsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Goals(h.env, ops.GoalsInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleReindex handles the reindex tool call.
func (h *Handlers) HandleReindex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Reindex(h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := err.(*errors.TallyError); ok {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
