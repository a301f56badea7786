package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Every tool takes an optional "note" argument; when
// omitted the configured default note is used.

var clockInToolDef = mcp.NewTool("tally_clock_in",
	mcp.WithDescription("Open a clock for a task in a note's activities block. Fails if any clock is already open."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("task_id",
		mcp.Description("External task id to clock in against. Generated when omitted."),
	),
)

var clockOutToolDef = mcp.NewTool("tally_clock_out",
	mcp.WithDescription("Close the open clock of an activity, identified by name, open-clock start, or task id."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("activity",
		mcp.Description("Activity display name."),
	),
	mcp.WithString("start",
		mcp.Description("Exact open-clock start timestamp, used with activity as a fingerprint."),
	),
	mcp.WithString("task_id",
		mcp.Description("Linked external task id."),
	),
	mcp.WithObject("attrs",
		mcp.Description("End-of-activity attributes: notes, quality, or type-specific fields."),
	),
)

var cancelToolDef = mcp.NewTool("tally_cancel",
	mcp.WithDescription("Discard the open clock of the activity linked to a task id. The interval is lost."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("task_id",
		mcp.Required(),
		mcp.Description("Linked external task id."),
	),
)

var startToolDef = mcp.NewTool("tally_start",
	mcp.WithDescription("Begin a free-standing activity log with an open entry. Allowed alongside an open task clock."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("activity",
		mcp.Required(),
		mcp.Description("Activity display name."),
	),
	mcp.WithObject("attrs",
		mcp.Description("Type-specific attributes recorded on the new activity."),
	),
)

var addTaskToolDef = mcp.NewTool("tally_add_task",
	mcp.WithDescription("Link a task id to the activity holding the open clock. Idempotent."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("task_id",
		mcp.Required(),
		mcp.Description("External task id to link."),
	),
)

var noteToolDef = mcp.NewTool("tally_note",
	mcp.WithDescription("Append text to an activity's notes. Targets the open-clock activity when no name is given."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
	mcp.WithString("activity",
		mcp.Description("Activity display name. Defaults to the activity holding the open clock."),
	),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Note text to append."),
	),
)

var headingsToolDef = mcp.NewTool("tally_headings",
	mcp.WithDescription("List a note's heading outline with levels and line numbers."),
	mcp.WithString("note",
		mcp.Description("Vault-relative note path. Defaults to the configured default note."),
	),
)

var reportDayToolDef = mcp.NewTool("tally_report_day",
	mcp.WithDescription("Aggregate activity durations for one calendar day."),
	mcp.WithString("date",
		mcp.Description("Day to report, YYYY-MM-DD. Defaults to today."),
	),
)

var reportWeekToolDef = mcp.NewTool("tally_report_week",
	mcp.WithDescription("Aggregate activity durations for an ISO week, Monday through Sunday."),
	mcp.WithString("date",
		mcp.Description("Any day inside the week, YYYY-MM-DD. Defaults to today."),
	),
	mcp.WithBoolean("by_day",
		mcp.Description("Include a per-day breakdown."),
	),
)

var activeToolDef = mcp.NewTool("tally_active",
	mcp.WithDescription("List every open clock across the vault with live elapsed time."),
)

var goalsToolDef = mcp.NewTool("tally_goals",
	mcp.WithDescription("Evaluate weekly activity totals against the goals note. Unmet goals appear with zero duration."),
	mcp.WithString("date",
		mcp.Description("Any day inside the week, YYYY-MM-DD. Defaults to today."),
	),
)

var reindexToolDef = mcp.NewTool("tally_reindex",
	mcp.WithDescription("Rebuild the report index from every note in the vault."),
)
