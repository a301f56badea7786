package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwhitman/tally/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"tally_clock_in": {
		def:     clockInToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClockIn },
	},
	"tally_clock_out": {
		def:     clockOutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClockOut },
	},
	"tally_cancel": {
		def:     cancelToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCancel },
	},
	"tally_start": {
		def:     startToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStart },
	},
	"tally_add_task": {
		def:     addTaskToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAddTask },
	},
	"tally_note": {
		def:     noteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNote },
	},
	"tally_headings": {
		def:     headingsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHeadings },
	},
	"tally_report_day": {
		def:     reportDayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportDay },
	},
	"tally_report_week": {
		def:     reportWeekToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReportWeek },
	},
	"tally_active": {
		def:     activeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleActive },
	},
	"tally_goals": {
		def:     goalsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGoals },
	},
	"tally_reindex": {
		def:     reindexToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReindex },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Tally tools registered.
// Tools listed in the config's DisabledTools are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tally",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	if env.Cfg != nil {
		for _, name := range env.Cfg.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	s := NewServer(env, version)
	return server.ServeStdio(s)
}
