// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/lift/internal/mcp"
	"github.com/harperreed/lift/internal/timer"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server owns its own session engine, so run session commands through it
rather than through the CLI while it is running. It communicates via
stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  {
    "mcpServers": {
      "lift": {
        "command": "lift",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_programs       List programs and the active one
  create_program      Create a program, optionally activating it
  activate_program    Make a program active
  list_templates      Templates of a program with their exercises
  search_exercises    Search the exercise catalog
  similar_exercises   Substitutes for an exercise
  start_session       Start a session from a template
  log_set             Fill in weight, reps, RPE, RIR or set type
  complete_set        Complete a set, optionally filling it first
  finish_session      Finish and record completed sets
  abandon_session     Discard the active session
  session_status      Current session roster
  get_stats           Weekly, volume, muscle, recovery and weight stats

AVAILABLE RESOURCES:

  lift://session/active   The active session
  lift://stats/weekly     This week's totals and recovery
  lift://outbox           Changes waiting to sync`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rest := timer.New(timer.WithInterval(cfg.RestTick()), timer.WithLogger(log))
		defer rest.Close()

		server, err := mcp.NewServer(store,
			mcp.WithOwner(owner),
			mcp.WithLogger(log),
			mcp.WithWindow(cfg.AnalyticsWindow()),
			mcp.WithRestTimer(rest),
		)
		if err != nil {
			return err
		}
		defer server.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
