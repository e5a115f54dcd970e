// ABOUTME: CLI command for inspecting the local database.
// ABOUTME: Shows the database path, schema version, row counts and outbox size.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/storage"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the local database",
	Long: `Show where the database lives, which schema migration it is on and
how many rows each table holds.

The schema is migrated automatically whenever lift opens the database.

USAGE:

  lift db info
  lift --db /tmp/other.db db info`,
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database path, schema version and row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fmt.Printf("Database: %s\n", store.Path())

		version, err := store.SchemaVersion()
		if err != nil {
			color.Yellow("⚠ %v", err)
		} else {
			fmt.Printf("Schema version: %d\n", version)
		}
		fmt.Printf("Owner: %s\n", owner)

		fmt.Println()
		for _, table := range storage.SyncedTables() {
			n, err := store.Count(ctx, table)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", table, err)
			}
			fmt.Printf("  %s %d\n", padRight(table, 22), n)
		}

		pending, err := store.ListPendingMutations(ctx)
		if err != nil {
			return fmt.Errorf("failed to read outbox: %w", err)
		}
		fmt.Printf("\nQueued changes: %d\n", len(pending))
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInfoCmd)
	rootCmd.AddCommand(dbCmd)
}
