// ABOUTME: CLI commands for exporting and importing training data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/storage"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export training data",
	Long: `Export programs, templates, exercises, sessions and measurements.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export (human-readable)
  markdown   Session history as Markdown tables

EXAMPLES:

  lift export json                  # Export all data as JSON
  lift export json -o backup.json   # Save to file
  lift export markdown              # Session log for sharing`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var data []byte
		var err error

		switch args[0] {
		case "json":
			data, err = storage.ExportJSON(ctx, store)
		case "yaml":
			data, err = storage.ExportYAML(ctx, store)
		case "markdown":
			var md string
			md, err = storage.ExportMarkdown(ctx, store)
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Println(string(data))
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import training data from a backup",
	Long: `Import data from a previously exported JSON or YAML file.

Records are written as-is and are not queued for sync.

EXAMPLES:

  lift import backup.json
  lift import backup.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(filename)) {
		case ".yaml", ".yml":
			err = storage.ImportYAML(cmd.Context(), store, data)
		default:
			err = storage.ImportJSON(cmd.Context(), store, data)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		color.Green("✓ Imported from %s", filename)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
