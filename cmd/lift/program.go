// ABOUTME: CLI commands for managing training programs.
// ABOUTME: Supports create, list, show, activate, rename, and delete subcommands.
package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/models"
	"github.com/spf13/cobra"
)

var (
	programDescription string
	programActivate    bool
)

var programCmd = &cobra.Command{
	Use:     "program",
	Aliases: []string{"p"},
	Short:   "Manage training programs",
	Long: `A program is a named collection of workout templates. Exactly one
program can be active at a time; 'lift template list' and 'lift session start'
default to it.

COMMANDS:

  create     Create a program
  list       List programs
  show       Show a program with its templates and exercises
  activate   Make a program the active one
  rename     Rename a program
  delete     Delete a program and all of its templates

IDs can be given in full or as the 8-character prefix shown by 'list'.`,
}

// findProgram resolves an owner's program by id or prefix.
func findProgram(ctx context.Context, prefix string) (models.Program, error) {
	programs, err := svc.ListPrograms(ctx, owner)
	if err != nil {
		return models.Program{}, fmt.Errorf("failed to list programs: %w", err)
	}
	return resolve(programs, prefix, "program")
}

var programCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a program",
	Long: `Create a new, inactive program.

Examples:
  lift program create PPL
  lift program create "5/3/1" --description "Wendler BBB" --activate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := svc.CreateProgram(ctx, owner, args[0], programDescription)
		if err != nil {
			return fmt.Errorf("failed to create program: %w", err)
		}
		if programActivate {
			if p, err = svc.ActivateProgram(ctx, owner, p.ID); err != nil {
				return fmt.Errorf("failed to activate program: %w", err)
			}
		}

		color.Green("✓ Created program %s", p.Name)
		fmt.Printf("  ID: %s\n", shortID(p.ID))
		if p.IsActive {
			fmt.Println("  Active: yes")
		}
		return nil
	},
}

var programListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List programs",
	RunE: func(cmd *cobra.Command, args []string) error {
		programs, err := svc.ListPrograms(cmd.Context(), owner)
		if err != nil {
			return fmt.Errorf("failed to list programs: %w", err)
		}
		if len(programs) == 0 {
			fmt.Println("No programs found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range programs {
			marker := " "
			if p.IsActive {
				marker = color.GreenString("*")
			}
			desc := ""
			if p.Description != nil {
				desc = faint.Sprintf(" (%s)", truncate(*p.Description, 40))
			}
			fmt.Printf("%s %s %s%s\n", marker, faint.Sprint(shortID(p.ID)), p.Name, desc)
		}
		return nil
	},
}

var programShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show program details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Program: %s\n", p.Name)
		fmt.Printf("ID: %s\n", p.ID)
		if p.Description != nil {
			fmt.Printf("Description: %s\n", *p.Description)
		}
		fmt.Printf("Active: %v\n", p.IsActive)
		return printTemplates(ctx, p.ID)
	},
}

var programActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a program the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}
		active, err := svc.ActivateProgram(ctx, owner, p.ID)
		if err != nil {
			return fmt.Errorf("failed to activate program: %w", err)
		}
		color.Green("✓ Active program: %s", active.Name)
		return nil
	},
}

var programRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a program",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}
		patch := catalog.ProgramPatch{Name: &args[1]}
		if cmd.Flags().Changed("description") {
			patch.Description = &programDescription
		}
		updated, err := svc.UpdateProgram(ctx, p.ID, patch)
		if err != nil {
			return fmt.Errorf("failed to rename program: %w", err)
		}
		color.Green("✓ Renamed program to %s", updated.Name)
		return nil
	},
}

var programDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a program",
	Long: `Delete a program together with its templates and their exercises.

Finished sessions keep their history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteProgram(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete program: %w", err)
		}
		color.Yellow("✗ Deleted program %s", p.Name)
		return nil
	},
}

func init() {
	programCreateCmd.Flags().StringVarP(&programDescription, "description", "d", "", "program description")
	programCreateCmd.Flags().BoolVar(&programActivate, "activate", false, "make the new program active")
	programRenameCmd.Flags().StringVarP(&programDescription, "description", "d", "", "new description")

	programCmd.AddCommand(programCreateCmd, programListCmd, programShowCmd,
		programActivateCmd, programRenameCmd, programDeleteCmd)
	rootCmd.AddCommand(programCmd)
}
