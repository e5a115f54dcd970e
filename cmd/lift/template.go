// ABOUTME: CLI commands for workout templates and their exercises.
// ABOUTME: Supports create, list, rename, delete, reorder and exercise management.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/spf13/cobra"
)

var (
	templateDay      int
	teSets           int
	teReps           string
	teRest           int
	teNotes          string
	teSetType        string
	templateClearDay bool
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"t"},
	Short:   "Manage workout templates",
	Long: `A template is one reusable workout day inside a program, holding an
ordered list of exercises with target sets, reps and rest.

COMMANDS:

  create              Add a template to a program
  list                List templates of a program (default: the active one)
  rename              Rename a template or change its day
  delete              Delete a template
  reorder             Set the order of a program's templates
  add-exercise        Append an exercise to a template
  update-exercise     Change targets of a template exercise
  remove-exercise     Remove an exercise from a template
  reorder-exercises   Set the order of a template's exercises`,
}

func findTemplate(ctx context.Context, prefix string) (models.WorkoutTemplate, error) {
	all, err := storage.QueryAs[models.WorkoutTemplate](ctx, store, storage.TableWorkoutTemplates, storage.Query{})
	if err != nil {
		return models.WorkoutTemplate{}, fmt.Errorf("failed to list templates: %w", err)
	}
	return resolve(all, prefix, "template")
}

func findTemplateExercise(ctx context.Context, prefix string) (models.TemplateExercise, error) {
	all, err := storage.QueryAs[models.TemplateExercise](ctx, store, storage.TableTemplateExercises, storage.Query{})
	if err != nil {
		return models.TemplateExercise{}, fmt.Errorf("failed to list template exercises: %w", err)
	}
	return resolve(all, prefix, "template exercise")
}

// programOrActive resolves args[0] when present, else the active program.
func programOrActive(ctx context.Context, args []string) (models.Program, error) {
	if len(args) > 0 {
		return findProgram(ctx, args[0])
	}
	p, err := svc.ActiveProgram(ctx, owner)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Program{}, fmt.Errorf("no active program (use 'lift program activate <id>')")
	}
	if err != nil {
		return models.Program{}, err
	}
	return *p, nil
}

// printTemplates lists a program's templates with their exercises.
func printTemplates(ctx context.Context, programID string) error {
	templates, err := svc.ListTemplates(ctx, programID)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 {
		fmt.Println("No templates found.")
		return nil
	}
	exercises, err := svc.ExercisesByID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load exercises: %w", err)
	}

	faint := color.New(color.Faint)
	for _, t := range templates {
		day := ""
		if t.DayOfWeek != nil {
			day = faint.Sprintf(" (day %d)", *t.DayOfWeek)
		}
		fmt.Printf("\n%d. %s %s%s\n", t.OrderIndex+1, color.New(color.Bold).Sprint(t.Name), faint.Sprint(shortID(t.ID)), day)

		entries, err := svc.ListTemplateExercises(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to list template exercises: %w", err)
		}
		for _, te := range entries {
			name := exercises[te.ExerciseID].Name
			fmt.Printf("   %s %s %d x %s, rest %ds",
				faint.Sprint(shortID(te.ID)), padRight(name, 28), te.TargetSets, te.TargetReps, te.RestSeconds)
			if te.SetType != models.SetNormal {
				fmt.Printf(" [%s]", te.SetType)
			}
			if te.Notes != nil {
				fmt.Print(faint.Sprintf(" (%s)", truncate(*te.Notes, 30)))
			}
			fmt.Println()
		}
	}
	return nil
}

// templateExerciseOpts collects only the flags the user set.
func templateExerciseOpts(cmd *cobra.Command) (catalog.TemplateExerciseOpts, error) {
	var opts catalog.TemplateExerciseOpts
	flags := cmd.Flags()
	if flags.Changed("sets") {
		opts.TargetSets = &teSets
	}
	if flags.Changed("reps") {
		opts.TargetReps = &teReps
	}
	if flags.Changed("rest") {
		opts.RestSeconds = &teRest
	}
	if flags.Changed("notes") {
		opts.Notes = &teNotes
	}
	if flags.Changed("type") {
		if !models.IsValidSetType(teSetType) {
			return opts, fmt.Errorf("unknown set type: %s (use normal, warmup, dropset, restpause, cluster)", teSetType)
		}
		st := models.SetType(teSetType)
		opts.SetType = &st
	}
	return opts, nil
}

func addTemplateExerciseFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&teSets, "sets", models.DefaultTargetSets, "target sets")
	cmd.Flags().StringVar(&teReps, "reps", models.DefaultTargetReps, "target reps (e.g. 8-12)")
	cmd.Flags().IntVar(&teRest, "rest", models.DefaultRestSeconds, "rest seconds after each set")
	cmd.Flags().StringVar(&teNotes, "notes", "", "coaching notes (empty clears)")
	cmd.Flags().StringVar(&teSetType, "type", string(models.SetNormal), "set type")
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <program-id> <name>",
	Short: "Add a template to a program",
	Long: `Add a workout template at the end of a program.

Examples:
  lift template create 1a2b3c4d Push
  lift template create 1a2b3c4d Legs --day 3`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}
		var day *int
		if cmd.Flags().Changed("day") {
			day = &templateDay
		}
		t, err := svc.CreateTemplate(ctx, p.ID, args[1], day)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		color.Green("✓ Added template %s to %s", t.Name, p.Name)
		fmt.Printf("  ID: %s\n", shortID(t.ID))
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:     "list [program-id]",
	Aliases: []string{"ls"},
	Short:   "List templates",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := programOrActive(ctx, args)
		if err != nil {
			return err
		}
		fmt.Printf("Program: %s\n", p.Name)
		return printTemplates(ctx, p.ID)
	},
}

var templateRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := findTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		patch := catalog.TemplatePatch{Name: &args[1], ClearDay: templateClearDay}
		if cmd.Flags().Changed("day") {
			patch.DayOfWeek = &templateDay
		}
		updated, err := svc.UpdateTemplate(ctx, t.ID, patch)
		if err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
		color.Green("✓ Updated template %s", updated.Name)
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a template",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := findTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteTemplate(ctx, t.ID); err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}
		color.Yellow("✗ Deleted template %s", t.Name)
		return nil
	},
}

var templateReorderCmd = &cobra.Command{
	Use:   "reorder <program-id> <template-id>...",
	Short: "Set the order of a program's templates",
	Long: `List every template of the program in the new order.

Example:
  lift template reorder 1a2b3c4d legs0001 push0001 pull0001`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p, err := findProgram(ctx, args[0])
		if err != nil {
			return err
		}
		templates, err := svc.ListTemplates(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		ids := make([]string, 0, len(args)-1)
		for _, prefix := range args[1:] {
			t, err := resolve(templates, prefix, "template")
			if err != nil {
				return err
			}
			ids = append(ids, t.ID)
		}
		if err := svc.ReorderTemplates(ctx, p.ID, ids); err != nil {
			return fmt.Errorf("failed to reorder templates: %w", err)
		}
		color.Green("✓ Reordered %d templates", len(ids))
		return nil
	},
}

var templateAddExerciseCmd = &cobra.Command{
	Use:   "add-exercise <template-id> <exercise-id>",
	Short: "Append an exercise to a template",
	Long: `Append an exercise to the end of a template.

Defaults: 3 sets of 8-12 reps with 90 seconds rest.

Examples:
  lift template add-exercise push0001 bench001
  lift template add-exercise push0001 dips0001 --sets 4 --reps 6-8 --rest 120`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := findTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		e, err := findExercise(ctx, args[1])
		if err != nil {
			return err
		}
		opts, err := templateExerciseOpts(cmd)
		if err != nil {
			return err
		}
		te, err := svc.AddExerciseToTemplate(ctx, t.ID, e.ID, opts)
		if err != nil {
			return fmt.Errorf("failed to add exercise: %w", err)
		}
		color.Green("✓ Added %s to %s", e.Name, t.Name)
		fmt.Printf("  %s %d x %s, rest %ds\n", shortID(te.ID), te.TargetSets, te.TargetReps, te.RestSeconds)
		return nil
	},
}

var templateUpdateExerciseCmd = &cobra.Command{
	Use:   "update-exercise <template-exercise-id>",
	Short: "Change targets of a template exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		te, err := findTemplateExercise(ctx, args[0])
		if err != nil {
			return err
		}
		opts, err := templateExerciseOpts(cmd)
		if err != nil {
			return err
		}
		updated, err := svc.UpdateTemplateExercise(ctx, te.ID, opts)
		if err != nil {
			return fmt.Errorf("failed to update template exercise: %w", err)
		}
		color.Green("✓ Updated %s: %d x %s, rest %ds", shortID(updated.ID), updated.TargetSets, updated.TargetReps, updated.RestSeconds)
		return nil
	},
}

var templateRemoveExerciseCmd = &cobra.Command{
	Use:   "remove-exercise <template-exercise-id>",
	Short: "Remove an exercise from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		te, err := findTemplateExercise(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.RemoveExerciseFromTemplate(ctx, te.ID); err != nil {
			return fmt.Errorf("failed to remove exercise: %w", err)
		}
		color.Yellow("✗ Removed %s", shortID(te.ID))
		return nil
	},
}

var templateReorderExercisesCmd = &cobra.Command{
	Use:   "reorder-exercises <template-id> <template-exercise-id>...",
	Short: "Set the order of a template's exercises",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := findTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		entries, err := svc.ListTemplateExercises(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to list template exercises: %w", err)
		}
		ids := make([]string, 0, len(args)-1)
		for _, prefix := range args[1:] {
			te, err := resolve(entries, prefix, "template exercise")
			if err != nil {
				return err
			}
			ids = append(ids, te.ID)
		}
		if err := svc.ReorderTemplateExercises(ctx, t.ID, ids); err != nil {
			return fmt.Errorf("failed to reorder exercises: %w", err)
		}
		color.Green("✓ Reordered %d exercises in %s", len(ids), t.Name)
		return nil
	},
}

func init() {
	templateCreateCmd.Flags().IntVar(&templateDay, "day", 0, "day of week (0=Sunday .. 6=Saturday)")
	templateRenameCmd.Flags().IntVar(&templateDay, "day", 0, "day of week (0=Sunday .. 6=Saturday)")
	templateRenameCmd.Flags().BoolVar(&templateClearDay, "clear-day", false, "remove the scheduled day")
	addTemplateExerciseFlags(templateAddExerciseCmd)
	addTemplateExerciseFlags(templateUpdateExerciseCmd)

	templateCmd.AddCommand(templateCreateCmd, templateListCmd, templateRenameCmd,
		templateDeleteCmd, templateReorderCmd, templateAddExerciseCmd,
		templateUpdateExerciseCmd, templateRemoveExerciseCmd, templateReorderExercisesCmd)
	rootCmd.AddCommand(templateCmd)
}
