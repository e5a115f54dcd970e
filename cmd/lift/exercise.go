// ABOUTME: CLI commands for the exercise catalog and custom exercises.
// ABOUTME: Supports seed, list, show, similar, create, update, and delete subcommands.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/models"
	"github.com/spf13/cobra"
)

var (
	exerciseQuery        string
	exerciseMuscles      []string
	exerciseEquipment    string
	exercisePattern      string
	exerciseInstructions string
	exerciseName         string
	exerciseLimit        int
)

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex"},
	Short:   "Browse and manage exercises",
	Long: `Browse the exercise catalog and manage your custom exercises.

Catalog exercises are shared and read-only. Custom exercises belong to you
and can be edited or deleted.

COMMANDS:

  seed      Load the built-in catalog (only into an empty table)
  list      List or search exercises
  show      Show exercise details
  similar   Find substitutes for an exercise
  create    Create a custom exercise
  update    Edit a custom exercise
  delete    Delete a custom exercise`,
}

func findExercise(ctx context.Context, prefix string) (models.Exercise, error) {
	all, err := svc.ListExercises(ctx)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("failed to list exercises: %w", err)
	}
	return resolve(all, prefix, "exercise")
}

func printExercises(exercises []models.Exercise) {
	faint := color.New(color.Faint)
	for _, e := range exercises {
		custom := ""
		if e.IsCustom {
			custom = color.CyanString(" custom")
		}
		equipment := ""
		if e.Equipment != nil {
			equipment = faint.Sprintf(" [%s]", *e.Equipment)
		}
		fmt.Printf("%s %s %s%s%s\n",
			faint.Sprint(shortID(e.ID)),
			padRight(e.Name, 30),
			strings.Join(e.MuscleGroups, ","),
			equipment,
			custom)
	}
}

var exerciseSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in exercise catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := svc.SeedCatalog(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n == 0 {
			fmt.Println("Exercise catalog already present.")
			return nil
		}
		color.Green("✓ Seeded %d exercises", n)
		return nil
	},
}

var exerciseListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List or search exercises",
	Long: `List exercises, optionally filtered.

EXAMPLES:

  lift exercise list                         # Everything, by name
  lift exercise list --query press           # Name or muscle contains "press"
  lift exercise list --muscle chest,triceps  # Any of these muscles
  lift exercise list --equipment barbell     # Exact equipment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := svc.FilterExercises(cmd.Context(), catalog.ExerciseFilter{
			Query:        exerciseQuery,
			MuscleGroups: exerciseMuscles,
			Equipment:    exerciseEquipment,
		})
		if err != nil {
			return fmt.Errorf("failed to list exercises: %w", err)
		}
		if len(found) == 0 {
			fmt.Println("No exercises found.")
			return nil
		}
		if exerciseLimit > 0 && len(found) > exerciseLimit {
			found = found[:exerciseLimit]
		}
		printExercises(found)
		return nil
	},
}

var exerciseShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show exercise details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := findExercise(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Exercise: %s\n", e.Name)
		fmt.Printf("ID: %s\n", e.ID)
		fmt.Printf("Muscles: %s\n", strings.Join(e.MuscleGroups, ", "))
		if e.Equipment != nil {
			fmt.Printf("Equipment: %s\n", *e.Equipment)
		}
		if e.MovementPattern != nil {
			fmt.Printf("Pattern: %s\n", *e.MovementPattern)
		}
		fmt.Printf("Custom: %v\n", e.IsCustom)
		if e.Instructions != nil {
			fmt.Printf("\n%s\n", *e.Instructions)
		}

		recent, err := recentSets(ctx, e.ID)
		if err != nil {
			return err
		}
		if len(recent) > 0 {
			fmt.Println("\nRecent sets:")
			for _, l := range recent {
				fmt.Printf("  %s  set %d  %s\n", l.CompletedAt.Format("2006-01-02"), l.SetNumber, formatSet(l.Weight, l.Reps))
			}
		}
		return nil
	},
}

var exerciseSimilarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "Find substitutes for an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := findExercise(ctx, args[0])
		if err != nil {
			return err
		}
		similar, err := svc.GetSimilarExercises(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("failed to find similar exercises: %w", err)
		}
		if len(similar) == 0 {
			fmt.Printf("No substitutes found for %s.\n", e.Name)
			return nil
		}
		fmt.Printf("Substitutes for %s:\n", e.Name)
		printExercises(similar)
		return nil
	},
}

// exerciseInput collects only the flags the user set.
func exerciseInput(cmd *cobra.Command) catalog.ExerciseInput {
	var in catalog.ExerciseInput
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name = &exerciseName
	}
	if flags.Changed("muscle") {
		in.MuscleGroups = exerciseMuscles
	}
	if flags.Changed("equipment") {
		in.Equipment = &exerciseEquipment
	}
	if flags.Changed("pattern") {
		in.MovementPattern = &exercisePattern
	}
	if flags.Changed("instructions") {
		in.Instructions = &exerciseInstructions
	}
	return in
}

var exerciseCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a custom exercise",
	Long: `Create a custom exercise. At least one muscle group is required.

Example:
  lift exercise create "Landmine Press" --muscle shoulders,chest --equipment barbell`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := exerciseInput(cmd)
		in.Name = &args[0]
		e, err := svc.CreateCustomExercise(cmd.Context(), owner, in)
		if err != nil {
			return fmt.Errorf("failed to create exercise: %w", err)
		}
		color.Green("✓ Created exercise %s", e.Name)
		fmt.Printf("  ID: %s\n", shortID(e.ID))
		return nil
	},
}

var exerciseUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a custom exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := findExercise(ctx, args[0])
		if err != nil {
			return err
		}
		updated, err := svc.UpdateExercise(ctx, e.ID, exerciseInput(cmd))
		if err != nil {
			return fmt.Errorf("failed to update exercise: %w", err)
		}
		color.Green("✓ Updated exercise %s", updated.Name)
		return nil
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a custom exercise",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := findExercise(ctx, args[0])
		if err != nil {
			return err
		}
		if err := svc.DeleteExercise(ctx, e.ID); err != nil {
			return fmt.Errorf("failed to delete exercise: %w", err)
		}
		color.Yellow("✗ Deleted exercise %s", e.Name)
		return nil
	},
}

func addExerciseFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&exerciseMuscles, "muscle", "m", nil, "muscle groups (comma separated)")
	cmd.Flags().StringVar(&exerciseEquipment, "equipment", "", "equipment")
	cmd.Flags().StringVar(&exercisePattern, "pattern", "", "movement pattern")
	cmd.Flags().StringVar(&exerciseInstructions, "instructions", "", "how to perform it")
}

func init() {
	exerciseListCmd.Flags().StringVarP(&exerciseQuery, "query", "q", "", "name or muscle substring")
	exerciseListCmd.Flags().StringSliceVarP(&exerciseMuscles, "muscle", "m", nil, "muscle groups (any match)")
	exerciseListCmd.Flags().StringVar(&exerciseEquipment, "equipment", "", "exact equipment")
	exerciseListCmd.Flags().IntVarP(&exerciseLimit, "limit", "n", 0, "max number of results")

	addExerciseFlags(exerciseCreateCmd)
	addExerciseFlags(exerciseUpdateCmd)
	exerciseUpdateCmd.Flags().StringVar(&exerciseName, "name", "", "new name")

	exerciseCmd.AddCommand(exerciseSeedCmd, exerciseListCmd, exerciseShowCmd,
		exerciseSimilarCmd, exerciseCreateCmd, exerciseUpdateCmd, exerciseDeleteCmd)
	rootCmd.AddCommand(exerciseCmd)
}
