// ABOUTME: CLI commands for body measurements and daily biofeedback.
// ABOUTME: Supports body add/list and feel add/list subcommands.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/models"
	"github.com/spf13/cobra"
)

var (
	bodyDate   string
	bodyLimit  int
	bodyValues = map[string]*float64{}

	feelSleep    int
	feelStress   int
	feelSoreness int
	feelEnergy   int
	feelNotes    string
)

// bodyFlags lists the optional measurement flags in display order.
var bodyFlags = []struct {
	name  string
	usage string
	get   func(*models.BodyMeasurement) **float64
}{
	{"body-fat", "body fat percentage", func(m *models.BodyMeasurement) **float64 { return &m.BodyFat }},
	{"chest", "chest (cm)", func(m *models.BodyMeasurement) **float64 { return &m.Chest }},
	{"waist", "waist (cm)", func(m *models.BodyMeasurement) **float64 { return &m.Waist }},
	{"hips", "hips (cm)", func(m *models.BodyMeasurement) **float64 { return &m.Hips }},
	{"arm-left", "left arm (cm)", func(m *models.BodyMeasurement) **float64 { return &m.ArmLeft }},
	{"arm-right", "right arm (cm)", func(m *models.BodyMeasurement) **float64 { return &m.ArmRight }},
	{"thigh-left", "left thigh (cm)", func(m *models.BodyMeasurement) **float64 { return &m.ThighLeft }},
	{"thigh-right", "right thigh (cm)", func(m *models.BodyMeasurement) **float64 { return &m.ThighRight }},
}

var bodyCmd = &cobra.Command{
	Use:   "body",
	Short: "Track body weight and measurements",
}

var bodyAddCmd = &cobra.Command{
	Use:   "add <weight>",
	Short: "Record body weight and optional measurements",
	Long: `Record body weight in kg plus any optional measurements.

Examples:
  lift body add 82.5
  lift body add 82.1 --body-fat 15.2 --waist 84
  lift body add 83 --date 2026-01-15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weight, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid weight: %s", args[0])
		}
		m := models.NewBodyMeasurement(owner, weight)
		if bodyDate != "" {
			t, err := parseTime(bodyDate)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			m.WithDate(t)
		}
		for _, f := range bodyFlags {
			if cmd.Flags().Changed(f.name) {
				v := *bodyValues[f.name]
				*f.get(m) = &v
			}
		}
		if err := svc.RecordBodyMeasurement(cmd.Context(), m); err != nil {
			return err
		}
		color.Green("✓ Recorded %.1f kg", weight)
		fmt.Printf("  ID: %s\n", shortID(m.ID))
		return nil
	},
}

var bodyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List body measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := svc.ListBodyMeasurements(cmd.Context(), owner, bodyLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No measurements found.")
			return nil
		}
		faint := color.New(color.Faint)
		for i := range list {
			m := &list[i]
			line := faint.Sprint(shortID(m.ID)) + " " + m.Date.Local().Format("2006-01-02")
			if m.Weight != nil {
				line += fmt.Sprintf("  %.1f kg", *m.Weight)
			}
			for _, f := range bodyFlags {
				if v := *f.get(m); v != nil {
					line += faint.Sprintf("  %s %s", f.name, strconv.FormatFloat(*v, 'f', -1, 64))
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}

var feelCmd = &cobra.Command{
	Use:   "feel",
	Short: "Track sleep, stress, soreness and energy",
	Long: `Log how you feel today. Scores run from 1 (poor) to 5 (great).

Example:
  lift feel add --sleep 4 --stress 2 --soreness 3 --energy 4`,
}

var feelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record today's biofeedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		b := models.NewBiofeedbackLog(owner)
		flags := cmd.Flags()
		score := func(name string, v int) *int {
			if !flags.Changed(name) {
				return nil
			}
			return &v
		}
		b.SleepQuality = score("sleep", feelSleep)
		b.StressLevel = score("stress", feelStress)
		b.Soreness = score("soreness", feelSoreness)
		b.Energy = score("energy", feelEnergy)
		if feelNotes != "" {
			b.Notes = &feelNotes
		}
		if err := svc.RecordBiofeedback(cmd.Context(), b); err != nil {
			return err
		}
		color.Green("✓ Recorded biofeedback")
		return nil
	},
}

var feelListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List biofeedback logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := svc.ListBiofeedback(cmd.Context(), owner, bodyLimit)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No biofeedback found.")
			return nil
		}
		show := func(v *int) string {
			if v == nil {
				return "-"
			}
			return strconv.Itoa(*v)
		}
		for _, b := range list {
			fmt.Printf("%s  sleep %s  stress %s  soreness %s  energy %s",
				b.Date.Local().Format("2006-01-02"),
				show(b.SleepQuality), show(b.StressLevel), show(b.Soreness), show(b.Energy))
			if b.Notes != nil {
				fmt.Printf("  %s", truncate(*b.Notes, 40))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	bodyAddCmd.Flags().StringVar(&bodyDate, "date", "", "measurement date (YYYY-MM-DD)")
	for _, f := range bodyFlags {
		v := new(float64)
		bodyValues[f.name] = v
		bodyAddCmd.Flags().Float64Var(v, f.name, 0, f.usage)
	}
	bodyListCmd.Flags().IntVarP(&bodyLimit, "limit", "n", 20, "max results (0 for all)")

	feelAddCmd.Flags().IntVar(&feelSleep, "sleep", 0, "sleep quality (1-5)")
	feelAddCmd.Flags().IntVar(&feelStress, "stress", 0, "stress level (1-5)")
	feelAddCmd.Flags().IntVar(&feelSoreness, "soreness", 0, "soreness (1-5)")
	feelAddCmd.Flags().IntVar(&feelEnergy, "energy", 0, "energy (1-5)")
	feelAddCmd.Flags().StringVar(&feelNotes, "notes", "", "free text")
	feelListCmd.Flags().IntVarP(&bodyLimit, "limit", "n", 20, "max results (0 for all)")

	bodyCmd.AddCommand(bodyAddCmd, bodyListCmd)
	feelCmd.AddCommand(feelAddCmd, feelListCmd)
	rootCmd.AddCommand(bodyCmd, feelCmd)
}
