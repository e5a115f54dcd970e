// ABOUTME: CLI command for training statistics.
// ABOUTME: Prints weekly totals, volume trend, muscle frequency, recovery and body weight.
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/analytics"
	"github.com/harperreed/lift/internal/models"
	"github.com/spf13/cobra"
)

var statsJSON bool

// recoveryLabels names the 0-4 recovery intensity levels.
var recoveryLabels = []string{"fresh", "mostly recovered", "recovering", "sore", "just trained"}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training statistics",
	Long: `Show training statistics for finished sessions.

  Weekly     sessions and volume in the last 7 days
  Volume     total volume of the last 10 sessions (T1 oldest)
  Muscles    how many sets hit each muscle
  Recovery   per muscle, 4 = trained in the last day, 0 = 4+ days ago
  Weight     body weight trend

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := analytics.NewAggregator(store,
			analytics.WithWindow(cfg.AnalyticsWindow()),
			analytics.WithLogger(log))
		report, err := agg.Report(cmd.Context(), owner, models.Now())
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		if statsJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		printReport(report)
		return nil
	},
}

func printReport(r *analytics.Report) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	bold.Println("This week")
	fmt.Printf("  Sessions: %d\n", r.Weekly.Sessions)
	fmt.Printf("  Volume: %.0f kg (avg %.0f kg)\n", r.Weekly.TotalVolume, r.Weekly.AverageVolume)

	if len(r.Volume) > 0 {
		bold.Println("\nVolume")
		peak := 0.0
		for _, p := range r.Volume {
			peak = max(peak, p.Volume)
		}
		for _, p := range r.Volume {
			bar := 0
			if peak > 0 {
				bar = int(p.Volume / peak * 30)
			}
			fmt.Printf("  %-4s %s %s %.0f\n", p.Label, faint.Sprint(p.Date.Local().Format("01-02")),
				color.CyanString(strings.Repeat("█", bar)), p.Volume)
		}
	}

	if len(r.Muscles) > 0 {
		bold.Println("\nMuscles")
		for _, m := range r.Muscles {
			fmt.Printf("  %s %d sets\n", padRight(m.Muscle, 14), m.Count)
		}
	}

	if len(r.Recovery) > 0 {
		bold.Println("\nRecovery")
		muscles := make([]string, 0, len(r.Recovery))
		for m := range r.Recovery {
			muscles = append(muscles, m)
		}
		sort.Strings(muscles)
		for _, m := range muscles {
			level := r.Recovery[m]
			fmt.Printf("  %s %d %s\n", padRight(m, 14), level, faint.Sprint(recoveryLabels[level]))
		}
	}

	if len(r.BodyWeight) > 0 {
		bold.Println("\nBody weight")
		for _, w := range r.BodyWeight {
			fmt.Printf("  %s  %.1f kg\n", w.Date.Local().Format("2006-01-02"), w.Weight)
		}
	}

	if r.Weekly.Sessions == 0 && len(r.Volume) == 0 && len(r.BodyWeight) == 0 {
		fmt.Println("\nNo finished sessions yet.")
	}
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(statsCmd)
}
