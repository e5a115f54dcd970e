// ABOUTME: CLI commands for running a workout session.
// ABOUTME: Each invocation resumes the checkpointed session, applies one action and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/session"
	"github.com/harperreed/lift/internal/timer"
	"github.com/spf13/cobra"
)

var (
	setWeight float64
	setReps   int
	setRPE    float64
	setRIR    int
	setType   string

	engine    *session.Engine
	restTimer *timer.RestTimer
)

// openSession builds the engine and restores the checkpointed session.
func openSession(ctx context.Context) (*session.Engine, error) {
	if engine != nil {
		return engine, nil
	}
	restTimer = timer.New(timer.WithInterval(cfg.RestTick()), timer.WithLogger(log))
	engine = session.NewEngine(store,
		session.WithTimer(restTimer),
		session.WithHaptics(func() { fmt.Fprint(os.Stderr, "\a") }),
		session.WithLogger(log),
	)
	if _, err := engine.Resume(ctx); err != nil {
		return nil, fmt.Errorf("failed to resume session: %w", err)
	}
	return engine, nil
}

// closeSession waits for background work of the engine and timer.
func closeSession() {
	if engine != nil {
		engine.Close()
		engine = nil
	}
	if restTimer != nil {
		restTimer.Close()
		restTimer = nil
	}
}

// refused turns an engine refusal into a command error.
func refused(r session.Rejected) error {
	if r == session.Applied {
		return nil
	}
	return fmt.Errorf("%s", r)
}

// recentSets returns the latest logged sets for an exercise.
func recentSets(ctx context.Context, exerciseID string) ([]models.SetLog, error) {
	logs, err := session.RecentLogs(ctx, store, exerciseID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load recent sets: %w", err)
	}
	return logs, nil
}

// setPatch collects only the set flags the user gave.
func setPatch(cmd *cobra.Command) (session.SetPatch, bool) {
	var p session.SetPatch
	flags := cmd.Flags()
	changed := false
	if flags.Changed("weight") {
		p.Weight, changed = &setWeight, true
	}
	if flags.Changed("reps") {
		p.Reps, changed = &setReps, true
	}
	if flags.Changed("rpe") {
		p.RPE, changed = &setRPE, true
	}
	if flags.Changed("rir") {
		p.RIR, changed = &setRIR, true
	}
	if flags.Changed("type") {
		st := models.SetType(setType)
		p.SetType, changed = &st, true
	}
	return p, changed
}

func addSetFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&setWeight, "weight", "w", 0, "weight in kg")
	cmd.Flags().IntVarP(&setReps, "reps", "r", 0, "repetitions")
	cmd.Flags().Float64Var(&setRPE, "rpe", 0, "rate of perceived exertion (0-10)")
	cmd.Flags().IntVar(&setRIR, "rir", 0, "reps in reserve")
	cmd.Flags().StringVar(&setType, "type", "", "set type (normal, warmup, dropset, restpause, cluster)")
}

// printSession renders the active session roster.
func printSession(ctx context.Context, st session.State) error {
	if st.Phase != session.Active || st.Session == nil {
		fmt.Println("No active session.")
		return nil
	}
	exercises, err := svc.ExercisesByID(ctx)
	if err != nil {
		return fmt.Errorf("failed to load exercises: %w", err)
	}

	faint := color.New(color.Faint)
	elapsed := time.Since(st.Session.StartedAt).Truncate(time.Minute)
	fmt.Printf("Session %s  started %s  (%s)\n",
		shortID(st.Session.ID), st.Session.StartedAt.Local().Format("2006-01-02 15:04"), elapsed)
	for i, g := range st.Exercises {
		marker := " "
		if i == st.CurrentIndex {
			marker = color.GreenString(">")
		}
		name := exercises[g.Entry.ExerciseID].Name
		fmt.Printf("\n%s %d. %s %s\n", marker, i+1, color.New(color.Bold).Sprint(name),
			faint.Sprintf("target %d x %s, rest %ds", g.Entry.TargetSets, g.Entry.TargetReps, g.Entry.RestSeconds))
		for _, set := range g.Sets {
			check := faint.Sprint("[ ]")
			if set.Completed {
				check = color.GreenString("[x]")
			}
			extra := ""
			if set.RPE != nil {
				extra += fmt.Sprintf(" @%s", strconv.FormatFloat(*set.RPE, 'f', -1, 64))
			}
			if set.RIR != nil {
				extra += fmt.Sprintf(" rir %d", *set.RIR)
			}
			if set.SetType != models.SetNormal {
				extra += fmt.Sprintf(" [%s]", set.SetType)
			}
			fmt.Printf("     %s %d  %s%s\n", check, set.SetNumber, formatSet(set.Weight, set.Reps), extra)
		}
	}
	fmt.Printf("\nCompleted sets: %d  Volume: %.0f kg\n", st.CompletedSets(), st.Volume())
	return nil
}

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Run a workout session",
	Long: `Run a workout session from a template.

The active session is checkpointed after every change, so each command
picks up where the last one left off, even after a crash or reboot.

Exercises and sets are numbered from 1 as shown by 'lift session status'.

WORKFLOW:

  lift session start <template>
  lift session set 1 1 --weight 100 --reps 10     # fill in a set
  lift session complete 1 1                       # mark it done
  lift session complete 1 2 -w 100 -r 8           # fill and complete at once
  lift session autofill 2 1                       # copy last session's numbers
  lift session rest                               # rest countdown
  lift session finish                             # write the set logs

COMMANDS:

  start, status, set, complete, add-set, remove-set, next, prev,
  autofill, finish, abandon, rest`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <template-id>",
	Short: "Start a session from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		t, err := findTemplate(ctx, args[0])
		if err != nil {
			return err
		}
		entries, err := svc.ListTemplateExercises(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to load template exercises: %w", err)
		}
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		r, err := e.Start(ctx, owner, t.ID, entries)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}
		color.Green("✓ Started %s", t.Name)
		return printSession(ctx, e.Snapshot())
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		return printSession(ctx, e.Snapshot())
	},
}

var sessionSetCmd = &cobra.Command{
	Use:   "set <exercise> <set>",
	Short: "Fill in weight, reps or intensity of a set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exIdx, err := position(args[0], "exercise")
		if err != nil {
			return err
		}
		setIdx, err := position(args[1], "set")
		if err != nil {
			return err
		}
		patch, changed := setPatch(cmd)
		if !changed {
			return fmt.Errorf("nothing to set (use --weight, --reps, --rpe, --rir or --type)")
		}
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		r, err := e.UpdateSet(ctx, exIdx, setIdx, patch)
		if err != nil {
			return fmt.Errorf("failed to update set: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}
		color.Green("✓ Updated set %d of exercise %d", setIdx+1, exIdx+1)
		return nil
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:     "complete <exercise> <set>",
	Aliases: []string{"done"},
	Short:   "Complete a set",
	Long: `Mark a set complete. Weight and reps must be filled in, either
earlier with 'lift session set' or now with --weight and --reps.

Completed sets cannot be edited.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exIdx, err := position(args[0], "exercise")
		if err != nil {
			return err
		}
		setIdx, err := position(args[1], "set")
		if err != nil {
			return err
		}
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		if patch, changed := setPatch(cmd); changed {
			r, err := e.UpdateSet(ctx, exIdx, setIdx, patch)
			if err != nil {
				return fmt.Errorf("failed to update set: %w", err)
			}
			if err := refused(r); err != nil {
				return err
			}
		}
		r, err := e.CompleteSet(ctx, exIdx, setIdx)
		if err != nil {
			return fmt.Errorf("failed to complete set: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}

		st := e.Snapshot()
		g := st.Exercises[exIdx]
		set := g.Sets[setIdx]
		color.Green("✓ Set %d done: %s", set.SetNumber, formatSet(set.Weight, set.Reps))
		if g.Entry.RestSeconds > 0 {
			fmt.Printf("  Rest %ds (lift session rest)\n", g.Entry.RestSeconds)
		}
		return nil
	},
}

// exerciseAction runs a single-exercise engine action such as add-set.
func exerciseAction(action func(*session.Engine, context.Context, int) (session.Rejected, error), done string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exIdx, err := position(args[0], "exercise")
		if err != nil {
			return err
		}
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		r, err := action(e, ctx, exIdx)
		if err != nil {
			return err
		}
		if err := refused(r); err != nil {
			return err
		}
		color.Green("✓ %s (exercise %d now has %d sets)", done, exIdx+1, len(e.Snapshot().Exercises[exIdx].Sets))
		return nil
	}
}

var sessionAddSetCmd = &cobra.Command{
	Use:   "add-set <exercise>",
	Short: "Add a set to an exercise",
	Args:  cobra.ExactArgs(1),
	RunE:  exerciseAction((*session.Engine).AddSet, "Added set"),
}

var sessionRemoveSetCmd = &cobra.Command{
	Use:   "remove-set <exercise>",
	Short: "Remove the last set of an exercise",
	Args:  cobra.ExactArgs(1),
	RunE:  exerciseAction((*session.Engine).RemoveSet, "Removed set"),
}

// navigate runs next or prev and prints the new current exercise.
func navigate(move func(*session.Engine, context.Context) (session.Rejected, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		r, err := move(e, ctx)
		if err != nil {
			return err
		}
		if err := refused(r); err != nil {
			return err
		}
		st := e.Snapshot()
		current := st.Current()
		if current == nil {
			return nil
		}
		exercises, err := svc.ExercisesByID(ctx)
		if err != nil {
			return err
		}
		color.Green("→ %d. %s", st.CurrentIndex+1, exercises[current.Entry.ExerciseID].Name)
		return nil
	}
}

var sessionNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Move to the next exercise",
	RunE:  navigate((*session.Engine).NextExercise),
}

var sessionPrevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Move to the previous exercise",
	RunE:  navigate((*session.Engine).PrevExercise),
}

var sessionAutofillCmd = &cobra.Command{
	Use:   "autofill <exercise> <set>",
	Short: "Copy weight and reps from the previous session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		exIdx, err := position(args[0], "exercise")
		if err != nil {
			return err
		}
		setIdx, err := position(args[1], "set")
		if err != nil {
			return err
		}
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		select {
		case <-e.HistoryLoaded():
		case <-ctx.Done():
			return ctx.Err()
		}
		r, err := e.AutoFill(ctx, exIdx, setIdx)
		if err != nil {
			return fmt.Errorf("failed to autofill: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}
		set := e.Snapshot().Exercises[exIdx].Sets[setIdx]
		color.Green("✓ Filled set %d: %s", set.SetNumber, formatSet(set.Weight, set.Reps))
		return nil
	},
}

var sessionFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Finish the session and record completed sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		sess, r, err := e.Finish(ctx)
		if err != nil {
			return fmt.Errorf("failed to finish session: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}
		color.Green("✓ Finished session %s", shortID(sess.ID))
		if sess.FinishedAt != nil {
			fmt.Printf("  Duration: %s\n", sess.FinishedAt.Sub(sess.StartedAt).Truncate(time.Minute))
		}
		fmt.Printf("  Volume: %.0f kg\n", sess.Volume())
		return nil
	},
}

var sessionAbandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Discard the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openSession(ctx)
		if err != nil {
			return err
		}
		r, err := e.Abandon(ctx)
		if err != nil {
			return fmt.Errorf("failed to abandon session: %w", err)
		}
		if err := refused(r); err != nil {
			return err
		}
		color.Yellow("✗ Session abandoned")
		return nil
	},
}

var sessionRestCmd = &cobra.Command{
	Use:   "rest [seconds]",
	Short: "Count down a rest period",
	Long: `Run the rest timer in the foreground. Without an argument it uses the
rest target of the current exercise, or 90 seconds when no session is active.
Press Ctrl-C to skip the rest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		seconds := models.DefaultRestSeconds
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid seconds: %s", args[0])
			}
			seconds = n
		} else {
			e, err := openSession(ctx)
			if err != nil {
				return err
			}
			if current := e.Snapshot().Current(); current != nil {
				seconds = current.Entry.RestSeconds
			}
		}
		return countdown(ctx, seconds)
	},
}

// countdown blocks until a rest timer of seconds expires or ctx ends.
func countdown(ctx context.Context, seconds int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	expired := make(chan struct{})
	t := timer.New(
		timer.WithInterval(cfg.RestTick()),
		timer.WithLogger(log),
		timer.WithOnExpire(func() { close(expired) }),
	)
	defer t.Close()
	t.Start(seconds)

	display := time.NewTicker(time.Second)
	defer display.Stop()
	for {
		fmt.Printf("\r  Rest %s ", t.Remaining().Round(time.Second))
		select {
		case <-expired:
			fmt.Print("\a")
			color.Green("\r✓ Rest over        ")
			return nil
		case <-ctx.Done():
			fmt.Println()
			color.Yellow("Rest skipped")
			return nil
		case <-display.C:
		}
	}
}

func init() {
	addSetFlags(sessionSetCmd)
	addSetFlags(sessionCompleteCmd)

	sessionCmd.AddCommand(sessionStartCmd, sessionStatusCmd, sessionSetCmd,
		sessionCompleteCmd, sessionAddSetCmd, sessionRemoveSetCmd, sessionNextCmd,
		sessionPrevCmd, sessionAutofillCmd, sessionFinishCmd, sessionAbandonCmd,
		sessionRestCmd)
	rootCmd.AddCommand(sessionCmd)
}
