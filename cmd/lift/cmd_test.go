// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs planning, session, body, sync and export commands against a temp database.
package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "date and time with space", input: "2025-01-31 08:30"},
		{name: "date and time with T", input: "2025-01-31T08:30"},
		{name: "date only", input: "2025-01-31"},
		{name: "RFC3339", input: "2025-01-31T08:30:00Z"},
		{name: "RFC3339 with offset", input: "2025-01-31T08:30:00+05:00"},
		{name: "invalid format", input: "31-01-2025", wantErr: true},
		{name: "invalid random string", input: "not a date", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseTime(%q) unexpected error: %v", tt.input, err)
				return
			}
			if result.IsZero() {
				t.Errorf("parseTime(%q) returned zero time", tt.input)
			}
		})
	}
}

func TestParseTimeValues(t *testing.T) {
	result, err := parseTime("2025-06-15")
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}
	if result.Year() != 2025 || result.Month() != time.June || result.Day() != 15 {
		t.Errorf("parseTime returned wrong date: got %v", result)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world this is long", 10, "hello w..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"abc", 6, "abc   "},
		{"abcdef", 6, "abcdef"},
		{"abcdefgh", 6, "abcdefgh"},
		{"", 3, "   "},
	}
	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	programs := []models.Program{
		{ID: "abc12345-0000", Name: "PPL"},
		{ID: "abd99999-0000", Name: "Upper/Lower"},
		{ID: "xyz00000-0000", Name: "5/3/1"},
	}

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr string
	}{
		{name: "exact id", prefix: "xyz00000-0000", want: "5/3/1"},
		{name: "unique prefix", prefix: "abc", want: "PPL"},
		{name: "ambiguous prefix", prefix: "ab", wantErr: "ambiguous"},
		{name: "unknown prefix", prefix: "zzz", wantErr: "not found"},
		{name: "empty prefix", prefix: "", wantErr: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(programs, tt.prefix, "program")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("resolve(%q) error = %v, want containing %q", tt.prefix, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve(%q) unexpected error: %v", tt.prefix, err)
			}
			if got.Name != tt.want {
				t.Errorf("resolve(%q) = %q, want %q", tt.prefix, got.Name, tt.want)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{arg: "1", want: 0},
		{arg: "12", want: 11},
		{arg: "0", wantErr: true},
		{arg: "-2", wantErr: true},
		{arg: "two", wantErr: true},
	}
	for _, tt := range tests {
		got, err := position(tt.arg, "set")
		if tt.wantErr {
			if err == nil {
				t.Errorf("position(%q) expected error", tt.arg)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("position(%q) = %d, %v; want %d", tt.arg, got, err, tt.want)
		}
	}
}

func TestFormatSet(t *testing.T) {
	w, r := 102.5, 8
	if got := formatSet(&w, &r); got != "102.5 x 8" {
		t.Errorf("formatSet = %q", got)
	}
	if got := formatSet(nil, &r); got != "- x 8" {
		t.Errorf("formatSet without weight = %q", got)
	}
	if got := formatSet(nil, nil); got != "- x -" {
		t.Errorf("formatSet empty = %q", got)
	}
}

func TestRootCmdFlags(t *testing.T) {
	if rootCmd.Use != "lift" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "lift")
	}
	if rootCmd.Short == "" {
		t.Error("Expected rootCmd.Short to be non-empty")
	}
	if rootCmd.PersistentFlags().Lookup("db") == nil {
		t.Error("Expected --db persistent flag")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	tests := []struct {
		parent *cobra.Command
		want   []string
	}{
		{rootCmd, []string{"program", "template", "exercise", "session", "body", "feel", "stats", "sync", "export", "import", "mcp", "install-skill", "db"}},
		{programCmd, []string{"create", "list", "show", "activate", "rename", "delete"}},
		{templateCmd, []string{"create", "list", "rename", "delete", "reorder", "add-exercise", "update-exercise", "remove-exercise", "reorder-exercises"}},
		{exerciseCmd, []string{"seed", "list", "show", "similar", "create", "update", "delete"}},
		{sessionCmd, []string{"start", "status", "set", "complete", "add-set", "remove-set", "next", "prev", "autofill", "finish", "abandon", "rest"}},
		{syncCmd, []string{"setup", "status", "push", "run", "link"}},
	}

	for _, tt := range tests {
		names := make(map[string]bool)
		for _, c := range tt.parent.Commands() {
			names[c.Name()] = true
		}
		for _, want := range tt.want {
			if !names[want] {
				t.Errorf("Expected %s subcommand %q", tt.parent.Name(), want)
			}
		}
	}
}

func TestSessionSetFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{sessionSetCmd, sessionCompleteCmd} {
		for _, name := range []string{"weight", "reps", "rpe", "rir", "type"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("Expected --%s flag on %s", name, cmd.Name())
			}
		}
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	want := map[string]bool{"json": true, "yaml": true, "markdown": true}
	for _, arg := range exportCmd.ValidArgs {
		if !want[arg] {
			t.Errorf("unexpected export format %q", arg)
		}
		delete(want, arg)
	}
	if len(want) != 0 {
		t.Errorf("missing export formats: %v", want)
	}
}

// resetFlags restores every flag to its default so one Execute cannot
// leak values or Changed state into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// cliEnv is an isolated config home and database for CLI runs.
type cliEnv struct {
	t      *testing.T
	dbPath string
}

// setupTestCLI points config and data at a temp directory.
func setupTestCLI(t *testing.T) *cliEnv {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv(config.EnvDataDir, filepath.Join(tmpDir, "data"))
	t.Setenv(config.EnvUserID, "")
	t.Setenv(config.EnvSyncServer, "")
	t.Setenv(config.EnvSyncToken, "")
	t.Cleanup(func() {
		_ = shutdown()
		resetFlags(rootCmd)
	})
	return &cliEnv{t: t, dbPath: filepath.Join(tmpDir, "lift.db")}
}

// run executes one lift command against the test database.
func (e *cliEnv) run(args ...string) error {
	e.t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(append([]string{"--db", e.dbPath}, args...))
	err := rootCmd.Execute()
	_ = shutdown()
	return err
}

func (e *cliEnv) mustRun(args ...string) {
	e.t.Helper()
	if err := e.run(args...); err != nil {
		e.t.Fatalf("lift %s: %v", strings.Join(args, " "), err)
	}
}

// inspect opens the database for assertions between commands.
func (e *cliEnv) inspect(fn func(ctx context.Context, db *storage.DB, svc *catalog.Service)) {
	e.t.Helper()
	db, err := storage.Open(e.dbPath)
	if err != nil {
		e.t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	fn(context.Background(), db, catalog.New(db, nil))
}

func (e *cliEnv) exerciseID(name string) string {
	e.t.Helper()
	var id string
	e.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		all, err := svc.ListExercises(ctx)
		if err != nil {
			e.t.Fatalf("ListExercises: %v", err)
		}
		for _, ex := range all {
			if ex.Name == name {
				id = ex.ID
			}
		}
	})
	if id == "" {
		e.t.Fatalf("exercise %q not found", name)
	}
	return id
}

// pushDay creates an active program with one template holding the bench press.
func (e *cliEnv) pushDay() (programID, templateID string) {
	e.t.Helper()
	e.mustRun("exercise", "seed")
	e.mustRun("program", "create", "PPL", "--activate")
	e.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		p, err := svc.ActiveProgram(ctx, models.GuestUserID)
		if err != nil {
			e.t.Fatalf("ActiveProgram: %v", err)
		}
		programID = p.ID
	})
	e.mustRun("template", "create", programID[:8], "Push", "--day", "1")
	e.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		templates, err := svc.ListTemplates(ctx, programID)
		if err != nil || len(templates) != 1 {
			e.t.Fatalf("ListTemplates = %v, %v", templates, err)
		}
		templateID = templates[0].ID
	})
	e.mustRun("template", "add-exercise", templateID, e.exerciseID("Barbell Bench Press"), "--sets", "2", "--reps", "5", "--rest", "120")
	return programID, templateID
}

func TestProgramCommands(t *testing.T) {
	env := setupTestCLI(t)

	env.mustRun("program", "create", "PPL", "--description", "push pull legs")
	env.mustRun("program", "create", "Upper/Lower", "--activate")

	var pplID string
	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		programs, err := svc.ListPrograms(ctx, models.GuestUserID)
		if err != nil {
			t.Fatalf("ListPrograms: %v", err)
		}
		if len(programs) != 2 {
			t.Fatalf("Expected 2 programs, got %d", len(programs))
		}
		for _, p := range programs {
			if p.Name == "PPL" {
				pplID = p.ID
				if p.IsActive {
					t.Error("PPL should not be active")
				}
				if p.Description == nil || *p.Description != "push pull legs" {
					t.Error("description not stored")
				}
			}
		}
	})

	env.mustRun("program", "activate", pplID[:8])
	env.mustRun("program", "rename", pplID, "Push Pull Legs")
	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		active, err := svc.ActiveProgram(ctx, models.GuestUserID)
		if err != nil {
			t.Fatalf("ActiveProgram: %v", err)
		}
		if active.ID != pplID || active.Name != "Push Pull Legs" {
			t.Errorf("active program = %s %q", active.ID, active.Name)
		}
	})

	if err := env.run("program", "show", "nope"); err == nil {
		t.Error("Expected error for unknown program")
	}

	env.mustRun("program", "delete", pplID)
	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		programs, _ := svc.ListPrograms(ctx, models.GuestUserID)
		if len(programs) != 1 {
			t.Errorf("Expected 1 program after delete, got %d", len(programs))
		}
	})
}

func TestTemplateCommands(t *testing.T) {
	env := setupTestCLI(t)
	_, templateID := env.pushDay()

	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		entries, err := svc.ListTemplateExercises(ctx, templateID)
		if err != nil {
			t.Fatalf("ListTemplateExercises: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 template exercise, got %d", len(entries))
		}
		e := entries[0]
		if e.TargetSets != 2 || e.TargetReps != "5" || e.RestSeconds != 120 {
			t.Errorf("entry = %d x %s rest %d", e.TargetSets, e.TargetReps, e.RestSeconds)
		}
	})

	env.mustRun("template", "rename", templateID, "Push A", "--clear-day")
	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		tpl, err := svc.GetTemplate(ctx, templateID)
		if err != nil {
			t.Fatalf("GetTemplate: %v", err)
		}
		if tpl.Name != "Push A" || tpl.DayOfWeek != nil {
			t.Errorf("template = %q day %v", tpl.Name, tpl.DayOfWeek)
		}
	})

	if err := env.run("template", "add-exercise", templateID, env.exerciseID("Barbell Bench Press"), "--type", "giant"); err == nil {
		t.Error("Expected error for invalid set type")
	}
}

func TestExerciseCommands(t *testing.T) {
	env := setupTestCLI(t)
	env.mustRun("exercise", "seed")
	env.mustRun("exercise", "seed")
	env.mustRun("exercise", "list", "--query", "press", "-n", "3")
	env.mustRun("exercise", "create", "Landmine Press", "--muscle", "shoulders,chest", "--equipment", "barbell")

	id := env.exerciseID("Landmine Press")
	env.mustRun("exercise", "update", id, "--name", "Half-Kneeling Landmine Press")
	env.mustRun("exercise", "show", id)
	env.mustRun("exercise", "similar", id)

	if err := env.run("exercise", "delete", env.exerciseID("Barbell Bench Press")); err == nil {
		t.Error("Expected error deleting a catalog exercise")
	}
	env.mustRun("exercise", "delete", id)

	env.inspect(func(ctx context.Context, db *storage.DB, _ *catalog.Service) {
		custom, err := db.Count(ctx, storage.TableExercises, storage.Eq("is_custom", true))
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if custom != 0 {
			t.Errorf("Expected no custom exercises, got %d", custom)
		}
	})
}

func TestSessionWorkflow(t *testing.T) {
	env := setupTestCLI(t)
	_, templateID := env.pushDay()

	env.mustRun("session", "start", templateID[:8])
	if err := env.run("session", "start", templateID); err == nil {
		t.Error("Expected error starting a second session")
	}

	if err := env.run("session", "complete", "1", "1"); err == nil {
		t.Error("Expected error completing a set without weight and reps")
	}
	env.mustRun("session", "set", "1", "1", "--weight", "100", "--reps", "5")
	env.mustRun("session", "complete", "1", "1")
	env.mustRun("session", "complete", "1", "2", "-w", "100", "-r", "4", "--rpe", "9")
	if err := env.run("session", "set", "1", "1", "--weight", "110"); err == nil {
		t.Error("Expected error editing a completed set")
	}
	env.mustRun("session", "add-set", "1")
	env.mustRun("session", "remove-set", "1")
	if err := env.run("session", "next"); err == nil {
		t.Error("Expected error moving past the last exercise")
	}
	env.mustRun("session", "status")
	env.mustRun("session", "finish")

	env.inspect(func(ctx context.Context, db *storage.DB, _ *catalog.Service) {
		sessions, err := storage.QueryAs[models.WorkoutSession](ctx, db, storage.TableWorkoutSessions, storage.Query{})
		if err != nil {
			t.Fatalf("query sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("Expected 1 session, got %d", len(sessions))
		}
		if !sessions[0].IsFinished() {
			t.Error("session not finished")
		}
		if v := sessions[0].Volume(); v != 900 {
			t.Errorf("Expected volume 900, got %v", v)
		}
		logs, err := db.Count(ctx, storage.TableSetLogs)
		if err != nil {
			t.Fatalf("count logs: %v", err)
		}
		if logs != 2 {
			t.Errorf("Expected 2 set logs, got %d", logs)
		}
	})

	if err := env.run("session", "finish"); err == nil {
		t.Error("Expected error finishing with no active session")
	}

	// The next session can copy the previous numbers.
	env.mustRun("session", "start", templateID)
	env.mustRun("session", "autofill", "1", "2")
	env.mustRun("session", "complete", "1", "2")
	env.mustRun("session", "abandon")

	env.inspect(func(ctx context.Context, db *storage.DB, _ *catalog.Service) {
		n, _ := db.Count(ctx, storage.TableWorkoutSessions)
		if n != 1 {
			t.Errorf("Expected abandoned session to be removed, got %d sessions", n)
		}
	})
	env.mustRun("stats", "--json")
}

func TestBodyAndFeelCommands(t *testing.T) {
	env := setupTestCLI(t)

	env.mustRun("body", "add", "82.5", "--waist", "84", "--date", "2026-01-15")
	env.mustRun("feel", "add", "--sleep", "4", "--energy", "3", "--notes", "slept fine")
	if err := env.run("feel", "add", "--sleep", "9"); err == nil {
		t.Error("Expected error for a score above 5")
	}
	if err := env.run("body", "add", "heavy"); err == nil {
		t.Error("Expected error for a non-numeric weight")
	}
	env.mustRun("body", "list")
	env.mustRun("feel", "list")

	env.inspect(func(ctx context.Context, _ *storage.DB, svc *catalog.Service) {
		body, err := svc.ListBodyMeasurements(ctx, models.GuestUserID, 0)
		if err != nil {
			t.Fatalf("ListBodyMeasurements: %v", err)
		}
		if len(body) != 1 {
			t.Fatalf("Expected 1 measurement, got %d", len(body))
		}
		if body[0].Waist == nil || *body[0].Waist != 84 {
			t.Error("waist not stored")
		}
		if body[0].Chest != nil {
			t.Error("chest should be empty")
		}
		feel, err := svc.ListBiofeedback(ctx, models.GuestUserID, 0)
		if err != nil {
			t.Fatalf("ListBiofeedback: %v", err)
		}
		if len(feel) != 1 || feel[0].SleepQuality == nil || *feel[0].SleepQuality != 4 || feel[0].StressLevel != nil {
			t.Errorf("biofeedback = %+v", feel)
		}
	})
}

func TestSyncCommands(t *testing.T) {
	env := setupTestCLI(t)
	env.mustRun("program", "create", "PPL")

	if err := env.run("sync", "push"); err == nil {
		t.Error("Expected error pushing without a backend")
	}
	if err := env.run("sync", "setup", "--backend", "http"); err == nil {
		t.Error("Expected error for http backend without a server")
	}

	env.mustRun("sync", "setup", "--backend", "http", "--server", "https://sync.example.com", "--token", "secret", "--interval", "30")
	saved, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if !saved.Sync.IsConfigured() || saved.Sync.DeviceID == "" || saved.Sync.IntervalSeconds != 30 {
		t.Errorf("sync config = %+v", saved.Sync)
	}
	env.mustRun("sync", "status")
	env.mustRun("db", "info")

	env.inspect(func(ctx context.Context, db *storage.DB, _ *catalog.Service) {
		pending, err := db.ListPendingMutations(ctx)
		if err != nil {
			t.Fatalf("ListPendingMutations: %v", err)
		}
		if len(pending) != 1 || pending[0].Table != storage.TablePrograms {
			t.Errorf("pending = %+v", pending)
		}
	})
}

func TestExportAndImport(t *testing.T) {
	env := setupTestCLI(t)
	env.pushDay()

	out := filepath.Join(t.TempDir(), "backup.json")
	env.mustRun("export", "json", "-o", out)
	env.mustRun("export", "markdown")
	if err := env.run("export", "csv"); err == nil {
		t.Error("Expected error for unknown format")
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var data storage.ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(data.Programs) != 1 || len(data.Templates) != 1 || len(data.TemplateExercises) != 1 {
		t.Errorf("export has %d programs, %d templates, %d entries",
			len(data.Programs), len(data.Templates), len(data.TemplateExercises))
	}

	fresh := setupTestCLI(t)
	fresh.mustRun("import", out)
	fresh.inspect(func(ctx context.Context, db *storage.DB, svc *catalog.Service) {
		programs, err := svc.ListPrograms(ctx, models.GuestUserID)
		if err != nil {
			t.Fatalf("ListPrograms: %v", err)
		}
		if len(programs) != 1 || programs[0].Name != "PPL" {
			t.Errorf("imported programs = %+v", programs)
		}
		pending, _ := db.ListPendingMutations(ctx)
		if len(pending) != 0 {
			t.Errorf("import should not queue changes, got %d", len(pending))
		}
	})
}

func TestSkillInstall(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".claude", "skills", "lift")
	skillSkipConfirm = false
	t.Cleanup(func() { skillSkipConfirm = false })

	var out strings.Builder
	if err := installSkill(dir, strings.NewReader("n\n"), &out); err != nil {
		t.Fatalf("installSkill: %v", err)
	}
	if !strings.Contains(out.String(), "canceled") {
		t.Errorf("Expected cancellation, got %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "SKILL.md")); !os.IsNotExist(err) {
		t.Error("skill should not be written when declined")
	}

	skillSkipConfirm = true
	out.Reset()
	if err := installSkill(dir, strings.NewReader(""), &out); err != nil {
		t.Fatalf("installSkill: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "SKILL.md"))
	if err != nil {
		t.Fatalf("skill not written: %v", err)
	}
	if !strings.HasPrefix(string(content), "---\nname: lift") {
		t.Error("skill missing frontmatter")
	}
}
