// ABOUTME: Integration tests for the lift CLI binary.
// ABOUTME: Plans a program, runs a session end to end and checks stats and sync status.
package test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// idFrom returns the value of the first "ID: " line in output.
func idFrom(t *testing.T, output string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if _, id, ok := strings.Cut(line, "ID: "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no ID in output: %s", output)
	return ""
}

func TestFullWorkflow(t *testing.T) {
	projectRoot, _ := filepath.Abs("..")
	liftBinary := filepath.Join(t.TempDir(), "lift")

	buildCmd := exec.Command("go", "build", "-o", liftBinary, "./cmd/lift")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	env := append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"),
		"LIFT_DATA_DIR="+filepath.Join(tmpDir, "data"),
		"LIFT_USER_ID=",
	)

	run := func(args ...string) (string, error) {
		cmd := exec.Command(liftBinary, append([]string{"--db", dbPath}, args...)...)
		cmd.Env = env
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		if err != nil {
			return stdout.String() + stderr.String(), err
		}
		return stdout.String(), nil
	}
	must := func(args ...string) string {
		t.Helper()
		output, err := run(args...)
		if err != nil {
			t.Fatalf("lift %s: %v\n%s", strings.Join(args, " "), err, output)
		}
		return output
	}

	output := must("exercise", "seed")
	if !strings.Contains(output, "Seeded") {
		t.Errorf("Expected 'Seeded' in output, got: %s", output)
	}

	output = must("exercise", "list", "--query", "barbell bench press", "-n", "1")
	fields := strings.Fields(output)
	if len(fields) == 0 {
		t.Fatalf("no exercises listed")
	}
	benchID := fields[0]

	programID := idFrom(t, must("program", "create", "PPL", "--activate"))
	templateID := idFrom(t, must("template", "create", programID, "Push"))
	must("template", "add-exercise", templateID, benchID, "--sets", "2", "--reps", "5")

	output = must("template", "list")
	if !strings.Contains(output, "Barbell Bench Press") {
		t.Errorf("Expected bench press in template list, got: %s", output)
	}

	must("session", "start", templateID)
	must("session", "complete", "1", "1", "--weight", "100", "--reps", "5")
	must("session", "complete", "1", "2", "--weight", "100", "--reps", "5")

	output = must("session", "status")
	if !strings.Contains(output, "Completed sets: 2") {
		t.Errorf("Expected 2 completed sets, got: %s", output)
	}

	output = must("session", "finish")
	if !strings.Contains(output, "Volume: 1000 kg") {
		t.Errorf("Expected volume 1000, got: %s", output)
	}

	if _, err := run("session", "finish"); err == nil {
		t.Error("Expected finishing twice to fail")
	}

	output = must("stats")
	if !strings.Contains(output, "Sessions: 1") {
		t.Errorf("Expected one session this week, got: %s", output)
	}

	output = must("sync", "status")
	if !strings.Contains(output, "Queued changes:") {
		t.Errorf("Expected queued changes in sync status, got: %s", output)
	}
}
