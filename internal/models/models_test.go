// ABOUTME: Tests for the training models.
// ABOUTME: Validates constructors, validation rules and outbox payload ids.
package models

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Chest", "triceps", "chest", "", "Shoulders "})
	want := []string{"chest", "shoulders", "triceps"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeTags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeTags[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID of short id = %q", got)
	}
}

func TestNewProgram(t *testing.T) {
	p := NewProgram(GuestUserID, "  PPL ").WithDescription("push pull legs")

	if p.ID == "" {
		t.Error("expected ID to be set")
	}
	if p.Name != "PPL" {
		t.Errorf("Name = %q, want trimmed PPL", p.Name)
	}
	if p.IsActive {
		t.Error("new programs start inactive")
	}
	if p.Description == nil || *p.Description != "push pull legs" {
		t.Error("expected description to be set")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := NewProgram(GuestUserID, " ").Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name error = %v, want ErrInvalid", err)
	}
}

func TestWorkoutTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tpl     *WorkoutTemplate
		wantErr bool
	}{
		{"valid", NewWorkoutTemplate("p1", "Push", 0), false},
		{"with day", NewWorkoutTemplate("p1", "Push", 0).WithDayOfWeek(6), false},
		{"day too large", NewWorkoutTemplate("p1", "Push", 0).WithDayOfWeek(7), true},
		{"negative day", NewWorkoutTemplate("p1", "Push", 0).WithDayOfWeek(-1), true},
		{"no program", NewWorkoutTemplate("", "Push", 0), true},
		{"no name", NewWorkoutTemplate("p1", "", 0), true},
		{"negative order", NewWorkoutTemplate("p1", "Push", -1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExercises(t *testing.T) {
	e := NewCatalogExercise("Barbell Row", []string{"Back", "biceps"}).
		WithEquipment(" Barbell ").
		WithMovementPattern("horizontal_pull")
	if e.IsCustom || e.UserID != nil {
		t.Error("catalog exercises have no owner")
	}
	if e.Equipment == nil || *e.Equipment != "barbell" {
		t.Errorf("Equipment = %v, want barbell", e.Equipment)
	}
	if !e.HasMuscle("BACK") {
		t.Error("expected HasMuscle to ignore case")
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	custom := NewCustomExercise(GuestUserID, "Landmine Press", []string{"shoulders"})
	if !custom.IsCustom || custom.UserID == nil || *custom.UserID != GuestUserID {
		t.Error("custom exercise should be owned")
	}
	if err := NewCatalogExercise("Nothing", nil).Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("missing muscles error = %v", err)
	}
}

func TestTemplateExerciseDefaults(t *testing.T) {
	te := NewTemplateExercise("t1", "e1", 0)
	if te.TargetSets != DefaultTargetSets || te.TargetReps != DefaultTargetReps || te.RestSeconds != DefaultRestSeconds {
		t.Errorf("defaults = %d x %s rest %d", te.TargetSets, te.TargetReps, te.RestSeconds)
	}
	if te.SetType != SetNormal {
		t.Errorf("SetType = %s", te.SetType)
	}
	if err := te.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	te.SetType = "giant"
	if err := te.Validate(); err == nil {
		t.Error("expected invalid set type to fail")
	}
	te.SetType = SetWarmup
	te.TargetSets = 0
	if err := te.Validate(); err == nil {
		t.Error("expected zero target sets to fail")
	}
}

func TestIsValidSetType(t *testing.T) {
	for _, st := range AllSetTypes {
		if !IsValidSetType(string(st)) {
			t.Errorf("IsValidSetType(%q) = false", st)
		}
	}
	if IsValidSetType("superset") {
		t.Error("superset is not a set type")
	}
}

func TestSetLogValidate(t *testing.T) {
	w, r := 100.0, 5
	rpe, badRPE := 8.5, 11.0
	rir, badRIR := 2, -1

	tests := []struct {
		name    string
		log     SetLog
		wantErr bool
	}{
		{"valid", SetLog{SessionID: "s", ExerciseID: "e", SetNumber: 1, Weight: &w, Reps: &r, RPE: &rpe, RIR: &rir}, false},
		{"missing session", SetLog{ExerciseID: "e", SetNumber: 1}, true},
		{"set zero", SetLog{SessionID: "s", ExerciseID: "e"}, true},
		{"rpe above ten", SetLog{SessionID: "s", ExerciseID: "e", SetNumber: 1, RPE: &badRPE}, true},
		{"negative rir", SetLog{SessionID: "s", ExerciseID: "e", SetNumber: 1, RIR: &badRIR}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetVolume(t *testing.T) {
	w, r := 60.0, 10
	if got := SetVolume(&w, &r); got != 600 {
		t.Errorf("SetVolume = %v, want 600", got)
	}
	if got := SetVolume(nil, &r); got != 0 {
		t.Errorf("SetVolume without weight = %v, want 0", got)
	}
}

func TestWorkoutSession(t *testing.T) {
	start := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	s := NewWorkoutSession(GuestUserID, "tpl", start)
	if s.IsFinished() {
		t.Error("new session should not be finished")
	}
	if s.Volume() != 0 {
		t.Errorf("Volume = %v, want 0", s.Volume())
	}
	if s.TemplateID == nil || *s.TemplateID != "tpl" {
		t.Error("expected template id")
	}
	if !s.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v", s.StartedAt)
	}
}

func TestBodyMeasurementValidate(t *testing.T) {
	m := NewBodyMeasurement(GuestUserID, 82.5)
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	neg := -1.0
	m.Waist = &neg
	if err := m.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative waist error = %v", err)
	}

	empty := &BodyMeasurement{UserID: GuestUserID}
	if err := empty.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("empty measurement error = %v", err)
	}
}

func TestBiofeedbackValidate(t *testing.T) {
	b := NewBiofeedbackLog(GuestUserID)
	if err := b.Validate(); err != nil {
		t.Errorf("empty log should be valid: %v", err)
	}
	five, six := 5, 6
	b.Energy = &five
	if err := b.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	b.StressLevel = &six
	if err := b.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("score 6 error = %v", err)
	}
}

func TestPendingMutation(t *testing.T) {
	at := time.Date(2026, 3, 2, 7, 0, 0, 0, time.FixedZone("CET", 3600))
	p := NewProgram(GuestUserID, "PPL")

	m, err := NewPendingMutation("programs", OpCreate, p, at)
	if err != nil {
		t.Fatalf("NewPendingMutation: %v", err)
	}
	if m.ID == "" {
		t.Error("expected mutation id")
	}
	if m.TargetID() != p.ID {
		t.Errorf("TargetID = %q, want %q", m.TargetID(), p.ID)
	}
	if m.CreatedAt.Location() != time.UTC {
		t.Error("CreatedAt should be UTC")
	}

	if _, err := NewPendingMutation("programs", Op("upsert"), p, at); !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown op error = %v", err)
	}

	bad := &PendingMutation{Payload: []byte("not json")}
	if bad.TargetID() != "" {
		t.Error("TargetID of bad payload should be empty")
	}
}
