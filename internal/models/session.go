// ABOUTME: WorkoutSession and SetLog models for executed training.
// ABOUTME: Sessions gain finish fields once; set logs are immutable records of completed sets.
package models

import (
	"fmt"
	"time"
)

// WorkoutSession is one concrete execution of a template.
type WorkoutSession struct {
	ID          string     `json:"id" yaml:"id"`
	UserID      string     `json:"user_id" yaml:"user_id"`
	TemplateID  *string    `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	TotalVolume *float64   `json:"total_volume,omitempty" yaml:"total_volume,omitempty"`
	Notes       *string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	EnergyLevel *int       `json:"energy_level,omitempty" yaml:"energy_level,omitempty"`
}

// NewWorkoutSession starts a session for userID at startedAt.
func NewWorkoutSession(userID, templateID string, startedAt time.Time) *WorkoutSession {
	s := &WorkoutSession{
		ID:        NewID(),
		UserID:    userID,
		StartedAt: startedAt.UTC(),
	}
	if templateID != "" {
		s.TemplateID = &templateID
	}
	return s
}

// RecordID implements storage.Record.
func (s WorkoutSession) RecordID() string { return s.ID }

// IsFinished reports whether the finish timestamp is set.
func (s *WorkoutSession) IsFinished() bool {
	return s.FinishedAt != nil
}

// Volume returns the total volume, treating an unset value as zero.
func (s *WorkoutSession) Volume() float64 {
	if s.TotalVolume == nil {
		return 0
	}
	return *s.TotalVolume
}

// SetLog is the immutable record of one completed set.
type SetLog struct {
	ID          string    `json:"id" yaml:"id"`
	SessionID   string    `json:"session_id" yaml:"session_id"`
	ExerciseID  string    `json:"exercise_id" yaml:"exercise_id"`
	SetNumber   int       `json:"set_number" yaml:"set_number"`
	Weight      *float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
	Reps        *int      `json:"reps,omitempty" yaml:"reps,omitempty"`
	RPE         *float64  `json:"rpe,omitempty" yaml:"rpe,omitempty"`
	RIR         *int      `json:"rir,omitempty" yaml:"rir,omitempty"`
	SetType     SetType   `json:"set_type" yaml:"set_type"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// RecordID implements storage.Record.
func (l SetLog) RecordID() string { return l.ID }

// Volume is weight x reps, with a missing value contributing zero.
func (l *SetLog) Volume() float64 {
	return SetVolume(l.Weight, l.Reps)
}

// SetVolume multiplies weight and reps, treating nil as zero.
func SetVolume(weight *float64, reps *int) float64 {
	if weight == nil || reps == nil {
		return 0
	}
	return *weight * float64(*reps)
}

// ValidRPE reports whether v is on the 0-10 RPE scale.
func ValidRPE(v float64) bool {
	return v >= 0 && v <= 10
}

// Validate checks the log's numbering and intensity fields.
func (l *SetLog) Validate() error {
	if l.SessionID == "" || l.ExerciseID == "" {
		return fmt.Errorf("set log references: %w", ErrInvalid)
	}
	if l.SetNumber < 1 {
		return fmt.Errorf("set number %d: %w", l.SetNumber, ErrInvalid)
	}
	if l.RPE != nil && !ValidRPE(*l.RPE) {
		return fmt.Errorf("rpe %v: %w", *l.RPE, ErrInvalid)
	}
	if l.RIR != nil && *l.RIR < 0 {
		return fmt.Errorf("rir %d: %w", *l.RIR, ErrInvalid)
	}
	return nil
}
