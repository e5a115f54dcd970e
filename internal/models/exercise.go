// ABOUTME: Exercise and TemplateExercise models.
// ABOUTME: Exercises are catalog or custom; TemplateExercise links one exercise into a template.
package models

import (
	"fmt"
	"strings"
)

// SetType tags a set or template exercise with its training style.
type SetType string

const (
	SetNormal    SetType = "normal"
	SetWarmup    SetType = "warmup"
	SetDropset   SetType = "dropset"
	SetRestPause SetType = "restpause"
	SetCluster   SetType = "cluster"
)

// AllSetTypes lists every valid set type.
var AllSetTypes = []SetType{SetNormal, SetWarmup, SetDropset, SetRestPause, SetCluster}

// IsValidSetType reports whether s names a known set type.
func IsValidSetType(s string) bool {
	for _, st := range AllSetTypes {
		if string(st) == s {
			return true
		}
	}
	return false
}

// Template exercise defaults applied when the caller leaves a value unset.
const (
	DefaultTargetSets  = 3
	DefaultTargetReps  = "8-12"
	DefaultRestSeconds = 90
)

// Exercise is either a shared catalog entry or a user-authored custom one.
type Exercise struct {
	ID              string   `json:"id" yaml:"id"`
	UserID          *string  `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Name            string   `json:"name" yaml:"name"`
	MuscleGroups    []string `json:"muscle_groups" yaml:"muscle_groups"`
	Equipment       *string  `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	MovementPattern *string  `json:"movement_pattern,omitempty" yaml:"movement_pattern,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Instructions    *string  `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	IsCustom        bool     `json:"is_custom" yaml:"is_custom"`
}

// NewCatalogExercise creates a shared, ownerless exercise.
func NewCatalogExercise(name string, muscleGroups []string) *Exercise {
	return &Exercise{
		ID:           NewID(),
		Name:         strings.TrimSpace(name),
		MuscleGroups: NormalizeTags(muscleGroups),
	}
}

// NewCustomExercise creates an exercise owned by userID.
func NewCustomExercise(userID, name string, muscleGroups []string) *Exercise {
	e := NewCatalogExercise(name, muscleGroups)
	e.UserID = strPtr(userID)
	e.IsCustom = true
	return e
}

// WithEquipment sets the equipment tag.
func (e *Exercise) WithEquipment(equipment string) *Exercise {
	e.Equipment = optionalTag(equipment)
	return e
}

// WithMovementPattern sets the movement pattern tag.
func (e *Exercise) WithMovementPattern(pattern string) *Exercise {
	e.MovementPattern = optionalTag(pattern)
	return e
}

// WithInstructions sets the instruction text.
func (e *Exercise) WithInstructions(text string) *Exercise {
	if text == "" {
		e.Instructions = nil
		return e
	}
	e.Instructions = &text
	return e
}

// RecordID implements storage.Record.
func (e Exercise) RecordID() string { return e.ID }

// HasMuscle reports whether the exercise carries the given tag.
func (e *Exercise) HasMuscle(tag string) bool {
	tag = strings.ToLower(tag)
	for _, mg := range e.MuscleGroups {
		if strings.ToLower(mg) == tag {
			return true
		}
	}
	return false
}

// Validate checks the exercise's fields.
func (e *Exercise) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("exercise name: %w", ErrInvalid)
	}
	if len(e.MuscleGroups) == 0 {
		return fmt.Errorf("exercise %q muscle groups: %w", e.Name, ErrInvalid)
	}
	if e.IsCustom && (e.UserID == nil || *e.UserID == "") {
		return fmt.Errorf("custom exercise %q owner: %w", e.Name, ErrInvalid)
	}
	return nil
}

func optionalTag(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// TemplateExercise is the configured appearance of one exercise in a template.
type TemplateExercise struct {
	ID          string  `json:"id" yaml:"id"`
	TemplateID  string  `json:"template_id" yaml:"template_id"`
	ExerciseID  string  `json:"exercise_id" yaml:"exercise_id"`
	OrderIndex  int     `json:"order_index" yaml:"order_index"`
	TargetSets  int     `json:"target_sets" yaml:"target_sets"`
	TargetReps  string  `json:"target_reps" yaml:"target_reps"`
	RestSeconds int     `json:"rest_seconds" yaml:"rest_seconds"`
	Notes       *string `json:"notes,omitempty" yaml:"notes,omitempty"`
	SetType     SetType `json:"set_type" yaml:"set_type"`
}

// NewTemplateExercise links exerciseID into templateID with default targets.
func NewTemplateExercise(templateID, exerciseID string, orderIndex int) *TemplateExercise {
	return &TemplateExercise{
		ID:          NewID(),
		TemplateID:  templateID,
		ExerciseID:  exerciseID,
		OrderIndex:  orderIndex,
		TargetSets:  DefaultTargetSets,
		TargetReps:  DefaultTargetReps,
		RestSeconds: DefaultRestSeconds,
		SetType:     SetNormal,
	}
}

// RecordID implements storage.Record.
func (te TemplateExercise) RecordID() string { return te.ID }

// Validate checks targets, rest and set type.
func (te *TemplateExercise) Validate() error {
	if te.TemplateID == "" || te.ExerciseID == "" {
		return fmt.Errorf("template exercise references: %w", ErrInvalid)
	}
	if te.TargetSets < 1 {
		return fmt.Errorf("target sets %d: %w", te.TargetSets, ErrInvalid)
	}
	if te.RestSeconds < 0 {
		return fmt.Errorf("rest seconds %d: %w", te.RestSeconds, ErrInvalid)
	}
	if !IsValidSetType(string(te.SetType)) {
		return fmt.Errorf("set type %q: %w", te.SetType, ErrInvalid)
	}
	if te.OrderIndex < 0 {
		return fmt.Errorf("order index %d: %w", te.OrderIndex, ErrInvalid)
	}
	return nil
}
