// ABOUTME: Program and WorkoutTemplate models for training plans.
// ABOUTME: A program owns ordered templates; one program per owner may be active.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Program is a named collection of workout templates.
type Program struct {
	ID          string    `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Name        string    `json:"name" yaml:"name"`
	Description *string   `json:"description,omitempty" yaml:"description,omitempty"`
	IsActive    bool      `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// NewProgram creates an inactive Program owned by userID.
func NewProgram(userID, name string) *Program {
	return &Program{
		ID:        NewID(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: Now(),
	}
}

// WithDescription sets the program description.
func (p *Program) WithDescription(desc string) *Program {
	p.Description = &desc
	return p
}

// RecordID implements storage.Record.
func (p Program) RecordID() string { return p.ID }

// Validate checks the program's required fields.
func (p *Program) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("program owner: %w", ErrInvalid)
	}
	if p.Name == "" {
		return fmt.Errorf("program name: %w", ErrInvalid)
	}
	return nil
}

// WorkoutTemplate is one reusable workout day inside a program.
type WorkoutTemplate struct {
	ID         string    `json:"id" yaml:"id"`
	ProgramID  string    `json:"program_id" yaml:"program_id"`
	Name       string    `json:"name" yaml:"name"`
	DayOfWeek  *int      `json:"day_of_week,omitempty" yaml:"day_of_week,omitempty"`
	OrderIndex int       `json:"order_index" yaml:"order_index"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// NewWorkoutTemplate creates a template for programID at the given position.
func NewWorkoutTemplate(programID, name string, orderIndex int) *WorkoutTemplate {
	return &WorkoutTemplate{
		ID:         NewID(),
		ProgramID:  programID,
		Name:       strings.TrimSpace(name),
		OrderIndex: orderIndex,
		CreatedAt:  Now(),
	}
}

// WithDayOfWeek pins the template to a weekday (0 = Sunday).
func (t *WorkoutTemplate) WithDayOfWeek(day int) *WorkoutTemplate {
	t.DayOfWeek = &day
	return t
}

// RecordID implements storage.Record.
func (t WorkoutTemplate) RecordID() string { return t.ID }

// Validate checks the template's fields.
func (t *WorkoutTemplate) Validate() error {
	if t.ProgramID == "" {
		return fmt.Errorf("template program: %w", ErrInvalid)
	}
	if t.Name == "" {
		return fmt.Errorf("template name: %w", ErrInvalid)
	}
	if t.DayOfWeek != nil && (*t.DayOfWeek < 0 || *t.DayOfWeek > 6) {
		return fmt.Errorf("template day of week %d: %w", *t.DayOfWeek, ErrInvalid)
	}
	if t.OrderIndex < 0 {
		return fmt.Errorf("template order index %d: %w", t.OrderIndex, ErrInvalid)
	}
	return nil
}
