// ABOUTME: BodyMeasurement and BiofeedbackLog models.
// ABOUTME: Both are append-only dated snapshots for one user.
package models

import (
	"fmt"
	"time"
)

// BodyMeasurement is a dated snapshot of anthropometric values.
type BodyMeasurement struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	Date       time.Time `json:"date" yaml:"date"`
	Weight     *float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
	BodyFat    *float64  `json:"body_fat,omitempty" yaml:"body_fat,omitempty"`
	Chest      *float64  `json:"chest,omitempty" yaml:"chest,omitempty"`
	Waist      *float64  `json:"waist,omitempty" yaml:"waist,omitempty"`
	Hips       *float64  `json:"hips,omitempty" yaml:"hips,omitempty"`
	ArmLeft    *float64  `json:"arm_left,omitempty" yaml:"arm_left,omitempty"`
	ArmRight   *float64  `json:"arm_right,omitempty" yaml:"arm_right,omitempty"`
	ThighLeft  *float64  `json:"thigh_left,omitempty" yaml:"thigh_left,omitempty"`
	ThighRight *float64  `json:"thigh_right,omitempty" yaml:"thigh_right,omitempty"`
}

// NewBodyMeasurement records a body weight for userID now.
func NewBodyMeasurement(userID string, weight float64) *BodyMeasurement {
	return &BodyMeasurement{
		ID:     NewID(),
		UserID: userID,
		Date:   Now(),
		Weight: &weight,
	}
}

// WithDate overrides the measurement date.
func (b *BodyMeasurement) WithDate(t time.Time) *BodyMeasurement {
	b.Date = t.UTC()
	return b
}

// RecordID implements storage.Record.
func (b BodyMeasurement) RecordID() string { return b.ID }

// Validate rejects empty or negative snapshots.
func (b *BodyMeasurement) Validate() error {
	if b.UserID == "" {
		return fmt.Errorf("measurement owner: %w", ErrInvalid)
	}
	values := []*float64{b.Weight, b.BodyFat, b.Chest, b.Waist, b.Hips,
		b.ArmLeft, b.ArmRight, b.ThighLeft, b.ThighRight}
	hasValue := false
	for _, v := range values {
		if v == nil {
			continue
		}
		if *v < 0 {
			return fmt.Errorf("measurement value %v: %w", *v, ErrInvalid)
		}
		hasValue = true
	}
	if !hasValue {
		return fmt.Errorf("measurement has no values: %w", ErrInvalid)
	}
	return nil
}

// BiofeedbackLog captures how a user feels on a given day, each on a 1-5 scale.
type BiofeedbackLog struct {
	ID           string    `json:"id" yaml:"id"`
	UserID       string    `json:"user_id" yaml:"user_id"`
	Date         time.Time `json:"date" yaml:"date"`
	SleepQuality *int      `json:"sleep_quality,omitempty" yaml:"sleep_quality,omitempty"`
	StressLevel  *int      `json:"stress_level,omitempty" yaml:"stress_level,omitempty"`
	Soreness     *int      `json:"soreness,omitempty" yaml:"soreness,omitempty"`
	Energy       *int      `json:"energy,omitempty" yaml:"energy,omitempty"`
	Notes        *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewBiofeedbackLog creates an empty log for userID now.
func NewBiofeedbackLog(userID string) *BiofeedbackLog {
	return &BiofeedbackLog{
		ID:     NewID(),
		UserID: userID,
		Date:   Now(),
	}
}

// RecordID implements storage.Record.
func (b BiofeedbackLog) RecordID() string { return b.ID }

// Validate checks every score is within 1-5.
func (b *BiofeedbackLog) Validate() error {
	if b.UserID == "" {
		return fmt.Errorf("biofeedback owner: %w", ErrInvalid)
	}
	for _, v := range []*int{b.SleepQuality, b.StressLevel, b.Soreness, b.Energy} {
		if v != nil && (*v < 1 || *v > 5) {
			return fmt.Errorf("biofeedback score %d: %w", *v, ErrInvalid)
		}
	}
	return nil
}
