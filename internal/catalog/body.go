// ABOUTME: Body measurement and biofeedback recording.
// ABOUTME: Both are append-only and outboxed like any other user write.
package catalog

import (
	"context"
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

// RecordBodyMeasurement stores a validated measurement.
func (s *Service) RecordBodyMeasurement(ctx context.Context, m *models.BodyMeasurement) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("record measurement: %w", err)
	}
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		return w.Create(storage.TableBodyMeasurements, m)
	})
	if err != nil {
		return fmt.Errorf("record measurement: %w", err)
	}
	return nil
}

// ListBodyMeasurements returns the owner's measurements newest first.
// A limit of zero returns all of them.
func (s *Service) ListBodyMeasurements(ctx context.Context, ownerID string, limit int) ([]models.BodyMeasurement, error) {
	q := storage.Where(storage.Eq("user_id", ownerID)).Desc("date").Take(limit)
	out, err := storage.QueryAs[models.BodyMeasurement](ctx, s.store, storage.TableBodyMeasurements, q)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return out, nil
}

// RecordBiofeedback stores a validated biofeedback log.
func (s *Service) RecordBiofeedback(ctx context.Context, b *models.BiofeedbackLog) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("record biofeedback: %w", err)
	}
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		return w.Create(storage.TableBiofeedbackLogs, b)
	})
	if err != nil {
		return fmt.Errorf("record biofeedback: %w", err)
	}
	return nil
}

// ListBiofeedback returns the owner's biofeedback logs newest first.
func (s *Service) ListBiofeedback(ctx context.Context, ownerID string, limit int) ([]models.BiofeedbackLog, error) {
	q := storage.Where(storage.Eq("user_id", ownerID)).Desc("date").Take(limit)
	out, err := storage.QueryAs[models.BiofeedbackLog](ctx, s.store, storage.TableBiofeedbackLogs, q)
	if err != nil {
		return nil, fmt.Errorf("list biofeedback: %w", err)
	}
	return out, nil
}
