// ABOUTME: Catalog service for planning entities: programs, templates, exercises.
// ABOUTME: Every user-visible write goes through storage.Logged so the outbox stays paired.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrNotCustom is returned when editing or deleting a shared catalog exercise.
var ErrNotCustom = errors.New("exercise is not custom")

// ErrOrderMismatch is returned when a reorder does not list exactly the existing ids.
var ErrOrderMismatch = errors.New("order does not match existing items")

// Service manages programs, templates, template exercises and exercises.
type Service struct {
	store storage.Store
	log   *logrus.Entry
	now   func() time.Time
}

// New creates a catalog service over store.
func New(store storage.Store, log *logrus.Entry) *Service {
	return &Service{
		store: store,
		log:   logging.OrDiscard(log).WithField("component", "catalog"),
		now:   models.Now,
	}
}

// SetClock overrides the creation timestamp source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// notFound wraps storage.ErrNotFound with the operation and id.
func notFound(op, id string) error {
	return fmt.Errorf("%s %s: %w", op, id, storage.ErrNotFound)
}

// densify rewrites order indices to 0..N-1 following the slice order and
// logs an update for each row whose index changed.
func densify[T storage.Record](w *storage.Writer, table string, items []T, order func(*T) *int) error {
	for i := range items {
		idx := order(&items[i])
		if *idx == i {
			continue
		}
		*idx = i
		if err := w.Update(table, items[i]); err != nil {
			return err
		}
	}
	return nil
}

// arrange returns items in the order given by ids, which must name every
// item exactly once.
func arrange[T storage.Record](items []T, ids []string) ([]T, error) {
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: got %d ids for %d items", ErrOrderMismatch, len(ids), len(items))
	}
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[it.RecordID()] = it
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown or repeated id %s", ErrOrderMismatch, id)
		}
		delete(byID, id)
		out = append(out, it)
	}
	return out, nil
}
