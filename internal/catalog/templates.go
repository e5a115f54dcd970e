// ABOUTME: Workout template operations within a program.
// ABOUTME: Templates keep dense 0..N-1 order indices after every add, remove and reorder.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

func templateOrder(t *models.WorkoutTemplate) *int { return &t.OrderIndex }

// CreateTemplate appends a template to the end of a program.
func (s *Service) CreateTemplate(ctx context.Context, programID, name string, dayOfWeek *int) (*models.WorkoutTemplate, error) {
	var created *models.WorkoutTemplate
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		if _, err := storage.GetAs[models.Program](ctx, tx, storage.TablePrograms, programID); err != nil {
			return err
		}
		n, err := tx.Count(ctx, storage.TableWorkoutTemplates, storage.Eq("program_id", programID))
		if err != nil {
			return err
		}
		t := models.NewWorkoutTemplate(programID, name, n)
		t.CreatedAt = s.now()
		if dayOfWeek != nil {
			t.WithDayOfWeek(*dayOfWeek)
		}
		if err := t.Validate(); err != nil {
			return err
		}
		created = t
		return w.Create(storage.TableWorkoutTemplates, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.log.WithField("template_id", created.ID).Info("template created")
	return created, nil
}

// GetTemplate returns one template by id.
func (s *Service) GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error) {
	t, err := storage.GetAs[models.WorkoutTemplate](ctx, s.store, storage.TableWorkoutTemplates, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns a program's templates in order.
func (s *Service) ListTemplates(ctx context.Context, programID string) ([]models.WorkoutTemplate, error) {
	templates, err := listTemplates(ctx, s.store, programID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func listTemplates(ctx context.Context, ops storage.Ops, programID string) ([]models.WorkoutTemplate, error) {
	q := storage.Where(storage.Eq("program_id", programID)).Asc("order_index")
	return storage.QueryAs[models.WorkoutTemplate](ctx, ops, storage.TableWorkoutTemplates, q)
}

// TemplatePatch holds optional template edits. ClearDay removes the day of week.
type TemplatePatch struct {
	Name      *string
	DayOfWeek *int
	ClearDay  bool
}

// UpdateTemplate edits a template's name or scheduled day.
func (s *Service) UpdateTemplate(ctx context.Context, id string, patch TemplatePatch) (*models.WorkoutTemplate, error) {
	var updated *models.WorkoutTemplate
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		t, err := storage.GetAs[models.WorkoutTemplate](ctx, w.Tx(), storage.TableWorkoutTemplates, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			t.Name = strings.TrimSpace(*patch.Name)
		}
		switch {
		case patch.ClearDay:
			t.DayOfWeek = nil
		case patch.DayOfWeek != nil:
			t.WithDayOfWeek(*patch.DayOfWeek)
		}
		if err := t.Validate(); err != nil {
			return err
		}
		updated = t
		return w.Update(storage.TableWorkoutTemplates, t)
	})
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return updated, nil
}

// DeleteTemplate removes a template and its exercises, then closes the gap
// in the program's template order.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		t, err := storage.GetAs[models.WorkoutTemplate](ctx, tx, storage.TableWorkoutTemplates, id)
		if err != nil {
			return err
		}
		if err := deleteTemplateRows(ctx, w, id); err != nil {
			return err
		}
		rest, err := listTemplates(ctx, tx, t.ProgramID)
		if err != nil {
			return err
		}
		return densify(w, storage.TableWorkoutTemplates, rest, templateOrder)
	})
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.log.WithField("template_id", id).Info("template deleted")
	return nil
}

// ReorderTemplates sets the program's template order to ids.
func (s *Service) ReorderTemplates(ctx context.Context, programID string, ids []string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		current, err := listTemplates(ctx, w.Tx(), programID)
		if err != nil {
			return err
		}
		ordered, err := arrange(current, ids)
		if err != nil {
			return err
		}
		return densify(w, storage.TableWorkoutTemplates, ordered, templateOrder)
	})
	if err != nil {
		return fmt.Errorf("reorder templates: %w", err)
	}
	return nil
}

// deleteTemplateRows deletes a template and all of its template exercises.
func deleteTemplateRows(ctx context.Context, w *storage.Writer, templateID string) error {
	entries, err := listTemplateExercises(ctx, w.Tx(), templateID)
	if err != nil {
		return err
	}
	for _, te := range entries {
		if err := w.Delete(storage.TableTemplateExercises, te.ID); err != nil {
			return err
		}
	}
	return w.Delete(storage.TableWorkoutTemplates, templateID)
}
