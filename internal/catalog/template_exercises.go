// ABOUTME: Template exercise operations: add, update, remove and reorder.
// ABOUTME: Removing a row re-densifies the remaining order indices to 0..N-1.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
)

func templateExerciseOrder(te *models.TemplateExercise) *int { return &te.OrderIndex }

// TemplateExerciseOpts holds optional targets. Nil fields keep the default
// on add and the current value on update. An empty Notes clears the notes.
type TemplateExerciseOpts struct {
	TargetSets  *int
	TargetReps  *string
	RestSeconds *int
	Notes       *string
	SetType     *models.SetType
}

func (o TemplateExerciseOpts) apply(te *models.TemplateExercise) {
	if o.TargetSets != nil {
		te.TargetSets = *o.TargetSets
	}
	if o.TargetReps != nil {
		te.TargetReps = strings.TrimSpace(*o.TargetReps)
	}
	if o.RestSeconds != nil {
		te.RestSeconds = *o.RestSeconds
	}
	if o.Notes != nil {
		if *o.Notes == "" {
			te.Notes = nil
		} else {
			notes := *o.Notes
			te.Notes = &notes
		}
	}
	if o.SetType != nil {
		te.SetType = *o.SetType
	}
}

// AddExerciseToTemplate appends exerciseID to the end of the template.
func (s *Service) AddExerciseToTemplate(ctx context.Context, templateID, exerciseID string, opts TemplateExerciseOpts) (*models.TemplateExercise, error) {
	var created *models.TemplateExercise
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		if _, err := storage.GetAs[models.WorkoutTemplate](ctx, tx, storage.TableWorkoutTemplates, templateID); err != nil {
			return fmt.Errorf("template %s: %w", templateID, err)
		}
		if _, err := storage.GetAs[models.Exercise](ctx, tx, storage.TableExercises, exerciseID); err != nil {
			return fmt.Errorf("exercise %s: %w", exerciseID, err)
		}
		n, err := tx.Count(ctx, storage.TableTemplateExercises, storage.Eq("template_id", templateID))
		if err != nil {
			return err
		}
		te := models.NewTemplateExercise(templateID, exerciseID, n)
		opts.apply(te)
		if err := te.Validate(); err != nil {
			return err
		}
		created = te
		return w.Create(storage.TableTemplateExercises, te)
	})
	if err != nil {
		return nil, fmt.Errorf("add exercise to template: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"template_id": templateID,
		"exercise_id": exerciseID,
	}).Debug("exercise added to template")
	return created, nil
}

// GetTemplateExercise returns one template exercise by id.
func (s *Service) GetTemplateExercise(ctx context.Context, id string) (*models.TemplateExercise, error) {
	te, err := storage.GetAs[models.TemplateExercise](ctx, s.store, storage.TableTemplateExercises, id)
	if err != nil {
		return nil, fmt.Errorf("get template exercise: %w", err)
	}
	return te, nil
}

// UpdateTemplateExercise changes targets, rest, notes or set type.
func (s *Service) UpdateTemplateExercise(ctx context.Context, id string, opts TemplateExerciseOpts) (*models.TemplateExercise, error) {
	var updated *models.TemplateExercise
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		te, err := storage.GetAs[models.TemplateExercise](ctx, w.Tx(), storage.TableTemplateExercises, id)
		if err != nil {
			return err
		}
		opts.apply(te)
		if err := te.Validate(); err != nil {
			return err
		}
		updated = te
		return w.Update(storage.TableTemplateExercises, te)
	})
	if err != nil {
		return nil, fmt.Errorf("update template exercise: %w", err)
	}
	return updated, nil
}

// RemoveExerciseFromTemplate deletes one row and closes the gap it leaves.
func (s *Service) RemoveExerciseFromTemplate(ctx context.Context, id string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		te, err := storage.GetAs[models.TemplateExercise](ctx, tx, storage.TableTemplateExercises, id)
		if err != nil {
			return err
		}
		if err := w.Delete(storage.TableTemplateExercises, id); err != nil {
			return err
		}
		rest, err := listTemplateExercises(ctx, tx, te.TemplateID)
		if err != nil {
			return err
		}
		return densify(w, storage.TableTemplateExercises, rest, templateExerciseOrder)
	})
	if err != nil {
		return fmt.Errorf("remove exercise from template: %w", err)
	}
	return nil
}

// ReorderTemplateExercises sets the template's exercise order to ids.
func (s *Service) ReorderTemplateExercises(ctx context.Context, templateID string, ids []string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		current, err := listTemplateExercises(ctx, w.Tx(), templateID)
		if err != nil {
			return err
		}
		ordered, err := arrange(current, ids)
		if err != nil {
			return err
		}
		return densify(w, storage.TableTemplateExercises, ordered, templateExerciseOrder)
	})
	if err != nil {
		return fmt.Errorf("reorder template exercises: %w", err)
	}
	return nil
}

// ListTemplateExercises returns a template's exercises in order.
func (s *Service) ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error) {
	entries, err := listTemplateExercises(ctx, s.store, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template exercises: %w", err)
	}
	return entries, nil
}

func listTemplateExercises(ctx context.Context, ops storage.Ops, templateID string) ([]models.TemplateExercise, error) {
	q := storage.Where(storage.Eq("template_id", templateID)).Asc("order_index")
	return storage.QueryAs[models.TemplateExercise](ctx, ops, storage.TableTemplateExercises, q)
}
