// ABOUTME: Exercise lookup, filtering, similarity and custom exercise CRUD.
// ABOUTME: Filter and Similar are pure so hosts can run them over cached lists.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

// MaxSimilar caps GetSimilarExercises results.
const MaxSimilar = 5

// DefaultCustomName names a custom exercise created without a name.
const DefaultCustomName = "Custom Exercise"

// ExerciseFilter narrows the exercise list. Zero fields match everything.
type ExerciseFilter struct {
	Query        string
	MuscleGroups []string
	Equipment    string
}

// GetExercise returns one exercise by id.
func (s *Service) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	e, err := storage.GetAs[models.Exercise](ctx, s.store, storage.TableExercises, id)
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return e, nil
}

// ListExercises returns every exercise sorted by name.
func (s *Service) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	exercises, err := storage.QueryAs[models.Exercise](ctx, s.store, storage.TableExercises, storage.Query{}.Asc("name"))
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// ExercisesByID loads exercises into a map keyed by id.
func (s *Service) ExercisesByID(ctx context.Context) (map[string]models.Exercise, error) {
	exercises, err := s.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Exercise, len(exercises))
	for _, e := range exercises {
		out[e.ID] = e
	}
	return out, nil
}

// FilterExercises applies f over the whole exercise list.
func (s *Service) FilterExercises(ctx context.Context, f ExerciseFilter) ([]models.Exercise, error) {
	exercises, err := s.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(exercises, f), nil
}

// GetSimilarExercises returns up to MaxSimilar other exercises sharing the
// movement pattern or a muscle group. An unknown id yields an empty list.
func (s *Service) GetSimilarExercises(ctx context.Context, id string) ([]models.Exercise, error) {
	exercises, err := s.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return Similar(exercises, id), nil
}

// Filter keeps exercises matching every criterion of f. The query is a
// case-insensitive substring of the name or any tag; muscle groups match if
// any one is present; equipment matches exactly, ignoring case.
func Filter(exercises []models.Exercise, f ExerciseFilter) []models.Exercise {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	muscles := models.NormalizeTags(f.MuscleGroups)
	equipment := strings.ToLower(strings.TrimSpace(f.Equipment))

	out := []models.Exercise{}
	for _, e := range exercises {
		if query != "" && !matchesQuery(&e, query) {
			continue
		}
		if len(muscles) > 0 && !hasAnyMuscle(&e, muscles) {
			continue
		}
		if equipment != "" && (e.Equipment == nil || strings.ToLower(*e.Equipment) != equipment) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesQuery(e *models.Exercise, query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) {
		return true
	}
	for _, mg := range e.MuscleGroups {
		if strings.Contains(strings.ToLower(mg), query) {
			return true
		}
	}
	return false
}

func hasAnyMuscle(e *models.Exercise, muscles []string) bool {
	for _, m := range muscles {
		if e.HasMuscle(m) {
			return true
		}
	}
	return false
}

// Similar returns up to MaxSimilar exercises other than id that share its
// non-null movement pattern or at least one muscle group, in list order.
func Similar(exercises []models.Exercise, id string) []models.Exercise {
	var target *models.Exercise
	for i := range exercises {
		if exercises[i].ID == id {
			target = &exercises[i]
			break
		}
	}
	out := []models.Exercise{}
	if target == nil {
		return out
	}
	for _, e := range exercises {
		if e.ID == id {
			continue
		}
		samePattern := target.MovementPattern != nil && e.MovementPattern != nil &&
			*target.MovementPattern == *e.MovementPattern
		if samePattern || sharesMuscle(target, &e) {
			out = append(out, e)
			if len(out) == MaxSimilar {
				break
			}
		}
	}
	return out
}

func sharesMuscle(a, b *models.Exercise) bool {
	for _, mg := range a.MuscleGroups {
		if b.HasMuscle(mg) {
			return true
		}
	}
	return false
}

// MuscleGroups returns every distinct muscle tag in the list, sorted.
func MuscleGroups(exercises []models.Exercise) []string {
	var all []string
	for _, e := range exercises {
		all = append(all, e.MuscleGroups...)
	}
	return models.NormalizeTags(all)
}

// ExerciseInput describes a custom exercise. Nil fields are left unchanged
// on update.
type ExerciseInput struct {
	Name            *string
	MuscleGroups    []string
	Equipment       *string
	MovementPattern *string
	Instructions    *string
	ImageURL        *string
}

func (in ExerciseInput) apply(e *models.Exercise) {
	if in.Name != nil {
		e.Name = strings.TrimSpace(*in.Name)
	}
	if in.MuscleGroups != nil {
		e.MuscleGroups = models.NormalizeTags(in.MuscleGroups)
	}
	if in.Equipment != nil {
		e.WithEquipment(*in.Equipment)
	}
	if in.MovementPattern != nil {
		e.WithMovementPattern(*in.MovementPattern)
	}
	if in.Instructions != nil {
		e.WithInstructions(*in.Instructions)
	}
	if in.ImageURL != nil {
		if *in.ImageURL == "" {
			e.ImageURL = nil
		} else {
			url := *in.ImageURL
			e.ImageURL = &url
		}
	}
}

// CreateCustomExercise adds an exercise owned by ownerID.
func (s *Service) CreateCustomExercise(ctx context.Context, ownerID string, in ExerciseInput) (*models.Exercise, error) {
	e := models.NewCustomExercise(ownerID, DefaultCustomName, nil)
	in.apply(e)
	if e.Name == "" {
		e.Name = DefaultCustomName
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		return w.Create(storage.TableExercises, e)
	})
	if err != nil {
		return nil, fmt.Errorf("create exercise: %w", err)
	}
	s.log.WithField("exercise_id", e.ID).Info("custom exercise created")
	return e, nil
}

// UpdateExercise edits a custom exercise. Catalog entries return ErrNotCustom.
func (s *Service) UpdateExercise(ctx context.Context, id string, in ExerciseInput) (*models.Exercise, error) {
	var updated *models.Exercise
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		e, err := storage.GetAs[models.Exercise](ctx, w.Tx(), storage.TableExercises, id)
		if err != nil {
			return err
		}
		if !e.IsCustom {
			return ErrNotCustom
		}
		in.apply(e)
		if err := e.Validate(); err != nil {
			return err
		}
		updated = e
		return w.Update(storage.TableExercises, e)
	})
	if err != nil {
		return nil, fmt.Errorf("update exercise %s: %w", id, err)
	}
	return updated, nil
}

// DeleteExercise removes a custom exercise. Catalog entries return ErrNotCustom.
func (s *Service) DeleteExercise(ctx context.Context, id string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		e, err := storage.GetAs[models.Exercise](ctx, w.Tx(), storage.TableExercises, id)
		if err != nil {
			return err
		}
		if !e.IsCustom {
			return ErrNotCustom
		}
		return w.Delete(storage.TableExercises, id)
	})
	if err != nil {
		if errors.Is(err, ErrNotCustom) {
			s.log.WithField("exercise_id", id).Warn("refused to delete catalog exercise")
		}
		return fmt.Errorf("delete exercise %s: %w", id, err)
	}
	return nil
}
