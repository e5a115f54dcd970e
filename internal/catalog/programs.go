// ABOUTME: Program CRUD and single-active-program activation.
// ABOUTME: Deleting a program cascades to its templates and their exercises.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

// CreateProgram creates an inactive program for ownerID.
func (s *Service) CreateProgram(ctx context.Context, ownerID, name, description string) (*models.Program, error) {
	p := models.NewProgram(ownerID, name)
	p.CreatedAt = s.now()
	if description != "" {
		p.WithDescription(description)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		return w.Create(storage.TablePrograms, p)
	})
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	s.log.WithField("program_id", p.ID).Info("program created")
	return p, nil
}

// GetProgram returns one program by id.
func (s *Service) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	p, err := storage.GetAs[models.Program](ctx, s.store, storage.TablePrograms, id)
	if err != nil {
		return nil, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

// ListPrograms returns the owner's programs, oldest first.
func (s *Service) ListPrograms(ctx context.Context, ownerID string) ([]models.Program, error) {
	q := storage.Where(storage.Eq("user_id", ownerID)).Asc("created_at")
	programs, err := storage.QueryAs[models.Program](ctx, s.store, storage.TablePrograms, q)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// ActiveProgram returns the owner's active program, or ErrNotFound.
func (s *Service) ActiveProgram(ctx context.Context, ownerID string) (*models.Program, error) {
	q := storage.Where(storage.Eq("user_id", ownerID), storage.Eq("is_active", true)).Take(1)
	programs, err := storage.QueryAs[models.Program](ctx, s.store, storage.TablePrograms, q)
	if err != nil {
		return nil, fmt.Errorf("active program: %w", err)
	}
	if len(programs) == 0 {
		return nil, notFound("active program for", ownerID)
	}
	return &programs[0], nil
}

// ProgramPatch holds optional program edits.
type ProgramPatch struct {
	Name        *string
	Description *string
}

// UpdateProgram renames or re-describes a program.
func (s *Service) UpdateProgram(ctx context.Context, id string, patch ProgramPatch) (*models.Program, error) {
	var updated *models.Program
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		p, err := storage.GetAs[models.Program](ctx, w.Tx(), storage.TablePrograms, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			if *patch.Description == "" {
				p.Description = nil
			} else {
				p.WithDescription(*patch.Description)
			}
		}
		if err := p.Validate(); err != nil {
			return err
		}
		updated = p
		return w.Update(storage.TablePrograms, p)
	})
	if err != nil {
		return nil, fmt.Errorf("update program: %w", err)
	}
	return updated, nil
}

// ActivateProgram makes id the owner's only active program. Every other
// active program is switched off first in the same transaction, so a
// failed deactivation leaves the target untouched.
func (s *Service) ActivateProgram(ctx context.Context, ownerID, id string) (*models.Program, error) {
	var target *models.Program
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		p, err := storage.GetAs[models.Program](ctx, tx, storage.TablePrograms, id)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && p.UserID != ownerID) {
			return notFound("program", id)
		}
		if err != nil {
			return err
		}

		q := storage.Where(storage.Eq("user_id", ownerID), storage.Eq("is_active", true))
		active, err := storage.QueryAs[models.Program](ctx, tx, storage.TablePrograms, q)
		if err != nil {
			return err
		}
		for _, other := range active {
			if other.ID == id {
				continue
			}
			other.IsActive = false
			if err := w.Update(storage.TablePrograms, other); err != nil {
				return fmt.Errorf("deactivate program %s: %w", other.ID, err)
			}
		}

		target = p
		if p.IsActive {
			return nil
		}
		p.IsActive = true
		return w.Update(storage.TablePrograms, p)
	})
	if err != nil {
		return nil, fmt.Errorf("activate program: %w", err)
	}
	s.log.WithField("program_id", id).Info("program activated")
	return target, nil
}

// DeleteProgram removes a program, its templates and their template exercises.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	err := storage.Logged(ctx, s.store, func(w *storage.Writer) error {
		tx := w.Tx()
		if _, err := storage.GetAs[models.Program](ctx, tx, storage.TablePrograms, id); err != nil {
			return err
		}
		templates, err := storage.QueryAs[models.WorkoutTemplate](ctx, tx, storage.TableWorkoutTemplates,
			storage.Where(storage.Eq("program_id", id)))
		if err != nil {
			return err
		}
		for _, t := range templates {
			if err := deleteTemplateRows(ctx, w, t.ID); err != nil {
				return err
			}
		}
		return w.Delete(storage.TablePrograms, id)
	})
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	s.log.WithField("program_id", id).Info("program deleted")
	return nil
}
