// ABOUTME: Built-in exercise catalog seeding from an embedded YAML list.
// ABOUTME: Seed rows are local bootstrap data and never enter the outbox.
package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"gopkg.in/yaml.v3"
)

//go:embed seed/exercises.yaml
var seedYAML []byte

type seedEntry struct {
	Name            string   `yaml:"name"`
	MuscleGroups    []string `yaml:"muscle_groups"`
	Equipment       string   `yaml:"equipment"`
	MovementPattern string   `yaml:"movement_pattern"`
	Instructions    string   `yaml:"instructions"`
}

// SeedExercises parses the embedded catalog into fresh, ownerless exercises.
func SeedExercises() ([]models.Exercise, error) {
	var doc struct {
		Exercises []seedEntry `yaml:"exercises"`
	}
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	out := make([]models.Exercise, 0, len(doc.Exercises))
	for _, entry := range doc.Exercises {
		e := models.NewCatalogExercise(entry.Name, entry.MuscleGroups).
			WithEquipment(entry.Equipment).
			WithMovementPattern(entry.MovementPattern).
			WithInstructions(entry.Instructions)
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed exercise %q: %w", entry.Name, err)
		}
		out = append(out, *e)
	}
	return out, nil
}

// SeedCatalog loads the built-in exercises when the exercises table is
// empty. It returns how many rows were written.
func (s *Service) SeedCatalog(ctx context.Context) (int, error) {
	var seeded int
	err := s.store.Update(ctx, func(tx storage.Ops) error {
		n, err := tx.Count(ctx, storage.TableExercises)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		exercises, err := SeedExercises()
		if err != nil {
			return err
		}
		if err := tx.BulkPut(ctx, storage.TableExercises, storage.Records(exercises)); err != nil {
			return err
		}
		seeded = len(exercises)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded > 0 {
		s.log.WithField("count", seeded).Info("exercise catalog seeded")
	}
	return seeded, nil
}
