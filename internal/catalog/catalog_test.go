// ABOUTME: Tests for program, template and template exercise management.
// ABOUTME: Runs against both the SQLite store and the in-memory fake.
package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

type storeFactory struct {
	name string
	open func(t *testing.T) storage.Store
}

var factories = []storeFactory{
	{"memory", func(t *testing.T) storage.Store { return storage.NewMemory() }},
	{"sqlite", func(t *testing.T) storage.Store {
		db, err := storage.Open(filepath.Join(t.TempDir(), "lift.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return db
	}},
}

func eachStore(t *testing.T, fn func(t *testing.T, store storage.Store, svc *Service)) {
	t.Helper()
	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			store := f.open(t)
			svc := New(store, nil)
			tick := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
			svc.SetClock(func() time.Time {
				tick = tick.Add(time.Second)
				return tick
			})
			fn(t, store, svc)
		})
	}
}

func outboxLen(t *testing.T, store storage.Store) int {
	t.Helper()
	pending, err := store.ListPendingMutations(context.Background())
	require.NoError(t, err)
	return len(pending)
}

func newExercise(t *testing.T, store storage.Store, name string, muscles ...string) *models.Exercise {
	t.Helper()
	e := models.NewCatalogExercise(name, muscles)
	require.NoError(t, store.Put(context.Background(), storage.TableExercises, e))
	return e
}

func TestCreateProgramWritesOutbox(t *testing.T) {
	eachStore(t, func(t *testing.T, store storage.Store, svc *Service) {
		ctx := context.Background()
		p, err := svc.CreateProgram(ctx, owner, "  PPL  ", "push pull legs")
		require.NoError(t, err)
		assert.Equal(t, "PPL", p.Name)
		assert.False(t, p.IsActive)
		require.NotNil(t, p.Description)

		got, err := svc.GetProgram(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)

		pending, err := store.ListPendingMutations(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, storage.TablePrograms, pending[0].Table)
		assert.Equal(t, models.OpCreate, pending[0].Op)
		assert.Equal(t, p.ID, pending[0].TargetID())
	})
}

func TestCreateProgramRejectsEmptyName(t *testing.T) {
	svc := New(storage.NewMemory(), nil)
	_, err := svc.CreateProgram(context.Background(), owner, "   ", "")
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestUpdateProgram(t *testing.T) {
	ctx := context.Background()
	svc := New(storage.NewMemory(), nil)
	p, err := svc.CreateProgram(ctx, owner, "Old", "desc")
	require.NoError(t, err)

	name, empty := "New", ""
	updated, err := svc.UpdateProgram(ctx, p.ID, ProgramPatch{Name: &name, Description: &empty})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Nil(t, updated.Description)

	_, err = svc.UpdateProgram(ctx, "missing", ProgramPatch{Name: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestActivateProgramIsExclusive(t *testing.T) {
	eachStore(t, func(t *testing.T, store storage.Store, svc *Service) {
		ctx := context.Background()
		faker := gofakeit.New(42)

		var ids []string
		for i := 0; i < 5; i++ {
			p, err := svc.CreateProgram(ctx, owner, faker.Noun(), "")
			require.NoError(t, err)
			ids = append(ids, p.ID)
		}
		// A second owner's active program must be left alone.
		other, err := svc.CreateProgram(ctx, "user-2", "Other", "")
		require.NoError(t, err)
		_, err = svc.ActivateProgram(ctx, "user-2", other.ID)
		require.NoError(t, err)

		for i := 0; i < 40; i++ {
			target := ids[faker.IntRange(0, len(ids)-1)]
			_, err := svc.ActivateProgram(ctx, owner, target)
			require.NoError(t, err)

			programs, err := svc.ListPrograms(ctx, owner)
			require.NoError(t, err)
			active := 0
			for _, p := range programs {
				if p.IsActive {
					active++
					assert.Equal(t, target, p.ID)
				}
			}
			require.Equal(t, 1, active, "exactly one active program after activation %d", i)
		}

		got, err := svc.ActiveProgram(ctx, "user-2")
		require.NoError(t, err)
		assert.Equal(t, other.ID, got.ID)
	})
}

func TestActivateProgramNotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(storage.NewMemory(), nil)

	_, err := svc.ActivateProgram(ctx, owner, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	p, err := svc.CreateProgram(ctx, "someone-else", "Theirs", "")
	require.NoError(t, err)
	_, err = svc.ActivateProgram(ctx, owner, p.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "another owner's program is not visible")

	_, err = svc.ActiveProgram(ctx, owner)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestActivateProgramRollsBackOnFailedDeactivation(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	svc := New(mem, nil)

	a, err := svc.CreateProgram(ctx, owner, "A", "")
	require.NoError(t, err)
	b, err := svc.CreateProgram(ctx, owner, "B", "")
	require.NoError(t, err)
	_, err = svc.ActivateProgram(ctx, owner, a.ID)
	require.NoError(t, err)
	before := outboxLen(t, mem)

	boom := errors.New("disk full")
	mem.FailOn(func(op, table string) error {
		if op == "put" && table == storage.TablePrograms {
			return boom
		}
		return nil
	})
	_, err = svc.ActivateProgram(ctx, owner, b.ID)
	require.ErrorIs(t, err, boom)
	mem.FailOn(nil)

	active, err := svc.ActiveProgram(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID, "failed activation must keep the previous program active")
	assert.Equal(t, before, outboxLen(t, mem), "no outbox entries without their entity writes")
}

func TestActivateAlreadyActiveIsNoop(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	svc := New(mem, nil)

	p, err := svc.CreateProgram(ctx, owner, "A", "")
	require.NoError(t, err)
	_, err = svc.ActivateProgram(ctx, owner, p.ID)
	require.NoError(t, err)
	before := outboxLen(t, mem)

	got, err := svc.ActivateProgram(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, before, outboxLen(t, mem))
}

func TestTemplateOrderStaysDense(t *testing.T) {
	eachStore(t, func(t *testing.T, store storage.Store, svc *Service) {
		ctx := context.Background()
		faker := gofakeit.New(7)

		p, err := svc.CreateProgram(ctx, owner, "Split", "")
		require.NoError(t, err)
		tmpl, err := svc.CreateTemplate(ctx, p.ID, "Day", nil)
		require.NoError(t, err)
		ex := newExercise(t, store, "Squat", "quads")

		var rows []string
		var templates []string
		for i := 0; i < 30; i++ {
			switch {
			case len(rows) == 0 || faker.Bool():
				te, err := svc.AddExerciseToTemplate(ctx, tmpl.ID, ex.ID, TemplateExerciseOpts{})
				require.NoError(t, err)
				rows = append(rows, te.ID)
			default:
				idx := faker.IntRange(0, len(rows)-1)
				require.NoError(t, svc.RemoveExerciseFromTemplate(ctx, rows[idx]))
				rows = append(rows[:idx], rows[idx+1:]...)
			}

			if faker.Bool() {
				nt, err := svc.CreateTemplate(ctx, p.ID, faker.Noun(), nil)
				require.NoError(t, err)
				templates = append(templates, nt.ID)
			} else if len(templates) > 0 {
				idx := faker.IntRange(0, len(templates)-1)
				require.NoError(t, svc.DeleteTemplate(ctx, templates[idx]))
				templates = append(templates[:idx], templates[idx+1:]...)
			}

			entries, err := svc.ListTemplateExercises(ctx, tmpl.ID)
			require.NoError(t, err)
			require.Len(t, entries, len(rows))
			for j, te := range entries {
				require.Equal(t, j, te.OrderIndex)
				require.Equal(t, rows[j], te.ID, "relative order must be preserved")
			}

			all, err := svc.ListTemplates(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, all, len(templates)+1)
			for j, tpl := range all {
				require.Equal(t, j, tpl.OrderIndex)
			}
		}
	})
}

func TestCreateTemplateUnknownProgram(t *testing.T) {
	svc := New(storage.NewMemory(), nil)
	_, err := svc.CreateTemplate(context.Background(), "missing", "Push", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateTemplate(t *testing.T) {
	ctx := context.Background()
	svc := New(storage.NewMemory(), nil)
	p, err := svc.CreateProgram(ctx, owner, "P", "")
	require.NoError(t, err)
	day := 1
	tmpl, err := svc.CreateTemplate(ctx, p.ID, "Push", &day)
	require.NoError(t, err)
	require.NotNil(t, tmpl.DayOfWeek)

	bad := 9
	_, err = svc.UpdateTemplate(ctx, tmpl.ID, TemplatePatch{DayOfWeek: &bad})
	assert.ErrorIs(t, err, models.ErrInvalid)

	name := "Push A"
	updated, err := svc.UpdateTemplate(ctx, tmpl.ID, TemplatePatch{Name: &name, ClearDay: true})
	require.NoError(t, err)
	assert.Equal(t, "Push A", updated.Name)
	assert.Nil(t, updated.DayOfWeek)
}

func TestReorderTemplates(t *testing.T) {
	ctx := context.Background()
	svc := New(storage.NewMemory(), nil)
	p, err := svc.CreateProgram(ctx, owner, "P", "")
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"Push", "Pull", "Legs"} {
		tmpl, err := svc.CreateTemplate(ctx, p.ID, name, nil)
		require.NoError(t, err)
		ids = append(ids, tmpl.ID)
	}

	require.NoError(t, svc.ReorderTemplates(ctx, p.ID, []string{ids[2], ids[0], ids[1]}))
	got, err := svc.ListTemplates(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Legs", got[0].Name)
	assert.Equal(t, "Push", got[1].Name)
	assert.Equal(t, "Pull", got[2].Name)

	err = svc.ReorderTemplates(ctx, p.ID, []string{ids[0], ids[0], ids[1]})
	assert.ErrorIs(t, err, ErrOrderMismatch)
	err = svc.ReorderTemplates(ctx, p.ID, ids[:2])
	assert.ErrorIs(t, err, ErrOrderMismatch)
}

func TestAddExerciseDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := New(store, nil)
	p, err := svc.CreateProgram(ctx, owner, "P", "")
	require.NoError(t, err)
	tmpl, err := svc.CreateTemplate(ctx, p.ID, "Push", nil)
	require.NoError(t, err)
	bench := newExercise(t, store, "Bench Press", "chest")

	te, err := svc.AddExerciseToTemplate(ctx, tmpl.ID, bench.ID, TemplateExerciseOpts{})
	require.NoError(t, err)
	assert.Equal(t, 0, te.OrderIndex)
	assert.Equal(t, models.DefaultTargetSets, te.TargetSets)
	assert.Equal(t, models.DefaultTargetReps, te.TargetReps)
	assert.Equal(t, models.DefaultRestSeconds, te.RestSeconds)
	assert.Equal(t, models.SetNormal, te.SetType)

	sets, reps, rest := 5, "5", 180
	st := models.SetWarmup
	te2, err := svc.AddExerciseToTemplate(ctx, tmpl.ID, bench.ID, TemplateExerciseOpts{
		TargetSets: &sets, TargetReps: &reps, RestSeconds: &rest, SetType: &st,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, te2.OrderIndex)
	assert.Equal(t, 5, te2.TargetSets)
	assert.Equal(t, 180, te2.RestSeconds)

	zero := 0
	_, err = svc.UpdateTemplateExercise(ctx, te2.ID, TemplateExerciseOpts{TargetSets: &zero})
	assert.ErrorIs(t, err, models.ErrInvalid)

	notes := "pause at the bottom"
	updated, err := svc.UpdateTemplateExercise(ctx, te2.ID, TemplateExerciseOpts{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, 5, updated.TargetSets)
}

func TestAddExerciseUnknownReferences(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := New(store, nil)
	p, err := svc.CreateProgram(ctx, owner, "P", "")
	require.NoError(t, err)
	tmpl, err := svc.CreateTemplate(ctx, p.ID, "Push", nil)
	require.NoError(t, err)
	ex := newExercise(t, store, "Row", "back")

	_, err = svc.AddExerciseToTemplate(ctx, "missing", ex.ID, TemplateExerciseOpts{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = svc.AddExerciseToTemplate(ctx, tmpl.ID, "missing", TemplateExerciseOpts{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteProgramCascades(t *testing.T) {
	eachStore(t, func(t *testing.T, store storage.Store, svc *Service) {
		ctx := context.Background()
		ex := newExercise(t, store, "Deadlift", "back")
		p, err := svc.CreateProgram(ctx, owner, "P", "")
		require.NoError(t, err)
		var templateIDs []string
		for _, name := range []string{"A", "B"} {
			tmpl, err := svc.CreateTemplate(ctx, p.ID, name, nil)
			require.NoError(t, err)
			templateIDs = append(templateIDs, tmpl.ID)
			_, err = svc.AddExerciseToTemplate(ctx, tmpl.ID, ex.ID, TemplateExerciseOpts{})
			require.NoError(t, err)
		}

		require.NoError(t, svc.DeleteProgram(ctx, p.ID))

		_, err = svc.GetProgram(ctx, p.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		n, err := store.Count(ctx, storage.TableWorkoutTemplates)
		require.NoError(t, err)
		assert.Zero(t, n)
		n, err = store.Count(ctx, storage.TableTemplateExercises)
		require.NoError(t, err)
		assert.Zero(t, n)

		// The exercise itself is shared and survives.
		_, err = svc.GetExercise(ctx, ex.ID)
		require.NoError(t, err)

		pending, err := store.ListPendingMutations(ctx)
		require.NoError(t, err)
		last := pending[len(pending)-1]
		assert.Equal(t, models.OpDelete, last.Op)
		assert.Equal(t, storage.TablePrograms, last.Table)
	})
}

func TestReorderTemplateExercises(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := New(store, nil)
	p, err := svc.CreateProgram(ctx, owner, "P", "")
	require.NoError(t, err)
	tmpl, err := svc.CreateTemplate(ctx, p.ID, "Push", nil)
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"Bench", "Fly", "Dip"} {
		ex := newExercise(t, store, name, "chest")
		te, err := svc.AddExerciseToTemplate(ctx, tmpl.ID, ex.ID, TemplateExerciseOpts{})
		require.NoError(t, err)
		ids = append(ids, te.ID)
	}
	before := outboxLen(t, store)

	require.NoError(t, svc.ReorderTemplateExercises(ctx, tmpl.ID, []string{ids[1], ids[0], ids[2]}))
	entries, err := svc.ListTemplateExercises(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, ids[1], entries[0].ID)
	assert.Equal(t, ids[0], entries[1].ID)
	assert.Equal(t, ids[2], entries[2].ID)
	assert.Equal(t, before+2, outboxLen(t, store), "only moved rows are logged")
}
