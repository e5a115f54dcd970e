// ABOUTME: Tests for outbox draining against a mocked remote.
// ABOUTME: Verifies FIFO apply, selective clearing, per-record hold-back and Run shutdown.
package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/harperreed/lift/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections from the httptest round trips
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// mutation matches the outbox entry with the given id.
func mutation(id string) gomock.Matcher {
	return gomock.Cond(func(m models.PendingMutation) bool { return m.ID == id })
}

// seedOutbox creates two programs and renames the first, returning the
// three outbox entries oldest first.
func seedOutbox(t *testing.T, store *storage.Memory) []models.PendingMutation {
	t.Helper()
	ctx := context.Background()
	tick := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})

	a := models.NewProgram(models.GuestUserID, "Upper Lower")
	b := models.NewProgram(models.GuestUserID, "Full Body")
	require.NoError(t, storage.Logged(ctx, store, func(w *storage.Writer) error { return w.Create(storage.TablePrograms, a) }))
	require.NoError(t, storage.Logged(ctx, store, func(w *storage.Writer) error { return w.Create(storage.TablePrograms, b) }))
	a.Name = "Upper Lower v2"
	require.NoError(t, storage.Logged(ctx, store, func(w *storage.Writer) error { return w.Update(storage.TablePrograms, a) }))

	pending, err := store.ListPendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	return pending
}

func TestDrainAppliesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := NewMockRemote(ctrl)
	store := storage.NewMemory()
	pending := seedOutbox(t, store)

	gomock.InOrder(
		remote.EXPECT().Apply(gomock.Any(), mutation(pending[0].ID)).Return(nil),
		remote.EXPECT().Apply(gomock.Any(), mutation(pending[1].ID)).Return(nil),
		remote.EXPECT().Apply(gomock.Any(), mutation(pending[2].ID)).Return(nil),
	)

	res, err := sync.NewDrainer(store, remote).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sync.Result{Pushed: 3, Remaining: 0}, res)

	left, err := store.ListPendingMutations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDrainHoldsBackSameRecordAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := NewMockRemote(ctrl)
	store := storage.NewMemory()
	pending := seedOutbox(t, store)
	ctx := context.Background()

	// First program's create fails; its later rename must not overtake it.
	remote.EXPECT().Apply(gomock.Any(), mutation(pending[0].ID)).Return(errors.New("connection reset"))
	remote.EXPECT().Apply(gomock.Any(), mutation(pending[1].ID)).Return(nil)

	res, err := sync.NewDrainer(store, remote).Drain(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, sync.Result{Pushed: 1, Failed: 1, Held: 1, Remaining: 2}, res)

	left, err := store.ListPendingMutations(ctx)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, pending[0].ID, left[0].ID)
	assert.Equal(t, pending[2].ID, left[1].ID)

	gomock.InOrder(
		remote.EXPECT().Apply(gomock.Any(), mutation(pending[0].ID)).Return(nil),
		remote.EXPECT().Apply(gomock.Any(), mutation(pending[2].ID)).Return(nil),
	)
	res, err = sync.NewDrainer(store, remote).Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pushed)
	assert.Zero(t, res.Remaining)
}

func TestDrainKeepsEntriesWhenClearFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := NewMockRemote(ctrl)
	store := storage.NewMemory()
	seedOutbox(t, store)
	remote.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	store.FailOn(func(op, table string) error {
		if op == "clear" {
			return errors.New("disk full")
		}
		return nil
	})

	res, err := sync.NewDrainer(store, remote).Drain(context.Background())
	require.Error(t, err)
	assert.Zero(t, res.Pushed)
	assert.Equal(t, 3, res.Remaining)

	store.FailOn(nil)
	left, err := store.ListPendingMutations(context.Background())
	require.NoError(t, err)
	assert.Len(t, left, 3)
}

func TestDrainWithoutRemote(t *testing.T) {
	_, err := sync.NewDrainer(storage.NewMemory(), nil).Drain(context.Background())
	assert.ErrorIs(t, err, sync.ErrNotConfigured)
}

func TestDrainEmptyOutbox(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := NewMockRemote(ctrl)

	res, err := sync.NewDrainer(storage.NewMemory(), remote).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sync.Result{}, res)
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := NewMockRemote(ctrl)
	store := storage.NewMemory()
	seedOutbox(t, store)
	remote.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sync.NewDrainer(store, remote, sync.WithInterval(10*time.Millisecond)).Run(ctx)
	}()

	require.Eventually(t, func() bool {
		left, err := store.ListPendingMutations(context.Background())
		return err == nil && len(left) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunWithoutRemoteReturnsImmediately(t *testing.T) {
	err := sync.NewDrainer(storage.NewMemory(), nil).Run(context.Background())
	assert.ErrorIs(t, err, sync.ErrNotConfigured)
}
