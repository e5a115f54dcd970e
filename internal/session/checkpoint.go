// ABOUTME: Durable checkpoint of the active session in the local-only active_session table.
// ABOUTME: Written on every applied change so a restart resumes exactly where it left off.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/lift/internal/storage"
)

// checkpointID is the single row key; only one session may be active.
const checkpointID = "current"

type checkpoint struct {
	ID      string    `json:"id"`
	State   State     `json:"state"`
	SavedAt time.Time `json:"saved_at"`
}

func (c checkpoint) RecordID() string { return c.ID }

func saveCheckpoint(ctx context.Context, ops storage.Ops, st State, at time.Time) error {
	return ops.Put(ctx, storage.TableActiveSession, checkpoint{ID: checkpointID, State: st, SavedAt: at})
}

func clearCheckpoint(ctx context.Context, ops storage.Ops) error {
	err := ops.Delete(ctx, storage.TableActiveSession, checkpointID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// loadCheckpoint returns the saved state, or ok=false when none exists.
func loadCheckpoint(ctx context.Context, ops storage.Ops) (State, bool, error) {
	cp, err := storage.GetAs[checkpoint](ctx, ops, storage.TableActiveSession, checkpointID)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return cp.State, true, nil
}
