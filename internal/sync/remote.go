// ABOUTME: Remote is the sync backend that outbox mutations are applied to.
// ABOUTME: Implemented by the HTTP remote here and by the Charm KV remote.
package sync

import (
	"context"

	"github.com/harperreed/lift/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=sync_test

// Remote applies one outbox mutation. Applying the same mutation twice
// must leave the remote in the same state as applying it once.
type Remote interface {
	Apply(ctx context.Context, m models.PendingMutation) error
}
