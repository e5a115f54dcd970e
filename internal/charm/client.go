// ABOUTME: Charm KV remote that mirrors outbox mutations into Charm Cloud.
// ABOUTME: Records live under "<table>:<id>" keys holding their JSON payload.
package charm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	dbName           = "lift"
	defaultCharmHost = "charm.2389.dev"
)

// ErrReadOnly is returned when another process holds the KV lock.
var ErrReadOnly = errors.New("cannot write: charm database is locked by another process")

// kvStore is the part of *kv.KV the remote uses.
type kvStore interface {
	Set(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	IsReadOnly() bool
	Close() error
}

// Remote applies outbox mutations to a Charm KV database.
type Remote struct {
	kv       kvStore
	autoSync bool
	log      *logrus.Entry
	mu       sync.RWMutex
}

// Option configures a Remote.
type Option func(*Remote)

// WithAutoSync controls whether every write is followed by a cloud sync.
func WithAutoSync(enabled bool) Option {
	return func(r *Remote) { r.autoSync = enabled }
}

// WithLogger sets the remote logger.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Remote) { r.log = log }
}

// Open connects to the lift KV database on host (the default host when
// empty) and pulls remote state.
func Open(host string, opts ...Option) (*Remote, error) {
	if host == "" {
		host = defaultCharmHost
	}
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return nil, fmt.Errorf("set charm host: %w", err)
	}
	db, err := kv.OpenWithDefaultsFallback(dbName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}
	r := newRemote(db, opts...)
	if !db.IsReadOnly() {
		if err := db.Sync(); err != nil {
			r.log.WithError(err).Warn("initial charm sync failed")
		}
	}
	return r, nil
}

func newRemote(store kvStore, opts ...Option) *Remote {
	r := &Remote{kv: store, autoSync: true}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrDiscard(r.log).WithField("component", "charm")
	return r
}

// Key returns the KV key of one record.
func Key(table, id string) string {
	return table + ":" + id
}

// splitKey is the inverse of Key.
func splitKey(key string) (table, id string, ok bool) {
	return strings.Cut(key, ":")
}

// Apply writes the mutation's payload under its record key, or removes the
// key for a delete. Deleting a missing key succeeds.
func (r *Remote) Apply(ctx context.Context, m models.PendingMutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := m.TargetID()
	if id == "" {
		return fmt.Errorf("mutation %s has no record id: %w", m.ID, models.ErrInvalid)
	}
	key := []byte(Key(m.Table, id))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kv.IsReadOnly() {
		return ErrReadOnly
	}

	switch m.Op {
	case models.OpCreate, models.OpUpdate:
		if err := r.kv.Set(key, m.Payload); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	case models.OpDelete:
		if err := r.kv.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	default:
		return fmt.Errorf("mutation op %q: %w", m.Op, models.ErrInvalid)
	}

	if r.autoSync {
		if err := r.kv.Sync(); err != nil {
			return fmt.Errorf("charm sync: %w", err)
		}
	}
	r.log.WithFields(logrus.Fields{"key": string(key), "op": m.Op}).Debug("applied")
	return nil
}

// Fetch returns the stored payload of one record.
func (r *Remote) Fetch(table, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, err := r.kv.Get([]byte(Key(table, id)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("charm %s: %w", Key(table, id), storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", Key(table, id), err)
	}
	return data, nil
}

// Counts returns how many records each table holds remotely.
func (r *Remote) Counts() (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys, err := r.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := make(map[string]int)
	for _, k := range keys {
		if table, _, ok := splitKey(string(bytes.TrimSpace(k))); ok {
			out[table]++
		}
	}
	return out, nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (r *Remote) IsReadOnly() bool {
	return r.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (r *Remote) Sync() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.kv.IsReadOnly() {
		return nil
	}
	return r.kv.Sync()
}

// ID returns the Charm user ID for the current account.
func (r *Remote) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Close closes the KV database connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kv != nil {
		return r.kv.Close()
	}
	return nil
}
