// ABOUTME: Drainer pushes pending outbox mutations to a Remote in FIFO order.
// ABOUTME: Clears only what the remote accepted and keeps per-record order on failure.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Result summarizes one drain.
type Result struct {
	Pushed    int `json:"pushed"`
	Failed    int `json:"failed"`
	Held      int `json:"held"`
	Remaining int `json:"remaining"`
}

// Drainer reads the outbox of one store and applies it to one remote.
type Drainer struct {
	store    storage.Store
	remote   Remote
	interval time.Duration
	log      *logrus.Entry

	mu gosync.Mutex
}

// DrainerOption configures a Drainer.
type DrainerOption func(*Drainer)

// WithInterval sets the Run period.
func WithInterval(d time.Duration) DrainerOption {
	return func(dr *Drainer) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithLogger sets the drainer logger.
func WithLogger(log *logrus.Entry) DrainerOption {
	return func(dr *Drainer) { dr.log = log }
}

// NewDrainer creates a Drainer. A nil remote makes every drain fail with ErrNotConfigured.
func NewDrainer(store storage.Store, remote Remote, opts ...DrainerOption) *Drainer {
	d := &Drainer{store: store, remote: remote, interval: DefaultInterval}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logging.OrDiscard(d.log).WithField("component", "sync")
	return d
}

// Drain applies every pending mutation oldest first. Once a mutation for a
// record fails, later mutations for that record are held back until the
// next drain. The returned error aggregates every failure.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	if d.remote == nil {
		return Result{}, ErrNotConfigured
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	defer func() { drainDuration.Observe(time.Since(start).Seconds()) }()

	pending, err := d.store.ListPendingMutations(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list outbox: %w", err)
	}

	var (
		res     Result
		errs    error
		applied []string
		blocked = make(map[string]bool)
	)
	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		key := m.Table + ":" + m.TargetID()
		if blocked[key] {
			res.Held++
			continue
		}
		if err := d.remote.Apply(ctx, m); err != nil {
			res.Failed++
			blocked[key] = true
			errs = multierr.Append(errs, fmt.Errorf("apply %s %s %s: %w", m.Op, m.Table, m.ID, err))
			d.log.WithFields(logrus.Fields{
				"mutation_id": m.ID,
				"table":       m.Table,
				"op":          m.Op,
			}).WithError(err).Warn("remote apply failed")
			continue
		}
		applied = append(applied, m.ID)
	}

	if len(applied) > 0 {
		if err := d.store.ClearMutations(ctx, applied); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clear outbox: %w", err))
		} else {
			res.Pushed = len(applied)
		}
	}
	res.Remaining = len(pending) - res.Pushed

	pushedCounter.Add(float64(res.Pushed))
	failedCounter.Add(float64(res.Failed))
	heldCounter.Add(float64(res.Held))
	pendingGauge.Set(float64(res.Remaining))

	d.log.WithFields(logrus.Fields{
		"pushed":    res.Pushed,
		"failed":    res.Failed,
		"held":      res.Held,
		"remaining": res.Remaining,
	}).Debug("outbox drained")
	return res, errs
}

// Run drains immediately and then on every interval until ctx is cancelled.
func (d *Drainer) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if _, err := d.Drain(ctx); err != nil {
			if errors.Is(err, ErrNotConfigured) {
				return err
			}
			if ctx.Err() == nil {
				d.log.WithError(err).Warn("drain failed")
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
