// ABOUTME: Aggregator loads recent history from the store and builds a full report.
// ABOUTME: Reads only; it never writes to the store or the outbox.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultWindow bounds the muscle frequency analysis.
	DefaultWindow = 30 * 24 * time.Hour
	// RecentSessions is how many finished sessions a report loads.
	RecentSessions = 30
	// RecentMeasurements is how many body measurements a report loads.
	RecentMeasurements = 30
)

// Aggregator computes reports for one store.
type Aggregator struct {
	store  storage.Store
	window time.Duration
	log    *logrus.Entry
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWindow sets the frequency analysis window; non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.window = d
		}
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(log *logrus.Entry) Option {
	return func(a *Aggregator) { a.log = log }
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store storage.Store, opts ...Option) *Aggregator {
	a := &Aggregator{store: store, window: DefaultWindow}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logging.OrDiscard(a.log).WithField("component", "analytics")
	return a
}

// Report is everything the stats views show.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Window      time.Duration  `json:"window"`
	Weekly      WeeklyStats    `json:"weekly"`
	Volume      []VolumePoint  `json:"volume"`
	Muscles     []MuscleCount  `json:"muscles"`
	Recovery    map[string]int `json:"recovery"`
	BodyWeight  []WeightPoint  `json:"body_weight"`
}

// Report loads the owner's recent finished sessions with their set logs
// and computes every statistic as of now.
func (a *Aggregator) Report(ctx context.Context, ownerID string, now time.Time) (*Report, error) {
	sessions, err := a.finishedSessions(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	exercises, err := storage.QueryAs[models.Exercise](ctx, a.store, storage.TableExercises, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}
	byID := make(map[string]models.Exercise, len(exercises))
	for _, e := range exercises {
		byID[e.ID] = e
	}

	cutoff := now.Add(-a.window)
	bySession := make(map[string]models.WorkoutSession, len(sessions))
	var allLogs, windowLogs []models.SetLog
	for _, s := range sessions {
		bySession[s.ID] = s
		logs, err := storage.QueryAs[models.SetLog](ctx, a.store, storage.TableSetLogs,
			storage.Where(storage.Eq("session_id", s.ID)))
		if err != nil {
			return nil, fmt.Errorf("load set logs for %s: %w", s.ID, err)
		}
		allLogs = append(allLogs, logs...)
		if !s.StartedAt.Before(cutoff) {
			windowLogs = append(windowLogs, logs...)
		}
	}

	measurements, err := storage.QueryAs[models.BodyMeasurement](ctx, a.store, storage.TableBodyMeasurements,
		storage.Where(storage.Eq("user_id", ownerID)).Desc("date").Take(RecentMeasurements))
	if err != nil {
		return nil, fmt.Errorf("load measurements: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"sessions": len(sessions),
		"set_logs": len(allLogs),
	}).Debug("report loaded")

	return &Report{
		GeneratedAt: now,
		Window:      a.window,
		Weekly:      Weekly(sessions, now),
		Volume:      VolumeSeries(sessions),
		Muscles:     MuscleFrequency(windowLogs, byID),
		Recovery:    Recovery(LastTrained(allLogs, bySession, byID), now),
		BodyWeight:  BodyWeightTrend(measurements),
	}, nil
}

// finishedSessions returns up to RecentSessions finished sessions, newest first.
func (a *Aggregator) finishedSessions(ctx context.Context, ownerID string) ([]models.WorkoutSession, error) {
	all, err := storage.QueryAs[models.WorkoutSession](ctx, a.store, storage.TableWorkoutSessions,
		storage.Where(storage.Eq("user_id", ownerID)).Desc("started_at"))
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	out := make([]models.WorkoutSession, 0, RecentSessions)
	for _, s := range all {
		if !s.IsFinished() {
			continue
		}
		out = append(out, s)
		if len(out) == RecentSessions {
			break
		}
	}
	return out, nil
}
