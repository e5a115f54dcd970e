// ABOUTME: Training session engine: the Idle/Active state machine over one workout.
// ABOUTME: Every applied change is checkpointed before it becomes visible to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
	"github.com/harperreed/lift/internal/timer"
	"github.com/sirupsen/logrus"
)

// Rejected explains why an operation was refused. Refusals are normal
// outcomes of UI-guarded states, so they are values rather than errors.
type Rejected string

const (
	Applied            Rejected = ""
	RejectedNoSession  Rejected = "no active session"
	RejectedActive     Rejected = "a session is already active"
	RejectedOutOfRange Rejected = "exercise or set index out of range"
	RejectedCompleted  Rejected = "set is already completed"
	RejectedIncomplete Rejected = "weight and reps are required"
	RejectedLastSet    Rejected = "an exercise keeps at least one set"
	RejectedBoundary   Rejected = "no exercise in that direction"
	RejectedNoHistory  Rejected = "no previous set to copy"
	RejectedInvalid    Rejected = "invalid set value"
)

// RestTimer is the countdown started after each completed set.
type RestTimer interface {
	Start(seconds int)
	Stop()
}

type noopTimer struct{}

func (noopTimer) Start(int) {}
func (noopTimer) Stop()     {}

// Engine owns the single active session of this process.
type Engine struct {
	store   storage.Store
	timer   RestTimer
	haptics func()
	clock   timer.Clock
	log     *logrus.Entry

	mu          sync.Mutex
	state       State
	subs        map[int]func(State)
	nextSub     int
	historyDone chan struct{}
	wg          sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimer sets the rest timer started on set completion.
func WithTimer(t RestTimer) Option {
	return func(e *Engine) { e.timer = t }
}

// WithHaptics sets the acknowledgement pulse fired on set completion.
func WithHaptics(fn func()) Option {
	return func(e *Engine) { e.haptics = fn }
}

// WithClock overrides the source of session and finish timestamps.
func WithClock(c timer.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an Idle engine over store.
func NewEngine(store storage.Store, opts ...Option) *Engine {
	done := make(chan struct{})
	close(done)
	e := &Engine{
		store:       store,
		timer:       noopTimer{},
		haptics:     func() {},
		clock:       timer.SystemClock,
		state:       State{Phase: Idle},
		subs:        make(map[int]func(State)),
		historyDone: done,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrDiscard(e.log).WithField("component", "session")
	return e
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

// Close waits for any background history load to finish.
func (e *Engine) Close() {
	e.wg.Wait()
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe registers fn to receive a snapshot after every applied change.
// The returned func removes the subscription.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// HistoryLoaded is closed once the auto-fill history for the current
// session has been loaded or has failed.
func (e *Engine) HistoryLoaded() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.historyDone
}

// publishLocked replaces the state and returns what subscribers need.
// The caller must hold e.mu and call notify after unlocking.
func (e *Engine) publishLocked(st State) (State, []func(State)) {
	e.state = st
	subs := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return st.clone(), subs
}

func notify(snap State, subs []func(State)) {
	for _, fn := range subs {
		fn(snap.clone())
	}
}

// Start begins a session for templateID with one group per entry.
func (e *Engine) Start(ctx context.Context, ownerID, templateID string, entries []models.TemplateExercise) (Rejected, error) {
	e.mu.Lock()
	if e.state.Phase == Active {
		e.mu.Unlock()
		return RejectedActive, nil
	}

	sess := models.NewWorkoutSession(ownerID, templateID, e.now())
	st := State{
		Phase:     Active,
		Session:   sess,
		Exercises: make([]ExerciseGroup, 0, len(entries)),
	}
	for _, te := range entries {
		st.Exercises = append(st.Exercises, ExerciseGroup{
			Entry: te,
			Sets:  placeholders(max(te.TargetSets, 1), te.SetType),
		})
	}

	err := storage.Logged(ctx, e.store, func(w *storage.Writer) error {
		if err := w.Create(storage.TableWorkoutSessions, sess); err != nil {
			return err
		}
		return saveCheckpoint(ctx, w.Tx(), st, e.now())
	})
	if err != nil {
		e.mu.Unlock()
		return Applied, fmt.Errorf("start session: %w", err)
	}

	snap, subs := e.publishLocked(st)
	e.startHistoryLocked(ctx, st)
	e.mu.Unlock()
	notify(snap, subs)

	e.log.WithFields(logrus.Fields{
		"session_id":  sess.ID,
		"template_id": templateID,
		"exercises":   len(entries),
	}).Info("session started")
	return Applied, nil
}

// Resume restores a checkpointed session after a restart. It reports
// whether a session is active afterwards.
func (e *Engine) Resume(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.state.Phase == Active {
		e.mu.Unlock()
		return true, nil
	}
	st, ok, err := loadCheckpoint(ctx, e.store)
	if err != nil {
		e.mu.Unlock()
		return false, fmt.Errorf("resume session: %w", err)
	}
	if !ok || st.Session == nil {
		e.mu.Unlock()
		return false, nil
	}
	st.Phase = Active
	st.History = nil

	snap, subs := e.publishLocked(st)
	e.startHistoryLocked(ctx, st)
	e.mu.Unlock()
	notify(snap, subs)

	e.log.WithField("session_id", st.Session.ID).Info("session resumed")
	return true, nil
}

// startHistoryLocked kicks off the background auto-fill load.
func (e *Engine) startHistoryLocked(ctx context.Context, st State) {
	done := make(chan struct{})
	e.historyDone = done
	e.wg.Add(1)
	go e.fetchHistory(context.WithoutCancel(ctx), st.clone(), done)
}

func (e *Engine) fetchHistory(ctx context.Context, st State, done chan struct{}) {
	defer e.wg.Done()
	defer close(done)

	hist, err := loadHistory(ctx, e.store, st)
	if err != nil {
		e.log.WithError(err).Warn("could not load set history")
		return
	}

	e.mu.Lock()
	if e.state.Phase != Active || e.state.Session.ID != st.Session.ID {
		e.mu.Unlock()
		return
	}
	next := e.state.clone()
	next.History = hist
	snap, subs := e.publishLocked(next)
	e.mu.Unlock()
	notify(snap, subs)
}

// mutate applies fn to a copy of the active state, checkpoints the copy and
// only then makes it current. A storage failure leaves the state untouched.
func (e *Engine) mutate(ctx context.Context, fn func(st *State) Rejected) (Rejected, error) {
	e.mu.Lock()
	if e.state.Phase != Active {
		e.mu.Unlock()
		return RejectedNoSession, nil
	}
	next := e.state.clone()
	if r := fn(&next); r != Applied {
		e.mu.Unlock()
		return r, nil
	}
	if err := saveCheckpoint(ctx, e.store, next, e.now()); err != nil {
		e.mu.Unlock()
		return Applied, fmt.Errorf("checkpoint session: %w", err)
	}
	snap, subs := e.publishLocked(next)
	e.mu.Unlock()
	notify(snap, subs)
	return Applied, nil
}

func (st *State) group(exIdx int) (*ExerciseGroup, Rejected) {
	if exIdx < 0 || exIdx >= len(st.Exercises) {
		return nil, RejectedOutOfRange
	}
	return &st.Exercises[exIdx], Applied
}

func (st *State) set(exIdx, setIdx int) (*ExerciseGroup, *ActiveSet, Rejected) {
	g, r := st.group(exIdx)
	if r != Applied {
		return nil, nil, r
	}
	if setIdx < 0 || setIdx >= len(g.Sets) {
		return nil, nil, RejectedOutOfRange
	}
	return g, &g.Sets[setIdx], Applied
}

// SetPatch carries the fields to change on an uncompleted set. Nil fields
// are left as they are.
type SetPatch struct {
	Weight  *float64
	Reps    *int
	RPE     *float64
	RIR     *int
	SetType *models.SetType
}

func (p SetPatch) valid() bool {
	switch {
	case p.Weight != nil && *p.Weight < 0:
		return false
	case p.Reps != nil && *p.Reps < 0:
		return false
	case p.RPE != nil && !models.ValidRPE(*p.RPE):
		return false
	case p.RIR != nil && *p.RIR < 0:
		return false
	case p.SetType != nil && !models.IsValidSetType(string(*p.SetType)):
		return false
	}
	return true
}

// UpdateSet edits an uncompleted set. Completed sets are immutable.
func (e *Engine) UpdateSet(ctx context.Context, exIdx, setIdx int, patch SetPatch) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		_, set, r := st.set(exIdx, setIdx)
		if r != Applied {
			return r
		}
		if set.Completed {
			return RejectedCompleted
		}
		if !patch.valid() {
			return RejectedInvalid
		}
		if patch.Weight != nil {
			set.Weight = copyPtr(patch.Weight)
		}
		if patch.Reps != nil {
			set.Reps = copyPtr(patch.Reps)
		}
		if patch.RPE != nil {
			set.RPE = copyPtr(patch.RPE)
		}
		if patch.RIR != nil {
			set.RIR = copyPtr(patch.RIR)
		}
		if patch.SetType != nil {
			set.SetType = *patch.SetType
		}
		return Applied
	})
}

// CompleteSet fixes a set's values, pulses haptics and starts the rest
// timer with the exercise's rest period. Weight and reps must be present.
func (e *Engine) CompleteSet(ctx context.Context, exIdx, setIdx int) (Rejected, error) {
	var rest int
	r, err := e.mutate(ctx, func(st *State) Rejected {
		g, set, r := st.set(exIdx, setIdx)
		if r != Applied {
			return r
		}
		if set.Completed {
			return RejectedCompleted
		}
		if set.Weight == nil || set.Reps == nil {
			return RejectedIncomplete
		}
		set.Completed = true
		rest = g.Entry.RestSeconds
		return Applied
	})
	if err != nil || r != Applied {
		return r, err
	}
	e.haptics()
	e.timer.Start(rest)
	return Applied, nil
}

// AddSet appends an uncompleted set numbered after the last one.
func (e *Engine) AddSet(ctx context.Context, exIdx int) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		g, r := st.group(exIdx)
		if r != Applied {
			return r
		}
		g.Sets = append(g.Sets, ActiveSet{SetNumber: len(g.Sets) + 1, SetType: g.Entry.SetType})
		return Applied
	})
}

// RemoveSet drops the last set of an exercise, keeping at least one.
func (e *Engine) RemoveSet(ctx context.Context, exIdx int) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		g, r := st.group(exIdx)
		if r != Applied {
			return r
		}
		if len(g.Sets) <= 1 {
			return RejectedLastSet
		}
		g.Sets = g.Sets[:len(g.Sets)-1]
		for i := range g.Sets {
			g.Sets[i].SetNumber = i + 1
		}
		return Applied
	})
}

// NextExercise moves to the following exercise; it does not wrap.
func (e *Engine) NextExercise(ctx context.Context) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		if st.CurrentIndex >= len(st.Exercises)-1 {
			return RejectedBoundary
		}
		st.CurrentIndex++
		return Applied
	})
}

// PrevExercise moves to the previous exercise; it does not wrap.
func (e *Engine) PrevExercise(ctx context.Context) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		if st.CurrentIndex <= 0 {
			return RejectedBoundary
		}
		st.CurrentIndex--
		return Applied
	})
}

// GoToExercise jumps to idx, clamped to the roster.
func (e *Engine) GoToExercise(ctx context.Context, idx int) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		if len(st.Exercises) == 0 {
			return RejectedOutOfRange
		}
		st.CurrentIndex = min(max(idx, 0), len(st.Exercises)-1)
		return Applied
	})
}

// AutoFill copies weight and reps from the previous session's set at the
// same position into an uncompleted set.
func (e *Engine) AutoFill(ctx context.Context, exIdx, setIdx int) (Rejected, error) {
	return e.mutate(ctx, func(st *State) Rejected {
		g, set, r := st.set(exIdx, setIdx)
		if r != Applied {
			return r
		}
		if set.Completed {
			return RejectedCompleted
		}
		hist := st.History[g.Entry.ExerciseID]
		if setIdx >= len(hist) {
			return RejectedNoHistory
		}
		prev := hist[setIdx]
		set.Weight = copyPtr(prev.Weight)
		set.Reps = copyPtr(prev.Reps)
		return Applied
	})
}

// buildLogs emits one SetLog per completed set, stamped with finishedAt.
func buildLogs(st State, finishedAt time.Time) []models.SetLog {
	var logs []models.SetLog
	for _, g := range st.Exercises {
		for _, set := range g.Sets {
			if !set.Completed {
				continue
			}
			logs = append(logs, models.SetLog{
				ID:          models.NewID(),
				SessionID:   st.Session.ID,
				ExerciseID:  g.Entry.ExerciseID,
				SetNumber:   set.SetNumber,
				Weight:      copyPtr(set.Weight),
				Reps:        copyPtr(set.Reps),
				RPE:         copyPtr(set.RPE),
				RIR:         copyPtr(set.RIR),
				SetType:     set.SetType,
				CompletedAt: finishedAt,
			})
		}
	}
	return logs
}

// Finish writes the completed sets as SetLogs, then stamps the session with
// its finish time and volume. Sets already logged by an interrupted earlier
// finish are kept and only the missing ones are written. On failure the
// session stays active so finishing can be retried.
func (e *Engine) Finish(ctx context.Context) (*models.WorkoutSession, Rejected, error) {
	e.mu.Lock()
	if e.state.Phase != Active {
		e.mu.Unlock()
		return nil, RejectedNoSession, nil
	}
	st := e.state
	finishedAt := e.now()
	sessionID := st.Session.ID

	stored, err := storage.QueryAs[models.SetLog](ctx, e.store, storage.TableSetLogs,
		storage.Where(storage.Eq("session_id", sessionID)))
	if err != nil {
		e.mu.Unlock()
		return nil, Applied, fmt.Errorf("finish session: %w", err)
	}
	logs, fresh := mergeLogs(stored, buildLogs(st, finishedAt))
	if len(stored) > 0 {
		e.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"stored":     len(stored),
			"new":        len(fresh),
		}).Warn("completing set logs from an interrupted finish")
	}
	if len(fresh) > 0 {
		err := storage.Logged(ctx, e.store, func(w *storage.Writer) error {
			return w.BulkCreate(storage.TableSetLogs, storage.Records(fresh))
		})
		if err != nil {
			e.mu.Unlock()
			return nil, Applied, fmt.Errorf("write set logs: %w", err)
		}
	}

	var volume float64
	for i := range logs {
		volume += logs[i].Volume()
	}
	finished := *st.Session
	finished.FinishedAt = &finishedAt
	finished.TotalVolume = &volume

	err = storage.Logged(ctx, e.store, func(w *storage.Writer) error {
		if err := w.Update(storage.TableWorkoutSessions, finished); err != nil {
			return err
		}
		return clearCheckpoint(ctx, w.Tx())
	})
	if err != nil {
		e.mu.Unlock()
		return nil, Applied, fmt.Errorf("finish session: %w", err)
	}

	snap, subs := e.publishLocked(State{Phase: Idle})
	e.mu.Unlock()
	e.timer.Stop()
	notify(snap, subs)

	e.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"set_logs":   len(logs),
		"volume":     volume,
	}).Info("session finished")
	return &finished, Applied, nil
}

// mergeLogs keeps the stored logs and returns the built ones whose
// (exercise, set number) is not stored yet, both as part of all and as fresh.
func mergeLogs(stored, built []models.SetLog) (all, fresh []models.SetLog) {
	type key struct {
		exerciseID string
		setNumber  int
	}
	seen := make(map[key]bool, len(stored))
	for _, l := range stored {
		seen[key{l.ExerciseID, l.SetNumber}] = true
	}
	all = append(all, stored...)
	for _, l := range built {
		if seen[key{l.ExerciseID, l.SetNumber}] {
			continue
		}
		fresh = append(fresh, l)
		all = append(all, l)
	}
	return all, fresh
}

// Abandon deletes the session and anything an interrupted finish wrote.
// No SetLogs survive an abandoned session.
func (e *Engine) Abandon(ctx context.Context) (Rejected, error) {
	e.mu.Lock()
	if e.state.Phase != Active {
		e.mu.Unlock()
		return RejectedNoSession, nil
	}
	sessionID := e.state.Session.ID

	err := storage.Logged(ctx, e.store, func(w *storage.Writer) error {
		tx := w.Tx()
		logs, err := storage.QueryAs[models.SetLog](ctx, tx, storage.TableSetLogs,
			storage.Where(storage.Eq("session_id", sessionID)))
		if err != nil {
			return err
		}
		for _, l := range logs {
			if err := w.Delete(storage.TableSetLogs, l.ID); err != nil {
				return err
			}
		}
		if err := w.Delete(storage.TableWorkoutSessions, sessionID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return clearCheckpoint(ctx, tx)
	})
	if err != nil {
		e.mu.Unlock()
		return Applied, fmt.Errorf("abandon session: %w", err)
	}

	snap, subs := e.publishLocked(State{Phase: Idle})
	e.mu.Unlock()
	e.timer.Stop()
	notify(snap, subs)

	e.log.WithField("session_id", sessionID).Info("session abandoned")
	return Applied, nil
}
