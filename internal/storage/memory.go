// ABOUTME: In-memory Store used as a substitutable fake in tests.
// ABOUTME: Mirrors the SQLite semantics, including rollback and failure injection.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/lift/internal/models"
)

// Memory is a Store that keeps every table in process memory.
type Memory struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
	fail  func(op, table string) error
}

// Compile-time check that Memory implements Store.
var _ Store = (*Memory)(nil)

type memState struct {
	data   map[string]map[string][]byte
	outbox []models.PendingMutation
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		state: &memState{data: make(map[string]map[string][]byte)},
		now:   time.Now,
	}
}

// FailOn installs a hook consulted before every write. A non-nil return
// value aborts that write with the returned error. op is one of "put",
// "delete", "enqueue" or "clear".
func (m *Memory) FailOn(fn func(op, table string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// SetClock overrides the outbox timestamp source.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

func (m *Memory) live() *memOps {
	return &memOps{st: m.state, now: m.now, fail: m.fail}
}

// Update runs fn against a copy of the state and keeps it only on success.
func (m *Memory) Update(ctx context.Context, fn func(tx Ops) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft := m.state.clone()
	if err := fn(&memOps{st: draft, now: m.now, fail: m.fail}); err != nil {
		return err
	}
	m.state = draft
	return nil
}

// Get implements Ops.
func (m *Memory) Get(ctx context.Context, table, id string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().Get(ctx, table, id, dst)
}

// Put implements Ops.
func (m *Memory) Put(ctx context.Context, table string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().Put(ctx, table, rec)
}

// BulkPut implements Ops; a failed record discards the whole batch.
func (m *Memory) BulkPut(ctx context.Context, table string, recs []Record) error {
	return m.Update(ctx, func(tx Ops) error {
		return tx.BulkPut(ctx, table, recs)
	})
}

// Delete implements Ops.
func (m *Memory) Delete(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().Delete(ctx, table, id)
}

// Query implements Ops.
func (m *Memory) Query(ctx context.Context, table string, q Query, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().Query(ctx, table, q, dst)
}

// Count implements Ops.
func (m *Memory) Count(ctx context.Context, table string, conds ...Cond) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().Count(ctx, table, conds...)
}

// EnqueueMutation implements Ops.
func (m *Memory) EnqueueMutation(ctx context.Context, table string, op models.Op, payload any) (*models.PendingMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().EnqueueMutation(ctx, table, op, payload)
}

// ListPendingMutations implements Ops.
func (m *Memory) ListPendingMutations(ctx context.Context) ([]models.PendingMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().ListPendingMutations(ctx)
}

// ClearMutations implements Ops.
func (m *Memory) ClearMutations(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live().ClearMutations(ctx, ids)
}

func (s *memState) clone() *memState {
	c := &memState{
		data:   make(map[string]map[string][]byte, len(s.data)),
		outbox: append([]models.PendingMutation(nil), s.outbox...),
	}
	for table, rows := range s.data {
		cr := make(map[string][]byte, len(rows))
		for id, doc := range rows {
			cr[id] = doc
		}
		c.data[table] = cr
	}
	return c
}

type memOps struct {
	st   *memState
	now  func() time.Time
	fail func(op, table string) error
}

func (o *memOps) check(op, table string) error {
	if o.fail == nil {
		return nil
	}
	return o.fail(op, table)
}

func (o *memOps) rows(table string) map[string][]byte {
	rows, ok := o.st.data[table]
	if !ok {
		rows = make(map[string][]byte)
		o.st.data[table] = rows
	}
	return rows
}

func (o *memOps) Get(ctx context.Context, table, id string, dst any) error {
	if _, err := lookupTable(table); err != nil {
		return err
	}
	doc, ok := o.st.data[table][id]
	if !ok {
		return fmt.Errorf("get %s %s: %w", table, id, ErrNotFound)
	}
	if err := json.Unmarshal(doc, dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return nil
}

func (o *memOps) Put(ctx context.Context, table string, rec Record) error {
	if _, err := lookupTable(table); err != nil {
		return err
	}
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("put %s: empty id: %w", table, models.ErrInvalid)
	}
	if err := o.check("put", table); err != nil {
		return fmt.Errorf("put %s %s: %w", table, id, err)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", table, id, err)
	}
	o.rows(table)[id] = doc
	return nil
}

func (o *memOps) BulkPut(ctx context.Context, table string, recs []Record) error {
	for _, rec := range recs {
		if err := o.Put(ctx, table, rec); err != nil {
			return fmt.Errorf("bulk put: %w", err)
		}
	}
	return nil
}

func (o *memOps) Delete(ctx context.Context, table, id string) error {
	if _, err := lookupTable(table); err != nil {
		return err
	}
	if err := o.check("delete", table); err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	rows := o.rows(table)
	if _, ok := rows[id]; !ok {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	delete(rows, id)
	return nil
}

type memRow struct {
	id     string
	doc    []byte
	fields map[string]any
}

func (o *memOps) selectRows(spec *tableSpec, conds []Cond) ([]memRow, error) {
	var out []memRow
	for id, doc := range o.st.data[spec.name] {
		var fields map[string]any
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", spec.name, id, err)
		}
		fields["id"] = id
		ok := true
		for _, c := range conds {
			match, err := matchCond(spec.fields[c.Field], fields[c.Field], c)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", spec.name, c.Field, err)
			}
			if !match {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, memRow{id: id, doc: doc, fields: fields})
		}
	}
	return out, nil
}

func (o *memOps) Query(ctx context.Context, table string, q Query, dst any) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	if err := q.validate(spec); err != nil {
		return err
	}
	rows, err := o.selectRows(spec, q.Where)
	if err != nil {
		return err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ob := range q.OrderBy {
			c := compareValues(spec.fields[ob.Field], rows[i].fields[ob.Field], rows[j].fields[ob.Field])
			if c == 0 {
				continue
			}
			if ob.Desc {
				return c > 0
			}
			return c < 0
		}
		return rows[i].id < rows[j].id
	})
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	docs := make([]string, len(rows))
	for i, r := range rows {
		docs[i] = string(r.doc)
	}
	return decodeDocs(table, docs, dst)
}

func (o *memOps) Count(ctx context.Context, table string, conds ...Cond) (int, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := (Query{Where: conds}).validate(spec); err != nil {
		return 0, err
	}
	rows, err := o.selectRows(spec, conds)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (o *memOps) EnqueueMutation(ctx context.Context, table string, op models.Op, payload any) (*models.PendingMutation, error) {
	if !IsSyncedTable(table) {
		return nil, fmt.Errorf("enqueue mutation: %w: %s", ErrUnknownTable, table)
	}
	if err := o.check("enqueue", table); err != nil {
		return nil, fmt.Errorf("enqueue mutation: %w", err)
	}
	m, err := models.NewPendingMutation(table, op, payload, o.now())
	if err != nil {
		return nil, fmt.Errorf("enqueue mutation: %w", err)
	}
	o.st.outbox = append(o.st.outbox, *m)
	return m, nil
}

func (o *memOps) ListPendingMutations(ctx context.Context) ([]models.PendingMutation, error) {
	out := append([]models.PendingMutation(nil), o.st.outbox...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (o *memOps) ClearMutations(ctx context.Context, ids []string) error {
	if err := o.check("clear", "pending_mutations"); err != nil {
		return fmt.Errorf("clear mutations: %w", err)
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := o.st.outbox[:0:0]
	for _, m := range o.st.outbox {
		if !drop[m.ID] {
			kept = append(kept, m)
		}
	}
	o.st.outbox = kept
	return nil
}

func matchCond(kind fieldKind, docVal any, c Cond) (bool, error) {
	if docVal == nil {
		return false, nil
	}
	want, err := normalize(kind, c.Value)
	if err != nil {
		return false, err
	}
	got, err := normalize(kind, docVal)
	if err != nil {
		return false, err
	}
	cmp := compareValues(kind, got, want)
	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpGte:
		return cmp >= 0, nil
	case OpLt:
		return cmp < 0, nil
	}
	return false, fmt.Errorf("unsupported operator %q", c.Op)
}

// normalize converts a decoded JSON value or a query argument to the
// canonical Go type for its kind.
func normalize(kind fieldKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case kindTime:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return t.UTC().Truncate(time.Millisecond), nil
	case kindNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("want number, got %T", v)
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	}
}

// compareValues orders two values of one kind; nil sorts first like SQL NULL.
func compareValues(kind fieldKind, a, b any) int {
	a, _ = normalize(kind, a)
	b, _ = normalize(kind, b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}
