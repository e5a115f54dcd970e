// ABOUTME: Store interface for the offline-first local data layer.
// ABOUTME: Keyed document tables plus a pending-mutation outbox, with SQLite and in-memory implementations.
package storage

import (
	"context"
	"errors"

	"github.com/harperreed/lift/internal/models"
)

var (
	// ErrNotFound is returned when a record id is absent from a table.
	ErrNotFound = errors.New("not found")
	// ErrUnknownTable is returned for a table name the store does not define.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownField is returned when a query references a non-indexed field.
	ErrUnknownField = errors.New("unknown field")
)

// Record is any entity that can be stored under its own id.
type Record interface {
	RecordID() string
}

// Ops is the set of operations available both on a Store and inside a transaction.
type Ops interface {
	// Get decodes the record with the given id into dst.
	Get(ctx context.Context, table, id string, dst any) error
	// Put inserts or replaces a record.
	Put(ctx context.Context, table string, rec Record) error
	// BulkPut writes all records or none.
	BulkPut(ctx context.Context, table string, recs []Record) error
	// Delete removes a record, returning ErrNotFound when absent.
	Delete(ctx context.Context, table, id string) error
	// Query decodes matching records into dst, which must point to a slice.
	Query(ctx context.Context, table string, q Query, dst any) error
	// Count returns the number of records matching every condition.
	Count(ctx context.Context, table string, conds ...Cond) (int, error)

	// EnqueueMutation appends an outbox entry with a fresh id and timestamp.
	EnqueueMutation(ctx context.Context, table string, op models.Op, payload any) (*models.PendingMutation, error)
	// ListPendingMutations returns every outbox entry oldest first.
	ListPendingMutations(ctx context.Context) ([]models.PendingMutation, error)
	// ClearMutations removes the given outbox entries; unknown ids are ignored.
	ClearMutations(ctx context.Context, ids []string) error
}

// Store is the single local source of truth.
type Store interface {
	Ops
	// Update runs fn inside one local transaction. If fn returns an error
	// nothing it wrote is kept.
	Update(ctx context.Context, fn func(tx Ops) error) error
	Close() error
}

// Cond restricts a query to records whose field matches Value.
type Cond struct {
	Field string
	Op    CondOp
	Value any
}

// CondOp is a comparison operator for Cond.
type CondOp string

const (
	OpEq  CondOp = "="
	OpGte CondOp = ">="
	OpLt  CondOp = "<"
)

// Eq matches records whose field equals v.
func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }

// Gte matches records whose field is greater than or equal to v.
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }

// Lt matches records whose field is strictly less than v.
func Lt(field string, v any) Cond { return Cond{Field: field, Op: OpLt, Value: v} }

// Order sorts query results by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query selects, orders and caps records of one table.
type Query struct {
	Where   []Cond
	OrderBy []Order
	// Limit caps the result size; zero means no cap.
	Limit int
}

// Where starts a query with the given conditions.
func Where(conds ...Cond) Query {
	return Query{Where: conds}
}

// Asc appends an ascending sort key.
func (q Query) Asc(field string) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field})
	return q
}

// Desc appends a descending sort key.
func (q Query) Desc(field string) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: true})
	return q
}

// Take caps the number of results.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// validate checks the query against the table's indexed fields.
func (q Query) validate(spec *tableSpec) error {
	for _, c := range q.Where {
		if _, ok := spec.fields[c.Field]; !ok {
			return errUnknownField(spec.name, c.Field)
		}
		switch c.Op {
		case OpEq, OpGte, OpLt:
		default:
			return errUnknownField(spec.name, string(c.Op))
		}
	}
	for _, o := range q.OrderBy {
		if _, ok := spec.fields[o.Field]; !ok {
			return errUnknownField(spec.name, o.Field)
		}
	}
	return nil
}

// GetAs loads one record of type T.
func GetAs[T any](ctx context.Context, ops Ops, table, id string) (*T, error) {
	var v T
	if err := ops.Get(ctx, table, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// QueryAs runs q and returns the decoded records.
func QueryAs[T any](ctx context.Context, ops Ops, table string, q Query) ([]T, error) {
	var out []T
	if err := ops.Query(ctx, table, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Records converts a typed slice for BulkPut.
func Records[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
