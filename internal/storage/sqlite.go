// ABOUTME: SQLite implementation of the document tables and outbox.
// ABOUTME: Records are JSON documents; indexed fields are read with json_extract.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
)

// sqliteTimeLayout matches the output of strftime('%Y-%m-%dT%H:%M:%f').
const sqliteTimeLayout = "2006-01-02T15:04:05.000"

// outboxTimeLayout is fixed-width so created_at sorts lexically.
const outboxTimeLayout = "2006-01-02T15:04:05.000000000Z"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlOps implements Ops against a connection or a transaction.
type sqlOps struct {
	q   querier
	now func() time.Time
}

func (d *DB) ops() *sqlOps {
	return &sqlOps{q: d.db, now: d.now}
}

// Update runs fn inside a SQLite transaction. fn must use the Ops it is given.
func (d *DB) Update(ctx context.Context, fn func(tx Ops) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&sqlOps{q: tx, now: d.now}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get implements Ops.
func (d *DB) Get(ctx context.Context, table, id string, dst any) error {
	return d.ops().Get(ctx, table, id, dst)
}

// Put implements Ops.
func (d *DB) Put(ctx context.Context, table string, rec Record) error {
	return d.ops().Put(ctx, table, rec)
}

// BulkPut implements Ops; all records are written in one transaction.
func (d *DB) BulkPut(ctx context.Context, table string, recs []Record) error {
	return d.Update(ctx, func(tx Ops) error {
		return tx.BulkPut(ctx, table, recs)
	})
}

// Delete implements Ops.
func (d *DB) Delete(ctx context.Context, table, id string) error {
	return d.ops().Delete(ctx, table, id)
}

// Query implements Ops.
func (d *DB) Query(ctx context.Context, table string, q Query, dst any) error {
	return d.ops().Query(ctx, table, q, dst)
}

// Count implements Ops.
func (d *DB) Count(ctx context.Context, table string, conds ...Cond) (int, error) {
	return d.ops().Count(ctx, table, conds...)
}

// EnqueueMutation implements Ops.
func (d *DB) EnqueueMutation(ctx context.Context, table string, op models.Op, payload any) (*models.PendingMutation, error) {
	return d.ops().EnqueueMutation(ctx, table, op, payload)
}

// ListPendingMutations implements Ops.
func (d *DB) ListPendingMutations(ctx context.Context) ([]models.PendingMutation, error) {
	return d.ops().ListPendingMutations(ctx)
}

// ClearMutations implements Ops; the whole id set is removed in one transaction.
func (d *DB) ClearMutations(ctx context.Context, ids []string) error {
	return d.Update(ctx, func(tx Ops) error {
		return tx.ClearMutations(ctx, ids)
	})
}

func (o *sqlOps) Get(ctx context.Context, table, id string, dst any) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	var data string
	query := fmt.Sprintf("SELECT data FROM %s WHERE id = ?", spec.name)
	err = o.q.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get %s %s: %w", table, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", table, id, err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", table, id, err)
	}
	return nil
}

func (o *sqlOps) Put(ctx context.Context, table string, rec Record) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("put %s: empty id: %w", table, models.ErrInvalid)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", table, id, err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, spec.name)
	if _, err := o.q.ExecContext(ctx, query, id, string(data)); err != nil {
		return fmt.Errorf("put %s %s: %w", table, id, err)
	}
	return nil
}

func (o *sqlOps) BulkPut(ctx context.Context, table string, recs []Record) error {
	for _, rec := range recs {
		if err := o.Put(ctx, table, rec); err != nil {
			return fmt.Errorf("bulk put: %w", err)
		}
	}
	return nil
}

func (o *sqlOps) Delete(ctx context.Context, table, id string) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	result, err := o.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", spec.name), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (o *sqlOps) Query(ctx context.Context, table string, q Query, dst any) error {
	spec, err := lookupTable(table)
	if err != nil {
		return err
	}
	if err := q.validate(spec); err != nil {
		return err
	}

	where, args, err := whereClause(spec, q.Where)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT data FROM %s%s", spec.name, where)

	var order []string
	for _, ob := range q.OrderBy {
		dir := "ASC"
		if ob.Desc {
			dir = "DESC"
		}
		order = append(order, fieldExpr(spec, ob.Field)+" "+dir)
	}
	order = append(order, "id ASC")
	query += " ORDER BY " + strings.Join(order, ", ")

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		docs = append(docs, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	return decodeDocs(table, docs, dst)
}

func (o *sqlOps) Count(ctx context.Context, table string, conds ...Cond) (int, error) {
	spec, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := (Query{Where: conds}).validate(spec); err != nil {
		return 0, err
	}
	where, args, err := whereClause(spec, conds)
	if err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", spec.name, where)
	if err := o.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (o *sqlOps) EnqueueMutation(ctx context.Context, table string, op models.Op, payload any) (*models.PendingMutation, error) {
	if !IsSyncedTable(table) {
		return nil, fmt.Errorf("enqueue mutation: %w: %s", ErrUnknownTable, table)
	}
	m, err := models.NewPendingMutation(table, op, payload, o.now())
	if err != nil {
		return nil, fmt.Errorf("enqueue mutation: %w", err)
	}
	_, err = o.q.ExecContext(ctx, `
		INSERT INTO pending_mutations (id, tbl, op, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Table, string(m.Op), string(m.Payload), m.CreatedAt.Format(outboxTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("enqueue mutation: %w", err)
	}
	return m, nil
}

func (o *sqlOps) ListPendingMutations(ctx context.Context) ([]models.PendingMutation, error) {
	rows, err := o.q.QueryContext(ctx, `
		SELECT id, tbl, op, payload, created_at
		FROM pending_mutations
		ORDER BY created_at ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending mutations: %w", err)
	}
	defer rows.Close()

	var out []models.PendingMutation
	for rows.Next() {
		var (
			m                         models.PendingMutation
			op, payload, createdAtStr string
		)
		if err := rows.Scan(&m.ID, &m.Table, &op, &payload, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan pending mutation: %w", err)
		}
		m.Op = models.Op(op)
		m.Payload = json.RawMessage(payload)
		m.CreatedAt, err = time.Parse(outboxTimeLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parse mutation time %q: %w", createdAtStr, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (o *sqlOps) ClearMutations(ctx context.Context, ids []string) error {
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		batch := ids[start:end]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		query := fmt.Sprintf("DELETE FROM pending_mutations WHERE id IN (%s)", placeholders)
		if _, err := o.q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear mutations: %w", err)
		}
	}
	return nil
}

// fieldExpr returns the SQL expression that reads field from a document.
func fieldExpr(spec *tableSpec, field string) string {
	if field == "id" {
		return "id"
	}
	expr := fmt.Sprintf("json_extract(data, '$.%s')", field)
	if spec.fields[field] == kindTime {
		return fmt.Sprintf("strftime('%%Y-%%m-%%dT%%H:%%M:%%f', %s)", expr)
	}
	return expr
}

func whereClause(spec *tableSpec, conds []Cond) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		v, err := bindValue(spec.fields[c.Field], c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%s.%s: %w", spec.name, c.Field, err)
		}
		parts = append(parts, fmt.Sprintf("%s %s ?", fieldExpr(spec, c.Field), c.Op))
		args = append(args, v)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// bindValue converts a Go value to the form json_extract yields for its kind.
func bindValue(kind fieldKind, v any) (any, error) {
	switch kind {
	case kindTime:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return t.UTC().Format(sqliteTimeLayout), nil
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	default:
		return v, nil
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil time")
		}
		return *t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	default:
		return time.Time{}, fmt.Errorf("want time, got %T", v)
	}
}

// decodeDocs unmarshals JSON documents into dst, a pointer to a slice.
func decodeDocs(table string, docs []string, dst any) error {
	var b strings.Builder
	b.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(doc)
	}
	b.WriteByte(']')
	if err := json.Unmarshal([]byte(b.String()), dst); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}
