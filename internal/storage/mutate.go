// ABOUTME: Mutate-and-log helper pairing each entity write with its outbox entry.
// ABOUTME: All user-visible CRUD goes through Logged so the two writes share one transaction.
package storage

import (
	"context"
	"fmt"

	"github.com/harperreed/lift/internal/models"
)

// Writer performs entity writes that are mirrored into the outbox.
type Writer struct {
	ctx context.Context
	tx  Ops
}

// Logged runs fn in one transaction. Every write made through the Writer
// is recorded in the outbox; if anything fails, neither the entity writes
// nor their outbox entries are kept.
func Logged(ctx context.Context, s Store, fn func(w *Writer) error) error {
	return s.Update(ctx, func(tx Ops) error {
		return fn(&Writer{ctx: ctx, tx: tx})
	})
}

// Tx exposes the underlying transaction for reads and local-only writes.
func (w *Writer) Tx() Ops {
	return w.tx
}

// Create inserts rec and logs a create mutation carrying the full record.
func (w *Writer) Create(table string, rec Record) error {
	return w.write(table, models.OpCreate, rec)
}

// Update replaces rec and logs an update mutation carrying the full record.
func (w *Writer) Update(table string, rec Record) error {
	return w.write(table, models.OpUpdate, rec)
}

// BulkCreate inserts every record and logs one create mutation per record.
func (w *Writer) BulkCreate(table string, recs []Record) error {
	if err := w.tx.BulkPut(w.ctx, table, recs); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := w.tx.EnqueueMutation(w.ctx, table, models.OpCreate, rec); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a record and logs a delete mutation with its id.
func (w *Writer) Delete(table, id string) error {
	if err := w.tx.Delete(w.ctx, table, id); err != nil {
		return err
	}
	if _, err := w.tx.EnqueueMutation(w.ctx, table, models.OpDelete, deletePayload{ID: id}); err != nil {
		return err
	}
	return nil
}

func (w *Writer) write(table string, op models.Op, rec Record) error {
	if err := w.tx.Put(w.ctx, table, rec); err != nil {
		return err
	}
	if _, err := w.tx.EnqueueMutation(w.ctx, table, op, rec); err != nil {
		return fmt.Errorf("log %s %s: %w", op, table, err)
	}
	return nil
}

type deletePayload struct {
	ID string `json:"id"`
}
