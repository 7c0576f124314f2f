package persist

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AuditEntry is one row of the lifecycle audit trail: an object entered
// or left active play, with the disposition the coordinator chose.
type AuditEntry struct {
	ObjectID   int32
	TemplateID int32
	Event      string // "spawn", "despawn", "self_destruct"
	Cause      string
	Outcome    string // "pooled", "destroyed", "fresh", "from_pool"
	Actor      string // operator name, or "" for system-driven events
}

type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// WriteBatch atomically writes a batch of audit entries in a single
// transaction, all tagged with one batch ID. If it fails, no entry of the
// batch is written and the caller should retry the whole batch.
func (r *AuditRepo) WriteBatch(ctx context.Context, entries []AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batchID := uuid.New()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("audit begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO lifecycle_audit (batch_id, object_id, template_id, event, cause, outcome, actor)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			batchID, e.ObjectID, e.TemplateID, e.Event, e.Cause, e.Outcome, e.Actor,
		); err != nil {
			return fmt.Errorf("audit insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkProcessed marks all audit entries as processed (called by external
// consumers that have drained the trail).
func (r *AuditRepo) MarkProcessed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE lifecycle_audit SET processed = TRUE WHERE processed = FALSE`,
	)
	return err
}

// CountRows returns the total number of audit rows, for boot stats.
func (r *AuditRepo) CountRows(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM lifecycle_audit`).Scan(&n)
	return n, err
}
