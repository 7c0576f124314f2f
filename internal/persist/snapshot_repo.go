package persist

import (
	"context"
	"fmt"
)

// SnapshotRow is one active object captured at shutdown, enough to
// re-place it at the same tile on the next boot.
type SnapshotRow struct {
	ObjectID   int32
	TemplateID int32
	X          int32
	Y          int32
	Deck       int16
	DecayTicks int
}

type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SaveSnapshot replaces the snapshot table contents with the given rows
// in a single transaction. A crash mid-save leaves the previous snapshot
// intact.
func (r *SnapshotRepo) SaveSnapshot(ctx context.Context, rows []SnapshotRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM object_snapshots`); err != nil {
		return fmt.Errorf("snapshot clear: %w", err)
	}
	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO object_snapshots (object_id, template_id, x, y, deck, decay_ticks)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			row.ObjectID, row.TemplateID, row.X, row.Y, row.Deck, row.DecayTicks,
		); err != nil {
			return fmt.Errorf("snapshot insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadSnapshot returns the rows of the last saved snapshot.
func (r *SnapshotRepo) LoadSnapshot(ctx context.Context) ([]SnapshotRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT object_id, template_id, x, y, deck, decay_ticks
		 FROM object_snapshots ORDER BY object_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		if err := rows.Scan(&row.ObjectID, &row.TemplateID, &row.X, &row.Y, &row.Deck, &row.DecayTicks); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountRows returns the number of snapshot rows, for boot stats.
func (r *SnapshotRepo) CountRows(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM object_snapshots`).Scan(&n)
	return n, err
}
