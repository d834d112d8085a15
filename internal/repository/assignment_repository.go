package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// AssignmentRepo persists the guest → seat map of a chart.  The planner
// always writes the whole map, so there is no per-row API beyond reads.
type AssignmentRepo struct {
	db *sql.DB
}

// NewAssignmentRepo constructs an AssignmentRepo with the given DB handle.
func NewAssignmentRepo(db *sql.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// ListByChart returns the stored assignments ordered by seq.
func (r *AssignmentRepo) ListByChart(ctx context.Context, chartID string) ([]model.Assignment, error) {
	const q = `SELECT guest_id, table_id, seat_index, seq FROM guest_assignments WHERE chart_id = ? ORDER BY seq, guest_id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.GuestID, &a.TableID, &a.SeatIndex, &a.Seq); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the stored map for entries in one transaction.
func (r *AssignmentRepo) ReplaceAll(ctx context.Context, chartID string, entries []model.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := r.ReplaceAllTx(ctx, tx, chartID, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAllTx is ReplaceAll inside a caller-owned transaction.
func (r *AssignmentRepo) ReplaceAllTx(ctx context.Context, tx *sql.Tx, chartID string, entries []model.Assignment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_assignments WHERE chart_id = ?`, chartID); err != nil {
		return err
	}
	const q = `INSERT INTO guest_assignments (guest_id, chart_id, table_id, seat_index, seq) VALUES (?, ?, ?, ?, ?)`
	for _, a := range entries {
		if _, err := tx.ExecContext(ctx, q, a.GuestID, chartID, a.TableID, a.SeatIndex, a.Seq); err != nil {
			return err
		}
	}
	return nil
}
