package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// PositionRepo persists table positions.
type PositionRepo struct {
	db *sql.DB
}

// NewPositionRepo constructs a PositionRepo with the given DB handle.
func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

// REPLACE INTO is understood by both MySQL and sqlite.
func upsertPositionTx(ctx context.Context, tx *sql.Tx, chartID string, p model.TablePosition) error {
	const q = `REPLACE INTO table_positions (table_id, chart_id, x, y, rotation) VALUES (?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.TableID, chartID, p.X, p.Y, p.Rotation)
	return err
}

// ListByChart returns every position of a chart ordered by table id.
func (r *PositionRepo) ListByChart(ctx context.Context, chartID string) ([]model.TablePosition, error) {
	const q = `SELECT table_id, x, y, rotation FROM table_positions WHERE chart_id = ? ORDER BY table_id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TablePosition
	for rows.Next() {
		var p model.TablePosition
		if err := rows.Scan(&p.TableID, &p.X, &p.Y, &p.Rotation); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertMany writes positions in one transaction.  Positions of tables
// that are not in the chart are skipped.
func (r *PositionRepo) UpsertMany(ctx context.Context, chartID string, ps []model.TablePosition) error {
	if len(ps) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range ps {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM chart_tables WHERE id = ? AND chart_id = ?`, p.TableID, chartID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			continue
		}
		if err := upsertPositionTx(ctx, tx, chartID, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}
