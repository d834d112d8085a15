package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// TableRepo persists chart tables.  A table row and its position row are
// always created and removed together.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, chart_id, name, shape, capacity, width, height, rotation, description, is_default, is_venue_item`

func scanTable(s rowScanner) (*model.Table, error) {
	var (
		t     model.Table
		shape string
		w, h  sql.NullFloat64
		desc  sql.NullString
	)
	if err := s.Scan(&t.ID, &t.ChartID, &t.Name, &shape, &t.Capacity, &w, &h, &t.Rotation, &desc, &t.IsDefault, &t.IsVenueItem); err != nil {
		return nil, err
	}
	t.Shape = model.ParseShape(shape)
	if w.Valid {
		t.Width = &w.Float64
	}
	if h.Valid {
		t.Height = &h.Float64
	}
	t.Description = desc.String
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a table together with its position.
func (r *TableRepo) Create(ctx context.Context, t *model.Table, pos model.TablePosition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := r.CreateTx(ctx, tx, t, pos); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTx is Create inside a caller-owned transaction.
func (r *TableRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Table, pos model.TablePosition) error {
	const q = `INSERT INTO chart_tables (` + tableColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, t.ID, t.ChartID, t.Name, string(t.Shape), t.Capacity,
		t.Width, t.Height, t.Rotation, nullString(t.Description), t.IsDefault, t.IsVenueItem); err != nil {
		return err
	}
	pos.TableID = t.ID
	return upsertPositionTx(ctx, tx, t.ChartID, pos)
}

// GetByID returns ErrTableNotFound when the table is not part of the chart.
func (r *TableRepo) GetByID(ctx context.Context, chartID, id string) (*model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM chart_tables WHERE id = ? AND chart_id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id, chartID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByChart returns the tables of a chart in creation order; tables
// created within the same second are ordered by id.
func (r *TableRepo) ListByChart(ctx context.Context, chartID string) ([]*model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM chart_tables WHERE chart_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites every mutable column of the table.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE chart_tables
               SET name = ?, shape = ?, capacity = ?, width = ?, height = ?, rotation = ?,
                   description = ?, is_default = ?, is_venue_item = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND chart_id = ?`
	res, err := r.db.ExecContext(ctx, q, t.Name, string(t.Shape), t.Capacity, t.Width, t.Height, t.Rotation,
		nullString(t.Description), t.IsDefault, t.IsVenueItem, t.ID, t.ChartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// UpdateDimensions commits a custom width and height.
func (r *TableRepo) UpdateDimensions(ctx context.Context, chartID, id string, d model.TableDimensions) error {
	const q = `UPDATE chart_tables SET width = ?, height = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND chart_id = ?`
	res, err := r.db.ExecContext(ctx, q, d.Width, d.Height, id, chartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// UpdateRotation stores the rotation on the table and on its position.
func (r *TableRepo) UpdateRotation(ctx context.Context, chartID, id string, deg float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE chart_tables SET rotation = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND chart_id = ?`,
		deg, id, chartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE table_positions SET rotation = ? WHERE table_id = ?`, deg, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the table, its position and every assignment to it.
func (r *TableRepo) Delete(ctx context.Context, chartID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := r.DeleteTx(ctx, tx, chartID, id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteTx is Delete inside a caller-owned transaction.
func (r *TableRepo) DeleteTx(ctx context.Context, tx *sql.Tx, chartID, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM chart_tables WHERE id = ? AND chart_id = ?`, id, chartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_positions WHERE table_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM guest_assignments WHERE table_id = ? AND chart_id = ?`, id, chartID)
	return err
}

// DeleteAllTx removes every table of a chart with positions and
// assignments.  Applying a template uses it to start from a clean canvas.
func (r *TableRepo) DeleteAllTx(ctx context.Context, tx *sql.Tx, chartID string) error {
	for _, q := range []string{
		`DELETE FROM guest_assignments WHERE chart_id = ?`,
		`DELETE FROM table_positions WHERE chart_id = ?`,
		`DELETE FROM chart_tables WHERE chart_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, chartID); err != nil {
			return err
		}
	}
	return nil
}

// BeginTx exposes the handle for multi-repository transactions.
func (r *TableRepo) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
