package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/wedding-seating/internal/model"
)

const eventDateLayout = "2006-01-02"

// ChartRepo persists planner sessions.
type ChartRepo struct {
	db *sql.DB
}

// NewChartRepo constructs a ChartRepo with the given DB handle.
func NewChartRepo(db *sql.DB) *ChartRepo {
	return &ChartRepo{db: db}
}

const chartColumns = `id, name, event_date, created_at, updated_at`

func scanChart(s rowScanner) (*model.Chart, error) {
	var (
		c    model.Chart
		date sql.NullString
	)
	if err := s.Scan(&c.ID, &c.Name, &date, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if date.Valid && date.String != "" {
		if d, err := time.Parse(eventDateLayout, date.String); err == nil {
			c.EventDate = &d
		}
	}
	return &c, nil
}

func eventDateArg(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(eventDateLayout), Valid: true}
}

// Create inserts a chart and reads it back so the timestamps are filled.
// c.ID must be set by the caller.
func (r *ChartRepo) Create(ctx context.Context, c *model.Chart) error {
	const q = `INSERT INTO charts (id, name, event_date) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, c.ID, c.Name, eventDateArg(c.EventDate)); err != nil {
		return err
	}
	got, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *got
	return nil
}

// GetByID returns ErrChartNotFound when no row matches.
func (r *ChartRepo) GetByID(ctx context.Context, id string) (*model.Chart, error) {
	q := `SELECT ` + chartColumns + ` FROM charts WHERE id = ?`
	c, err := scanChart(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChartNotFound
		}
		return nil, err
	}
	return c, nil
}

// Update changes name and event date.
func (r *ChartRepo) Update(ctx context.Context, c *model.Chart) error {
	const q = `UPDATE charts SET name = ?, event_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, eventDateArg(c.EventDate), c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChartNotFound
	}
	return nil
}

// Touch bumps updated_at after an edit that does not go through Update.
func (r *ChartRepo) Touch(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE charts SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// Delete removes a chart with all of its tables, guests, groups and
// assignments in one transaction.
func (r *ChartRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DELETE FROM guest_assignments WHERE chart_id = ?`,
		`DELETE FROM table_positions WHERE chart_id = ?`,
		`DELETE FROM group_members WHERE group_id IN (SELECT id FROM guest_groups WHERE chart_id = ?)`,
		`DELETE FROM guest_groups WHERE chart_id = ?`,
		`DELETE FROM guests WHERE chart_id = ?`,
		`DELETE FROM chart_tables WHERE chart_id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM charts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChartNotFound
	}
	return tx.Commit()
}
