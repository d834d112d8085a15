package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// GuestRepo persists the guest list of a chart.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo constructs a GuestRepo with the given DB handle.
func NewGuestRepo(db *sql.DB) *GuestRepo {
	return &GuestRepo{db: db}
}

const guestColumns = `id, chart_id, full_name, relationship, meal_preference, notes, custom_fields`

func scanGuest(s rowScanner) (*model.Guest, error) {
	var g model.Guest
	var rel, meal, notes, cf sql.NullString
	if err := s.Scan(&g.ID, &g.ChartID, &g.FullName, &rel, &meal, &notes, &cf); err != nil {
		return nil, err
	}
	g.Relationship = rel.String
	g.MealPreference = meal.String
	g.Notes = notes.String
	if cf.Valid && cf.String != "" {
		// a corrupt blob only loses the custom columns
		_ = json.Unmarshal([]byte(cf.String), &g.CustomFields)
	}
	return &g, nil
}

func customFieldsArg(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	bs, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(bs), Valid: true}, nil
}

func insertGuestTx(ctx context.Context, tx *sql.Tx, g *model.Guest) error {
	cf, err := customFieldsArg(g.CustomFields)
	if err != nil {
		return err
	}
	const q = `INSERT INTO guests (` + guestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q, g.ID, g.ChartID, g.FullName,
		nullString(g.Relationship), nullString(g.MealPreference), nullString(g.Notes), cf)
	return err
}

// Create inserts one guest.
func (r *GuestRepo) Create(ctx context.Context, g *model.Guest) error {
	return r.CreateBulk(ctx, []*model.Guest{g})
}

// CreateBulk inserts guests in one transaction; either all of them are
// stored or none.
func (r *GuestRepo) CreateBulk(ctx context.Context, guests []*model.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, g := range guests {
		if err := insertGuestTx(ctx, tx, g); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns ErrGuestNotFound when the guest is not in the chart.
func (r *GuestRepo) GetByID(ctx context.Context, chartID, id string) (*model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE id = ? AND chart_id = ?`
	g, err := scanGuest(r.db.QueryRowContext(ctx, q, id, chartID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}
	ids, err := r.groupIDs(ctx, chartID)
	if err != nil {
		return nil, err
	}
	g.GroupIDs = ids[g.ID]
	return g, nil
}

// ListByChart returns the guest list ordered by name, with group
// memberships filled in.
func (r *GuestRepo) ListByChart(ctx context.Context, chartID string) ([]*model.Guest, error) {
	q := `SELECT ` + guestColumns + ` FROM guests WHERE chart_id = ? ORDER BY full_name, id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids, err := r.groupIDs(ctx, chartID)
	if err != nil {
		return nil, err
	}
	for _, g := range out {
		g.GroupIDs = ids[g.ID]
	}
	return out, nil
}

func (r *GuestRepo) groupIDs(ctx context.Context, chartID string) (map[string][]string, error) {
	const q = `SELECT m.guest_id, m.group_id
               FROM group_members m JOIN guest_groups g ON g.id = m.group_id
               WHERE g.chart_id = ?
               ORDER BY m.guest_id, m.group_id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var guestID, groupID string
		if err := rows.Scan(&guestID, &groupID); err != nil {
			return nil, err
		}
		out[guestID] = append(out[guestID], groupID)
	}
	return out, rows.Err()
}

// Update rewrites the guest's descriptive fields.  Group membership is
// managed through GroupRepo.
func (r *GuestRepo) Update(ctx context.Context, g *model.Guest) error {
	cf, err := customFieldsArg(g.CustomFields)
	if err != nil {
		return err
	}
	const q = `UPDATE guests SET full_name = ?, relationship = ?, meal_preference = ?, notes = ?, custom_fields = ?
               WHERE id = ? AND chart_id = ?`
	res, err := r.db.ExecContext(ctx, q, g.FullName, nullString(g.Relationship), nullString(g.MealPreference),
		nullString(g.Notes), cf, g.ID, g.ChartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// Delete removes the guest with its memberships and assignment.
func (r *GuestRepo) Delete(ctx context.Context, chartID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM guests WHERE id = ? AND chart_id = ?`, id, chartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuestNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE guest_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_assignments WHERE guest_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
