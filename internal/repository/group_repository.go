package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// GroupRepo persists guest groups and their memberships.  Colours are
// derived at read time by the caller and never stored.
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo constructs a GroupRepo with the given DB handle.
func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create inserts a group and its members.  Member ids that are not guests
// of the chart are ignored.
func (r *GroupRepo) Create(ctx context.Context, g *model.GuestGroup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO guest_groups (id, chart_id, name, group_type) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, g.ID, g.ChartID, g.Name, string(g.Type)); err != nil {
		return err
	}
	members, err := setMembersTx(ctx, tx, g.ChartID, g.ID, g.MemberIDs)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	g.MemberIDs = members
	return nil
}

// GetByID returns ErrGroupNotFound when the group is not in the chart.
func (r *GroupRepo) GetByID(ctx context.Context, chartID, id string) (*model.GuestGroup, error) {
	const q = `SELECT id, chart_id, name, group_type FROM guest_groups WHERE id = ? AND chart_id = ?`
	var (
		g   model.GuestGroup
		typ string
	)
	if err := r.db.QueryRowContext(ctx, q, id, chartID).Scan(&g.ID, &g.ChartID, &g.Name, &typ); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	g.Type = model.ParseGroupType(typ)
	members, err := r.members(ctx, chartID)
	if err != nil {
		return nil, err
	}
	g.MemberIDs = members[g.ID]
	return &g, nil
}

// ListByChart returns every group of a chart ordered by name.
func (r *GroupRepo) ListByChart(ctx context.Context, chartID string) ([]*model.GuestGroup, error) {
	const q = `SELECT id, chart_id, name, group_type FROM guest_groups WHERE chart_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GuestGroup
	for rows.Next() {
		var (
			g   model.GuestGroup
			typ string
		)
		if err := rows.Scan(&g.ID, &g.ChartID, &g.Name, &typ); err != nil {
			return nil, err
		}
		g.Type = model.ParseGroupType(typ)
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := r.members(ctx, chartID)
	if err != nil {
		return nil, err
	}
	for _, g := range out {
		g.MemberIDs = members[g.ID]
	}
	return out, nil
}

func (r *GroupRepo) members(ctx context.Context, chartID string) (map[string][]string, error) {
	const q = `SELECT m.group_id, m.guest_id
               FROM group_members m JOIN guest_groups g ON g.id = m.group_id
               WHERE g.chart_id = ?
               ORDER BY m.group_id, m.guest_id`
	rows, err := r.db.QueryContext(ctx, q, chartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var groupID, guestID string
		if err := rows.Scan(&groupID, &guestID); err != nil {
			return nil, err
		}
		out[groupID] = append(out[groupID], guestID)
	}
	return out, rows.Err()
}

// Update renames or retypes a group and replaces its member list.
func (r *GroupRepo) Update(ctx context.Context, g *model.GuestGroup) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `UPDATE guest_groups SET name = ?, group_type = ? WHERE id = ? AND chart_id = ?`
	res, err := tx.ExecContext(ctx, q, g.Name, string(g.Type), g.ID, g.ChartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGroupNotFound
	}
	members, err := setMembersTx(ctx, tx, g.ChartID, g.ID, g.MemberIDs)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	g.MemberIDs = members
	return nil
}

// Delete removes the group and its memberships.  Guests stay.
func (r *GroupRepo) Delete(ctx context.Context, chartID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM guest_groups WHERE id = ? AND chart_id = ?`, id, chartID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGroupNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// setMembersTx replaces the membership rows and returns the ids that were
// actually stored, in input order without duplicates.
func setMembersTx(ctx context.Context, tx *sql.Tx, chartID, groupID string, guestIDs []string) ([]string, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return nil, err
	}
	stored := make([]string, 0, len(guestIDs))
	seen := make(map[string]bool, len(guestIDs))
	for _, id := range guestIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guests WHERE id = ? AND chart_id = ?`, id, chartID).Scan(&n); err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO group_members (group_id, guest_id) VALUES (?, ?)`, groupID, id); err != nil {
			return nil, err
		}
		stored = append(stored, id)
	}
	return stored, nil
}
