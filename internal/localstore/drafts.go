package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	draftPrefix   = "wizardDraft_"
	columnsPrefix = "guestColumns_"
)

// DraftKey and ColumnsKey namespace the per-session keys.
func DraftKey(sessionID string) string   { return draftPrefix + sessionID }
func ColumnsKey(sessionID string) string { return columnsPrefix + sessionID }

// Draft is the saved state of the setup wizard.  Data is opaque to the
// server; only Step is interpreted (to resume on the right page).
type Draft struct {
	Step    int             `json:"step"`
	Data    json.RawMessage `json:"data,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
}

// Column is one guest-list column.  Field names the guest attribute the
// column maps to ("full_name", "relationship", "meal_preference",
// "notes"); an empty Field makes it a custom column stored in
// Guest.CustomFields under Label.
type Column struct {
	Label   string `json:"label"`
	Field   string `json:"field,omitempty"`
	Visible bool   `json:"visible"`
}

// ColumnConfig is the guest column setup of one session.
type ColumnConfig struct {
	Columns []Column `json:"columns"`
}

// DefaultColumns is used before the planner customises anything.
func DefaultColumns() ColumnConfig {
	return ColumnConfig{Columns: []Column{
		{Label: "Name", Field: "full_name", Visible: true},
		{Label: "Relationship", Field: "relationship", Visible: true},
		{Label: "Meal Preference", Field: "meal_preference", Visible: true},
		{Label: "Notes", Field: "notes", Visible: false},
	}}
}

// SaveDraft stamps SavedAt and writes the draft.
func (s *Store) SaveDraft(ctx context.Context, sessionID string, d Draft) (Draft, error) {
	d.SavedAt = time.Now().UTC()
	bs, err := json.Marshal(d)
	if err != nil {
		return Draft{}, err
	}
	return d, s.Put(ctx, DraftKey(sessionID), bs)
}

// LoadDraft returns ErrNotFound when the session has no draft.  A corrupt
// draft is reported as missing so the wizard starts over.
func (s *Store) LoadDraft(ctx context.Context, sessionID string) (Draft, error) {
	bs, ok, err := s.Get(ctx, DraftKey(sessionID))
	if err != nil {
		return Draft{}, err
	}
	var d Draft
	if !ok || json.Unmarshal(bs, &d) != nil {
		return Draft{}, fmt.Errorf("draft %s: %w", sessionID, ErrNotFound)
	}
	return d, nil
}

func (s *Store) DeleteDraft(ctx context.Context, sessionID string) error {
	return s.Delete(ctx, DraftKey(sessionID))
}

// SaveColumns writes the column configuration of a session.
func (s *Store) SaveColumns(ctx context.Context, sessionID string, c ColumnConfig) error {
	bs, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Put(ctx, ColumnsKey(sessionID), bs)
}

// LoadColumns falls back to DefaultColumns when nothing usable is stored.
func (s *Store) LoadColumns(ctx context.Context, sessionID string) (ColumnConfig, error) {
	bs, ok, err := s.Get(ctx, ColumnsKey(sessionID))
	if err != nil {
		return ColumnConfig{}, err
	}
	var c ColumnConfig
	if !ok || json.Unmarshal(bs, &c) != nil || len(c.Columns) == 0 {
		return DefaultColumns(), nil
	}
	return c, nil
}

// DeleteColumns forgets a session's column setup.
func (s *Store) DeleteColumns(ctx context.Context, sessionID string) error {
	return s.Delete(ctx, ColumnsKey(sessionID))
}
