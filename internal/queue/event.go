// Package queue defines message payloads exchanged over the message broker
// and the consumer for assignments pushed by external stores.
package queue

import (
	"errors"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// AssignmentsChangedEvent is published whenever the guest → seat map of a
// chart changes.  It carries the complete map so consumers never need to
// query the planner database.
type AssignmentsChangedEvent struct {
	ChartID       string             `json:"chart_id"`
	Reason        string             `json:"reason"` // assign, unassign, swap, repair, merge, table_removed, guest_removed
	ChangedGuests []string           `json:"changed_guests"`
	Assignments   []model.Assignment `json:"assignments"`
	OccurredAt    string             `json:"occurred_at"`
}

// AssignmentsRestoreMessage asks the planner to merge previously saved
// assignments into a chart.  Entries with seat_index -1 unseat the guest.
type AssignmentsRestoreMessage struct {
	ChartID     string             `json:"chart_id"`
	Source      string             `json:"source,omitempty"`
	Assignments []model.Assignment `json:"assignments"`
}

// Validate rejects messages that cannot be applied to any chart.
func (m AssignmentsRestoreMessage) Validate() error {
	if m.ChartID == "" {
		return errors.New("chart_id is required")
	}
	for _, a := range m.Assignments {
		if a.GuestID == "" {
			return errors.New("assignment without guest_id")
		}
	}
	return nil
}
