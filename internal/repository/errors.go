// Package repository holds the SQL access layer for charts and everything
// that hangs off a chart.  Queries use the dialect subset shared by MySQL
// (production) and sqlite (tests, local runs).
//
// Sentinel values let handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

var (
	// ErrChartNotFound is returned when a chart lookup fails.
	ErrChartNotFound = errors.New("chart not found")
	// ErrTableNotFound is returned when a table does not exist in the chart.
	ErrTableNotFound = errors.New("table not found")
	// ErrGuestNotFound is returned when a guest does not exist in the chart.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrGroupNotFound is returned when a group does not exist in the chart.
	ErrGroupNotFound = errors.New("group not found")
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
