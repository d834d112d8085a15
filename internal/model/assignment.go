package model

// Unassigned is the seat index sentinel that removes an assignment.
const Unassigned = -1

// SeatRef addresses one chair: a table and a zero-based seat index.
type SeatRef struct {
	TableID   string `json:"table_id"`
	SeatIndex int    `json:"seat_index"`
}

// Assignment binds a guest to a seat.  Seq orders assignments by the time
// they were made; repair keeps earlier assignments in place.
type Assignment struct {
	GuestID   string `json:"guest_id"`
	TableID   string `json:"table_id"`
	SeatIndex int    `json:"seat_index"`
	Seq       int64  `json:"seq"`
}

// Seat returns the seat reference of the assignment.
func (a Assignment) Seat() SeatRef {
	return SeatRef{TableID: a.TableID, SeatIndex: a.SeatIndex}
}
