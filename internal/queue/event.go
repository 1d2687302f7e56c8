// Package queue defines message payloads exchanged over the message broker.
package queue

// Ticket lifecycle event kinds carried in TicketEvent.Kind.
const (
	TicketBookedEvent    = "booked"
	TicketCancelledEvent = "cancelled"
	TicketChangedEvent   = "changed"
)

// TicketEvent is published after a ticket transaction commits.  It
// carries enough context for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type TicketEvent struct {
	Kind          string `json:"kind"`
	TicketID      uint64 `json:"ticket_id"`
	UserID        uint64 `json:"user_id"`
	TrainCode     string `json:"train_code"`
	TrainFullCode string `json:"train_full_code,omitempty"`
	FromStation   string `json:"from_station,omitempty"`
	ToStation     string `json:"to_station,omitempty"`
	TravelDate    string `json:"travel_date,omitempty"`
	SeatNumber    int    `json:"seat_number,omitempty"`
	ChangedFrom   uint64 `json:"changed_from,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
