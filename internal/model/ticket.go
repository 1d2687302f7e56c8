package model

import "time"

// TicketStatus enumerates the lifecycle states of a ticket.  A ticket
// is created as booked and moves exactly once into one of the two
// terminal states: cancelled (refund) or changed (superseded by a
// rebooking).  Terminal statuses are never mutated again.
type TicketStatus string

const (
	TicketBooked    TicketStatus = "booked"
	TicketCancelled TicketStatus = "cancelled"
	TicketChanged   TicketStatus = "changed"
)

// Terminal reports whether the status admits no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketCancelled || s == TicketChanged
}

// Ticket records a user's booking on a train for one travel date.
// It is the customer-facing record; the seat mechanics live in the
// seat_occupancies table.  Every booked ticket owns exactly one
// occupancy row, destroyed in the same transaction that moves the
// ticket out of booked.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user who booked the ticket.
//  TrainCode     – short train code (e.g. G101).
//  TrainFullCode – operator's full train code, may equal TrainCode.
//  FromStation   – boarding station name.
//  FromStationNo – boarding stop sequence number on the train's route.
//  ToStation     – alighting station name.
//  ToStationNo   – alighting stop sequence number.
//  TravelDate    – calendar date of travel (time portion ignored).
//  SeatNumber    – assigned seat, 1..total seats of the train.
//  Status        – booked, cancelled or changed.
//  ChangedFrom   – ticket superseded by this one (set only when the
//                  ticket was created by a change operation).
//  BookingTime   – creation timestamp.
type Ticket struct {
	ID            uint64       // tickets.id
	UserID        uint64       // tickets.user_id
	TrainCode     string       // tickets.train_code
	TrainFullCode string       // tickets.train_full_code
	FromStation   string       // tickets.from_station
	FromStationNo int          // tickets.from_station_no
	ToStation     string       // tickets.to_station
	ToStationNo   int          // tickets.to_station_no
	TravelDate    time.Time    // tickets.travel_date (DATE)
	SeatNumber    int          // tickets.seat_number
	Status        TicketStatus // tickets.status
	ChangedFrom   *uint64      // tickets.changed_from (nullable)
	BookingTime   time.Time    // tickets.booking_time
}
