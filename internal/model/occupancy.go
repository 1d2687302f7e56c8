package model

import "time"

// Occupancy binds a seat to a half-open segment of stop sequence
// numbers for one train and travel date.  For a fixed
// (train_code, travel_date, seat_number) the stored segments must be
// pairwise non-overlapping; that is the invariant the booking engine
// protects.  TicketID is a non-owning back-reference used only for
// reverse lookup on cancel and change.
//
// Fields:
//  ID         – primary key identifier.
//  TrainCode  – train the seat belongs to.
//  TravelDate – travel date the occupancy applies to.
//  SeatNumber – occupied seat, 1..total seats.
//  StartNo    – first occupied stop number (inclusive).
//  EndNo      – stop number the seat frees up at (exclusive).
//  TicketID   – ticket that caused this occupancy.
type Occupancy struct {
	ID         uint64    // seat_occupancies.id
	TrainCode  string    // seat_occupancies.train_code
	TravelDate time.Time // seat_occupancies.travel_date (DATE)
	SeatNumber int       // seat_occupancies.seat_number
	StartNo    int       // seat_occupancies.start_no
	EndNo      int       // seat_occupancies.end_no
	TicketID   uint64    // seat_occupancies.ticket_id
}
