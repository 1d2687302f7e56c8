package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// TicketRepo provides persistence for ticket records in the tickets
// table.  Status transitions are append-only in spirit: a ticket is
// inserted as booked and updated at most once into a terminal status.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, user_id, train_code, train_full_code,
	from_station, from_station_no, to_station, to_station_no,
	travel_date, seat_number, status, changed_from, booking_time`

func scanTicket(row interface {
	Scan(dest ...interface{}) error
}) (*model.Ticket, error) {
	var t model.Ticket
	var changedFrom sql.NullInt64
	err := row.Scan(&t.ID, &t.UserID, &t.TrainCode, &t.TrainFullCode,
		&t.FromStation, &t.FromStationNo, &t.ToStation, &t.ToStationNo,
		&t.TravelDate, &t.SeatNumber, &t.Status, &changedFrom, &t.BookingTime)
	if err != nil {
		return nil, err
	}
	if changedFrom.Valid {
		id := uint64(changedFrom.Int64)
		t.ChangedFrom = &id
	}
	return &t, nil
}

// InsertTx creates a ticket within the transaction and populates the
// generated ID and booking timestamp on the passed record.
func (r *TicketRepo) InsertTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets
	           (user_id, train_code, train_full_code,
	            from_station, from_station_no, to_station, to_station_no,
	            travel_date, seat_number, status, changed_from)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var changedFrom interface{}
	if t.ChangedFrom != nil {
		changedFrom = *t.ChangedFrom
	}
	res, err := tx.ExecContext(ctx, q,
		t.UserID, t.TrainCode, t.TrainFullCode,
		t.FromStation, t.FromStationNo, t.ToStation, t.ToStationNo,
		t.TravelDate.Format("2006-01-02"), t.SeatNumber, t.Status, changedFrom)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back to fill DB defaults (booking_time).
	const sel = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	filled, err := scanTicket(tx.QueryRowContext(ctx, sel, t.ID))
	if err != nil {
		return err
	}
	*t = *filled
	return nil
}

// ActiveForUpdateTx fetches a ticket by id AND user_id AND
// status='booked' with a locking read.  The single predicate
// deliberately conflates not-found, wrong-owner and already-terminal:
// all three surface as sql.ErrNoRows so the caller cannot tell which
// case applied.
func (r *TicketRepo) ActiveForUpdateTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets
	           WHERE id = ? AND user_id = ? AND status = 'booked'
	           FOR UPDATE`
	return scanTicket(tx.QueryRowContext(ctx, q, ticketID, userID))
}

// MarkStatusTx moves a ticket into the given status.  Guarded by
// status='booked' so a terminal status can never be overwritten, even
// by a misbehaving caller.
func (r *TicketRepo) MarkStatusTx(ctx context.Context, tx *sql.Tx, ticketID uint64, status model.TicketStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE id = ? AND status = 'booked'`,
		status, ticketID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListActiveByUser returns the user's booked tickets ordered by
// travel date ascending, then booking time for a stable order within
// one day.
func (r *TicketRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets
	           WHERE user_id = ? AND status = 'booked'
	           ORDER BY travel_date ASC, booking_time ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
