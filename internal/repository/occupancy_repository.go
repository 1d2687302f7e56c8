package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// OccupancyRepo is the append/remove authority for seat state.  Rows
// live in the seat_occupancies table; a UNIQUE key over
// (train_code, travel_date, seat_number, start_no, end_no) backstops
// the coordinator's transaction logic, so even a buggy writer cannot
// commit the same seat/segment twice.
type OccupancyRepo struct {
	db *sql.DB
}

// NewOccupancyRepo returns an OccupancyRepo bound to the given database.
func NewOccupancyRepo(db *sql.DB) *OccupancyRepo { return &OccupancyRepo{db: db} }

const occupancyColumns = `id, train_code, travel_date, seat_number, start_no, end_no, ticket_id`

func scanOccupancies(rows *sql.Rows) ([]model.Occupancy, error) {
	defer rows.Close()
	out := make([]model.Occupancy, 0)
	for rows.Next() {
		var o model.Occupancy
		if err := rows.Scan(&o.ID, &o.TrainCode, &o.TravelDate, &o.SeatNumber, &o.StartNo, &o.EndNo, &o.TicketID); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ForTrainDateTx returns every occupancy of one train/date inside the
// caller's transaction, with FOR UPDATE so concurrent writers on the
// same key serialize against each other.  Rows of other trains or
// dates are not locked.
func (r *OccupancyRepo) ForTrainDateTx(ctx context.Context, tx *sql.Tx, trainCode string, date time.Time) ([]model.Occupancy, error) {
	const q = `SELECT ` + occupancyColumns + `
	           FROM seat_occupancies
	           WHERE train_code = ? AND travel_date = ?
	           ORDER BY seat_number, start_no
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, trainCode, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return scanOccupancies(rows)
}

// ForTrainDate is the read-only variant used by the availability
// query; it takes no locks.
func (r *OccupancyRepo) ForTrainDate(ctx context.Context, trainCode string, date time.Time) ([]model.Occupancy, error) {
	const q = `SELECT ` + occupancyColumns + `
	           FROM seat_occupancies
	           WHERE train_code = ? AND travel_date = ?
	           ORDER BY seat_number, start_no`
	rows, err := r.db.QueryContext(ctx, q, trainCode, date.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return scanOccupancies(rows)
}

// InsertTx creates an occupancy row within the transaction.  A
// duplicate-entry violation of the composite unique key is mapped to
// ErrOccupancyConflict for the coordinator's retry loop.
func (r *OccupancyRepo) InsertTx(ctx context.Context, tx *sql.Tx, o *model.Occupancy) error {
	const q = `INSERT INTO seat_occupancies
	           (train_code, travel_date, seat_number, start_no, end_no, ticket_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		o.TrainCode, o.TravelDate.Format("2006-01-02"), o.SeatNumber, o.StartNo, o.EndNo, o.TicketID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrOccupancyConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// DeleteByTicketTx removes the occupancy owned by a ticket.  Called
// exactly once per ticket, in the same transaction that moves the
// ticket out of booked.
func (r *OccupancyRepo) DeleteByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seat_occupancies WHERE ticket_id = ?`, ticketID)
	return err
}
