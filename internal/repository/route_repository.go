package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// RouteRepo is the adapter over the train_routes timetable, the
// booking engine's route index collaborator.  Each row is one stop of
// one train; station_no increases monotonically along the train's
// path starting at 1.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo returns a RouteRepo bound to the given database.
func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// DB exposes the underlying handle for callers that need to open a
// transaction spanning several repositories.
func (r *RouteRepo) DB() *sql.DB { return r.db }

// StationsForTrain returns the ordered stop sequence of a train.  An
// unknown train yields an empty slice, not an error; storage failures
// propagate so callers never mistake an outage for a trainless code.
func (r *RouteRepo) StationsForTrain(ctx context.Context, trainCode string) ([]model.TrainStop, error) {
	const q = `SELECT train_code, train_full_code, station, station_no
	           FROM train_routes
	           WHERE train_code = ?
	           ORDER BY station_no ASC`
	rows, err := r.db.QueryContext(ctx, q, trainCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stops := make([]model.TrainStop, 0)
	for rows.Next() {
		var s model.TrainStop
		if err := rows.Scan(&s.TrainCode, &s.TrainFullCode, &s.Station, &s.StationNo); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stops, nil
}

// SearchDirect finds every train that serves fromStation before
// toStation on its route.  The self-join keeps the ordering condition
// (boarding stop number strictly below alighting stop number) in the
// database where the (train_code, station_no) index can drive it.
func (r *RouteRepo) SearchDirect(ctx context.Context, fromStation, toStation string) ([]model.DirectRoute, error) {
	const q = `SELECT s.train_code, s.train_full_code,
	                  s.station, s.station_no, e.station, e.station_no
	           FROM train_routes s
	           JOIN train_routes e ON e.train_code = s.train_code
	           WHERE s.station = ? AND e.station = ? AND s.station_no < e.station_no
	           ORDER BY s.train_code`
	rows, err := r.db.QueryContext(ctx, q, fromStation, toStation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	routes := make([]model.DirectRoute, 0)
	for rows.Next() {
		var d model.DirectRoute
		if err := rows.Scan(&d.TrainCode, &d.TrainFullCode,
			&d.FromStation, &d.FromStationNo, &d.ToStation, &d.ToStationNo); err != nil {
			return nil, err
		}
		routes = append(routes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

// ReplaceTimetableTx replaces the full stop sequence of one train
// inside the caller's transaction.  Used by the admin timetable
// import; booking requests racing the import see either the old or
// the new route, never a half-written one.
func (r *RouteRepo) ReplaceTimetableTx(ctx context.Context, tx *sql.Tx, trainCode string, stops []model.TrainStop) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM train_routes WHERE train_code = ?`, trainCode); err != nil {
		return err
	}
	if len(stops) == 0 {
		return nil
	}
	query := `INSERT INTO train_routes (train_code, train_full_code, station, station_no) VALUES `
	args := make([]interface{}, 0, len(stops)*4)
	for i, s := range stops {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, trainCode, s.TrainFullCode, s.Station, s.StationNo)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
