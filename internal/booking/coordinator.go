package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// UnitOfWork runs fn inside a single database transaction.  The
// implementation commits when fn returns nil and rolls back on every
// other exit path, so no partial ticket/occupancy state can survive a
// failure.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TicketLedger is the durable store of customer-facing ticket records.
type TicketLedger interface {
	// InsertTx creates a booked ticket and populates its ID.
	InsertTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error
	// ActiveForUpdateTx fetches a ticket by id AND user_id AND
	// status='booked' with a locking read.  sql.ErrNoRows covers not
	// found, wrong owner and already-terminal alike.
	ActiveForUpdateTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64) (*model.Ticket, error)
	// MarkStatusTx moves a ticket into a terminal status.
	MarkStatusTx(ctx context.Context, tx *sql.Tx, ticketID uint64, status model.TicketStatus) error
	// ListActiveByUser returns booked tickets ordered by travel date ascending.
	ListActiveByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
}

// OccupancyLedger is the durable store of (train, date, seat, segment)
// records.  Every writer goes through the Coordinator; there is no
// unguarded read-modify-write of occupancy rows anywhere else.
type OccupancyLedger interface {
	// ForTrainDateTx reads all occupancies of one train/date with a
	// locking read, serializing concurrent writers on that key while
	// leaving other trains and dates untouched.
	ForTrainDateTx(ctx context.Context, tx *sql.Tx, trainCode string, date time.Time) ([]model.Occupancy, error)
	// ForTrainDate is the plain read used by the availability path.
	ForTrainDate(ctx context.Context, trainCode string, date time.Time) ([]model.Occupancy, error)
	InsertTx(ctx context.Context, tx *sql.Tx, o *model.Occupancy) error
	DeleteByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error
}

// RouteIndex is the external timetable collaborator: the ordered stop
// sequence of a train, used to validate requested segments before any
// transaction opens.
type RouteIndex interface {
	StationsForTrain(ctx context.Context, trainCode string) ([]model.TrainStop, error)
}

// Coordinator orchestrates booking, cancellation and change as atomic
// compound operations over the two ledgers.  One Coordinator instance
// is shared by all request handlers; it holds no per-request state.
type Coordinator struct {
	uow         UnitOfWork
	tickets     TicketLedger
	occupancies OccupancyLedger
	routes      RouteIndex
	totalSeats  int
	horizonDays int
	maxRetries  int
	now         func() time.Time // injectable for tests
}

// NewCoordinator wires the engine.  totalSeats is the fixed per-train
// seat count, horizonDays the last bookable day relative to today and
// maxRetries the bounded retry budget for duplicate-key conflicts.
func NewCoordinator(uow UnitOfWork, tickets TicketLedger, occupancies OccupancyLedger, routes RouteIndex, totalSeats, horizonDays, maxRetries int) *Coordinator {
	if uow == nil || tickets == nil || occupancies == nil || routes == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{
		uow:         uow,
		tickets:     tickets,
		occupancies: occupancies,
		routes:      routes,
		totalSeats:  totalSeats,
		horizonDays: horizonDays,
		maxRetries:  maxRetries,
		now:         time.Now,
	}
}

// BookInput carries one booking request.  Station names are resolved
// from the route index, so stale names sent by a client cannot
// disagree with the stored stop numbers.
type BookInput struct {
	UserID     uint64
	TrainCode  string
	FromNo     int
	ToNo       int
	TravelDate time.Time
}

// retryableConflict reports whether a transaction failed on a
// transient write conflict worth rerunning against a fresh snapshot:
// a duplicate-key loss against a racing writer, or an InnoDB
// deadlock/lock-wait abort (the usual outcome when two writers race
// for the first booking of an empty train/date key).
func retryableConflict(err error) bool {
	return errors.Is(err, repository.ErrOccupancyConflict) ||
		errors.Is(err, repository.ErrLockContention)
}

// dateOnly truncates a timestamp to its calendar date in UTC.  Travel
// dates compare and persist as dates, never instants.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// checkDate enforces the booking horizon: reject if date < today or
// date > today + horizonDays, inclusive of both today and the last day.
func (c *Coordinator) checkDate(travelDate time.Time) (time.Time, error) {
	date := dateOnly(travelDate)
	today := dateOnly(c.now())
	if date.Before(today) || date.After(today.AddDate(0, 0, c.horizonDays)) {
		return time.Time{}, ErrDateOutOfRange
	}
	return date, nil
}

// journey validates the requested stop pair against the train's route
// and returns the boarding and alighting stops.  Route index failures
// surface as ErrRouteUnavailable, never as an empty train.
func (c *Coordinator) journey(ctx context.Context, trainCode string, seg Segment) (from, to model.TrainStop, err error) {
	if !seg.Valid() {
		return from, to, ErrInvalidSegment
	}
	stops, err := c.routes.StationsForTrain(ctx, trainCode)
	if err != nil {
		return from, to, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	if len(stops) == 0 {
		return from, to, ErrUnknownTrain
	}
	var haveFrom, haveTo bool
	for _, s := range stops {
		if s.StationNo == seg.StartNo {
			from, haveFrom = s, true
		}
		if s.StationNo == seg.EndNo {
			to, haveTo = s, true
		}
	}
	if !haveFrom || !haveTo {
		return from, to, ErrInvalidSegment
	}
	return from, to, nil
}

// Book runs the booking protocol: read occupancy under lock, allocate,
// insert ticket then occupancy, commit.  On a duplicate-key conflict
// from a racing writer the whole protocol is retried against a fresh
// snapshot up to the retry budget.
func (c *Coordinator) Book(ctx context.Context, in BookInput) (*model.Ticket, error) {
	seg := Segment{StartNo: in.FromNo, EndNo: in.ToNo}
	from, to, err := c.journey(ctx, in.TrainCode, seg)
	if err != nil {
		return nil, err
	}
	date, err := c.checkDate(in.TravelDate)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var ticket *model.Ticket
		err = c.uow.Run(ctx, func(tx *sql.Tx) error {
			occ, err := c.occupancies.ForTrainDateTx(ctx, tx, in.TrainCode, date)
			if err != nil {
				return err
			}
			seat, ok := Allocate(occ, seg, c.totalSeats)
			if !ok {
				return ErrSoldOut
			}
			t := &model.Ticket{
				UserID:        in.UserID,
				TrainCode:     in.TrainCode,
				TrainFullCode: from.TrainFullCode,
				FromStation:   from.Station,
				FromStationNo: seg.StartNo,
				ToStation:     to.Station,
				ToStationNo:   seg.EndNo,
				TravelDate:    date,
				SeatNumber:    seat,
				Status:        model.TicketBooked,
			}
			if err := c.tickets.InsertTx(ctx, tx, t); err != nil {
				return err
			}
			if err := c.occupancies.InsertTx(ctx, tx, &model.Occupancy{
				TrainCode:  in.TrainCode,
				TravelDate: date,
				SeatNumber: seat,
				StartNo:    seg.StartNo,
				EndNo:      seg.EndNo,
				TicketID:   t.ID,
			}); err != nil {
				return err
			}
			ticket = t
			return nil
		})
		if err == nil {
			return ticket, nil
		}
		if !retryableConflict(err) {
			return nil, err
		}
	}
	return nil, ErrContention
}

// Cancel refunds a booked ticket: one transaction flips the status to
// cancelled and removes the ticket's occupancy record.  The cancelled
// ticket is returned so callers can report what was freed.
func (c *Coordinator) Cancel(ctx context.Context, userID, ticketID uint64) (*model.Ticket, error) {
	var cancelled *model.Ticket
	err := c.uow.Run(ctx, func(tx *sql.Tx) error {
		t, err := c.tickets.ActiveForUpdateTx(ctx, tx, ticketID, userID)
		if err != nil {
			return err
		}
		if err := c.tickets.MarkStatusTx(ctx, tx, t.ID, model.TicketCancelled); err != nil {
			return err
		}
		if err := c.occupancies.DeleteByTicketTx(ctx, tx, t.ID); err != nil {
			return err
		}
		t.Status = model.TicketCancelled
		cancelled = t
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveTicket
	}
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Change rebooks a ticket onto a new itinerary as one atomic unit.
// The seat freed by the old ticket stays invisible to concurrent
// bookers until the outcome is known, and the old ticket is left
// booked and unmodified when the new allocation fails.
func (c *Coordinator) Change(ctx context.Context, userID, ticketID uint64, in BookInput) (*model.Ticket, error) {
	seg := Segment{StartNo: in.FromNo, EndNo: in.ToNo}
	from, to, err := c.journey(ctx, in.TrainCode, seg)
	if err != nil {
		return nil, err
	}
	date, err := c.checkDate(in.TravelDate)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var ticket *model.Ticket
		err = c.uow.Run(ctx, func(tx *sql.Tx) error {
			old, err := c.tickets.ActiveForUpdateTx(ctx, tx, ticketID, userID)
			if err != nil {
				return err
			}
			occ, err := c.occupancies.ForTrainDateTx(ctx, tx, in.TrainCode, date)
			if err != nil {
				return err
			}
			// A same-train adjustment must not conflict with the
			// occupancy it is about to release.
			candidates := occ[:0:0]
			for _, o := range occ {
				if o.TicketID != old.ID {
					candidates = append(candidates, o)
				}
			}
			seat, ok := Allocate(candidates, seg, c.totalSeats)
			if !ok {
				return ErrSoldOut
			}
			if err := c.tickets.MarkStatusTx(ctx, tx, old.ID, model.TicketChanged); err != nil {
				return err
			}
			if err := c.occupancies.DeleteByTicketTx(ctx, tx, old.ID); err != nil {
				return err
			}
			oldID := old.ID
			t := &model.Ticket{
				UserID:        userID,
				TrainCode:     in.TrainCode,
				TrainFullCode: from.TrainFullCode,
				FromStation:   from.Station,
				FromStationNo: seg.StartNo,
				ToStation:     to.Station,
				ToStationNo:   seg.EndNo,
				TravelDate:    date,
				SeatNumber:    seat,
				Status:        model.TicketBooked,
				ChangedFrom:   &oldID,
			}
			if err := c.tickets.InsertTx(ctx, tx, t); err != nil {
				return err
			}
			if err := c.occupancies.InsertTx(ctx, tx, &model.Occupancy{
				TrainCode:  in.TrainCode,
				TravelDate: date,
				SeatNumber: seat,
				StartNo:    seg.StartNo,
				EndNo:      seg.EndNo,
				TicketID:   t.ID,
			}); err != nil {
				return err
			}
			ticket = t
			return nil
		})
		if err == nil {
			return ticket, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveTicket
		}
		if !retryableConflict(err) {
			return nil, err
		}
	}
	return nil, ErrContention
}

// AvailableSeats counts the seats still bookable for the requested
// segment.  The count reuses the allocator's overlap predicate so it
// always agrees with what a booking attempt would see.
func (c *Coordinator) AvailableSeats(ctx context.Context, trainCode string, travelDate time.Time, fromNo, toNo int) (int, error) {
	seg := Segment{StartNo: fromNo, EndNo: toNo}
	if _, _, err := c.journey(ctx, trainCode, seg); err != nil {
		return 0, err
	}
	occ, err := c.occupancies.ForTrainDate(ctx, trainCode, dateOnly(travelDate))
	if err != nil {
		return 0, err
	}
	return FreeSeatCount(occ, seg, c.totalSeats), nil
}

// ListUserTickets returns the caller's active tickets ordered by
// travel date ascending.
func (c *Coordinator) ListUserTickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return c.tickets.ListActiveByUser(ctx, userID)
}
