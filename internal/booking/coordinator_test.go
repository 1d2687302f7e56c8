package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// memStore is an in-memory stand-in for the database-backed ledgers.
// It implements UnitOfWork, TicketLedger, OccupancyLedger and
// RouteIndex at once.  Run snapshots all state before fn and restores
// it when fn fails, mirroring transaction rollback.
type memStore struct {
	stops    []model.TrainStop
	stopsErr error

	tickets map[uint64]model.Ticket
	occ     []model.Occupancy
	nextID  uint64

	// occConflicts makes the next n occupancy inserts fail the way a
	// racing writer hitting the unique key would; lockAborts does the
	// same with the error an InnoDB deadlock abort surfaces as.
	occConflicts int
	lockAborts   int
}

func newMemStore() *memStore {
	stations := []string{"北京南", "济南西", "南京南", "上海虹桥"}
	stops := make([]model.TrainStop, 0, len(stations))
	for i, name := range stations {
		stops = append(stops, model.TrainStop{
			TrainCode:     "G101",
			TrainFullCode: "G101",
			Station:       name,
			StationNo:     i + 1,
		})
	}
	return &memStore{stops: stops, tickets: make(map[uint64]model.Ticket)}
}

func (m *memStore) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	savedTickets := make(map[uint64]model.Ticket, len(m.tickets))
	for k, v := range m.tickets {
		savedTickets[k] = v
	}
	savedOcc := append([]model.Occupancy(nil), m.occ...)
	savedNext := m.nextID

	if err := fn(nil); err != nil {
		m.tickets = savedTickets
		m.occ = savedOcc
		m.nextID = savedNext
		return err
	}
	return nil
}

func (m *memStore) StationsForTrain(ctx context.Context, trainCode string) ([]model.TrainStop, error) {
	if m.stopsErr != nil {
		return nil, m.stopsErr
	}
	if len(m.stops) > 0 && m.stops[0].TrainCode != trainCode {
		return nil, nil
	}
	return m.stops, nil
}

func (m *memStore) InsertTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	m.nextID++
	t.ID = m.nextID
	t.BookingTime = time.Now().UTC()
	m.tickets[t.ID] = *t
	return nil
}

func (m *memStore) ActiveForUpdateTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64) (*model.Ticket, error) {
	t, ok := m.tickets[ticketID]
	if !ok || t.UserID != userID || t.Status != model.TicketBooked {
		return nil, sql.ErrNoRows
	}
	copied := t
	return &copied, nil
}

func (m *memStore) MarkStatusTx(ctx context.Context, tx *sql.Tx, ticketID uint64, status model.TicketStatus) error {
	t, ok := m.tickets[ticketID]
	if !ok || t.Status != model.TicketBooked {
		return sql.ErrNoRows
	}
	t.Status = status
	m.tickets[ticketID] = t
	return nil
}

func (m *memStore) ListActiveByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range m.tickets {
		if t.UserID == userID && t.Status == model.TicketBooked {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TravelDate.Before(out[j].TravelDate) })
	return out, nil
}

func (m *memStore) ForTrainDateTx(ctx context.Context, tx *sql.Tx, trainCode string, date time.Time) ([]model.Occupancy, error) {
	return m.ForTrainDate(ctx, trainCode, date)
}

func (m *memStore) ForTrainDate(ctx context.Context, trainCode string, date time.Time) ([]model.Occupancy, error) {
	var out []model.Occupancy
	for _, o := range m.occ {
		if o.TrainCode == trainCode && o.TravelDate.Equal(date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) insertOcc(o *model.Occupancy) error {
	if m.occConflicts > 0 {
		m.occConflicts--
		return repository.ErrOccupancyConflict
	}
	if m.lockAborts > 0 {
		m.lockAborts--
		return fmt.Errorf("%w: Error 1213: Deadlock found when trying to get lock", repository.ErrLockContention)
	}
	m.nextID++
	o.ID = m.nextID
	m.occ = append(m.occ, *o)
	return nil
}

func (m *memStore) DeleteByTicketTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	kept := m.occ[:0:0]
	for _, o := range m.occ {
		if o.TicketID != ticketID {
			kept = append(kept, o)
		}
	}
	m.occ = kept
	return nil
}

// occInserter splits the occupancy InsertTx so tests can swap in a
// failing implementation without touching the rest of memStore.
type occInserter struct {
	*memStore
	insertErr error
}

func (m *memStore) occLedger() *occInserter { return &occInserter{memStore: m} }

func (o *occInserter) InsertTx(ctx context.Context, tx *sql.Tx, occ *model.Occupancy) error {
	if o.insertErr != nil {
		return o.insertErr
	}
	return o.memStore.insertOcc(occ)
}

var testToday = time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)

func newTestCoordinator(m *memStore, totalSeats int) (*Coordinator, *occInserter) {
	occ := m.occLedger()
	c := NewCoordinator(m, m, occ, m, totalSeats, 30, 3)
	c.now = func() time.Time { return testToday }
	return c, occ
}

func bookInput(fromNo, toNo int) BookInput {
	return BookInput{
		UserID:     7,
		TrainCode:  "G101",
		FromNo:     fromNo,
		ToNo:       toNo,
		TravelDate: testToday.AddDate(0, 0, 3),
	}
}

func TestBookAssignsSeatAndStations(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)

	ticket, err := c.Book(context.Background(), bookInput(1, 4))
	require.NoError(t, err)

	assert.Equal(t, 1, ticket.SeatNumber)
	assert.Equal(t, "北京南", ticket.FromStation)
	assert.Equal(t, "上海虹桥", ticket.ToStation)
	assert.Equal(t, model.TicketBooked, ticket.Status)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), ticket.TravelDate)

	require.Len(t, m.occ, 1)
	assert.Equal(t, ticket.ID, m.occ[0].TicketID)
	assert.Equal(t, 1, m.occ[0].StartNo)
	assert.Equal(t, 4, m.occ[0].EndNo)
}

func TestBookSegmentValidation(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)
	ctx := context.Background()

	for _, in := range []BookInput{
		bookInput(3, 3),
		bookInput(4, 2),
		bookInput(0, 2),
	} {
		_, err := c.Book(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidSegment)
	}

	// Stops that are valid numbers but absent from the route.
	_, err := c.Book(ctx, bookInput(1, 9))
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

func TestBookDateWindow(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)
	ctx := context.Background()

	book := func(d time.Time) error {
		in := bookInput(1, 2)
		in.TravelDate = d
		_, err := c.Book(ctx, in)
		return err
	}

	assert.ErrorIs(t, book(testToday.AddDate(0, 0, -1)), ErrDateOutOfRange)
	assert.ErrorIs(t, book(testToday.AddDate(0, 0, 31)), ErrDateOutOfRange)

	// Today and the last day of the window are both bookable.
	assert.NoError(t, book(testToday))
	assert.NoError(t, book(testToday.AddDate(0, 0, 30)))
}

func TestBookUnknownTrain(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)

	in := bookInput(1, 2)
	in.TrainCode = "K9999"
	_, err := c.Book(context.Background(), in)
	assert.ErrorIs(t, err, ErrUnknownTrain)
}

func TestBookRouteIndexDown(t *testing.T) {
	m := newMemStore()
	m.stopsErr = errors.New("timetable store unreachable")
	c, _ := newTestCoordinator(m, 100)

	_, err := c.Book(context.Background(), bookInput(1, 2))
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestBookSoldOut(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Book(ctx, bookInput(1, 4))
		require.NoError(t, err)
	}

	_, err := c.Book(ctx, bookInput(2, 3))
	assert.ErrorIs(t, err, ErrSoldOut)

	free, err := c.AvailableSeats(ctx, "G101", testToday.AddDate(0, 0, 3), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, free)
}

func TestBookRetriesThenSucceeds(t *testing.T) {
	m := newMemStore()
	m.occConflicts = 2
	c, _ := newTestCoordinator(m, 100)

	ticket, err := c.Book(context.Background(), bookInput(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, m.occConflicts)

	// The conflicted attempts must not leave ticket rows behind.
	active, err := c.ListUserTickets(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ticket.ID, active[0].ID)
}

func TestBookRetriesOnLockAbort(t *testing.T) {
	// Two first bookings of an empty train/date race: one side is
	// killed with a deadlock abort instead of a duplicate key.  That
	// loser retries on a fresh snapshot like a duplicate-key loser.
	m := newMemStore()
	m.lockAborts = 2
	c, _ := newTestCoordinator(m, 100)

	ticket, err := c.Book(context.Background(), bookInput(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, m.lockAborts)

	active, err := c.ListUserTickets(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ticket.ID, active[0].ID)
}

func TestBookLockAbortsExhaustRetries(t *testing.T) {
	m := newMemStore()
	m.lockAborts = 100
	c, _ := newTestCoordinator(m, 100)

	_, err := c.Book(context.Background(), bookInput(1, 3))
	assert.ErrorIs(t, err, ErrContention)
	assert.Empty(t, m.occ)
	assert.Empty(t, m.tickets)
}

func TestChangeRetriesOnLockAbort(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)
	ctx := context.Background()

	old, err := c.Book(ctx, bookInput(1, 3))
	require.NoError(t, err)

	m.lockAborts = 1
	next, err := c.Change(ctx, 7, old.ID, bookInput(2, 4))
	require.NoError(t, err)
	assert.Equal(t, model.TicketChanged, m.tickets[old.ID].Status)
	assert.Equal(t, model.TicketBooked, next.Status)
}

func TestBookContentionExhaustsRetries(t *testing.T) {
	m := newMemStore()
	m.occConflicts = 100
	c, _ := newTestCoordinator(m, 100)

	_, err := c.Book(context.Background(), bookInput(1, 3))
	assert.ErrorIs(t, err, ErrContention)
	assert.Empty(t, m.occ)
	assert.Empty(t, m.tickets)
}

func TestBookRollbackOnOccupancyFailure(t *testing.T) {
	m := newMemStore()
	c, occ := newTestCoordinator(m, 100)
	occ.insertErr = errors.New("connection reset")

	_, err := c.Book(context.Background(), bookInput(1, 3))
	require.Error(t, err)

	// Ticket insert succeeded inside the transaction but must be gone
	// after rollback.
	assert.Empty(t, m.tickets)
	assert.Empty(t, m.occ)
}

func TestCancelFreesSeat(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 1)
	ctx := context.Background()

	ticket, err := c.Book(ctx, bookInput(1, 4))
	require.NoError(t, err)

	_, err = c.Book(ctx, bookInput(1, 4))
	require.ErrorIs(t, err, ErrSoldOut)

	cancelled, err := c.Cancel(ctx, 7, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, m.tickets[ticket.ID].Status)
	assert.Empty(t, m.occ)

	// The returned record identifies the freed journey, for event
	// publishing and the response body.
	require.NotNil(t, cancelled)
	assert.Equal(t, ticket.ID, cancelled.ID)
	assert.Equal(t, model.TicketCancelled, cancelled.Status)
	assert.Equal(t, "G101", cancelled.TrainCode)
	assert.Equal(t, "北京南", cancelled.FromStation)
	assert.Equal(t, "上海虹桥", cancelled.ToStation)
	assert.Equal(t, ticket.SeatNumber, cancelled.SeatNumber)
	assert.Equal(t, ticket.TravelDate, cancelled.TravelDate)

	// The freed seat is bookable again.
	_, err = c.Book(ctx, bookInput(1, 4))
	assert.NoError(t, err)
}

func TestCancelRejectsForeignAndTerminalTickets(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)
	ctx := context.Background()

	ticket, err := c.Book(ctx, bookInput(1, 4))
	require.NoError(t, err)

	// Someone else's ticket ID and a nonexistent ID are the same error.
	_, err = c.Cancel(ctx, 8, ticket.ID)
	assert.ErrorIs(t, err, ErrNoActiveTicket)
	_, err = c.Cancel(ctx, 7, 424242)
	assert.ErrorIs(t, err, ErrNoActiveTicket)

	_, err = c.Cancel(ctx, 7, ticket.ID)
	require.NoError(t, err)
	_, err = c.Cancel(ctx, 7, ticket.ID)
	assert.ErrorIs(t, err, ErrNoActiveTicket)
}

func TestChangeMovesTicket(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)
	ctx := context.Background()

	old, err := c.Book(ctx, bookInput(1, 3))
	require.NoError(t, err)

	next, err := c.Change(ctx, 7, old.ID, bookInput(2, 4))
	require.NoError(t, err)

	assert.Equal(t, model.TicketChanged, m.tickets[old.ID].Status)
	assert.Equal(t, model.TicketBooked, next.Status)
	require.NotNil(t, next.ChangedFrom)
	assert.Equal(t, old.ID, *next.ChangedFrom)

	require.Len(t, m.occ, 1)
	assert.Equal(t, next.ID, m.occ[0].TicketID)
	assert.Equal(t, 2, m.occ[0].StartNo)
	assert.Equal(t, 4, m.occ[0].EndNo)
}

func TestChangeIgnoresOwnOccupancy(t *testing.T) {
	// On a one-seat train the only occupancy belongs to the ticket
	// being changed; the change must not conflict with itself.
	m := newMemStore()
	c, _ := newTestCoordinator(m, 1)
	ctx := context.Background()

	old, err := c.Book(ctx, bookInput(1, 4))
	require.NoError(t, err)

	next, err := c.Change(ctx, 7, old.ID, bookInput(2, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, next.SeatNumber)
}

func TestChangeSoldOutLeavesOldTicketBooked(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 2)
	ctx := context.Background()

	old, err := c.Book(ctx, bookInput(1, 2))
	require.NoError(t, err)

	// Fill both seats on the 2-4 segment with other riders, so the
	// change target has nowhere to go.
	for _, uid := range []uint64{8, 9} {
		in := bookInput(2, 4)
		in.UserID = uid
		_, err = c.Book(ctx, in)
		require.NoError(t, err)
	}

	_, err = c.Change(ctx, 7, old.ID, bookInput(2, 4))
	require.ErrorIs(t, err, ErrSoldOut)

	assert.Equal(t, model.TicketBooked, m.tickets[old.ID].Status)
	// The old occupancy row is untouched.
	found := false
	for _, o := range m.occ {
		if o.TicketID == old.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestChangeUnknownTicket(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 100)

	_, err := c.Change(context.Background(), 7, 5, bookInput(1, 2))
	assert.ErrorIs(t, err, ErrNoActiveTicket)
}

func TestAvailableSeatsTracksBookings(t *testing.T) {
	m := newMemStore()
	c, _ := newTestCoordinator(m, 3)
	ctx := context.Background()
	date := testToday.AddDate(0, 0, 3)

	free, err := c.AvailableSeats(ctx, "G101", date, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, free)

	_, err = c.Book(ctx, bookInput(1, 2))
	require.NoError(t, err)

	// The 1-2 booking blocks 1-4 on one seat but leaves 2-4 untouched.
	free, err = c.AvailableSeats(ctx, "G101", date, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, free)

	free, err = c.AvailableSeats(ctx, "G101", date, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, free)

	// Reads never consume seats.
	for i := 0; i < 3; i++ {
		again, err := c.AvailableSeats(ctx, "G101", date, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, 2, again)
	}

	_, err = c.AvailableSeats(ctx, "G101", date, 4, 1)
	assert.ErrorIs(t, err, ErrInvalidSegment)
}

func TestConcurrentLastSeat(t *testing.T) {
	// Two goroutines race for the last seat.  The memory store is not
	// itself concurrency-safe, so the race is serialized through a
	// channel the way the database serializes it through the row lock;
	// the point is exactly one winner and one ErrSoldOut.
	m := newMemStore()
	c, _ := newTestCoordinator(m, 1)
	ctx := context.Background()

	turn := make(chan struct{}, 1)
	turn <- struct{}{}
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(userID uint64) {
			<-turn
			in := bookInput(1, 4)
			in.UserID = userID
			_, err := c.Book(ctx, in)
			turn <- struct{}{}
			errs <- err
		}(uint64(100 + i))
	}

	var okCount, soldOut int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			okCount++
		case errors.Is(err, ErrSoldOut):
			soldOut++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, soldOut)
	assert.Len(t, m.occ, 1)
}
