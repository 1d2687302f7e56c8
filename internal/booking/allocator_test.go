package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

func occRow(seat, startNo, endNo int) model.Occupancy {
	return model.Occupancy{
		TrainCode:  "G101",
		SeatNumber: seat,
		StartNo:    startNo,
		EndNo:      endNo,
	}
}

func TestAllocateEmptyTrain(t *testing.T) {
	seat, ok := Allocate(nil, Segment{StartNo: 1, EndNo: 4}, 100)
	require.True(t, ok)
	assert.Equal(t, 1, seat)
}

func TestAllocateSkipsConflictingSeats(t *testing.T) {
	occ := []model.Occupancy{
		occRow(1, 1, 4),
		occRow(2, 2, 3),
	}
	seat, ok := Allocate(occ, Segment{StartNo: 2, EndNo: 4}, 100)
	require.True(t, ok)
	assert.Equal(t, 3, seat)
}

func TestAllocateReusesSeatForDisjointSegments(t *testing.T) {
	// Seat 1 is taken for stops 1-2; a 2-4 rider can share it because
	// the first passenger has already left the seat at stop 2.
	occ := []model.Occupancy{occRow(1, 1, 2)}
	seat, ok := Allocate(occ, Segment{StartNo: 2, EndNo: 4}, 100)
	require.True(t, ok)
	assert.Equal(t, 1, seat)
}

func TestAllocateSoldOut(t *testing.T) {
	total := 3
	occ := make([]model.Occupancy, 0, total)
	for n := 1; n <= total; n++ {
		occ = append(occ, occRow(n, 1, 5))
	}
	_, ok := Allocate(occ, Segment{StartNo: 2, EndNo: 3}, total)
	assert.False(t, ok)
}

func TestAllocateDeterministic(t *testing.T) {
	occ := []model.Occupancy{
		occRow(2, 1, 3),
		occRow(1, 2, 4),
	}
	req := Segment{StartNo: 1, EndNo: 2}
	first, ok := Allocate(occ, req, 10)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		seat, ok := Allocate(occ, req, 10)
		require.True(t, ok)
		assert.Equal(t, first, seat)
	}
}

func TestAllocateSeatWithManySegments(t *testing.T) {
	// Seat 1 holds several disjoint segments; the request fits in the
	// remaining gap.
	occ := []model.Occupancy{
		occRow(1, 1, 2),
		occRow(1, 4, 6),
		occRow(1, 8, 9),
	}
	seat, ok := Allocate(occ, Segment{StartNo: 6, EndNo: 8}, 10)
	require.True(t, ok)
	assert.Equal(t, 1, seat)

	_, conflict := Allocate(occ, Segment{StartNo: 3, EndNo: 5}, 1)
	assert.False(t, conflict)
}

func TestFreeSeatCount(t *testing.T) {
	total := 4
	occ := []model.Occupancy{
		occRow(1, 1, 5), // blocks everything
		occRow(2, 1, 2), // frees from stop 2 on
	}

	assert.Equal(t, 3, FreeSeatCount(occ, Segment{StartNo: 2, EndNo: 5}, total))
	assert.Equal(t, 2, FreeSeatCount(occ, Segment{StartNo: 1, EndNo: 2}, total))
	assert.Equal(t, 4, FreeSeatCount(nil, Segment{StartNo: 1, EndNo: 5}, total))
}
