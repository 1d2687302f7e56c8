package booking

import (
	"sort"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// seatIndex groups the occupied segments of one train/date by seat
// number, each list ordered by segment start.  Building it once per
// allocation keeps the overlap test to a binary search per seat
// instead of rescanning every occupancy row.
type seatIndex map[int][]Segment

func buildSeatIndex(occupancies []model.Occupancy) seatIndex {
	idx := make(seatIndex, len(occupancies))
	for _, o := range occupancies {
		idx[o.SeatNumber] = append(idx[o.SeatNumber], Segment{StartNo: o.StartNo, EndNo: o.EndNo})
	}
	for seat, segs := range idx {
		sort.Slice(segs, func(i, j int) bool { return segs[i].StartNo < segs[j].StartNo })
		idx[seat] = segs
	}
	return idx
}

// conflicts reports whether any stored segment of the seat overlaps
// the requested one.  Segments are sorted by start, so the only
// candidate for overlap is the last segment starting before the
// request ends; everything after it starts at or past requested.EndNo.
func (idx seatIndex) conflicts(seat int, requested Segment) bool {
	segs := idx[seat]
	i := sort.Search(len(segs), func(i int) bool { return segs[i].StartNo >= requested.EndNo })
	return i > 0 && segs[i-1].Overlaps(requested)
}

// Allocate scans seats 1..totalSeats in ascending order and returns
// the first one whose stored segments do not overlap the requested
// segment.  ok is false when no seat qualifies; that is a legitimate
// sold-out outcome, not an error.
//
// The function only reads.  The ascending deterministic scan means any
// two callers with the same occupancy snapshot and request get the
// same seat, which keeps allocation reproducible and auditable.  The
// caller is responsible for requested.Valid().
func Allocate(occupancies []model.Occupancy, requested Segment, totalSeats int) (seat int, ok bool) {
	idx := buildSeatIndex(occupancies)
	for n := 1; n <= totalSeats; n++ {
		if !idx.conflicts(n, requested) {
			return n, true
		}
	}
	return 0, false
}

// FreeSeatCount counts, over 1..totalSeats, the seats with no segment
// overlapping the requested one.  It shares the allocator's index and
// predicate so the availability number always agrees with what
// Allocate would do.
func FreeSeatCount(occupancies []model.Occupancy, requested Segment, totalSeats int) int {
	idx := buildSeatIndex(occupancies)
	free := 0
	for n := 1; n <= totalSeats; n++ {
		if !idx.conflicts(n, requested) {
			free++
		}
	}
	return free
}
