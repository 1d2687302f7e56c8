// Package booking implements the seat interval allocation and booking
// transaction engine.  A seat is occupied per travel segment, a
// half-open range of stop sequence numbers, so the same physical seat
// can serve several tickets on one date as long as their segments do
// not overlap.  The allocator is a pure read-only function; all
// mutations run through the Coordinator's transactional protocol.
package booking

// Segment is the half-open range [StartNo, EndNo) of stop sequence
// numbers a ticket occupies a seat for.  StartNo is the boarding
// stop, EndNo the alighting stop; the seat frees up at EndNo.
type Segment struct {
	StartNo int
	EndNo   int
}

// Valid reports whether the segment is well formed: positive stop
// numbers in strictly ascending order.
func (s Segment) Valid() bool {
	return s.StartNo > 0 && s.StartNo < s.EndNo
}

// Overlaps reports whether two segments conflict.  Half-open ranges
// [a,b) and [c,d) intersect iff a < d && c < b; back-to-back segments
// sharing a boundary stop do not conflict.
//
// This is the single overlap predicate in the engine.  The allocator
// and the availability query both go through it; any divergence
// between "seats left" and actual bookability would be a correctness
// bug.
func (s Segment) Overlaps(o Segment) bool {
	return s.StartNo < o.EndNo && o.StartNo < s.EndNo
}
