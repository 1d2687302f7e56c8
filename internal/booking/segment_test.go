package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentValid(t *testing.T) {
	assert.True(t, Segment{StartNo: 1, EndNo: 2}.Valid())
	assert.True(t, Segment{StartNo: 3, EndNo: 9}.Valid())

	assert.False(t, Segment{StartNo: 0, EndNo: 2}.Valid())
	assert.False(t, Segment{StartNo: 2, EndNo: 2}.Valid())
	assert.False(t, Segment{StartNo: 5, EndNo: 3}.Valid())
	assert.False(t, Segment{StartNo: -1, EndNo: 1}.Valid())
}

func TestSegmentOverlaps(t *testing.T) {
	ab := Segment{StartNo: 1, EndNo: 2}
	bc := Segment{StartNo: 2, EndNo: 3}
	ac := Segment{StartNo: 1, EndNo: 3}
	bd := Segment{StartNo: 2, EndNo: 4}

	// Touching at a single station is not an overlap: the seat frees
	// at the alighting stop.
	assert.False(t, ab.Overlaps(bc))
	assert.False(t, bc.Overlaps(ab))

	assert.True(t, ac.Overlaps(ab))
	assert.True(t, ac.Overlaps(bc))
	assert.True(t, ac.Overlaps(bd))
	assert.True(t, bd.Overlaps(ac))
	assert.True(t, ab.Overlaps(ab))
}
