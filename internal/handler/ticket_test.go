package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
)

func TestBookingStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{booking.ErrInvalidSegment, http.StatusBadRequest},
		{booking.ErrDateOutOfRange, http.StatusBadRequest},
		{booking.ErrUnknownTrain, http.StatusBadRequest},
		{booking.ErrNoActiveTicket, http.StatusNotFound},
		{booking.ErrSoldOut, http.StatusConflict},
		{booking.ErrContention, http.StatusServiceUnavailable},
		{booking.ErrRouteUnavailable, http.StatusServiceUnavailable},
		{errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, msg := bookingStatus(tc.err)
		assert.Equal(t, tc.code, code, "error %v", tc.err)
		assert.NotEmpty(t, msg)
	}

	// Wrapped errors map the same as bare sentinels.
	code, _ := bookingStatus(errors.Join(errors.New("attempt 3"), booking.ErrContention))
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestParseTravelDate(t *testing.T) {
	d, err := parseTravelDate("2026-09-01")
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())

	for _, bad := range []string{"", "01-09-2026", "2026/09/01", "2026-9-1"} {
		_, err := parseTravelDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
