package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
	queue_publisher "github.com/iliyamo/train-seat-reservation/internal/service"
)

// TicketHandler exposes the booking engine over HTTP.  All state
// transitions happen inside the coordinator; the handler only binds,
// validates shape, and translates outcomes to status codes.
type TicketHandler struct {
	Booking *booking.Coordinator
}

func NewTicketHandler(b *booking.Coordinator) *TicketHandler {
	return &TicketHandler{Booking: b}
}

type bookReq struct {
	TrainCode  string `json:"train_code"`
	FromNo     int    `json:"from_no"`
	ToNo       int    `json:"to_no"`
	TravelDate string `json:"travel_date"` // YYYY-MM-DD
}

type ticketView struct {
	ID            uint64  `json:"id"`
	TrainCode     string  `json:"train_code"`
	TrainFullCode string  `json:"train_full_code"`
	FromStation   string  `json:"from_station"`
	FromStationNo int     `json:"from_station_no"`
	ToStation     string  `json:"to_station"`
	ToStationNo   int     `json:"to_station_no"`
	TravelDate    string  `json:"travel_date"`
	SeatNumber    int     `json:"seat_number"`
	Status        string  `json:"status"`
	ChangedFrom   *uint64 `json:"changed_from,omitempty"`
	BookingTime   string  `json:"booking_time"`
}

func viewOf(t *model.Ticket) ticketView {
	return ticketView{
		ID:            t.ID,
		TrainCode:     t.TrainCode,
		TrainFullCode: t.TrainFullCode,
		FromStation:   t.FromStation,
		FromStationNo: t.FromStationNo,
		ToStation:     t.ToStation,
		ToStationNo:   t.ToStationNo,
		TravelDate:    t.TravelDate.Format("2006-01-02"),
		SeatNumber:    t.SeatNumber,
		Status:        string(t.Status),
		ChangedFrom:   t.ChangedFrom,
		BookingTime:   t.BookingTime.UTC().Format(time.RFC3339),
	}
}

// bookingStatus maps coordinator errors onto HTTP responses.  Ownership
// failures and missing tickets share one 404 so probing other users'
// ticket IDs reveals nothing.
func bookingStatus(err error) (int, string) {
	switch {
	case errors.Is(err, booking.ErrInvalidSegment):
		return http.StatusBadRequest, "invalid journey segment"
	case errors.Is(err, booking.ErrDateOutOfRange):
		return http.StatusBadRequest, "travel date outside booking window"
	case errors.Is(err, booking.ErrUnknownTrain):
		return http.StatusBadRequest, "unknown train"
	case errors.Is(err, booking.ErrNoActiveTicket):
		return http.StatusNotFound, "ticket not found"
	case errors.Is(err, booking.ErrSoldOut):
		return http.StatusConflict, "no seat available for the requested segment"
	case errors.Is(err, booking.ErrContention):
		return http.StatusServiceUnavailable, "booking contention, try again"
	case errors.Is(err, booking.ErrRouteUnavailable):
		return http.StatusServiceUnavailable, "route data unavailable"
	default:
		return http.StatusInternalServerError, "booking failed"
	}
}

func parseTravelDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// publishEvent fires a lifecycle event without blocking the response.
// The broker is best-effort here; a publish failure is already logged
// by the publisher.
func publishEvent(ev queue.TicketEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishTicketEvent(ctx, ev)
	}()
}

func eventOf(kind string, t *model.Ticket) queue.TicketEvent {
	ev := queue.TicketEvent{
		Kind:          kind,
		TicketID:      t.ID,
		UserID:        t.UserID,
		TrainCode:     t.TrainCode,
		TrainFullCode: t.TrainFullCode,
		FromStation:   t.FromStation,
		ToStation:     t.ToStation,
		TravelDate:    t.TravelDate.Format("2006-01-02"),
		SeatNumber:    t.SeatNumber,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if t.ChangedFrom != nil {
		ev.ChangedFrom = *t.ChangedFrom
	}
	return ev
}

// Book handles POST /v1/tickets.
func (h *TicketHandler) Book(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseTravelDate(req.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}

	t, err := h.Booking.Book(c.Request().Context(), booking.BookInput{
		UserID:     userID,
		TrainCode:  req.TrainCode,
		FromNo:     req.FromNo,
		ToNo:       req.ToNo,
		TravelDate: date,
	})
	if err != nil {
		code, msg := bookingStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}

	publishEvent(eventOf(queue.TicketBookedEvent, t))
	return c.JSON(http.StatusCreated, viewOf(t))
}

// Cancel handles DELETE /v1/tickets/:id.
func (h *TicketHandler) Cancel(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	t, err := h.Booking.Cancel(c.Request().Context(), userID, ticketID)
	if err != nil {
		code, msg := bookingStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}

	publishEvent(eventOf(queue.TicketCancelledEvent, t))
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled", "ticket_id": t.ID})
}

// Change handles POST /v1/tickets/:id/change.  The old ticket ends up
// changed and a new booked ticket is returned, or nothing moves at all.
func (h *TicketHandler) Change(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseTravelDate(req.TravelDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "travel_date must be YYYY-MM-DD"})
	}

	t, err := h.Booking.Change(c.Request().Context(), userID, ticketID, booking.BookInput{
		UserID:     userID,
		TrainCode:  req.TrainCode,
		FromNo:     req.FromNo,
		ToNo:       req.ToNo,
		TravelDate: date,
	})
	if err != nil {
		code, msg := bookingStatus(err)
		return c.JSON(code, echo.Map{"error": msg})
	}

	publishEvent(eventOf(queue.TicketChangedEvent, t))
	return c.JSON(http.StatusCreated, viewOf(t))
}

// ListTickets handles GET /v1/my-tickets.
func (h *TicketHandler) ListTickets(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.Booking.ListUserTickets(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]ticketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, viewOf(&tickets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": views})
}
