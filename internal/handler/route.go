package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// RouteHandler serves the public timetable surface: route search,
// per-train stop lists and segment availability.
type RouteHandler struct {
	Routes  *repository.RouteRepo
	Booking *booking.Coordinator
}

func NewRouteHandler(r *repository.RouteRepo, b *booking.Coordinator) *RouteHandler {
	return &RouteHandler{Routes: r, Booking: b}
}

// SearchRoutes handles GET /v1/search/routes?from=&to=.  It lists
// every train serving the boarding station strictly before the
// alighting station.
func (h *RouteHandler) SearchRoutes(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to are required"})
	}
	if from == to {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to must differ"})
	}

	routes, err := h.Routes.SearchDirect(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "route search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"routes": routes})
}

// TrainStops handles GET /v1/trains/:code/stops.
func (h *RouteHandler) TrainStops(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train code required"})
	}

	stops, err := h.Routes.StationsForTrain(c.Request().Context(), code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(stops) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown train"})
	}

	type stopView struct {
		Station   string `json:"station"`
		StationNo int    `json:"station_no"`
	}
	views := make([]stopView, 0, len(stops))
	for _, s := range stops {
		views = append(views, stopView{Station: s.Station, StationNo: s.StationNo})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"train_code":      code,
		"train_full_code": stops[0].TrainFullCode,
		"stops":           views,
	})
}

// Availability handles GET /v1/trains/:code/availability?date=&from_no=&to_no=.
// The count reflects whatever is committed at read time; it is
// informational and carries no reservation.
func (h *RouteHandler) Availability(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	date, err := parseTravelDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	fromNo, err1 := strconv.Atoi(c.QueryParam("from_no"))
	toNo, err2 := strconv.Atoi(c.QueryParam("to_no"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_no and to_no must be integers"})
	}

	free, err := h.Booking.AvailableSeats(c.Request().Context(), code, date, fromNo, toNo)
	if err != nil {
		status, msg := bookingStatus(err)
		return c.JSON(status, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"train_code":  code,
		"travel_date": c.QueryParam("date"),
		"from_no":     fromNo,
		"to_no":       toNo,
		"free_seats":  free,
	})
}
