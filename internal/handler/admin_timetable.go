package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// AdminTimetableHandler lets operators load or replace a train's stop
// sequence.  The replacement runs as one transaction so a concurrent
// booking never observes a partial route.
type AdminTimetableHandler struct {
	Routes *repository.RouteRepo
	UoW    *repository.UnitOfWork
}

func NewAdminTimetableHandler(r *repository.RouteRepo, uow *repository.UnitOfWork) *AdminTimetableHandler {
	return &AdminTimetableHandler{Routes: r, UoW: uow}
}

type timetableReq struct {
	TrainFullCode string `json:"train_full_code"`
	Stops         []struct {
		Station   string `json:"station"`
		StationNo int    `json:"station_no"`
	} `json:"stops"`
}

// ReplaceTimetable handles PUT /v1/admin/trains/:code/stops.  Stops
// must be numbered 1..n in order with unique, non-empty station names.
func (h *AdminTimetableHandler) ReplaceTimetable(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train code required"})
	}
	var req timetableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Stops) < 2 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a route needs at least two stops"})
	}
	fullCode := strings.TrimSpace(req.TrainFullCode)
	if fullCode == "" {
		fullCode = code
	}

	seen := make(map[string]bool, len(req.Stops))
	stops := make([]model.TrainStop, 0, len(req.Stops))
	for i, s := range req.Stops {
		name := strings.TrimSpace(s.Station)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "station name required"})
		}
		if s.StationNo != i+1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "station_no must run 1..n in order"})
		}
		if seen[name] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate station: " + name})
		}
		seen[name] = true
		stops = append(stops, model.TrainStop{
			TrainCode:     code,
			TrainFullCode: fullCode,
			Station:       name,
			StationNo:     s.StationNo,
		})
	}

	err := h.UoW.Run(c.Request().Context(), func(tx *sql.Tx) error {
		return h.Routes.ReplaceTimetableTx(c.Request().Context(), tx, code, stops)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "timetable update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"train_code": code, "stops": len(stops)})
}
