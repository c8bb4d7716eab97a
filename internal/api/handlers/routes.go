package handlers

import (
	"context"
	"net/http"
	"strings"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"
)

// RouteSolver is what the handler needs from services.RoutePlanner.
type RouteSolver interface {
	SolveDay(ctx context.Context, req services.SolveRequest) (*services.DayPlan, error)
}

type RouteHandler struct {
	Solver RouteSolver
}

// Solve optimizes a single day over known place ids without storing it.
func (h *RouteHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.SolveRouteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := domain.ParseClock(strings.TrimSpace(req.StartTime))
	if err != nil {
		writeServiceError(w, r, "parse start_time", err)
		return
	}

	plan, err := h.Solver.SolveDay(r.Context(), services.SolveRequest{
		OriginID:   strings.TrimSpace(req.OriginID),
		POIIDs:     req.PlaceIDs,
		Date:       strings.TrimSpace(req.Date),
		StartTime:  start,
		DwellByPOI: req.DwellMinutes,
	})
	if err != nil {
		writeServiceError(w, r, "solve route", err)
		return
	}

	sol := plan.Solution
	arrivals := sol.ArrivalTimes()
	departures := sol.DepartureTimes()

	res := dto.SolveRouteResponse{
		Stops:        make([]dto.RouteStopResponse, 0, sol.Len()),
		TotalMinutes: sol.TotalCost(),
		Strategy:     string(sol.Strategy()),
	}
	for i, k := range sol.Path() {
		res.Stops = append(res.Stops, dto.RouteStopResponse{
			PlaceID:  plan.Index.ID(k),
			Name:     plan.Stops[k].Name,
			ArriveAt: domain.FormatClock(arrivals[i]),
			DepartAt: domain.FormatClock(departures[i]),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
