package handlers

import (
	"context"
	"net/http"
	"strings"
	"trip-planner-service/internal/api/dto"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/services"

	"github.com/samber/lo"
)

// ItineraryPlanner is what the handler needs from services.ItineraryPlanner.
type ItineraryPlanner interface {
	Plan(ctx context.Context, req services.PlanItineraryRequest) (*services.Itinerary, error)
	Get(ctx context.Context, key string) (*domain.Trip, error)
	List(ctx context.Context) ([]*domain.Trip, error)
}

type ItineraryHandler struct {
	Planner         ItineraryPlanner
	DefaultDepartAt string
}

// Collection serves /itineraries: GET lists stored trips, POST plans one.
func (h *ItineraryHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// list returns trip summaries without days.
func (h *ItineraryHandler) list(w http.ResponseWriter, r *http.Request) {
	trips, err := h.Planner.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "list itineraries", err)
		return
	}

	res := dto.TripListResponse{Trips: lo.Map(trips, func(t *domain.Trip, _ int) dto.TripSummary {
		return dto.TripSummary{
			Key:             t.Key(),
			Name:            t.Name(),
			DestinationName: t.DestinationName(),
			StartDate:       t.StartDate(),
			EndDate:         t.EndDate(),
			NumDays:         t.NumDays(),
		}
	})}
	writeJSON(w, r, http.StatusOK, res)
}

// create plans, schedules and stores a trip.
func (h *ItineraryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanItineraryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	departClock := strings.TrimSpace(req.DepartAt)
	if departClock == "" {
		departClock = h.DefaultDepartAt
	}
	departAt, err := domain.ParseClock(departClock)
	if err != nil {
		writeServiceError(w, r, "parse depart_at", err)
		return
	}

	it, err := h.Planner.Plan(r.Context(), services.PlanItineraryRequest{
		TripName:    strings.TrimSpace(req.TripName),
		Destination: strings.TrimSpace(req.Destination),
		StartDate:   strings.TrimSpace(req.StartDate),
		EndDate:     strings.TrimSpace(req.EndDate),
		Origin:      toPlanStop(req.Origin),
		Stops:       lo.Map(req.Stops, func(s dto.StopRequest, _ int) services.PlanStop { return toPlanStop(s) }),
		DepartAt:    departAt,
	})
	if err != nil {
		writeServiceError(w, r, "plan itinerary", err)
		return
	}

	res := tripResponse(it.Trip)
	for i, plan := range it.Days {
		if plan == nil || i >= len(res.Days) {
			continue
		}
		cost := plan.Solution.TotalCost()
		res.Days[i].Strategy = string(plan.Solution.Strategy())
		res.Days[i].TravelCost = &cost
	}

	writeJSON(w, r, http.StatusCreated, res)
}

// Get returns a stored trip with its calendar events.
func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	trip, err := h.Planner.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, r, "get itinerary", err)
		return
	}

	writeJSON(w, r, http.StatusOK, tripResponse(trip))
}

func toPlanStop(s dto.StopRequest) services.PlanStop {
	return services.PlanStop{
		Query:        s.Query,
		PlaceID:      s.PlaceID,
		DwellMinutes: s.DwellMinutes,
	}
}

func tripResponse(t *domain.Trip) dto.TripResponse {
	days := t.Days()
	res := dto.TripResponse{
		Key:             t.Key(),
		Name:            t.Name(),
		DestinationName: t.DestinationName(),
		StartDate:       t.StartDate(),
		EndDate:         t.EndDate(),
		NumDays:         t.NumDays(),
		Days:            make([]dto.DayResponse, 0, len(days)),
	}

	for _, d := range days {
		events := d.Events()
		day := dto.DayResponse{
			Date:        d.Date(),
			Origin:      d.Origin(),
			Destination: d.Destination(),
			Locations:   d.Locations(),
			Events:      make([]dto.EventResponse, 0, len(events)),
		}
		for _, e := range events {
			ev := dto.EventResponse{
				Name:         e.Name(),
				Address:      e.Address(),
				PlaceID:      e.PlaceID(),
				Start:        e.StartDateTime(),
				End:          e.EndDateTime(),
				DwellMinutes: e.DwellMinutes(),
			}
			if next, ok := e.TravelTimeToNext(); ok {
				ev.TravelTimeToNext = &next
			}
			day.Events = append(day.Events, ev)
		}
		res.Days = append(res.Days, day)
	}

	return res
}
