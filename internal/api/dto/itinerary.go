package dto

type StopRequest struct {
	Query        string `json:"query,omitempty"`
	PlaceID      string `json:"place_id,omitempty"`
	DwellMinutes int    `json:"dwell_minutes,omitempty"`
}

type PlanItineraryRequest struct {
	TripName    string        `json:"trip_name"`
	Destination string        `json:"destination"`
	StartDate   string        `json:"start_date"`
	EndDate     string        `json:"end_date,omitempty"`
	DepartAt    string        `json:"depart_at,omitempty"`
	Origin      StopRequest   `json:"origin"`
	Stops       []StopRequest `json:"stops"`
}

type EventResponse struct {
	Name             string `json:"name"`
	Address          string `json:"address"`
	PlaceID          string `json:"place_id"`
	Start            string `json:"start"`
	End              string `json:"end"`
	DwellMinutes     int    `json:"dwell_minutes"`
	TravelTimeToNext *int   `json:"travel_time_to_next,omitempty"`
}

type DayResponse struct {
	Date        string          `json:"date"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Locations   []string        `json:"locations"`
	Strategy    string          `json:"strategy,omitempty"`
	TravelCost  *int            `json:"travel_minutes,omitempty"`
	Events      []EventResponse `json:"events"`
}

type TripResponse struct {
	Key             string        `json:"key,omitempty"`
	Name            string        `json:"name"`
	DestinationName string        `json:"destination_name"`
	StartDate       string        `json:"start_date"`
	EndDate         string        `json:"end_date"`
	NumDays         int           `json:"num_days"`
	Days            []DayResponse `json:"days"`
}

type TripSummary struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	DestinationName string `json:"destination_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	NumDays         int    `json:"num_days"`
}

type TripListResponse struct {
	Trips []TripSummary `json:"trips"`
}
