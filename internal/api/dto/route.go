package dto

type SolveRouteRequest struct {
	OriginID     string         `json:"origin_id"`
	PlaceIDs     []string       `json:"place_ids"`
	Date         string         `json:"date"`
	StartTime    string         `json:"start_time"`
	DwellMinutes map[string]int `json:"dwell_minutes,omitempty"`
}

type RouteStopResponse struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name,omitempty"`
	ArriveAt string `json:"arrive_at"`
	DepartAt string `json:"depart_at"`
}

type SolveRouteResponse struct {
	Stops        []RouteStopResponse `json:"stops"`
	TotalMinutes int                 `json:"total_minutes"`
	Strategy     string              `json:"strategy"`
}
