package dto

import "stop-route-service/internal/domain"

type StopRequest struct {
	Buyer       string              `json:"buyer"`
	Town        string              `json:"town"`
	Address     string              `json:"address"`
	Coordinates *domain.Coordinates `json:"coordinates"`
}

type StopResponse struct {
	ID                   string              `json:"id"`
	Buyer                string              `json:"buyer"`
	Town                 string              `json:"town"`
	Address              string              `json:"address"`
	Coordinates          *domain.Coordinates `json:"coordinates"`
	DistanceFromPrevious *float64            `json:"distance_from_previous"`
	LegStatus            string              `json:"leg_status,omitempty"`
}

type SaveStopResponse struct {
	Stop             StopResponse `json:"stop"`
	CoordinateSource string       `json:"coordinate_source"`
}

// ListStopsResponse carries the whole route; stops[0] is the starting point.
type ListStopsResponse struct {
	Stops   []StopResponse      `json:"stops"`
	Summary domain.RouteSummary `json:"summary"`
}

type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type ReorderRequest struct {
	IDs []string `json:"ids"`
}

func NewStopResponse(s domain.Stop) StopResponse {
	return StopResponse{
		ID:                   s.ID,
		Buyer:                s.Buyer,
		Town:                 s.Town,
		Address:              s.Address,
		Coordinates:          s.Coordinates,
		DistanceFromPrevious: s.DistanceFromPrevious,
		LegStatus:            string(s.LegStatus),
	}
}

func NewListStopsResponse(route []domain.Stop, sum domain.RouteSummary) ListStopsResponse {
	res := ListStopsResponse{
		Stops:   make([]StopResponse, 0, len(route)),
		Summary: sum,
	}
	for _, s := range route {
		res.Stops = append(res.Stops, NewStopResponse(s))
	}
	return res
}
