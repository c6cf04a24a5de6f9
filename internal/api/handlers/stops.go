package handlers

import (
	"net/http"
	"strings"

	"stop-route-service/internal/api/dto"
	"stop-route-service/internal/services"

	"go.uber.org/zap"
)

// StopHandler exposes the stop list and the flows that reorder it.
type StopHandler struct {
	Planner *services.Planner
	Log     *zap.Logger
}

func (h *StopHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.NewListStopsResponse(h.Planner.Stops(), h.Planner.Summary()))
}

func (h *StopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.StopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, src, err := h.Planner.AddStop(r.Context(), stopInput(req))
	if err != nil {
		writeServiceError(w, r, h.Log, "add stop", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.SaveStopResponse{
		Stop:             dto.NewStopResponse(st),
		CoordinateSource: string(src),
	})
}

func (h *StopHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.StopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, src, err := h.Planner.EditStop(r.Context(), r.PathValue("id"), stopInput(req))
	if err != nil {
		writeServiceError(w, r, h.Log, "edit stop", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SaveStopResponse{
		Stop:             dto.NewStopResponse(st),
		CoordinateSource: string(src),
	})
}

func (h *StopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Planner.RemoveStop(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.Log, "remove stop", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StopHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Planner.ClearStops(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Move drags one stop to a new route position (the starting point is 0).
func (h *StopHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req dto.MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Planner.MoveStop(r.Context(), req.From, req.To); err != nil {
		writeServiceError(w, r, h.Log, "move stop", err)
		return
	}
	h.List(w, r)
}

func (h *StopHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Planner.Reorder(r.Context(), req.IDs); err != nil {
		writeServiceError(w, r, h.Log, "reorder stops", err)
		return
	}
	h.List(w, r)
}

func (h *StopHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	route := h.Planner.Optimize(r.Context())
	writeJSON(w, r, http.StatusOK, dto.NewListStopsResponse(route, h.Planner.Summary()))
}

func (h *StopHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Planner.Recompute(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Log, "recompute", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewListStopsResponse(h.Planner.Stops(), sum))
}

// Route returns the drivable path over every located stop as GeoJSON.
func (h *StopHandler) Route(w http.ResponseWriter, r *http.Request) {
	res, err := h.Planner.Route(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Log, "route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(res))
}

func stopInput(req dto.StopRequest) services.StopInput {
	return services.StopInput{
		Buyer:       strings.TrimSpace(req.Buyer),
		Town:        strings.TrimSpace(req.Town),
		Address:     strings.TrimSpace(req.Address),
		Coordinates: req.Coordinates,
	}
}
