package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"stop-route-service/internal/api/dto"
	"stop-route-service/internal/domain"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

const minTownQuery = 2

// PlacesHandler serves town and street autocomplete data.
// Provider failures degrade to empty lists so the form stays usable.
type PlacesHandler struct {
	Places ports.PlacesProvider
	Search ports.TownSearcher
	Log    *zap.Logger
}

func (h *PlacesHandler) Towns(w http.ResponseWriter, r *http.Request) {
	towns := []domain.Town{}
	if h.Places != nil {
		got, err := h.Places.ListTowns(r.Context())
		if err != nil {
			h.Log.Warn("list towns failed", zap.Error(err))
		} else if got != nil {
			towns = got
		}
	}
	writeJSON(w, r, http.StatusOK, dto.TownsResponse{Towns: towns})
}

func (h *PlacesHandler) SearchTowns(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	names := []string{}
	if h.Search != nil && utf8.RuneCountInString(query) >= minTownQuery {
		got, err := h.Search.SearchTowns(r.Context(), query)
		if err != nil {
			h.Log.Warn("search towns failed", zap.String("query", query), zap.Error(err))
		} else if got != nil {
			names = got
		}
	}
	writeJSON(w, r, http.StatusOK, dto.TownSearchResponse{Towns: names})
}

func (h *PlacesHandler) Streets(w http.ResponseWriter, r *http.Request) {
	town := strings.TrimSpace(r.URL.Query().Get("town"))
	if town == "" {
		writeError(w, r, http.StatusBadRequest, "town is required")
		return
	}

	streets := []domain.Street{}
	if h.Places != nil {
		got, err := h.Places.ListStreets(r.Context(), town)
		if err != nil {
			h.Log.Warn("list streets failed", zap.String("town", town), zap.Error(err))
		} else if got != nil {
			streets = got
		}
	}
	writeJSON(w, r, http.StatusOK, dto.StreetsResponse{Streets: streets})
}
