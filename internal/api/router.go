package api

import (
	"net/http"

	"stop-route-service/internal/api/handlers"
	"stop-route-service/internal/ports"
	"stop-route-service/internal/services"

	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer needs. Places, Search and Parser
// are optional.
type Deps struct {
	Planner *services.Planner
	Places  ports.PlacesProvider
	Search  ports.TownSearcher
	Parser  ports.TabularParser
	Log     *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	stops := &handlers.StopHandler{Planner: d.Planner, Log: log}
	imports := &handlers.ImportHandler{Planner: d.Planner, Parser: d.Parser, Log: log}
	places := &handlers.PlacesHandler{Places: d.Places, Search: d.Search, Log: log}

	mux.HandleFunc("GET /health", handlers.Health)

	mux.HandleFunc("GET /stops", stops.List)
	mux.HandleFunc("POST /stops", stops.Create)
	mux.HandleFunc("DELETE /stops", stops.Clear)
	mux.HandleFunc("PATCH /stops/{id}", stops.Update)
	mux.HandleFunc("DELETE /stops/{id}", stops.Delete)
	mux.HandleFunc("POST /stops/move", stops.Move)
	mux.HandleFunc("PUT /stops/order", stops.Reorder)
	mux.HandleFunc("POST /stops/optimize", stops.Optimize)
	mux.HandleFunc("POST /stops/recompute", stops.Recompute)
	mux.HandleFunc("GET /route", stops.Route)

	mux.HandleFunc("POST /stops/import", imports.Start)
	mux.HandleFunc("GET /stops/import", imports.Status)
	mux.HandleFunc("DELETE /stops/import", imports.Cancel)

	mux.HandleFunc("GET /towns", places.Towns)
	mux.HandleFunc("GET /towns/search", places.SearchTowns)
	mux.HandleFunc("GET /streets", places.Streets)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
