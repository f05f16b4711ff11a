package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/tavolahq/tavola/internal/api/v1"
	"github.com/tavolahq/tavola/internal/api/ws"
	"github.com/tavolahq/tavola/internal/events"
	"github.com/tavolahq/tavola/internal/placement"
	"github.com/tavolahq/tavola/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, engine *placement.Engine, emitter *events.Emitter) {
	v1.RegisterProjectRoutes(api, store, emitter)
	v1.RegisterBoardRoutes(api, store, engine, emitter)
	v1.RegisterCardRoutes(api, store, engine, emitter)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/board/{shortName}", hub.ServeBoard)
	r.Get("/project/{shortName}", hub.ServeProject)
}
