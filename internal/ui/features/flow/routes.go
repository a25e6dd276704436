// Package flow handles interaction with the flow chart: intents, hover
// previews, metric switches and viewport changes.
package flow

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

// SetupRoutes configures routes for the flow feature.
func SetupRoutes(router chi.Router, ws *workspace.Workspace, store state.Store, sessionStore sessions.Store) error {
	handlers := NewHandlers(ws, store, sessionStore)

	router.Route("/flow", func(r chi.Router) {
		r.Post("/intent", handlers.Intent)
		r.Post("/hover", handlers.Hover)
		r.Post("/metric", handlers.Metric)
		r.Post("/resize", handlers.Resize)
		r.Get("/tooltip/{id}", handlers.Tooltip)
		r.Get("/snapshot", handlers.Snapshot)
	})

	return nil
}
