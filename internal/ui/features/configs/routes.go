// Package configs lists, saves, opens and deletes saved flow
// configurations from the browser.
package configs

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

// SetupRoutes configures routes for the configs feature.
func SetupRoutes(
	router chi.Router,
	ws *workspace.Workspace,
	store state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
) error {
	handlers := NewHandlers(ws, store, sessionStore, notify)

	router.Route("/configs", func(r chi.Router) {
		r.Get("/", handlers.List)
		r.Post("/", handlers.Save)
		r.Get("/export", handlers.Export)
		r.Post("/{id}/open", handlers.Open)
		r.Delete("/{id}", handlers.Delete)
	})

	return nil
}
