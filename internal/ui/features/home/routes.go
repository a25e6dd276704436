// Package home provides the flow explorer page and its update stream.
package home

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(
	router chi.Router,
	ws *workspace.Workspace,
	store state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	handlers := NewHandlers(ws, store, sessionStore, notify, isDev)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)

	return nil
}
