package home

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common/components"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	workspace    *workspace.Workspace
	store        state.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, store state.Store, sessionStore sessions.Store, notify *notifier.Notifier, isDev bool) *Handlers {
	return &Handlers{
		workspace:    ws,
		store:        store,
		sessionStore: sessionStore,
		notifier:     notify,
		isDev:        isDev,
	}
}

// HomePage renders the explorer page with the session's current view.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := common.BuildAppData(r.Context(), ex, h.workspace, h.store, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := components.Page("Flow", h.isDev, components.AppShell(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the explorer page.
// It re-renders the app shell when the workspace changes or the session's
// explorer publishes an event. It does not send initial state; HomePage
// already rendered it.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	var events chan interaction.Event
	if bus := ex.Bus(); bus != nil {
		events = bus.Subscribe()
		defer bus.Unsubscribe(events)
	}

	ctx := r.Context()
	for {
		var status string
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			status = describeUpdate(u)
		case ev := <-events:
			status = interaction.Describe(ev)
		}
		if err := h.sendAppView(ctx, sse, ex, status); err != nil {
			_ = sse.ConsoleError(err)
			// Don't return - keep trying on next update
		}
	}
}

// sendAppView builds and sends the full app view.
func (h *Handlers) sendAppView(ctx context.Context, sse *datastar.ServerSentEventGenerator, ex *explorer.Explorer, status string) error {
	data, err := common.BuildAppData(ctx, ex, h.workspace, h.store, status)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(components.AppShell(data))
}

func describeUpdate(u notifier.Update) string {
	switch u.Reason {
	case notifier.SourceReloaded:
		if u.Detail != "" {
			return "reloaded after " + u.Detail + " changed"
		}
		return "source reloaded"
	case notifier.ConfigsChanged:
		return "saved configurations changed"
	}
	return string(u.Reason)
}
