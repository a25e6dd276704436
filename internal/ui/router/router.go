// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/state"
	configsFeature "github.com/leapstack-labs/leapflow/internal/ui/features/configs"
	flowFeature "github.com/leapstack-labs/leapflow/internal/ui/features/flow"
	homeFeature "github.com/leapstack-labs/leapflow/internal/ui/features/home"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/resources"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starfederation/datastar-go/datastar"
)

// SetupRoutes configures all routes for the UI server.
// A nil gatherer leaves /metrics unregistered.
func SetupRoutes(
	router chi.Router,
	ws *workspace.Workspace,
	store state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	gatherer prometheus.Gatherer,
	isDev bool,
) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Feature routes
	if err := homeFeature.SetupRoutes(router, ws, store, sessionStore, notify, isDev); err != nil {
		return err
	}

	if err := flowFeature.SetupRoutes(router, ws, store, sessionStore); err != nil {
		return err
	}

	if err := configsFeature.SetupRoutes(router, ws, store, sessionStore, notify); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
