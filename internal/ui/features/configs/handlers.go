package configs

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common/components"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// SaveSignals are the form fields of the save form.
type SaveSignals struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Handlers provides HTTP handlers for the configs feature.
type Handlers struct {
	workspace    *workspace.Workspace
	store        state.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, store state.Store, sessionStore sessions.Store, notify *notifier.Notifier) *Handlers {
	return &Handlers{
		workspace:    ws,
		store:        store,
		sessionStore: sessionStore,
		notifier:     notify,
	}
}

// List sends the saved configuration panel.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if err := h.sendList(r, sse); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Save stores the session's current configuration under $name.
func (h *Handlers) Save(w http.ResponseWriter, r *http.Request) {
	var sig SaveSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)

	name := strings.TrimSpace(sig.Name)
	if name == "" {
		_ = sse.ConsoleError(errors.New("a name is required to save a configuration"))
		return
	}
	snap := ex.Snapshot()
	if !snap.Ready {
		_ = sse.ConsoleError(errors.New("nothing loaded to save"))
		return
	}

	if _, err := h.store.Save(r.Context(), state.SavedConfig{
		Name:          name,
		Description:   strings.TrimSpace(sig.Description),
		Configuration: snap.Config,
	}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.notifier.Broadcast(notifier.Update{Reason: notifier.ConfigsChanged, Detail: name})

	if err := h.sendList(r, sse); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	_ = sse.MarshalAndPatchSignals(SaveSignals{})
}

// Open loads a saved configuration into the session and records the use.
func (h *Handlers) Open(w http.ResponseWriter, r *http.Request) {
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	sc, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, state.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	sse := datastar.NewSSE(w, r)

	msg := "opened " + sc.Name
	if err := ex.Load(ctx, sc.Configuration); err != nil {
		msg = err.Error()
	} else if err := h.store.Touch(ctx, sc.ID); err != nil {
		_ = sse.ConsoleError(err)
	}

	data, err := common.BuildAppData(ctx, ex, h.workspace, h.store, msg)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(components.AppShell(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Delete removes a saved configuration.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, state.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	h.notifier.Broadcast(notifier.Update{Reason: notifier.ConfigsChanged})

	sse := datastar.NewSSE(w, r)
	if err := h.sendList(r, sse); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Export downloads every saved configuration as YAML.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="leapflow-configs.yaml"`)
	if err := state.Export(r.Context(), h.store, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) sendList(r *http.Request, sse *datastar.ServerSentEventGenerator) error {
	saved, err := common.SavedViews(r.Context(), h.store)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(components.ConfigList(saved))
}
