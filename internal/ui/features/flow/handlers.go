package flow

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common/components"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for the flow feature.
type Handlers struct {
	workspace    *workspace.Workspace
	store        state.Store
	sessionStore sessions.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, store state.Store, sessionStore sessions.Store) *Handlers {
	return &Handlers{
		workspace:    ws,
		store:        store,
		sessionStore: sessionStore,
	}
}

// readRequest reads the signals and the session explorer. Both must happen
// before the SSE stream starts: the body is consumed and a cookie may be set.
func (h *Handlers) readRequest(w http.ResponseWriter, r *http.Request) (*explorer.Explorer, Signals, bool) {
	var sig Signals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, sig, false
	}
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, sig, false
	}
	return ex, sig, true
}

// Intent decodes $intent, applies it to the session and sends the new view.
// A rejected intent leaves the state unchanged and is shown in the status line.
func (h *Handlers) Intent(w http.ResponseWriter, r *http.Request) {
	ex, sig, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	var status string
	in, err := interaction.DecodeIntent(sig.Intent)
	if err == nil {
		var ev interaction.Event
		ev, err = ex.Apply(in)
		status = interaction.Describe(ev)
	}
	if err != nil {
		status = err.Error()
	}

	if err := common.RememberState(w, r, h.sessionStore, ex.Snapshot().State, 0, 0); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := h.sendAppView(r.Context(), sse, ex, status); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Hover previews the hovered element's neighborhood in AGGREGATE mode and
// shows its tooltip. An empty $hover restores the current highlight.
func (h *Handlers) Hover(w http.ResponseWriter, r *http.Request) {
	ex, sig, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	sse := datastar.NewSSE(w, r)

	snap := ex.Snapshot()
	hl := snap.Highlight
	var tip *selection.Tooltip
	if sig.Hover != "" && snap.Ready {
		if t, err := ex.Tooltip(sig.Hover); err == nil {
			tip = &t
		}
		if snap.State.Mode == interaction.Aggregate {
			hl = ex.Hover(sig.Hover)
		}
	}

	view := common.BuildFlowView(snap, hl, h.workspace.Description())
	if err := sse.PatchElementTempl(components.FlowChart(view)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(components.TooltipPanel(tip)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Metric switches the session between count and amount.
func (h *Handlers) Metric(w http.ResponseWriter, r *http.Request) {
	ex, sig, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	m, err := core.ParseMetricType(sig.Metric)
	if err == nil {
		err = ex.SetMetric(m)
	}
	status := "metric " + m.String()
	if err != nil {
		status = err.Error()
	}

	sse := datastar.NewSSE(w, r)
	if err := h.sendAppView(r.Context(), sse, ex, status); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Resize requests a layout for the browser's chart area. The layout runs
// once per frame; the update stream sends the result.
func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	ex, sig, ok := h.readRequest(w, r)
	if !ok {
		return
	}

	if sig.Width > 0 && sig.Height > 0 {
		ex.RequestResize(sig.Width, sig.Height)
		if err := common.RememberState(w, r, h.sessionStore, ex.Snapshot().State, sig.Width, sig.Height); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tooltip returns the tooltip of a node or link as JSON.
func (h *Handlers) Tooltip(w http.ResponseWriter, r *http.Request) {
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	tip, err := ex.Tooltip(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, tip)
}

// Snapshot returns the session's layout and highlight as JSON.
func (h *Handlers) Snapshot(w http.ResponseWriter, r *http.Request) {
	ex, _, err := common.SessionExplorer(w, r, h.workspace, h.sessionStore)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snapshotResponse(ex.Snapshot()))
}

func snapshotResponse(snap explorer.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Ready:  snap.Ready,
		Object: snap.Config.Object,
		Metric: string(snap.Config.MetricType),
		State:  snap.State,
		Layout: snap.Layout,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	if !snap.Ready {
		return resp
	}
	g := snap.Graph
	resp.Records = g.RecordCount()
	for _, l := range g.Links() {
		if snap.Highlight.LinkState(l.Key) == selection.LinkHighlight {
			resp.Lit = append(resp.Lit, l.ID)
		}
	}
	for _, k := range snap.Highlight.Overlay {
		resp.Overlay = append(resp.Overlay, k.ID())
	}
	if _, warn := selection.Resolve(g, snap.State); warn != nil {
		resp.Warning = warn.Error()
	}
	return resp
}

func (h *Handlers) sendAppView(ctx context.Context, sse *datastar.ServerSentEventGenerator, ex *explorer.Explorer, status string) error {
	data, err := common.BuildAppData(ctx, ex, h.workspace, h.store, status)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(components.AppShell(data))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
