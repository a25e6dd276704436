package flow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/selection"
	"github.com/leapstack-labs/leapflow/internal/ui/features"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Workspace, fixture.Store, fixture.SessionStore), fixture
}

// post sends signals as one browser; prev carries that browser's cookies.
func post(h http.HandlerFunc, target, signals string, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	req := features.SignalsRequest(http.MethodPost, target, signals)
	if prev != nil {
		req = features.WithCookies(req, prev)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func snapshot(t *testing.T, h *Handlers, prev *httptest.ResponseRecorder) SnapshotResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Snapshot(rec, features.WithCookies(httptest.NewRequest(http.MethodGet, "/flow/snapshot", nil), prev))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIntent_ClickElement(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := post(h.Intent, "/flow/intent", `{"intent": {"type": "click_element", "id": "0::Online"}}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "event:")
	assert.Contains(t, body, `id="app"`)
	assert.Contains(t, body, "selected 0::Online")

	resp := snapshot(t, h, rec)
	assert.Equal(t, "0::Online", resp.State.ClickedID)
	assert.NotEmpty(t, resp.Lit)
}

func TestIntent_RecordTraceAcrossRequests(t *testing.T) {
	h, _ := setupTestHandlers(t)

	first := post(h.Intent, "/flow/intent", `{"intent": {"type": "set_mode", "mode": "RECORD_TRACE"}}`, nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := post(h.Intent, "/flow/intent", `{"intent": {"type": "select_record", "record_id": "R001"}}`, first)
	require.Equal(t, http.StatusOK, second.Code)
	third := post(h.Intent, "/flow/intent", `{"intent": {"type": "trace_next"}}`, second)
	require.Equal(t, http.StatusOK, third.Code)

	assert.Contains(t, third.Body.String(), "Trace R001 Acme Corp Loan")

	resp := snapshot(t, h, third)
	assert.Equal(t, interaction.RecordTrace, resp.State.Mode)
	assert.Equal(t, "R001", resp.State.RecordID)
	assert.Equal(t, 1, resp.State.TraceStep)
	assert.Len(t, resp.Overlay, 2, "cursor 1 covers the first two step pairs")
}

func TestIntent_FlowValueWithNumericStep(t *testing.T) {
	h, _ := setupTestHandlers(t)

	first := post(h.Intent, "/flow/intent", `{"intent": {"type": "set_mode", "mode": "FLOW_TRACE"}}`, nil)
	rec := post(h.Intent, "/flow/intent", `{"intent": {"type": "select_flow_value", "step": 3, "value": "Declined", "unknown": false}}`, first)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flow through Outcome = Declined")

	resp := snapshot(t, h, rec)
	require.NotNil(t, resp.State.FlowStep)
	assert.Equal(t, 3, *resp.State.FlowStep)
}

func TestIntent_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		signals string
		want    string
	}{
		{"unknown type", `{"intent": {"type": "explode"}}`, "unknown intent type"},
		{"missing type", `{"intent": {}}`, "missing"},
		{"extra key", `{"intent": {"type": "reset", "bogus": 1}}`, "bogus"},
		{"step out of range", `{"intent": {"type": "select_flow_step", "step": 9}}`, "step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t)
			rec := post(h.Intent, "/flow/intent", tt.signals, nil)

			assert.Equal(t, http.StatusOK, rec.Code, "errors are shown in the view")
			assert.Contains(t, rec.Body.String(), tt.want)

			resp := snapshot(t, h, rec)
			assert.Equal(t, interaction.Initial(), resp.State, "state is unchanged")
		})
	}
}

func TestIntent_BadSignals(t *testing.T) {
	h, _ := setupTestHandlers(t)
	rec := post(h.Intent, "/flow/intent", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHover_AggregatePreviewAndTooltip(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := post(h.Hover, "/flow/hover", `{"hover": "0::Partner"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="flow"`)
	assert.Contains(t, body, `id="tooltip"`)
	assert.Contains(t, body, "<h3>Partner</h3>")
	assert.Contains(t, body, "4 records")
	assert.Contains(t, body, "link-dim", "links away from the hovered node dim")

	resp := snapshot(t, h, rec)
	assert.Empty(t, resp.Lit, "hover never changes the stored highlight")
}

func TestHover_ClearAndNonAggregate(t *testing.T) {
	h, _ := setupTestHandlers(t)

	rec := post(h.Hover, "/flow/hover", `{"hover": ""}`, nil)
	assert.Contains(t, rec.Body.String(), "Hover a node or link")
	assert.NotContains(t, rec.Body.String(), "link-dim")

	mode := post(h.Intent, "/flow/intent", `{"intent": {"type": "set_mode", "mode": "FLOW_TRACE"}}`, nil)
	rec = post(h.Hover, "/flow/hover", `{"hover": "0::Partner"}`, mode)
	body := rec.Body.String()
	assert.Contains(t, body, "<h3>Partner</h3>", "tooltips show in every mode")
	assert.NotContains(t, body, "link-dim", "neighborhood preview is aggregate only")
}

func TestMetric(t *testing.T) {
	h, _ := setupTestHandlers(t)

	first := post(h.Metric, "/flow/metric", `{"metric": "amount"}`, nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "metric amount")
	assert.Equal(t, "AMOUNT", snapshot(t, h, first).Metric)

	rec := post(h.Metric, "/flow/metric", `{"metric": "volume"}`, first)
	assert.Contains(t, rec.Body.String(), "unknown metric")
	assert.Equal(t, "AMOUNT", snapshot(t, h, first).Metric)
}

func TestResize(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := post(h.Resize, "/flow/resize", `{"width": 640, "height": 320}`, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	sess, err := common.LoadSession(httptest.NewRecorder(), features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec), fixture.SessionStore)
	require.NoError(t, err)
	assert.Equal(t, 640, sess.Width)
	assert.Equal(t, 320, sess.Height)

	assert.Eventually(t, func() bool {
		return snapshot(t, h, rec).Layout.Width == 640
	}, time.Second, 10*time.Millisecond)

	ignored := post(h.Resize, "/flow/resize", `{"width": 0, "height": 0}`, rec)
	assert.Equal(t, http.StatusNoContent, ignored.Code)
}

func TestTooltip(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/flow/tooltip/x", nil), "id", "3::Approved")
	rec := httptest.NewRecorder()
	h.Tooltip(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var tip selection.Tooltip
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tip))
	assert.Equal(t, "Approved", tip.Title)
	assert.Positive(t, tip.Count)

	req = features.RequestWithPathParam(httptest.NewRequest(http.MethodGet, "/flow/tooltip/x", nil), "id", "nope")
	rec = httptest.NewRecorder()
	h.Tooltip(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshot_RestoresFromCookie(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := post(h.Intent, "/flow/intent", `{"intent": {"type": "click_element", "id": "0::Branch"}}`, nil)
	sess, err := common.LoadSession(httptest.NewRecorder(), features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), rec), fixture.SessionStore)
	require.NoError(t, err)

	// A server restart or eviction loses the explorer but not the cookie.
	fixture.Workspace.Drop(sess.ID)

	resp := snapshot(t, h, rec)
	assert.Equal(t, "0::Branch", resp.State.ClickedID)
}
