package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/ui/features"
	"github.com/leapstack-labs/leapflow/internal/ui/features/common"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)

	handlers := NewHandlers(
		fixture.Workspace,
		fixture.Store,
		fixture.SessionStore,
		fixture.Notifier,
		true, // isDev
	)

	return handlers, fixture
}

// =============================================================================
// HomePage Tests - Full HTML page responses with server-rendered content
// =============================================================================

func TestHomePage(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HomePage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"<title>Flow - LeapFlow</title>",
		"data-init",
		"/updates",
		"/reload",
		`id="app"`,
		`id="flow"`,
		"<svg",
		"LoanApplication",
		"Online",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.NotEmpty(t, rec.Result().Cookies(), "first visit issues a session cookie")
}

func TestHomePage_ProductionOmitsReload(t *testing.T) {
	_, fixture := setupTestHandlers(t)
	h := NewHandlers(fixture.Workspace, fixture.Store, fixture.SessionStore, fixture.Notifier, false)

	rec := httptest.NewRecorder()
	h.HomePage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "@get('/reload')")
}

func TestHomePage_SameSessionKeepsSelection(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	first := httptest.NewRecorder()
	h.HomePage(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	sess, err := common.LoadSession(httptest.NewRecorder(), features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), first), fixture.SessionStore)
	require.NoError(t, err)
	ex, created, err := fixture.Workspace.Session(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, created)
	_, err = ex.Apply(interaction.SetModeIntent{Mode: interaction.FlowTrace})
	require.NoError(t, err)

	second := httptest.NewRecorder()
	h.HomePage(second, features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), first))
	assert.Contains(t, second.Body.String(), "Pick a step and a value")

	other := httptest.NewRecorder()
	h.HomePage(other, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotContains(t, other.Body.String(), "Pick a step and a value", "a new browser starts in aggregate mode")
}

func TestHomePage_ListsSavedConfigs(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	_, err := fixture.Store.Save(context.Background(), savedFlow("pipeline by source"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.HomePage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, rec.Body.String(), "pipeline by source")
}

// =============================================================================
// HomePageUpdates Tests - SSE endpoint for live updates only
// =============================================================================

func TestHomePageUpdates_SendsUpdateOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := features.RequestWithTimeout(t, httptest.NewRequest(http.MethodGet, "/updates", nil), 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return fixture.Notifier.Len() == 1 }, time.Second, 5*time.Millisecond)
	fixture.Notifier.Broadcast(notifier.Update{Reason: notifier.SourceReloaded, Detail: "deals.csv"})

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1, "should have at least 1 SSE event from broadcast")
	assert.Contains(t, body, `id="app"`, "update should contain the app shell")
	assert.Contains(t, body, "reloaded after deals.csv changed")
}

func TestHomePageUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := features.RequestWithTimeout(t, httptest.NewRequest(http.MethodGet, "/updates", nil), 50*time.Millisecond)
	rec := httptest.NewRecorder()
	h.HomePageUpdates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"), "should have no SSE events without an update")
}

func TestHomePageUpdates_FollowsSessionEvents(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	page := httptest.NewRecorder()
	h.HomePage(page, httptest.NewRequest(http.MethodGet, "/", nil))
	sess, err := common.LoadSession(httptest.NewRecorder(), features.WithCookies(httptest.NewRequest(http.MethodGet, "/", nil), page), fixture.SessionStore)
	require.NoError(t, err)
	ex, _, err := fixture.Workspace.Session(context.Background(), sess.ID)
	require.NoError(t, err)

	req := features.WithCookies(httptest.NewRequest(http.MethodGet, "/updates", nil), page)
	req = features.RequestWithTimeout(t, req, 300*time.Millisecond)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return ex.Bus().Len() == 1 }, time.Second, 5*time.Millisecond)
	_, err = ex.Apply(interaction.ClickElementIntent{ID: "0::Online"})
	require.NoError(t, err)

	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "selected 0::Online")
	assert.Contains(t, body, "clicked")
}

func TestDescribeUpdate(t *testing.T) {
	assert.Equal(t, "source reloaded", describeUpdate(notifier.Update{Reason: notifier.SourceReloaded}))
	assert.Equal(t, "saved configurations changed", describeUpdate(notifier.Update{Reason: notifier.ConfigsChanged}))
	assert.Equal(t, "other", describeUpdate(notifier.Update{Reason: "other"}))
}
