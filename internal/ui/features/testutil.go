// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Workspace    *workspace.Workspace
	Store        *state.SQLiteStore
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a workspace over the embedded sample, an
// in-memory configuration store, a notifier and a cookie store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	ctx := context.Background()

	ws, err := workspace.Open(ctx, workspace.Config{
		Project: config.ProjectConfig{Sample: true},
		Width:   800,
		Height:  400,
		Logger:  logger,
	})
	require.NoError(t, err)

	store, err := state.OpenStore(ctx, ":memory:", logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
		_ = ws.Close()
	})

	return &TestFixture{
		Workspace:    ws,
		Store:        store,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout. The context
// is cancelled when the test ends.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// SignalsRequest builds a datastar POST carrying signals as a JSON body.
func SignalsRequest(method, target, signals string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(signals))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithCookies copies the cookies a previous response set onto req, so the
// request belongs to the same browser session. Like a browser, the last
// Set-Cookie for a name wins.
func WithCookies(req *http.Request, prev *httptest.ResponseRecorder) *http.Request {
	latest := make(map[string]*http.Cookie)
	var order []string
	for _, c := range prev.Result().Cookies() {
		if _, seen := latest[c.Name]; !seen {
			order = append(order, c.Name)
		}
		latest[c.Name] = c
	}
	for _, name := range order {
		req.AddCookie(latest[name])
	}
	return req
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
