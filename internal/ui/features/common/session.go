package common

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
)

// SessionName is the cookie holding the browser session.
const SessionName = "leapflow"

const (
	keyID     = "id"
	keyState  = "state"
	keyWidth  = "width"
	keyHeight = "height"
)

// Session is what the cookie remembers for one browser.
type Session struct {
	ID string
	// State is the last selection state, nil on a first visit.
	State  *interaction.State
	Width  int
	Height int
}

// LoadSession reads the browser session, issuing an id on first visit.
// It writes a cookie, so it must run before the response body starts.
// An undecodable cookie (for example after a secret change) starts over.
func LoadSession(w http.ResponseWriter, r *http.Request, store sessions.Store) (Session, error) {
	sess, err := store.Get(r, SessionName)
	if sess == nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}

	var out Session
	out.ID, _ = sess.Values[keyID].(string)
	out.Width, _ = sess.Values[keyWidth].(int)
	out.Height, _ = sess.Values[keyHeight].(int)
	if raw, ok := sess.Values[keyState].(string); ok && raw != "" {
		var st interaction.State
		if json.Unmarshal([]byte(raw), &st) == nil && st.Mode.Valid() {
			out.State = &st
		}
	}

	if out.ID == "" {
		out.ID = uuid.NewString()
		sess.Values[keyID] = out.ID
		if err := sess.Save(r, w); err != nil {
			return Session{}, fmt.Errorf("saving session: %w", err)
		}
	}
	return out, nil
}

// RememberState stores the selection state and viewport in the cookie.
// It writes a cookie, so it must run before the response body starts.
func RememberState(w http.ResponseWriter, r *http.Request, store sessions.Store, st interaction.State, width, height float64) error {
	sess, err := store.Get(r, SessionName)
	if sess == nil {
		return fmt.Errorf("reading session: %w", err)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	sess.Values[keyState] = string(data)
	if width > 0 && height > 0 {
		sess.Values[keyWidth] = int(width)
		sess.Values[keyHeight] = int(height)
	}
	return sess.Save(r, w)
}

// SessionExplorer returns the explorer of the requesting browser. A new
// explorer is sized and restored from what the cookie remembers.
func SessionExplorer(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, store sessions.Store) (*explorer.Explorer, Session, error) {
	sess, err := LoadSession(w, r, store)
	if err != nil {
		return nil, sess, err
	}
	// A failed first load is kept in the snapshot and shown in the view.
	ex, created, err := ws.Session(r.Context(), sess.ID)
	if ex == nil {
		return nil, sess, err
	}
	if created {
		restore(ex, sess)
	}
	return ex, sess, nil
}

func restore(ex *explorer.Explorer, sess Session) {
	if sess.Width > 0 && sess.Height > 0 {
		ex.RequestResize(float64(sess.Width), float64(sess.Height))
		ex.FlushResize()
	}
	if sess.State != nil {
		ex.RestoreState(*sess.State)
	}
}
