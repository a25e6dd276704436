// Package workspace holds the shared data source of the browser UI and one
// explorer per browser session.
//
// Every session explorer loads through the workspace, so swapping the
// source after a file change is invisible to them. Sessions are evicted
// least recently used first once MaxSessions is exceeded.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/internal/explorer"
	"github.com/leapstack-labs/leapflow/internal/interaction"
	"github.com/leapstack-labs/leapflow/internal/source"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// DefaultMaxSessions bounds the number of live session explorers.
const DefaultMaxSessions = 64

// Config configures a Workspace.
type Config struct {
	Project     config.ProjectConfig
	Width       float64
	Height      float64
	MaxSessions int
	// Metrics is shared by every session explorer.
	Metrics *explorer.Metrics
	Logger  *slog.Logger

	// open resolves a project; tests replace it.
	open func(ctx context.Context, p config.ProjectConfig, logger *slog.Logger) (*source.Resolved, error)
}

type session struct {
	ex       *explorer.Explorer
	lastUsed time.Time
}

// Workspace is safe for concurrent use.
type Workspace struct {
	mu       sync.RWMutex
	project  config.ProjectConfig
	res      *source.Resolved
	sessions map[string]*session

	maxSessions   int
	width, height float64
	metrics       *explorer.Metrics
	logger        *slog.Logger
	open          func(ctx context.Context, p config.ProjectConfig, logger *slog.Logger) (*source.Resolved, error)
	now           func() time.Time
}

// Open resolves the project's data source.
func Open(ctx context.Context, cfg Config) (*Workspace, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Metrics == nil {
		cfg.Metrics = explorer.NewMetrics(nil)
	}
	if cfg.open == nil {
		cfg.open = source.FromProject
	}
	res, err := cfg.open(ctx, cfg.Project, cfg.Logger)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		project:     cfg.Project,
		res:         res,
		sessions:    make(map[string]*session),
		maxSessions: cfg.MaxSessions,
		width:       cfg.Width,
		height:      cfg.Height,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		open:        cfg.open,
		now:         time.Now,
	}, nil
}

// Close releases the data source.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.res.Close()
}

// LoadRecords implements explorer.Loader over the current source.
func (w *Workspace) LoadRecords(ctx context.Context, cfg core.Configuration) (*core.Table, error) {
	w.mu.RLock()
	src := w.res.Source
	w.mu.RUnlock()
	return src.LoadRecords(ctx, cfg)
}

// Flow returns the project's flow configuration, completed for the source.
func (w *Workspace) Flow() core.Configuration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.Flow
}

// Project returns the project the current source was opened from.
func (w *Workspace) Project() config.ProjectConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.project
}

// Description names the current source.
func (w *Workspace) Description() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.Description
}

// Len returns the number of live sessions.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sessions)
}

// Session returns the explorer for a session id, creating and loading it
// with the project flow on first use. created reports whether the explorer
// is new. A failed first load still returns the explorer so the caller can
// show the error and retry.
func (w *Workspace) Session(ctx context.Context, id string) (ex *explorer.Explorer, created bool, err error) {
	if id == "" {
		return nil, false, errors.New("empty session id")
	}

	w.mu.Lock()
	if s, ok := w.sessions[id]; ok {
		s.lastUsed = w.now()
		w.mu.Unlock()
		return s.ex, false, nil
	}
	ex = explorer.New(explorer.Config{
		Loader:  w,
		Width:   w.width,
		Height:  w.height,
		Bus:     interaction.NewBus(16),
		Metrics: w.metrics,
		Logger:  w.logger.With(slog.String("session", shortID(id))),
	})
	w.sessions[id] = &session{ex: ex, lastUsed: w.now()}
	w.evictLocked()
	flow := w.res.Flow
	w.mu.Unlock()

	w.logger.Debug("session created", slog.String("session", shortID(id)))
	if err := ex.Load(ctx, flow); err != nil {
		return ex, true, fmt.Errorf("failed to load %s: %w", flow.Object, err)
	}
	return ex, true, nil
}

// Drop forgets a session.
func (w *Workspace) Drop(id string) {
	w.mu.Lock()
	delete(w.sessions, id)
	w.mu.Unlock()
}

func (w *Workspace) evictLocked() {
	for len(w.sessions) > w.maxSessions {
		var oldest string
		var at time.Time
		for id, s := range w.sessions {
			if oldest == "" || s.lastUsed.Before(at) {
				oldest, at = id, s.lastUsed
			}
		}
		delete(w.sessions, oldest)
		w.logger.Debug("session evicted", slog.String("session", shortID(oldest)))
	}
}

// Refresh re-reads records for every session, bypassing the
// configuration cache.
func (w *Workspace) Refresh(ctx context.Context) error {
	var errs []error
	for _, ex := range w.explorers() {
		if err := ex.Reload(ctx); err != nil && !errors.Is(err, core.ErrNoData) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reopen switches to the source p selects. Sessions still showing the old
// project flow move to the new one; the rest reload their own
// configuration. On error the previous source stays.
func (w *Workspace) Reopen(ctx context.Context, p config.ProjectConfig) error {
	res, err := w.open(ctx, p, w.logger)
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.res
	w.project = p
	w.res = res
	w.mu.Unlock()

	if err := old.Close(); err != nil {
		w.logger.Warn("failed to close previous source", slog.String("error", err.Error()))
	}
	w.logger.Info("source reopened", slog.String("source", res.Description))

	oldHash, newHash := old.Flow.Hash(), res.Flow.Hash()
	var errs []error
	for _, ex := range w.explorers() {
		cfg := ex.Snapshot().Config
		switch {
		case cfg.Object == "":
			err = ex.Load(ctx, res.Flow)
		case cfg.Hash() == oldHash && newHash != oldHash:
			err = ex.Load(ctx, res.Flow)
		default:
			err = ex.Reload(ctx)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Workspace) explorers() []*explorer.Explorer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*explorer.Explorer, 0, len(w.sessions))
	for _, s := range w.sessions {
		out = append(out, s.ex)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
