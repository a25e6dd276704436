// Package ui provides the browser front end for LeapFlow.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapflow/internal/config"
	"github.com/leapstack-labs/leapflow/internal/state"
	"github.com/leapstack-labs/leapflow/internal/ui/notifier"
	"github.com/leapstack-labs/leapflow/internal/ui/router"
	"github.com/leapstack-labs/leapflow/internal/ui/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const watchDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	workspace     *workspace.Workspace
	store         state.Store
	sessionStore  *sessions.CookieStore
	host          string
	port          int
	watch         bool
	watchPaths    []string
	configFile    string
	reloadProject func() (config.ProjectConfig, error)
	registry      *prometheus.Registry
	isDev         bool
	logger        *slog.Logger
	notifier      *notifier.Notifier

	mu   sync.Mutex
	addr net.Addr
}

// Config holds configuration for the UI server.
type Config struct {
	Workspace *workspace.Workspace
	Store     state.Store
	Host      string
	Port      int
	Watch     bool
	// WatchPaths are the files whose change reloads the source.
	WatchPaths []string
	// ConfigFile is the project file. A change to it re-reads the project
	// through ReloadProject before the source is reopened.
	ConfigFile    string
	ReloadProject func() (config.ProjectConfig, error)
	SessionSecret string
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
	IsDev    bool
	Logger   *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		workspace:     cfg.Workspace,
		store:         cfg.Store,
		sessionStore:  sessionStore,
		host:          cfg.Host,
		port:          cfg.Port,
		watch:         cfg.Watch,
		watchPaths:    cfg.WatchPaths,
		configFile:    cfg.ConfigFile,
		reloadProject: cfg.ReloadProject,
		registry:      cfg.Registry,
		isDev:         cfg.IsDev,
		logger:        logger,
		notifier:      notifier.New(),
	}
}

// Handler builds the router with all feature routes mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	var gatherer prometheus.Gatherer
	if s.registry != nil {
		gatherer = s.registry
	}
	if err := router.SetupRoutes(r, s.workspace, s.store, s.sessionStore, s.notifier, gatherer, s.isDev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()
	s.logger.Info("starting UI server", "addr", s.URL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch && len(s.watchPaths) > 0 {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// URL returns the address the server listens on, or the configured one
// before Serve has bound it.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != nil {
		if tcp, ok := s.addr.(*net.TCPAddr); ok {
			host := s.host
			if host == "" || host == "0.0.0.0" || host == "::" {
				host = "localhost"
			}
			return "http://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
		}
		return "http://" + s.addr.String()
	}
	host := s.host
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.port))
}

// IsDev reports whether hot reload is enabled.
func (s *Server) IsDev() bool {
	return s.isDev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchFiles watches the parent directories of the watch paths, since
// editors often replace a file rather than write to it.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(s.watchPaths))
	dirs := make(map[string]bool)
	for _, p := range s.watchPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.logger.Error("failed to watch directory", "dir", dir, "error", err)
			continue
		}
		dirs[dir] = true
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !watched[name] {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.handleChange(ctx, name)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// handleChange reopens the source after a watched file changed and tells
// every connected page.
func (s *Server) handleChange(ctx context.Context, name string) {
	s.logger.Debug("file changed, reloading", "file", name)

	project := s.workspace.Project()
	if s.isConfigFile(name) && s.reloadProject != nil {
		p, err := s.reloadProject()
		if err != nil {
			s.logger.Error("failed to reload project", "file", name, "error", err)
			return
		}
		project = p
	}

	if err := s.workspace.Reopen(ctx, project); err != nil {
		s.logger.Error("failed to reopen source", "file", name, "error", err)
		return
	}
	s.notifier.Broadcast(notifier.Update{Reason: notifier.SourceReloaded, Detail: filepath.Base(name)})
}

func (s *Server) isConfigFile(name string) bool {
	if s.configFile == "" {
		return false
	}
	abs, err := filepath.Abs(s.configFile)
	return err == nil && abs == name
}
