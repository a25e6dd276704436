package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapflow/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// OpenStore opens path and applies migrations.
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	s := NewSQLiteStore(logger)
	if err := s.Open(ctx, path); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(ctx context.Context, path string) error {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("state store opened", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path given to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

const selectColumns = `id, name, description, config_json, created_at, updated_at, last_opened_at`

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, sc SavedConfig) (*SavedConfig, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	sc.Name = strings.TrimSpace(sc.Name)
	if sc.Name == "" {
		return nil, &core.ConfigurationError{Field: "name", Reason: "a saved configuration needs a name"}
	}
	sc.Configuration.ApplyDefaults()
	if err := sc.Configuration.Check(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(sc.Configuration)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}

	now := time.Now().UTC()
	sc.UpdatedAt = now

	if sc.ID != "" {
		res, err := s.db.ExecContext(ctx,
			`UPDATE saved_configs SET name = ?, description = ?, object = ?, config_hash = ?, config_json = ?, updated_at = ? WHERE id = ?`,
			sc.Name, sc.Description, sc.Configuration.Object, sc.Configuration.Hash(), string(data), now, sc.ID,
		)
		if err != nil {
			return nil, wrapUnique(err, sc.Name)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.logger.Debug("saved configuration updated", slog.String("id", sc.ID), slog.String("name", sc.Name))
			return s.Get(ctx, sc.ID)
		}
	} else {
		sc.ID = uuid.NewString()
	}

	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_configs (id, name, description, object, config_hash, config_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.Description, sc.Configuration.Object, sc.Configuration.Hash(), string(data), sc.CreatedAt.UTC(), now,
	)
	if err != nil {
		return nil, wrapUnique(err, sc.Name)
	}

	s.logger.Debug("saved configuration created", slog.String("id", sc.ID), slog.String("name", sc.Name))
	return s.Get(ctx, sc.ID)
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, idOrName string) (*SavedConfig, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM saved_configs WHERE id = ? OR name = ? ORDER BY id = ? DESC LIMIT 1`,
		idOrName, idOrName, idOrName,
	)
	sc, err := scanSaved(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved configuration: %w", err)
	}
	return sc, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]SavedConfig, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM saved_configs ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved configurations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SavedConfig
	for rows.Next() {
		sc, err := scanSaved(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved configuration: %w", err)
		}
		out = append(out, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved configurations: %w", err)
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, idOrName string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_configs WHERE id = ? OR name = ?`, idOrName, idOrName)
	if err != nil {
		return fmt.Errorf("failed to delete saved configuration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, idOrName)
	}
	return nil
}

// Touch implements Store.
func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE saved_configs SET last_opened_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch saved configuration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSaved(row scanner) (*SavedConfig, error) {
	var (
		sc       SavedConfig
		data     string
		lastOpen sql.NullTime
	)
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &data, &sc.CreatedAt, &sc.UpdatedAt, &lastOpen); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &sc.Configuration); err != nil {
		return nil, fmt.Errorf("corrupt configuration %s: %w", sc.ID, err)
	}
	if lastOpen.Valid {
		t := lastOpen.Time
		sc.LastOpenedAt = &t
	}
	return &sc, nil
}

func wrapUnique(err error, name string) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &core.ConfigurationError{Field: "name", Reason: fmt.Sprintf("a saved configuration named %q already exists", name)}
	}
	return fmt.Errorf("failed to save configuration: %w", err)
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
