// Package state persists saved flow configurations in SQLite.
//
// The schema is managed by goose migrations embedded in the binary. Saved
// configurations can be exported to and imported from YAML.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// ErrNotFound is returned when no saved configuration matches.
var ErrNotFound = errors.New("saved configuration not found")

// SavedConfig is a named flow configuration.
type SavedConfig struct {
	ID            string             `json:"id" yaml:"id"`
	Name          string             `json:"name" yaml:"name"`
	Description   string             `json:"description,omitempty" yaml:"description,omitempty"`
	Configuration core.Configuration `json:"configuration" yaml:"configuration"`
	CreatedAt     time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" yaml:"updated_at"`
	LastOpenedAt  *time.Time         `json:"last_opened_at,omitempty" yaml:"last_opened_at,omitempty"`
}

// Store is the persistence collaborator for saved configurations.
type Store interface {
	// Save inserts cfg, or updates it when cfg.ID names an existing entry.
	// It returns the stored value with ID and timestamps filled.
	Save(ctx context.Context, cfg SavedConfig) (*SavedConfig, error)
	// Get returns the configuration with the given ID or name.
	Get(ctx context.Context, idOrName string) (*SavedConfig, error)
	// List returns all configurations, most recently updated first.
	List(ctx context.Context) ([]SavedConfig, error)
	// Delete removes the configuration with the given ID or name.
	Delete(ctx context.Context, idOrName string) error
	// Touch records that a configuration was opened.
	Touch(ctx context.Context, id string) error
	Close() error
}
