// Package adapter holds the database adapter registry and the shared
// database/sql plumbing used by concrete adapters.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories and
// register themselves from init(). Record sources open adapters by type name
// through NewAdapter or Open.
package adapter

import (
	"github.com/leapstack-labs/leapflow/pkg/core"
)

type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)
