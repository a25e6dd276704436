// Package core defines the shared language of the leapflow system.
//
// This package contains:
//   - Domain entities (Record, Table, Aggregates)
//   - Configuration types (Configuration, Filter, MetricType)
//   - The adapter contract (Adapter, AdapterConfig, DialectConfig)
//   - The error taxonomy shared by the engine and its collaborators
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
