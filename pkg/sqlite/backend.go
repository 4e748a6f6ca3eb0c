// Package sqlite provides the public API for the SQLite storage sink.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/daqd/internal/sqlite"
	"github.com/mesh-intelligence/daqd/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{DBPath: "telemetry.db", FreshDB: true})
//	defer backend.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
