package types

import "context"

// Column is one typed column of a sink table.
type Column struct {
	Name    string
	SQLType string
}

// Table is a compiled table definition. CreateSQL and InsertSQL are fixed
// when the owning descriptor is registered and never change afterwards.
type Table struct {
	Name      string
	Columns   []Column
	CreateSQL string
	InsertSQL string
}

// Sink is the persistence capability the decoder writes into.
// Implementations must be safe for concurrent use by several sessions.
type Sink interface {
	// EnsureTable creates the table if it does not exist. Calling it again
	// with the same definition is a no-op.
	EnsureTable(ctx context.Context, t Table) error

	// InsertRow inserts one row whose values match t.Columns positionally.
	InsertRow(ctx context.Context, t Table, values []any) error
}

// Store is a Sink with an attach/detach lifecycle.
type Store interface {
	Sink

	// Attach opens the backing database described by config. Returns
	// ErrAlreadyOpen if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error
}
