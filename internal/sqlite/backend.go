// Package sqlite implements the daqd storage sink on top of SQLite.
// Tables are created on demand from compiled descriptors; rows are written
// with the descriptor's prepared insert statement.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// Backend implements types.Store. All methods are safe for concurrent use;
// writes are serialized on one connection.
type Backend struct {
	mu       sync.Mutex
	attached bool
	path     string
	db       *sql.DB
	tables   map[string]*table
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
	}
}

// Attach opens the database at config.DBPath, creating its directory if
// needed. With config.FreshDB set, an existing file is removed first.
// Returns ErrAlreadyOpen if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyOpen
	}
	if config.DBPath == "" {
		return types.ErrDBPathEmpty
	}

	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0o755); err != nil {
		return err
	}
	if config.FreshDB {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			p := config.DBPath + suffix
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	b.db = db
	b.path = config.DBPath
	b.attached = true
	return nil
}

// Detach closes prepared statements and the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	var errs []error
	for _, t := range b.tables {
		errs = append(errs, t.close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*table)
	return errors.Join(errs...)
}

// Path returns the database file of the attached backend.
func (b *Backend) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// EnsureTable creates t unless a table of the same name already exists.
// An existing table must have been created from the same DDL text;
// otherwise ErrTableConflict is returned.
func (b *Backend) EnsureTable(ctx context.Context, t types.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrSinkDetached
	}

	if existing, ok := b.tables[t.Name]; ok {
		if existing.def.CreateSQL != t.CreateSQL {
			return fmt.Errorf("%s: %w", t.Name, types.ErrTableConflict)
		}
		return nil
	}

	var ddl string
	err := b.db.QueryRowContext(ctx, selectTableSQL, t.Name).Scan(&ddl)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := b.db.ExecContext(ctx, t.CreateSQL); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	case err != nil:
		return fmt.Errorf("lookup %s: %w", t.Name, err)
	case ddl != t.CreateSQL:
		return fmt.Errorf("%s: %w", t.Name, types.ErrTableConflict)
	}

	stmt, err := b.db.PrepareContext(ctx, t.InsertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", t.Name, err)
	}
	b.tables[t.Name] = &table{def: t, insert: stmt}
	return nil
}

// InsertRow writes one row into a table previously passed to EnsureTable.
func (b *Backend) InsertRow(ctx context.Context, t types.Table, values []any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrSinkDetached
	}
	tbl, ok := b.tables[t.Name]
	if !ok {
		return fmt.Errorf("%s: %w", t.Name, types.ErrTableUnknown)
	}
	return tbl.insertRow(ctx, values)
}

// Tables returns the names of all tables created through this backend
// or found in the database, sorted by name.
func (b *Backend) Tables(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrSinkDetached
	}
	rows, err := b.db.QueryContext(ctx, listTablesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountRows returns the number of rows in the named table, which may have
// been created by an earlier run.
func (b *Backend) CountRows(ctx context.Context, name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrSinkDetached
	}
	if err := b.checkTable(ctx, name); err != nil {
		return 0, err
	}
	var n int
	if err := b.db.QueryRowContext(ctx, countRowsSQL(name)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// checkTable returns ErrTableUnknown unless name was ensured by this
// backend or exists in the database. Callers hold b.mu.
func (b *Backend) checkTable(ctx context.Context, name string) error {
	if _, ok := b.tables[name]; ok {
		return nil
	}
	var ddl string
	err := b.db.QueryRowContext(ctx, selectTableSQL, name).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", name, types.ErrTableUnknown)
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", name, err)
	}
	return nil
}
