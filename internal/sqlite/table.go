package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// table is an ensured sink table with its prepared insert statement.
type table struct {
	def    types.Table
	insert *sql.Stmt
}

// insertRow binds values positionally to the prepared insert.
func (t *table) insertRow(ctx context.Context, values []any) error {
	if len(values) != len(t.def.Columns) {
		return fmt.Errorf("%s: %d values for %d columns: %w", t.def.Name, len(values), len(t.def.Columns), types.ErrSinkFailure)
	}
	if _, err := t.insert.ExecContext(ctx, values...); err != nil {
		return fmt.Errorf("insert %s: %w", t.def.Name, err)
	}
	return nil
}

func (t *table) close() error {
	if t.insert == nil {
		return nil
	}
	return t.insert.Close()
}
