package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

// ExportJSONL writes every row of the named table to path, one JSON object
// per line keyed by column name, in insertion order. path is replaced
// atomically. Returns the number of rows written.
func (b *Backend) ExportJSONL(ctx context.Context, name, path string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrSinkDetached
	}
	if err := b.checkTable(ctx, name); err != nil {
		return 0, err
	}

	rows, err := b.db.QueryContext(ctx, selectRowsSQL(name))
	if err != nil {
		return 0, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	n := 0
	err = writeJSONL(path, func(enc *json.Encoder) error {
		var err error
		n, err = encodeRows(rows, enc)
		return err
	})
	return n, err
}

func encodeRows(rows *sql.Rows, enc *json.Encoder) (int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return n, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			if raw, ok := values[i].([]byte); ok {
				record[col] = string(raw)
				continue
			}
			record[col] = values[i]
		}
		if err := enc.Encode(record); err != nil {
			return n, fmt.Errorf("encode row %d: %w", n, err)
		}
		n++
	}
	return n, rows.Err()
}

// writeJSONL atomically writes a JSONL file using the temp-file, fsync,
// rename pattern.
func writeJSONL(path string, write func(enc *json.Encoder) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := write(json.NewEncoder(w)); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
