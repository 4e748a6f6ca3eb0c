package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/daqd/pkg/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestExportJSONL(t *testing.T) {
	ctx := context.Background()
	b, _ := newAttachedBackend(t)
	require.NoError(t, b.EnsureTable(ctx, sensors))
	require.NoError(t, b.InsertRow(ctx, sensors, []any{int64(21), "kitchen"}))
	require.NoError(t, b.InsertRow(ctx, sensors, []any{int64(-4), "garage"}))

	path := filepath.Join(t.TempDir(), "out", "sensors.jsonl")
	n, err := b.ExportJSONL(ctx, "sensors", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, map[string]any{"temperature": float64(21), "label": "kitchen"}, lines[0])
	assert.Equal(t, map[string]any{"temperature": float64(-4), "label": "garage"}, lines[1])
}

func TestExportJSONL_ReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	b, _ := newAttachedBackend(t)
	require.NoError(t, b.EnsureTable(ctx, sensors))

	path := filepath.Join(t.TempDir(), "sensors.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	n, err := b.ExportJSONL(ctx, "sensors", path)
	require.NoError(t, err)
	assert.Zero(t, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestExportJSONL_UnknownTable(t *testing.T) {
	b, _ := newAttachedBackend(t)
	_, err := b.ExportJSONL(context.Background(), "missing", filepath.Join(t.TempDir(), "x.jsonl"))
	assert.ErrorIs(t, err, types.ErrTableUnknown)
}
