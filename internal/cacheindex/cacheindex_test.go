package cacheindex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/woofnb/woofnb/internal/model"
)

func TestUpsertAndList(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)
	defer idx.Close()

	entry := model.CacheEntry{Key: "k1", CellID: "a", ExitCode: 0, ElapsedMS: 12, RunnerVersion: "dev"}
	require.NoError(t, idx.Upsert(entry, 100))

	rows, err := idx.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0].CellID)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(model.CacheEntry{Key: "k1", CellID: "a", ExitCode: 0}, 10))
	require.NoError(t, idx.Upsert(model.CacheEntry{Key: "k2", CellID: "a", ExitCode: 1}, 20))

	rows, err := idx.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "k2", rows[0].Key)
	require.Equal(t, 1, rows[0].ExitCode)
}

func TestRebuild_ScansCacheFiles(t *testing.T) {
	dir := t.TempDir()
	entry := model.CacheEntry{Key: "k1", CellID: "a", ExitCode: 0, ElapsedMS: 5, RunnerVersion: "dev"}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), data, 0o644))

	idx, err := Rebuild(dir)
	require.NoError(t, err)
	defer idx.Close()

	rows, err := idx.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0].CellID)
}

func TestRemove_DeletesRow(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Upsert(model.CacheEntry{Key: "k1", CellID: "a"}, 10))
	require.NoError(t, idx.Remove("a"))

	rows, err := idx.List()
	require.NoError(t, err)
	require.Empty(t, rows)
}
