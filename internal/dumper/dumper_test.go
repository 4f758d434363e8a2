package dumper

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpStruct(t *testing.T) {
	dir := t.TempDir()
	d := New(Config{Enabled: true, DumpPath: dir})

	d.DumpStruct(t.Context(), map[string]any{"mutation_id": "m-1"}, "mutation_rollback")

	files, err := filepath.Glob(filepath.Join(dir, "mutation_rollback_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"mutation_id":"m-1"}`, string(raw))
}

func TestDumpRecords(t *testing.T) {
	dir := t.TempDir()
	d := New(Config{Enabled: true, DumpPath: dir})

	d.DumpRecords(t.Context(), []any{map[string]int{"a": 1}, map[string]int{"a": 2}}, "history")

	files, err := filepath.Glob(filepath.Join(dir, "history_*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	require.JSONEq(t, `{"a":1}`, lines[0])
	require.JSONEq(t, `{"a":2}`, lines[1])
}

func TestDisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	d := New(Config{Enabled: false, DumpPath: dir})

	d.DumpStruct(t.Context(), "anything", "ignored")
	d.DumpBytes(t.Context(), []byte("raw"), "ignored")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
