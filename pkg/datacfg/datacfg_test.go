package datacfg

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestParseAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")

	cfg := &Config{
		Path:  "/data/coco",
		Train: "train",
		Val:   "val",
		NC:    2,
		Names: []string{"cat", "dog"},
	}
	require.NoError(t, cfg.Save(path))

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResolveDataDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")

	// No path key: the YAML's own directory.
	require.NoError(t, (&Config{Train: "train", Val: "val"}).Save(path))
	got, err := ResolveDataDir(path)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	// Relative path key: joined with the YAML's directory.
	require.NoError(t, (&Config{Path: "images", Train: "train", Val: "val"}).Save(path))
	got, err = ResolveDataDir(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "images"), got)

	// Absolute path key wins as-is.
	require.NoError(t, (&Config{Path: "/abs/data", Train: "train", Val: "val"}).Save(path))
	got, err = ResolveDataDir(path)
	require.NoError(t, err)
	assert.Equal(t, "/abs/data", got)
}

func TestGeneratePreSplitTree(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "train", "cat"), "a.jpg")
	writeFiles(t, filepath.Join(root, "train", "dog"), "b.jpg")
	writeFiles(t, filepath.Join(root, "val", "cat"), "c.jpg")
	writeFiles(t, filepath.Join(root, "val", "dog"), "d.jpg")
	writeFiles(t, filepath.Join(root, "test", "cat"), "e.jpg")

	cfg, err := Generate(root, 0.2)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Path)
	assert.Equal(t, "train", cfg.Train)
	assert.Equal(t, "val", cfg.Val)
	assert.Equal(t, "test", cfg.Test)
	assert.Equal(t, 2, cfg.NC)
	assert.Equal(t, []string{"cat", "dog"}, cfg.Names)
}

func TestGenerateSplitsFlatTree(t *testing.T) {
	root := t.TempDir()
	catFiles := make([]string, 10)
	for i := range catFiles {
		catFiles[i] = fmt.Sprintf("%02d.jpg", i)
	}
	writeFiles(t, filepath.Join(root, "cat"), catFiles...)
	writeFiles(t, filepath.Join(root, "dog"), "a.jpg", "b.jpg")

	cfg, err := Generate(root, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.NC)
	assert.Equal(t, []string{"cat", "dog"}, cfg.Names)

	// 10 cats at 0.2 ratio: the sorted tail of 2 moves to val.
	assert.Len(t, listNames(t, filepath.Join(root, "train", "cat")), 8)
	assert.Equal(t, []string{"08.jpg", "09.jpg"}, listNames(t, filepath.Join(root, "val", "cat")))

	// Tiny classes still get at least one validation file.
	assert.Equal(t, []string{"a.jpg"}, listNames(t, filepath.Join(root, "train", "dog")))
	assert.Equal(t, []string{"b.jpg"}, listNames(t, filepath.Join(root, "val", "dog")))

	// The emptied class folders are gone.
	assert.NoDirExists(t, filepath.Join(root, "cat"))
	assert.NoDirExists(t, filepath.Join(root, "dog"))
}

func TestGenerateSkipsHiddenEntries(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "cat"), "a.jpg", "b.jpg", ".DS_Store")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))

	cfg, err := Generate(root, 0.2)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, cfg.Names)

	// Hidden files stay put, so the source folder survives.
	assert.FileExists(t, filepath.Join(root, "cat", ".DS_Store"))
}

func TestGenerateRejectsEmptyFolder(t *testing.T) {
	_, err := Generate(t.TempDir(), 0.2)
	assert.Error(t, err)

	_, err = Generate(filepath.Join(t.TempDir(), "nope"), 0.2)
	assert.Error(t, err)
}
