package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return store, store.Root()
}

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestNewLocalStorage_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "files")

	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	info, err := os.Stat(store.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "local", store.Name())
}

func TestLocalStorage_List(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "b.txt", "hello")
	writeFile(t, root, "a/1.txt", strings.Repeat("x", 1024))
	writeFile(t, root, "a/deep/2.txt", strings.Repeat("y", 512))
	require.NoError(t, os.Mkdir(filepath.Join(root, "C"), 0o755))

	got, err := store.List(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "C", "b.txt"}, names(got))

	a := got[0]
	assert.True(t, a.IsDirectory)
	assert.Equal(t, "a", a.Path)
	assert.Equal(t, int64(1536), a.SizeBytes, "folders report the recursive size")
	assert.Equal(t, "1.50 KB", a.SizeDisplay)

	empty := got[1]
	assert.Equal(t, "0 Bytes", empty.SizeDisplay)

	b := got[2]
	assert.False(t, b.IsDirectory)
	assert.Equal(t, int64(5), b.SizeBytes)
	assert.NotEmpty(t, b.Modified)
	assert.Empty(t, b.URL)

	nested, err := store.List(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"deep", "1.txt"}, names(nested))
	assert.Equal(t, "a/deep", nested[0].Path)
}

// denyDirs makes every directory called name unreadable for the rest of the test
func denyDirs(t *testing.T, name string) {
	t.Helper()
	orig := walkDir
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return orig(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == name {
				return fn(path, d, fs.ErrPermission)
			}
			return fn(path, d, err)
		})
	}
	t.Cleanup(func() { walkDir = orig })
}

func TestLocalStorage_ListWithUnreadableSubtree(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "a/x.txt", "hello")
	writeFile(t, root, "a/locked/y.txt", strings.Repeat("y", 100))
	writeFile(t, root, "locked/z.txt", strings.Repeat("z", 100))
	writeFile(t, root, "b.txt", "hi")
	denyDirs(t, "locked")

	got, err := store.List(context.Background(), "")
	require.NoError(t, err)

	sizes := make(map[string]int64)
	for _, e := range got {
		sizes[e.Name] = e.SizeBytes
	}
	assert.Equal(t, map[string]int64{"a": 5, "locked": 0, "b.txt": 2}, sizes)
}

func TestLocalStorage_ListCancelledWhileSizing(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "a/x.txt", "hello")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorage_ListMissing(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "file.txt", "x")

	_, err := store.List(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.List(context.Background(), "file.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_SymlinkEscapeRejected(t *testing.T) {
	store, root := newTestLocalStorage(t)
	outside := t.TempDir()
	writeFile(t, outside, "secret.txt", "top secret")

	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := store.List(context.Background(), "escape")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, _, err = store.Open(context.Background(), "escape/secret.txt")
	assert.ErrorIs(t, err, ErrInvalidPath)

	err = store.Upload(context.Background(), "escape", "x.txt", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrInvalidPath)

	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries, "escaping links are hidden from listings")
}

func TestLocalStorage_UploadAndOpen(t *testing.T) {
	store, root := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "", "notes.txt", strings.NewReader("content"), 7))
	assert.Equal(t, "content", readFile(t, root, "notes.txt"))

	rc, entry, err := store.Open(ctx, "notes.txt")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "content", string(body))
	assert.Equal(t, int64(7), entry.Size)

	err = store.Upload(ctx, "", "notes.txt", strings.NewReader("overwrite"), 9)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, "content", readFile(t, root, "notes.txt"))

	leftovers, err := filepath.Glob(filepath.Join(root, ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLocalStorage_UploadIntoMissingDir(t *testing.T) {
	store, _ := newTestLocalStorage(t)

	err := store.Upload(context.Background(), "ghost", "a.txt", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_UploadCancelled(t *testing.T) {
	store, root := newTestLocalStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Upload(ctx, "", "big.bin", strings.NewReader("data"), 4)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "big.bin"))
}

func TestLocalStorage_OpenDirectory(t *testing.T) {
	store, root := newTestLocalStorage(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	_, _, err := store.Open(context.Background(), "dir")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, _, err = store.Open(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_CreateFolder(t *testing.T) {
	store, root := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateFolder(ctx, "", "projects"))
	assert.DirExists(t, filepath.Join(root, "projects"))

	assert.ErrorIs(t, store.CreateFolder(ctx, "", "projects"), ErrAlreadyExists)
	assert.ErrorIs(t, store.CreateFolder(ctx, "", "  "), ErrInvalidName)
	assert.ErrorIs(t, store.CreateFolder(ctx, "ghost", "x"), ErrNotFound)
}

func TestLocalStorage_Delete(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "dir/a.txt", "a")
	writeFile(t, root, "dir/sub/b.txt", "b")
	writeFile(t, root, "keep.txt", "k")
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "dir"))
	assert.NoDirExists(t, filepath.Join(root, "dir"))
	assert.FileExists(t, filepath.Join(root, "keep.txt"))

	assert.ErrorIs(t, store.Delete(ctx, "dir"), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidPath)
}

func TestLocalStorage_CopyTree(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "src/a.txt", "A")
	writeFile(t, root, "src/deep/b.txt", "B")
	require.NoError(t, os.Mkdir(filepath.Join(root, "src", "empty"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, "dst"), 0o755))

	require.NoError(t, store.Copy(context.Background(), "src", "dst/src"))

	assert.Equal(t, "A", readFile(t, root, "dst/src/a.txt"))
	assert.Equal(t, "B", readFile(t, root, "dst/src/deep/b.txt"))
	assert.DirExists(t, filepath.Join(root, "dst", "src", "empty"))
	assert.FileExists(t, filepath.Join(root, "src", "a.txt"))

	assert.ErrorIs(t, store.Copy(context.Background(), "src", "dst/src"), ErrAlreadyExists)
	assert.ErrorIs(t, store.Copy(context.Background(), "ghost", "dst/ghost"), ErrNotFound)
}

func TestLocalStorage_Move(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "inbox/report.txt", "R")
	require.NoError(t, os.Mkdir(filepath.Join(root, "archive"), 0o755))

	require.NoError(t, store.Move(context.Background(), "inbox/report.txt", "archive/report.txt"))

	assert.NoFileExists(t, filepath.Join(root, "inbox", "report.txt"))
	assert.Equal(t, "R", readFile(t, root, "archive/report.txt"))
}

func TestLocalStorage_Archive(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "proj/main.go", "package main")
	writeFile(t, root, "proj/docs/readme.md", "# readme")

	var buf bytes.Buffer
	require.NoError(t, store.Archive(context.Background(), "proj", &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	contents := map[string]string{}
	var got []string
	for _, f := range zr.File {
		got = append(got, f.Name)
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(data)
	}
	sort.Strings(got)
	assert.Equal(t, []string{"docs/", "docs/readme.md", "main.go"}, got)
	assert.Equal(t, "package main", contents["main.go"])

	assert.ErrorIs(t, store.Archive(context.Background(), "ghost", &buf), ErrNotFound)
}

func TestLocalStorage_Usage(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "a.txt", strings.Repeat("x", 1024))
	writeFile(t, root, "b/c.txt", strings.Repeat("y", 1024))

	usage, err := store.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local", usage.Backend)
	assert.Equal(t, int64(2048), usage.SizeBytes)
	assert.Equal(t, "2.00 KB", usage.Size)
	assert.Equal(t, int64(2), usage.Files)
}

func TestLocalStorage_Exists(t *testing.T) {
	store, root := newTestLocalStorage(t)
	writeFile(t, root, "here.txt", "x")

	ok, err := store.Exists(context.Background(), "here.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(context.Background(), "gone.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}
