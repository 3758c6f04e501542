package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUploadAndOpenRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	err = store.Upload("1/2/notes.txt", strings.NewReader("hello"), UploadOptions{})
	require.NoError(t, err)

	r, err := store.Open("1/2/notes.txt")
	require.NoError(t, err)
	defer r.Close()

	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestUpload_RefusesOverwriteByDefault(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Upload("1/2/notes.txt", strings.NewReader("first"), UploadOptions{}))

	err = store.Upload("1/2/notes.txt", strings.NewReader("second"), UploadOptions{})
	require.ErrorIs(t, err, ErrObjectExists)

	r, err := store.Open("1/2/notes.txt")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "first", string(content))
}

func TestUpload_OverwriteWhenAsked(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Upload("a.txt", strings.NewReader("first"), UploadOptions{}))
	require.NoError(t, store.Upload("a.txt", strings.NewReader("second"), UploadOptions{Overwrite: true}))

	r, err := store.Open("a.txt")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "second", string(content))
}

func TestUpload_WritesCacheControlSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	require.NoError(t, store.Upload("1/2/notes.txt", strings.NewReader("hello"), UploadOptions{CacheControl: "3600"}))

	meta, err := os.ReadFile(filepath.Join(root, "1", "2", "notes.txt.meta"))
	require.NoError(t, err)
	require.Contains(t, string(meta), "cache-control: 3600")
}

func TestUpload_ObjectPathCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	outside := filepath.Join(filepath.Dir(root), "escaped.txt")
	require.NoError(t, store.Upload("../escaped.txt", strings.NewReader("nope"), UploadOptions{}))

	_, err = os.Stat(outside)
	require.True(t, os.IsNotExist(err))

	// The cleaned path lands inside the root instead.
	_, err = os.Stat(filepath.Join(root, "escaped.txt"))
	require.NoError(t, err)
}

func TestRemove_DeletesObjectAndSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	require.NoError(t, store.Upload("a.txt", strings.NewReader("x"), UploadOptions{CacheControl: "60"}))
	require.NoError(t, store.Remove("a.txt"))

	_, err = os.Stat(filepath.Join(root, "a.txt"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "a.txt.meta"))
	require.True(t, os.IsNotExist(err))

	// Removing a missing object is not an error.
	require.NoError(t, store.Remove("a.txt"))
}
