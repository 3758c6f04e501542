package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrObjectExists = errors.New("object already exists")

// UploadOptions mirrors the managed-storage upload contract: a cache-control
// hint stored alongside the object and an overwrite flag that defaults to
// false.
type UploadOptions struct {
	CacheControl string
	Overwrite    bool
}

// Store is a disk-backed object store. Objects live under root at their
// given path, e.g. "{userID}/{conversationID}/{fileName}".
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("blobstore root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blobstore root failed: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Upload(path string, r io.Reader, opts UploadOptions) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if !opts.Overwrite {
		if _, statErr := os.Stat(full); statErr == nil {
			return ErrObjectExists
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object directory failed: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object failed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write object failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("finalize object failed: %w", err)
	}

	if opts.CacheControl != "" {
		// Sidecar metadata; a managed store would keep this as an object header.
		metaPath := full + ".meta"
		_ = os.WriteFile(metaPath, []byte("cache-control: "+opts.CacheControl+"\n"), 0o644)
	}
	return nil
}

func (s *Store) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open object failed: %w", err)
	}
	return f, nil
}

func (s *Store) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object failed: %w", err)
	}
	_ = os.Remove(full + ".meta")
	return nil
}

// resolve rejects paths that would escape the store root.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + strings.ReplaceAll(path, "\\", "/"))
	if clean == "/" {
		return "", errors.New("object path is empty")
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
