// Package blobstore persists large image payloads on the local filesystem,
// keyed by result id. It is the heavyweight tier of the history storage; the
// metastore carries only references into it.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrBlobNotFound is returned when a requested blob does not exist. Callers
// treat this as an expected, non-fatal condition.
var ErrBlobNotFound = errors.New("blob not found")

// validID matches the ids handed out at result creation. Anything else is
// rejected before it can touch the filesystem.
var validID = regexp.MustCompile(`^[0-9a-zA-Z-]{1,64}$`)

// Store is a filesystem-backed blob store. Blobs live in a two-level
// directory layout using the first two characters of the id as a prefix.
type Store struct {
	root string
}

// New creates a blob store rooted at the given directory.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save stores payload under id, overwriting any existing blob. The write goes
// through a temp file and rename so a crash never leaves a torn blob.
func (s *Store) Save(_ context.Context, id string, payload []byte) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid blob id: %q", id)
	}
	path := s.blobPath(id)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write blob data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}

// Load retrieves the payload stored under id.
// Returns ErrBlobNotFound if the blob does not exist.
func (s *Store) Load(_ context.Context, id string) ([]byte, error) {
	if !validID.MatchString(id) {
		return nil, ErrBlobNotFound
	}
	data, err := os.ReadFile(s.blobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return data, nil
}

// Has reports whether a blob exists under id.
func (s *Store) Has(_ context.Context, id string) (bool, error) {
	if !validID.MatchString(id) {
		return false, nil
	}
	_, err := os.Stat(s.blobPath(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", id, err)
	}
	return true, nil
}

// Delete removes a blob. Removing a missing id is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	if !validID.MatchString(id) {
		return nil
	}
	if err := os.Remove(s.blobPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// Clear removes every stored blob.
func (s *Store) Clear(_ context.Context) error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("read blob root: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return fmt.Errorf("clear blobs: %w", err)
		}
	}
	return nil
}

// List returns the ids of all stored blobs.
func (s *Store) List(_ context.Context) ([]string, error) {
	var ids []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if len(parts) == 2 {
			ids = append(ids, parts[0]+parts[1])
		}
		return nil
	})
	return ids, err
}

// TotalSize returns the combined size in bytes of all stored blobs.
func (s *Store) TotalSize(_ context.Context) (int64, error) {
	var total int64
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func (s *Store) blobPath(id string) string {
	if len(id) < 2 {
		return filepath.Join(s.root, id)
	}
	return filepath.Join(s.root, id[:2], id[2:])
}
