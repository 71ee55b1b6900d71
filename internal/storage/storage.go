package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists opaque photo blobs and hands back a reference. The core
// only ever holds the returned path, never raw bytes.
type Store interface {
	Store(data []byte, folder string) (string, error)
}

// MediaStore writes blobs under a root directory, one subdirectory per
// folder (loan_photos, return_photos, items, organizations).
type MediaStore struct {
	Root string
}

func NewMediaStore(root string) *MediaStore { return &MediaStore{Root: root} }

// Store writes data to <root>/<folder>/<uuid>.jpg and returns the path
// relative to the media root, which is what gets persisted on the loan.
func (s *MediaStore) Store(data []byte, folder string) (string, error) {
	dir := filepath.Join(s.Root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating media dir: %w", err)
	}
	name := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}
	return filepath.ToSlash(filepath.Join(folder, name)), nil
}
