// Package assets stores cropped face images on disk.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes every face image twice: once to a private working directory
// and once to the user-facing asset directory. Records reference the
// user-facing copy.
type Store struct {
	workDir  string
	assetDir string
}

func NewStore(workDir, assetDir string) *Store {
	return &Store{workDir: workDir, assetDir: assetDir}
}

// Save writes a PNG and returns the user-facing path.
func (s *Store) Save(png []byte) (string, error) {
	for _, dir := range []string{s.workDir, s.assetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create asset dir %s: %w", dir, err)
		}
	}

	name := "face_" + uuid.NewString() + ".png"
	workPath := filepath.Join(s.workDir, name)
	assetPath := filepath.Join(s.assetDir, name)

	if err := os.WriteFile(workPath, png, 0o644); err != nil {
		return "", fmt.Errorf("write face image: %w", err)
	}
	if err := os.WriteFile(assetPath, png, 0o644); err != nil {
		_ = os.Remove(workPath)
		return "", fmt.Errorf("write face image: %w", err)
	}

	return assetPath, nil
}

// Remove deletes the user-facing file at path and its working copy.
// Files that are already gone are not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	var errs []error
	for _, p := range []string{path, filepath.Join(s.workDir, filepath.Base(path))} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open returns a reader for a user-facing image. Paths outside the asset
// directory are rejected.
func (s *Store) Open(path string) (*os.File, error) {
	clean := filepath.Clean(path)
	root := filepath.Clean(s.assetDir) + string(filepath.Separator)
	if !strings.HasPrefix(clean, root) {
		return nil, fmt.Errorf("open face image: %s is outside %s: %w", path, s.assetDir, fs.ErrPermission)
	}
	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("open face image: %w", err)
	}
	return f, nil
}
