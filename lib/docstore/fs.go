package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores documents as files below a base directory.
type FS struct {
	baseDir string
}

func NewFS(baseDir string) (FS, error) {
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return FS{}, fmt.Errorf("failed to ensure data dir: %w", err)
	}
	return FS{baseDir: baseDir}, nil
}

func (s FS) path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid document key: %q", key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func (s FS) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return body, err
}

// Put writes to a temporary sibling and renames it over the target.
func (s FS) Put(_ context.Context, key string, body []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	err = os.WriteFile(tmp, body, 0644)
	if err != nil {
		return err
	}
	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (FS) Close() error {
	return nil
}
