package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage keeps generated media files under one directory. Keys are
// flattened to their base name so a job can never write outside it.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/media"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Path() string {
	return s.basePath
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	// Write to a temp file first so readers never see partial media.
	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp media file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("write media file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close media file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalize media file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return f, nil
}

func (s *Storage) resolve(key string) (string, error) {
	name := filepath.Base(strings.TrimSpace(key))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid media key: %q", key)
	}
	return filepath.Join(s.basePath, name), nil
}
