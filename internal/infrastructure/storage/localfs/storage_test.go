package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStorageSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "cover.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(context.Background(), "cover.png")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestStorageFlattensKeys(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "../../escape.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Fatalf("key must be flattened into the base dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(dir)), "escape.png")); err == nil {
		t.Fatalf("file must not escape the base dir")
	}
}

func TestStorageRejectsEmptyKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := storage.Save(context.Background(), "  ", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestStorageOverwrite(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "a.mp3", strings.NewReader("v1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := storage.Save(context.Background(), "a.mp3", strings.NewReader("v2")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(context.Background(), "a.mp3")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	if string(data) != "v2" {
		t.Fatalf("overwrite failed, got %q", data)
	}
}

func TestStorageOpenMissing(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "missing.png"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewCreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "media")
	if _, err := New(dir); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("base dir must exist: %v", err)
	}
}
