package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemStore implements ArtifactStore on a local directory.
// Keys map to files under rootDir: root/{key}. Intended for development runs
// against the raw CSV files without an object store.
type FileSystemStore struct {
	rootDir string
}

// NewFileSystemStore creates a store rooted at rootDir.
func NewFileSystemStore(rootDir string) *FileSystemStore {
	return &FileSystemStore{
		rootDir: rootDir,
	}
}

// Get reads the file for key.
func (s *FileSystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return content, nil
}

// Put writes data to a temporary file and renames it over the target, so readers
// never observe a partially written artifact. The content type is not persisted.
func (s *FileSystemStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", key, err)
	}

	slog.Debug("[FileSystem] Wrote artifact", "key", key, "bytes", len(data), "content_type", contentType)
	return nil
}

// Ping checks that the root directory is accessible.
func (s *FileSystemStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.rootDir)
	if err != nil {
		return fmt.Errorf("storage root %q is not accessible: %w", s.rootDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %q is not a directory", s.rootDir)
	}
	return nil
}

// pathFor resolves key under the root and rejects keys that escape it.
func (s *FileSystemStore) pathFor(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	path := filepath.Join(s.rootDir, clean)
	root := filepath.Clean(s.rootDir)
	if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes storage root", key)
	}
	return path, nil
}
