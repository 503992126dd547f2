package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// File stores each key as a file in a directory. Writes go through a temp file and rename
// so a crash never leaves a half-written value behind.
type File struct {
	dir string
}

// NewFile creates a file backend rooted at dir, creating the directory if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &Error{Backend: "file", Op: "mkdir", Cause: err}
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

// Get reads the file for key.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &Error{Backend: "file", Op: "get", Key: key, Cause: err}
	}
	return string(data), true, nil
}

// Set atomically replaces the file for key.
func (f *File) Set(_ context.Context, key, value string) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return &Error{Backend: "file", Op: "set", Key: key, Cause: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &Error{Backend: "file", Op: "set", Key: key, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &Error{Backend: "file", Op: "set", Key: key, Cause: err}
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return &Error{Backend: "file", Op: "set", Key: key, Cause: err}
	}
	return nil
}

// Delete removes the file for key.
func (f *File) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Backend: "file", Op: "delete", Key: key, Cause: err}
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error { return nil }
