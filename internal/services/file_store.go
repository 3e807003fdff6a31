package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid file path")

const tempFilePrefix = ".upload-"

// FileStore keeps uploaded content under a single root directory.
// Paths handed to it are slash-separated and relative to that root.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// Resolve maps a relative path to an absolute one inside the root,
// rejecting absolute paths, parent segments and NUL bytes.
func (s *FileStore) Resolve(rel string) (string, error) {
	if rel == "" || strings.ContainsRune(rel, 0) || strings.Contains(rel, "\\") {
		return "", ErrInvalidPath
	}
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}

	full := filepath.Join(s.root, filepath.FromSlash(path.Clean(rel)))
	within, err := filepath.Rel(s.root, full)
	if err != nil || within == "." || strings.HasPrefix(within, "..") {
		return "", ErrInvalidPath
	}
	return full, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (s *FileStore) Remove(rel string) error {
	full, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// WriteAtomic writes through a temp file in the target directory and
// renames it into place, so readers never see a partial image.
func (s *FileStore) WriteAtomic(rel string, write func(w io.Writer) error) (int64, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempFilePrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := write(tmp); err != nil {
		tmp.Close()
		cleanup()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		cleanup()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return 0, err
	}
	if err := os.Rename(tmpName, full); err != nil {
		cleanup()
		return 0, fmt.Errorf("move file into place: %w", err)
	}
	return info.Size(), nil
}

func (s *FileStore) PublicURL(rel string) string {
	return "/api/uploads/" + strings.TrimPrefix(rel, "/")
}
