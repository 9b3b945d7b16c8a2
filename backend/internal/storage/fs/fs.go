package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchan-dev/imagestore/backend/internal/service"
	"github.com/itchan-dev/imagestore/shared/errors"
)

// Storage keeps image files flat under a single root directory.
// The root is fixed at construction and never mutated.
type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.FileStorage = (*Storage)(nil)

// New resolves rootPath to an absolute, cleaned path and makes sure the directory exists.
func New(rootPath string) (*Storage, error) {
	p, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %s: %w", rootPath, err)
	}
	p = filepath.Clean(p)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// Root returns the absolute storage directory.
func (s *Storage) Root() string {
	return s.rootPath
}

// Save copies data into the file called name, replacing any file of that name.
// A file left half-written by a failed copy is removed.
func (s *Storage) Save(name string, data io.Reader) (int64, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return 0, err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", errors.ErrStorageIO, name, err)
	}

	n, err := io.Copy(dst, data)
	if err != nil {
		dst.Close()
		os.Remove(fullPath) // best effort
		return 0, fmt.Errorf("%w: write %s: %w", errors.ErrStorageIO, name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("%w: close %s: %w", errors.ErrStorageIO, name, err)
	}

	return n, nil
}

// Open opens the stored file for reading and returns its size.
// A missing file is reported as errors.ErrFileNotFound.
func (s *Storage) Open(name string) (io.ReadSeekCloser, int64, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, 0, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s", errors.ErrFileNotFound, name)
		}
		return nil, 0, fmt.Errorf("%w: open %s: %w", errors.ErrStorageIO, name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("%w: stat %s: %w", errors.ErrStorageIO, name, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", errors.ErrFileNotFound, name)
	}

	return file, info.Size(), nil
}

// Delete removes the stored file. A file that is already gone is reported as
// errors.ErrFileNotFound so callers can log it.
func (s *Storage) Delete(name string) error {
	fullPath, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrFileNotFound, name)
		}
		return fmt.Errorf("%w: remove %s: %w", errors.ErrStorageIO, name, err)
	}
	return nil
}

// resolve joins name onto the root and rejects anything that lands outside of it.
func (s *Storage) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty file name", errors.ErrFileNotFound)
	}
	fullPath := filepath.Join(s.rootPath, name)
	rel, err := filepath.Rel(s.rootPath, fullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s resolves outside storage directory", errors.ErrFileNotFound, name)
	}
	return fullPath, nil
}
