package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStorage is the working directory of the service. Every method accepts
// either an absolute path or one relative to the base directory.
type FileStorage interface {
	Resolve(path string) string
	Save(path string, data io.Reader) error
	Get(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
	Readable(path string) error
	Copy(src, dst string) error
	Scratch(id string) (string, error)
}

type fileStorage struct {
	basePath string
}

// NewFileStorage makes basePath absolute so resolved paths can be resolved
// again without change.
func NewFileStorage(basePath string) FileStorage {
	if abs, err := filepath.Abs(basePath); err == nil {
		basePath = abs
	}
	return &fileStorage{basePath: basePath}
}

// Resolve is the path resolution rule of the service: absolute paths are
// kept, relative ones are joined onto the base directory. Both are cleaned.
// Resolution is lexical only.
func (s *fileStorage) Resolve(path string) string {
	return Resolve(s.basePath, path)
}

func Resolve(basePath, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(basePath, path)
}

func (s *fileStorage) Save(path string, data io.Reader) error {
	fullPath := s.Resolve(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}

	if _, err = io.Copy(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (s *fileStorage) Get(path string) (io.ReadCloser, error) {
	return os.Open(s.Resolve(path))
}

func (s *fileStorage) Delete(path string) error {
	return os.RemoveAll(s.Resolve(path))
}

func (s *fileStorage) Exists(path string) bool {
	_, err := os.Stat(s.Resolve(path))
	return !os.IsNotExist(err)
}

// Readable reports why a regular file cannot be opened for reading, or nil.
func (s *fileStorage) Readable(path string) error {
	fullPath := s.Resolve(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", fullPath)
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return err
	}
	return file.Close()
}

func (s *fileStorage) Copy(src, dst string) error {
	reader, err := s.Get(src)
	if err != nil {
		return err
	}
	defer reader.Close()

	return s.Save(dst, reader)
}

// Scratch creates a private directory for one run under <base>/.runs.
func (s *fileStorage) Scratch(id string) (string, error) {
	dir := s.Resolve(filepath.Join(".runs", id))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
