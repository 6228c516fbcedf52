// Package files exposes the open, save and create passthroughs the UI layer
// uses to edit notes on disk.
//
// No atomicity is provided: a crash during Save can leave a partially written
// file, matching plain file-system semantics.
package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned when a file's content is not valid UTF-8 text.
var ErrInvalidUTF8 = errors.New("stream did not contain valid UTF-8")

// filePerm is the mode for newly created files, before umask.
const filePerm os.FileMode = 0666

// FS abstracts the file-system calls used by Service.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// OSFS implements [FS] by delegating to the os package.
type OSFS struct{}

// ReadFile delegates to [os.ReadFile].
func (OSFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile delegates to [os.WriteFile].
func (OSFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Service reads and writes note files.
type Service struct {
	fs FS
}

// New creates a Service backed by fsys. A nil fsys uses the real file system.
func New(fsys FS) *Service {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &Service{fs: fsys}
}

// Open returns the full content of the file at path.
func (s *Service) Open(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", path, ErrInvalidUTF8)
	}
	return string(data), nil
}

// Save replaces the content of the file at path, creating it if necessary.
func (s *Service) Save(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.fs.WriteFile(path, []byte(content), filePerm)
}

// Create writes an empty file at path, truncating any existing content.
func (s *Service) Create(ctx context.Context, path string) error {
	return s.Save(ctx, path, "")
}
