// Package storage keeps uploaded CV files outside the database; rows only hold a reference.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the store's size limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrInvalidRef is returned for references that do not point inside the store.
	ErrInvalidRef = errors.New("invalid file reference")
	// ErrFileNotFound is returned when a reference has no file behind it.
	ErrFileNotFound = errors.New("file not found")
)

// FileStore persists uploaded files and hands back an opaque reference.
type FileStore interface {
	Save(ctx context.Context, owner uint, filename string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// LocalStore writes files under Root using dated sub-directories.
type LocalStore struct {
	Root     string
	MaxBytes int64
	now      func() time.Time
}

// NewLocalStore returns a store rooted at root. maxBytes <= 0 disables the size limit.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalStore{Root: root, MaxBytes: maxBytes, now: time.Now}, nil
}

// Save copies r into a new file and returns its reference, e.g. "cvs/2024/05/01/12_<uuid>.pdf".
func (s *LocalStore) Save(ctx context.Context, owner uint, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := s.now()
	dir := path.Join("cvs", now.Format("2006"), now.Format("01"), now.Format("02"))
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	ref := path.Join(dir, fmt.Sprintf("%d_%s%s", owner, uuid.NewString(), ext))

	dst := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = &io.LimitedReader{R: r, N: s.MaxBytes + 1}
	}
	written, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if s.MaxBytes > 0 && written > s.MaxBytes {
		_ = os.Remove(dst)
		return "", ErrFileTooLarge
	}
	return ref, nil
}

// Open returns a reader for a stored file.
func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return f, err
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if ref == "" || clean != "/"+ref || !strings.HasPrefix(ref, "cvs/") {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.Root, filepath.FromSlash(ref)), nil
}
