package promptgen

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FilesystemStore stores documents as plain files under a root
// directory. Store paths map directly onto the directory tree, so an
// existing document library can be used as-is.
type FilesystemStore struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

// FilesystemStoreDriver is the driver for creating FilesystemStore instances.
type FilesystemStoreDriver struct{}

func init() {
	RegisterStoreDriver(StoreDriverNameFilesystem, &FilesystemStoreDriver{})
}

// Open creates a new FilesystemStore instance.
// The connection string is the root directory path.
func (d *FilesystemStoreDriver) Open(connectionString string) (DocumentStore, error) {
	return NewFilesystemStore(connectionString)
}

// Filesystem store error message constants
const (
	ErrMsgInvalidStoreRoot = "invalid store root path"
	ErrMsgCreateStoreDir   = "failed to create store directory"
	ErrMsgReadDocument     = "failed to read document file"
	ErrMsgWriteDocument    = "failed to write document file"
	ErrMsgDeleteDocument   = "failed to delete document file"
	ErrMsgListStore        = "failed to list store directory"
)

// NewFilesystemStore creates a filesystem-backed document store.
// The root directory is created if it does not exist.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if root == "" {
		return nil, &StoreError{Message: ErrMsgInvalidStoreRoot}
	}

	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, &StoreError{Message: ErrMsgCreateStoreDir, Path: root, Cause: err}
	}

	return &FilesystemStore{root: root}, nil
}

// Root returns the store's root directory on the local filesystem.
func (s *FilesystemStore) Root() string {
	return s.root
}

// fullPath maps a store path onto the filesystem.
func (s *FilesystemStore) fullPath(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean(p)))
}

// Load returns the raw bytes of the document at path.
func (s *FilesystemStore) Load(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateStorePath(p); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	data, err := os.ReadFile(s.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewDocumentNotFoundError(p)
		}
		return nil, &StoreError{Message: ErrMsgReadDocument, Path: p, Cause: err}
	}
	return data, nil
}

// Exists reports whether a document file exists at path.
func (s *FilesystemStore) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateStorePath(p); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStoreClosedError()
	}

	info, err := os.Stat(s.fullPath(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StoreError{Message: ErrMsgReadDocument, Path: p, Cause: err}
	}
	return !info.IsDir(), nil
}

// List returns the store paths of all files under prefix, sorted.
func (s *FilesystemStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStoreClosedError()
	}

	var paths []string
	err := filepath.WalkDir(s.root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, fp)
		if err != nil {
			return err
		}
		storePath := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(storePath, prefix) {
			paths = append(paths, storePath)
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Message: ErrMsgListStore, Path: prefix, Cause: err}
	}

	sort.Strings(paths)
	return paths, nil
}

// Store writes document bytes at path, creating parent directories.
func (s *FilesystemStore) Store(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateStorePath(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	full := s.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), FilesystemDirPermissions); err != nil {
		return &StoreError{Message: ErrMsgCreateStoreDir, Path: p, Cause: err}
	}
	if err := os.WriteFile(full, data, FilesystemFilePermissions); err != nil {
		return &StoreError{Message: ErrMsgWriteDocument, Path: p, Cause: err}
	}
	return nil
}

// Delete removes the document file at path.
func (s *FilesystemStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateStorePath(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStoreClosedError()
	}

	if err := os.Remove(s.fullPath(p)); err != nil {
		if os.IsNotExist(err) {
			return NewDocumentNotFoundError(p)
		}
		return &StoreError{Message: ErrMsgDeleteDocument, Path: p, Cause: err}
	}
	return nil
}

// Close marks the store as closed.
func (s *FilesystemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
