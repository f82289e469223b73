package promptgen

import (
	"context"
	"errors"
	"sync"
)

// DocumentStore is the interface for pluggable configuration-document
// backends. Documents and variation pools are addressed by relative,
// slash-separated paths. Implementations must be safe for concurrent use.
//
// The interface follows patterns from database/sql for familiarity:
// - Context for cancellation and timeouts
// - Explicit error returns
// - Close for resource cleanup
type DocumentStore interface {
	// Load returns the raw bytes of the document at path.
	// Returns a not-found StoreError if the path does not exist.
	Load(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether a document exists at path without loading it.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the paths of all documents under prefix, sorted.
	// An empty prefix lists the whole store.
	List(ctx context.Context, prefix string) ([]string, error)

	// Store writes document bytes at path, creating parents as needed.
	Store(ctx context.Context, path string, data []byte) error

	// Delete removes the document at path.
	// Returns a not-found StoreError if the path does not exist.
	Delete(ctx context.Context, path string) error

	// Close releases any resources held by the store.
	// After Close, the store should not be used.
	Close() error
}

// StoreDriver is a factory for creating document store instances.
// Drivers register themselves during init().
type StoreDriver interface {
	// Open creates a new store with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (DocumentStore, error)
}

// Store driver registry
var (
	storeDriversMu sync.RWMutex
	storeDrivers   = make(map[string]StoreDriver)
)

// RegisterStoreDriver registers a store driver by name.
// This is typically called from a driver's init() function.
// Panics if a driver with the same name is already registered.
func RegisterStoreDriver(name string, driver StoreDriver) {
	storeDriversMu.Lock()
	defer storeDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStoreDriver)
	}
	if _, exists := storeDrivers[name]; exists {
		panic(ErrMsgStoreDriverExists + ": " + name)
	}
	storeDrivers[name] = driver
}

// OpenStore opens a document store using the named driver.
// The connection string format is driver-specific.
//
// Example:
//
//	store, err := promptgen.OpenStore("memory", "")
//	store, err := promptgen.OpenStore("filesystem", "/path/to/documents")
func OpenStore(driverName, connectionString string) (DocumentStore, error) {
	storeDriversMu.RLock()
	driver, ok := storeDrivers[driverName]
	storeDriversMu.RUnlock()

	if !ok {
		return nil, &StoreError{Message: ErrMsgStoreDriverUnknown, Path: driverName}
	}

	return driver.Open(connectionString)
}

// ListStoreDrivers returns the names of all registered store drivers.
func ListStoreDrivers() []string {
	storeDriversMu.RLock()
	defer storeDriversMu.RUnlock()

	names := make([]string, 0, len(storeDrivers))
	for name := range storeDrivers {
		names = append(names, name)
	}
	return names
}

// Store error message constants
const (
	ErrMsgNilStoreDriver     = "store driver is nil"
	ErrMsgStoreDriverUnknown = "unknown store driver"
	ErrMsgStoreDriverExists  = "store driver already registered"
	ErrMsgDocumentNotFound   = "document not found in store"
	ErrMsgStoreClosed        = "store is closed"
	ErrMsgInvalidStorePath   = "invalid document path"
	ErrMsgPathTraversal      = "document path escapes the store root"
	ErrMsgStoreNotWatchable  = "store does not support file watching"
)

// StoreError represents a store-related error.
type StoreError struct {
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewDocumentNotFoundError creates an error for a missing document path.
func NewDocumentNotFoundError(path string) error {
	return &StoreError{Message: ErrMsgDocumentNotFound, Path: path}
}

// NewStoreClosedError creates an error for operations on a closed store.
func NewStoreClosedError() error {
	return &StoreError{Message: ErrMsgStoreClosed}
}

// IsNotFound reports whether err is a missing-document store error.
func IsNotFound(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Message == ErrMsgDocumentNotFound
}

// validateStorePath rejects empty, absolute, and root-escaping paths.
// Store paths are relative and slash-separated on every backend.
func validateStorePath(p string) error {
	if p == "" {
		return &StoreError{Message: ErrMsgInvalidStorePath}
	}
	if p[0] == '/' || p[0] == '\\' {
		return &StoreError{Message: ErrMsgInvalidStorePath, Path: p}
	}
	for _, part := range splitStorePath(p) {
		if part == ".." {
			return &StoreError{Message: ErrMsgPathTraversal, Path: p}
		}
	}
	return nil
}

// splitStorePath splits a store path on both separator styles.
func splitStorePath(p string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' || p[i] == '\\' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	return append(parts, p[start:])
}
