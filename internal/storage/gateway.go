// Package storage defines the database gateway used by the synchronizer and a
// registry of backend factories.
//
// Backends live in sub-packages and register themselves from init():
//
//	import _ "catalogsync/internal/storage/postgres"
//
// or all at once through catalogsync/internal/storage/all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"catalogsync/internal/catalog"
)

// Config is the minimal configuration needed to open a gateway.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Gateway is the only path from the synchronizer to the database.
//
// The interface is intentionally small: the synchronizer owns every decision
// about which statements to run, and a gateway only executes them and reports
// the live column set.
type Gateway interface {
	// Exec runs one DDL statement.
	Exec(ctx context.Context, sql string) error

	// Columns returns the current column names of table. A missing table
	// yields an empty set, not an error. No ordering is implied.
	Columns(ctx context.Context, table string) (map[string]struct{}, error)

	// Write executes one parameterized write statement and returns the number
	// of affected rows as reported by the driver.
	Write(ctx context.Context, st catalog.Statement) (int64, error)

	// Dialect returns the SQL flavor statements must be rendered in.
	Dialect() catalog.Dialect

	// Close releases connections. Treat it as "call once".
	Close()
}

// Factory opens a gateway for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Gateway, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. This is intentional to fail fast and
//     avoid ambiguous backend selection.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New opens a gateway using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Gateway, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing storage.kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
