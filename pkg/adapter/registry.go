package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlrepair/pkg/core"
	"github.com/leapstack-labs/sqlrepair/pkg/dialect"
)

// Factory builds an adapter that validates one dialect.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// canonical resolves dialect aliases ("pg", "sqlite3") so that every
// spelling of a dialect shares one registry slot. Names that are not a
// built-in dialect are only lower-cased.
func canonical(name string) string {
	if d, ok := dialect.Get(name); ok {
		return d.Name
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes a validation adapter available for a dialect.
// Adapter packages call it from init(); it panics on a nil factory or a
// second registration for the same dialect.
func Register(name string, factory Factory) {
	key := canonical(name)
	if key == "" {
		panic("adapter: Register with empty name")
	}
	if factory == nil {
		panic("adapter: Register factory is nil for " + key)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		panic("adapter: Register called twice for " + key)
	}
	registry[key] = factory
}

// Get retrieves the factory registered for a dialect name or alias.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[canonical(name)]
	return f, ok
}

// NewAdapter builds the adapter for cfg.Type. The adapter must report the
// dialect it was registered under; a factory that builds an adapter for
// another dialect is an error.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	key := canonical(cfg.Type)
	factory, ok := Get(key)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}

	adp := factory(logger)
	if adp == nil {
		return nil, fmt.Errorf("adapter %q: factory returned nil", key)
	}
	if got := canonical(adp.DialectName()); got != key {
		return nil, fmt.Errorf("adapter %q validates dialect %q", key, got)
	}
	return adp, nil
}

// ListAdapters returns the dialects with a registered adapter (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a dialect name or alias has an adapter.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when no adapter validates the requested dialect.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no adapter for dialect %q\nAvailable adapters: %v\nHint: Check target.type in sqlrepair.yaml", e.Type, e.Available)
}
