package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// dialects is fixed at compile time; nothing registers at runtime.
var dialects = map[string]*Dialect{
	Postgres.Name: Postgres,
	DuckDB.Name:   DuckDB,
	SQLite.Name:   SQLite,
}

// aliases maps accepted spellings onto dialect names.
var aliases = map[string]string{
	"postgresql": "postgres",
	"pg":         "postgres",
	"sqlite3":    "sqlite",
}

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("dialect is required")

// Get returns a dialect by name or alias, case-insensitively.
func Get(name string) (*Dialect, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	d, ok := dialects[key]
	return d, ok
}

// Lookup is Get with an error describing the available dialects.
func Lookup(name string) (*Dialect, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrDialectRequired
	}
	d, ok := Get(name)
	if !ok {
		return nil, &UnknownDialectError{Name: name, Available: List()}
	}
	return d, nil
}

// List returns all dialect names (sorted).
func List() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDialectError is returned when an unknown dialect is requested.
type UnknownDialectError struct {
	Name      string
	Available []string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown dialect %q\nAvailable dialects: %v\nHint: Check --dialect or dialect in sqlrepair.yaml", e.Name, e.Available)
}
