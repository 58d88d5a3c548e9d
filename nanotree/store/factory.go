// Package store provides the durable backends for a hierarchy: a single JSON
// document (the default) and a SQLite database.
package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/nanotree/nanotree/storage"
)

// Open returns the backend for path. The backend is chosen by WithKind or,
// failing that, by extension: .db, .sqlite and .sqlite3 use SQLite and
// everything else a JSON document.
func Open(path string, opts ...Option) (storage.Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	o := newOptions(opts)
	kind := o.kind
	if kind == KindAuto {
		kind = KindForPath(path)
	}

	switch kind {
	case KindJSON:
		return newJSONFileStore(path, o), nil
	case KindSQLite:
		backend, err := newSQLiteStore(path, o)
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// KindForPath guesses the backend from a file name
func KindForPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	default:
		return KindJSON
	}
}

// ParseKind converts a configuration value into a Kind
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAuto, "auto":
		return KindAuto, nil
	case KindJSON:
		return KindJSON, nil
	case KindSQLite, "sqlite3":
		return KindSQLite, nil
	default:
		return KindAuto, fmt.Errorf("unknown backend %q (want json or sqlite)", value)
	}
}
