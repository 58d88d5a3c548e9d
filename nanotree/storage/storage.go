// Package storage defines the persisted document format for a hierarchy and
// the Backend interface that durable stores implement.
//
// A document is always a complete snapshot: a mapping of id to node record
// plus the ordered list of root ids. Loading is tolerant. Records that can't
// be decoded are skipped and reported, and a document that can't be parsed
// at all yields an empty hierarchy instead of an error.
package storage

import (
	"encoding/json"
	"time"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
)

// FormatVersion is written into every document's metadata
const FormatVersion = "1.0"

// Document is the on-disk shape of a hierarchy
type Document struct {
	Nodes     map[string]Record `json:"nodes"`
	RootOrder []string          `json:"root_order"`
	Metadata  *Metadata         `json:"metadata,omitempty"`
}

// Record is one node entry. Fields are pointers so decoding can tell a
// missing field from an empty one.
type Record struct {
	Kind     *string   `json:"kind,omitempty"`
	Name     *string   `json:"name,omitempty"`
	Location *string   `json:"location,omitempty"`
	Children *[]string `json:"children,omitempty"`
}

// Metadata contains storage metadata
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Backend persists whole hierarchies
type Backend interface {
	// Load reads the last saved hierarchy. A missing or unreadable document
	// is not an error: it yields an empty store and a report saying why.
	Load(opts ...hierarchy.Option) (*hierarchy.Store, *LoadReport, error)

	// Save replaces the persisted document with a snapshot of s
	Save(s *hierarchy.Store) error

	// Close releases any resources held by the backend
	Close() error
}

// rawDocument is used while decoding so each part can fail on its own
type rawDocument struct {
	Nodes     json.RawMessage `json:"nodes"`
	RootOrder json.RawMessage `json:"root_order"`
	Metadata  json.RawMessage `json:"metadata"`

	// Documents written before the node/leaf vocabulary
	LegacyProjects  json.RawMessage `json:"projects"`
	LegacyRootItems json.RawMessage `json:"root_items"`
}
