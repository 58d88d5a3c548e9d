// Package search finds nodes by name or location.
package search

import "github.com/arthur-debert/nanotree/types"

// Field names a searchable node attribute
type Field string

const (
	FieldName     Field = "name"
	FieldLocation Field = "location"
)

// Options configures a search
type Options struct {
	Query string

	// Fields to look in. Empty means name and location.
	Fields []Field

	CaseSensitive bool

	// ExactMatch requires the whole field to equal the query
	ExactMatch bool

	// Kind restricts results to leaves or folders. Empty means both.
	Kind types.Kind

	// Highlight wraps matches in Marker
	Highlight bool
	Marker    string

	// MaxResults caps the result count; zero means no cap
	MaxResults int
}

// Result is one matching node
type Result struct {
	Node types.Node

	// Score is between 0 and 1, higher is better
	Score float64

	// Fields that matched, with their (possibly highlighted) text
	Matches map[Field]string
}
