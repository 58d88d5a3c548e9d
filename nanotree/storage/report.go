package storage

import (
	"log/slog"
)

// Diagnostic describes one skipped piece of a document
type Diagnostic struct {
	ID  string // Node id, empty for document-level problems
	Err error
}

// LoadReport tells the caller what happened while loading a document.
// Nothing in it is fatal; it exists so the caller can inform the user.
type LoadReport struct {
	Loaded   int          // Nodes reconstructed
	Skipped  []Diagnostic // Entries that were dropped
	Dangling int          // Listed ids with no node behind them

	Empty      bool   // No document, or an empty one
	Unreadable bool   // The document could not be parsed; started empty
	Reason     string // Why the document was ignored, when Unreadable
	Legacy     bool   // The document used the old projects/root_items layout

	Metadata *Metadata
}

// SkippedCount returns the number of diagnostics
func (r *LoadReport) SkippedCount() int {
	if r == nil {
		return 0
	}
	return len(r.Skipped)
}

// Clean reports whether the load needed no recovery at all
func (r *LoadReport) Clean() bool {
	return r == nil || (len(r.Skipped) == 0 && r.Dangling == 0 && !r.Unreadable)
}

func (r *LoadReport) skip(id string, err error) {
	r.Skipped = append(r.Skipped, Diagnostic{ID: id, Err: err})
}

// Log writes the report to logger. Recovered problems are warnings: they
// never stop a load.
func (r *LoadReport) Log(logger *slog.Logger, source string) {
	if r == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	if r.Unreadable {
		logger.Warn("document unreadable, starting empty", "source", source, "reason", r.Reason)
		return
	}
	for _, d := range r.Skipped {
		logger.Warn("skipped malformed entry", "source", source, "id", d.ID, "error", d.Err)
	}
	if r.Dangling > 0 {
		logger.Warn("document has dangling references", "source", source, "count", r.Dangling)
	}
	logger.Debug("document loaded",
		"source", source,
		"nodes", r.Loaded,
		"skipped", len(r.Skipped),
		"legacy", r.Legacy,
		"empty", r.Empty)
}
