package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanotree/nanotree/export"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
)

// entry is one row of a listing. Missing marks an id that is listed but has
// no node behind it.
type entry struct {
	ID       string     `json:"id" yaml:"id"`
	Kind     types.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Location string     `json:"location,omitempty" yaml:"location,omitempty"`
	Missing  bool       `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func entryFor(node types.Node) entry {
	return entry{ID: node.ID, Kind: node.Kind, Name: node.Name, Location: node.Location}
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, v interface{}, format export.Format) error {
	switch format {
	case export.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case export.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}

// writeEntries renders a listing as an aligned table or structured data
func writeEntries(w io.Writer, entries []entry, format export.Format) error {
	if format != export.FormatText {
		return writeStructured(w, entries, format)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		if e.Missing {
			_, _ = fmt.Fprintf(tw, "%s\t(missing)\t\t\n", e.ID)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Kind, e.Name, e.Location)
	}
	return tw.Flush()
}

// warnLoad tells the user the store needed recovery while loading
func warnLoad(w io.Writer, path string, report *storage.LoadReport) {
	if report.Unreadable {
		_, _ = fmt.Fprintf(w, "warning: %s could not be read (%s); starting with an empty tree\n", path, report.Reason)
		return
	}
	for _, d := range report.Skipped {
		if d.ID == "" {
			_, _ = fmt.Fprintf(w, "warning: skipped entry in %s: %v\n", path, d.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "warning: skipped node %s in %s: %v\n", d.ID, path, d.Err)
	}
	if report.Dangling > 0 {
		_, _ = fmt.Fprintf(w, "warning: %s lists %d missing node(s); run 'nanotree check --repair'\n", path, report.Dangling)
	}
}
