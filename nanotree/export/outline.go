// Package export projects a hierarchy into a nested outline, the read-side
// shape a renderer works from, and writes it as JSON, YAML or plain text.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/types"
)

// Format selects the output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a user supplied format name
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(value)); f {
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml or text)", value)
	}
}

// OutlineNode is one node of the nested projection
type OutlineNode struct {
	ID       string         `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Kind     types.Kind     `json:"kind" yaml:"kind"`
	Location string         `json:"location,omitempty" yaml:"location,omitempty"`
	Children []*OutlineNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Build projects the whole hierarchy in display order. Dangling ids are
// left out.
func Build(s *hierarchy.Store) []*OutlineNode {
	roots := []*OutlineNode{}
	var path []*OutlineNode
	_ = s.Walk(func(n types.Node, depth int) error {
		node := outlineOf(n)
		path = path[:depth]
		if depth == 0 {
			roots = append(roots, node)
		} else {
			parent := path[depth-1]
			parent.Children = append(parent.Children, node)
		}
		path = append(path, node)
		return nil
	})
	return roots
}

// BuildFrom projects the subtree rooted at id
func BuildFrom(s *hierarchy.Store, id string) (*OutlineNode, error) {
	var root *OutlineNode
	var path []*OutlineNode
	err := s.WalkFrom(id, func(n types.Node, depth int) error {
		node := outlineOf(n)
		path = path[:depth]
		if depth == 0 {
			root = node
		} else {
			parent := path[depth-1]
			parent.Children = append(parent.Children, node)
		}
		path = append(path, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

func outlineOf(n types.Node) *OutlineNode {
	return &OutlineNode{
		ID:       n.ID,
		Name:     n.Name,
		Kind:     n.Kind,
		Location: n.Location,
	}
}

// Write renders the outline of s to w
func Write(w io.Writer, s *hierarchy.Store, format Format) error {
	return WriteOutline(w, Build(s), format)
}

// WriteOutline renders an already built outline
func WriteOutline(w io.Writer, roots []*OutlineNode, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roots)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(roots); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case FormatText:
		return writeText(w, roots, 0)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, nodes []*OutlineNode, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		var line string
		if n.Kind == types.KindFolder {
			line = fmt.Sprintf("%s%s/  [%s]\n", indent, n.Name, n.ID)
		} else {
			line = fmt.Sprintf("%s%s -> %s  [%s]\n", indent, n.Name, n.Location, n.ID)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
		if err := writeText(w, n.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}
