package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/types"
)

// legacy vocabulary accepted on load
const (
	legacyKindProject = "project"
)

// Encode serializes a full snapshot of s. meta may be nil.
func Encode(s *hierarchy.Store, meta *Metadata) ([]byte, error) {
	doc := NewDocument(s.Snapshot(), meta)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// NewDocument converts a snapshot into its persisted shape
func NewDocument(snap hierarchy.Snapshot, meta *Metadata) *Document {
	doc := &Document{
		Nodes:     make(map[string]Record, len(snap.Nodes)),
		RootOrder: snap.RootOrder,
		Metadata:  meta,
	}
	if doc.RootOrder == nil {
		doc.RootOrder = []string{}
	}
	for id, node := range snap.Nodes {
		doc.Nodes[id] = RecordFor(node)
	}
	return doc
}

// RecordFor builds the persisted record of a node
func RecordFor(node types.Node) Record {
	kind := node.Kind.String()
	name := node.Name
	rec := Record{Kind: &kind, Name: &name}
	switch node.Kind {
	case types.KindLeaf:
		location := node.Location
		rec.Location = &location
	case types.KindFolder:
		children := node.Children
		if children == nil {
			children = []string{}
		}
		rec.Children = &children
	}
	return rec
}

// Decode rebuilds a hierarchy from a document. Malformed node records are
// skipped and listed in the report. The only error is a document that isn't
// a JSON object at all; see DecodeTolerant for the variant that never fails.
func Decode(data []byte, opts ...hierarchy.Option) (*hierarchy.Store, *LoadReport, error) {
	report := &LoadReport{}

	if len(bytes.TrimSpace(data)) == 0 {
		report.Empty = true
		return hierarchy.New(opts...), report, nil
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse document: %w", err)
	}

	nodesRaw, rootRaw := raw.Nodes, raw.RootOrder
	legacy := false
	if isAbsent(nodesRaw) && !isAbsent(raw.LegacyProjects) {
		nodesRaw, rootRaw = raw.LegacyProjects, raw.LegacyRootItems
		legacy = true
	}
	report.Legacy = legacy

	snap := hierarchy.Snapshot{
		Nodes:     decodeNodes(nodesRaw, legacy, report),
		RootOrder: decodeRootOrder(rootRaw, report),
	}
	report.Loaded = len(snap.Nodes)

	if !isAbsent(raw.Metadata) {
		var meta Metadata
		if err := json.Unmarshal(raw.Metadata, &meta); err == nil {
			report.Metadata = &meta
		}
	}

	store := hierarchy.FromSnapshot(snap, opts...)
	for _, ids := range store.Dangling() {
		report.Dangling += len(ids)
	}
	return store, report, nil
}

// DecodeTolerant is Decode for startup paths: an unparsable document yields
// an empty hierarchy and a report marked Unreadable.
func DecodeTolerant(data []byte, opts ...hierarchy.Option) (*hierarchy.Store, *LoadReport) {
	store, report, err := Decode(data, opts...)
	if err != nil {
		return hierarchy.New(opts...), &LoadReport{Unreadable: true, Reason: err.Error()}
	}
	return store, report
}

func decodeNodes(raw json.RawMessage, legacy bool, report *LoadReport) map[string]types.Node {
	nodes := make(map[string]types.Node)
	if isAbsent(raw) {
		return nodes
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		report.skip("", fmt.Errorf("%w: nodes is not an object", types.ErrMalformedRecord))
		return nodes
	}

	// Sorted so diagnostics come out in a stable order
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node, err := decodeEntry(id, entries[id], legacy)
		if err != nil {
			report.skip(id, err)
			continue
		}
		nodes[id] = node
	}
	return nodes
}

// legacyRecord is the shape written by the first version of the tool
type legacyRecord struct {
	Type     *string   `json:"type"`
	Name     *string   `json:"name"`
	Path     *string   `json:"path"`
	Children *[]string `json:"children"`
}

func decodeEntry(id string, raw json.RawMessage, legacy bool) (types.Node, error) {
	if id == "" {
		return types.Node{}, fmt.Errorf("%w: empty id", types.ErrMalformedRecord)
	}

	var rec Record
	if legacy {
		var old legacyRecord
		if err := json.Unmarshal(raw, &old); err != nil {
			return types.Node{}, fmt.Errorf("%w: %v", types.ErrMalformedRecord, err)
		}
		rec = Record{Kind: old.Type, Name: old.Name, Location: old.Path, Children: old.Children}
		if rec.Kind != nil && *rec.Kind == legacyKindProject {
			leaf := types.KindLeaf.String()
			rec.Kind = &leaf
		}
	} else if err := json.Unmarshal(raw, &rec); err != nil {
		return types.Node{}, fmt.Errorf("%w: %v", types.ErrMalformedRecord, err)
	}

	return BuildNode(id, rec)
}

// BuildNode validates a record and turns it into a node. Every backend runs
// its rows through here so they agree on what well-formed means.
func BuildNode(id string, rec Record) (types.Node, error) {
	if rec.Kind == nil {
		return types.Node{}, fmt.Errorf("%w: missing kind", types.ErrMalformedRecord)
	}
	if rec.Name == nil {
		return types.Node{}, fmt.Errorf("%w: missing name", types.ErrMalformedRecord)
	}

	switch kind := types.Kind(*rec.Kind); kind {
	case types.KindLeaf:
		if rec.Location == nil {
			return types.Node{}, fmt.Errorf("%w: leaf without location", types.ErrMalformedRecord)
		}
		return *types.NewLeaf(id, *rec.Name, *rec.Location), nil
	case types.KindFolder:
		node := types.NewFolder(id, *rec.Name)
		if rec.Children != nil {
			node.Children = append(node.Children, *rec.Children...)
		}
		return *node, nil
	default:
		return types.Node{}, fmt.Errorf("%w: unknown kind %q", types.ErrMalformedRecord, *rec.Kind)
	}
}

func decodeRootOrder(raw json.RawMessage, report *LoadReport) []string {
	if isAbsent(raw) {
		return []string{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		report.skip("", fmt.Errorf("%w: root order is not a list", types.ErrMalformedRecord))
		return []string{}
	}

	ids := make([]string, 0, len(entries))
	for i, entry := range entries {
		var id string
		if err := json.Unmarshal(entry, &id); err != nil || isAbsent(entry) || id == "" {
			report.skip("", fmt.Errorf("%w: root order entry %d is not an id", types.ErrMalformedRecord, i))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
