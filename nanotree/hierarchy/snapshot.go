package hierarchy

import "github.com/arthur-debert/nanotree/types"

// Snapshot is a detached, deep copy of a store's contents. It is what the
// persistence layer encodes and what a store is rebuilt from on load.
type Snapshot struct {
	Nodes     map[string]types.Node
	RootOrder []string
}

// Snapshot returns a deep copy of the store's nodes and root order
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:     make(map[string]types.Node, len(s.nodes)),
		RootOrder: copyIDs(s.rootOrder),
	}
	for id, node := range s.nodes {
		snap.Nodes[id] = node.Clone()
	}
	return snap
}

// FromSnapshot builds a store from a snapshot as-is. References to ids that
// are not in snap.Nodes are kept: dangling ids are tolerated on traversal and
// only removed by an explicit Repair.
func FromSnapshot(snap Snapshot, opts ...Option) *Store {
	s := New(opts...)
	s.load(snap)
	return s
}

// Restore replaces the store's contents with snap. Retired ids stay retired.
func (s *Store) Restore(snap Snapshot) {
	s.load(snap)
}

func (s *Store) load(snap Snapshot) {
	s.nodes = make(map[string]*types.Node, len(snap.Nodes))
	for id, node := range snap.Nodes {
		n := node.Clone()
		n.ID = id
		if n.IsFolder() && n.Children == nil {
			n.Children = []string{}
		}
		if !n.IsFolder() {
			n.Children = nil
		}
		s.nodes[id] = &n
	}
	s.rootOrder = copyIDs(snap.RootOrder)
	s.invalidate()
}
