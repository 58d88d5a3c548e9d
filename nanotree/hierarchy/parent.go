package hierarchy

import (
	"sort"

	"github.com/arthur-debert/nanotree/types"
)

// parentIndex returns the derived id -> parent id index, rebuilding it if a
// structural mutation made it stale. Root-level ids map to Root. If a
// corrupted document lists an id twice, the first listing wins: the root
// order first, then folders in id order.
func (s *Store) parentIndex() map[string]string {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if s.parents != nil {
		return s.parents
	}

	index := make(map[string]string, len(s.nodes))
	for _, id := range s.rootOrder {
		if _, seen := index[id]; !seen {
			index[id] = Root
		}
	}
	for _, folderID := range s.sortedFolderIDs() {
		for _, childID := range s.nodes[folderID].Children {
			if _, seen := index[childID]; !seen {
				index[childID] = folderID
			}
		}
	}

	s.parents = index
	return index
}

func (s *Store) sortedFolderIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id, node := range s.nodes {
		if node.IsFolder() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ParentOf returns the id of the folder holding id, Root for top-level nodes.
// The boolean is false when the node exists but no list references it.
func (s *Store) ParentOf(id string) (string, bool, error) {
	if _, ok := s.nodes[id]; !ok {
		return "", false, types.NewNodeError("parent", id, types.ErrNotFound)
	}
	parent, listed := s.parentIndex()[id]
	return parent, listed, nil
}

// Path returns the chain of nodes from the top level down to id, inclusive
func (s *Store) Path(id string) ([]types.Node, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, types.NewNodeError("path", id, types.ErrNotFound)
	}

	index := s.parentIndex()
	var chain []types.Node
	visited := make(map[string]bool)
	for cur := id; cur != Root; {
		if visited[cur] {
			break // corrupted document with a parent cycle
		}
		visited[cur] = true

		node, ok := s.nodes[cur]
		if !ok {
			break
		}
		chain = append(chain, node.Clone())

		parent, listed := index[cur]
		if !listed {
			break
		}
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// isWithin reports whether target is id itself or reachable below it
func (s *Store) isWithin(target, id string) bool {
	if target == id {
		return true
	}
	found := false
	s.visitSubtree(id, func(n *types.Node) bool {
		if n.ID == target {
			found = true
			return false
		}
		return true
	})
	return found
}
