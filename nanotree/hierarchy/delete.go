package hierarchy

import (
	"github.com/arthur-debert/nanotree/types"
)

// DeleteSubtree removes id and, for folders, everything below it. It returns
// the removed ids, id first. The removed ids are also taken out of every list
// that still referenced them, so deletion never leaves new dangling ids behind.
// Deleting the same id twice fails the second time with ErrNotFound.
func (s *Store) DeleteSubtree(id string) ([]string, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, types.NewNodeError("delete", id, types.ErrNotFound)
	}

	var removed []string
	s.visitSubtree(id, func(n *types.Node) bool {
		removed = append(removed, n.ID)
		return true
	})

	gone := make(map[string]bool, len(removed))
	for _, rid := range removed {
		gone[rid] = true
	}

	for _, rid := range removed {
		delete(s.nodes, rid)
		s.retired[rid] = struct{}{}
	}

	s.rootOrder = withoutAny(s.rootOrder, gone)
	for _, node := range s.nodes {
		if node.IsFolder() {
			node.Children = withoutAny(node.Children, gone)
		}
	}
	s.invalidate()

	s.logger.Debug("subtree deleted", "id", id, "removed", len(removed))
	return removed, nil
}

// withoutAny drops every id in gone, reusing the slice when nothing matches
func withoutAny(ids []string, gone map[string]bool) []string {
	hit := false
	for _, v := range ids {
		if gone[v] {
			hit = true
			break
		}
	}
	if !hit {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if !gone[v] {
			out = append(out, v)
		}
	}
	return out
}
