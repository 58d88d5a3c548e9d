package hierarchy

import (
	"errors"

	"github.com/arthur-debert/nanotree/types"
)

// SkipChildren can be returned from a WalkFunc to skip a folder's contents
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every reachable node in display order
type WalkFunc func(node types.Node, depth int) error

// Walk visits every node reachable from the root order, depth first, in the
// recorded order. Dangling ids are skipped and no node is visited twice, even
// in a corrupted document that lists it more than once.
func (s *Store) Walk(fn WalkFunc) error {
	visited := make(map[string]bool, len(s.nodes))
	for _, id := range s.rootOrder {
		if err := s.walk(id, 0, visited, fn); err != nil {
			return err
		}
	}
	return nil
}

// WalkFrom is like Walk but starts at a single node, which gets depth 0
func (s *Store) WalkFrom(id string, fn WalkFunc) error {
	if _, ok := s.nodes[id]; !ok {
		return types.NewNodeError("walk", id, types.ErrNotFound)
	}
	return s.walk(id, 0, make(map[string]bool), fn)
}

func (s *Store) walk(id string, depth int, visited map[string]bool, fn WalkFunc) error {
	node, ok := s.nodes[id]
	if !ok || visited[id] {
		return nil
	}
	visited[id] = true

	if err := fn(node.Clone(), depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}

	if !node.IsFolder() {
		return nil
	}
	for _, childID := range node.Children {
		if err := s.walk(childID, depth+1, visited, fn); err != nil {
			return err
		}
	}
	return nil
}

// Descendants returns every id below id, depth first, excluding id itself
func (s *Store) Descendants(id string) ([]string, error) {
	if _, ok := s.nodes[id]; !ok {
		return nil, types.NewNodeError("descendants", id, types.ErrNotFound)
	}
	var out []string
	s.visitSubtree(id, func(n *types.Node) bool {
		if n.ID != id {
			out = append(out, n.ID)
		}
		return true
	})
	return out, nil
}

// Leaves returns every reachable leaf in display order
func (s *Store) Leaves() []types.Node {
	var out []types.Node
	_ = s.Walk(func(n types.Node, _ int) error {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Dangling returns, per list owner (Root or folder id), the listed ids that
// have no node behind them.
func (s *Store) Dangling() map[string][]string {
	out := make(map[string][]string)
	for _, id := range s.rootOrder {
		if _, ok := s.nodes[id]; !ok {
			out[Root] = append(out[Root], id)
		}
	}
	for folderID, node := range s.nodes {
		if !node.IsFolder() {
			continue
		}
		for _, childID := range node.Children {
			if _, ok := s.nodes[childID]; !ok {
				out[folderID] = append(out[folderID], childID)
			}
		}
	}
	return out
}

// visitSubtree walks the live nodes under and including id. Children are
// treated as a set: each node is visited once. fn returns false to stop.
func (s *Store) visitSubtree(id string, fn func(*types.Node) bool) {
	visited := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		node, ok := s.nodes[cur]
		if !ok {
			continue
		}
		visited[cur] = true
		if !fn(node) {
			return
		}
		if node.IsFolder() {
			// push in reverse so children come out in recorded order
			for i := len(node.Children) - 1; i >= 0; i-- {
				stack = append(stack, node.Children[i])
			}
		}
	}
}
