package hierarchy

import (
	"fmt"
	"sort"
)

// ProblemKind classifies a structural inconsistency
type ProblemKind string

const (
	ProblemDangling        ProblemKind = "dangling"         // listed id has no node
	ProblemDuplicate       ProblemKind = "duplicate"        // id listed twice in one list
	ProblemMultipleParents ProblemKind = "multiple-parents" // id listed by more than one parent
	ProblemCycle           ProblemKind = "cycle"            // folder reachable from itself
	ProblemOrphan          ProblemKind = "orphan"           // node unreachable from the root order
)

// Problem is one inconsistency found by Check
type Problem struct {
	Kind     ProblemKind
	ID       string // The offending id
	ParentID string // The list owner where it was found, Root for the top level
}

func (p Problem) String() string {
	where := "root"
	if p.ParentID != Root {
		where = "folder " + p.ParentID
	}
	switch p.Kind {
	case ProblemOrphan:
		return fmt.Sprintf("%s: %s is not reachable from the root", p.Kind, p.ID)
	case ProblemCycle:
		return fmt.Sprintf("%s: %s is its own ancestor via %s", p.Kind, p.ID, where)
	default:
		return fmt.Sprintf("%s: %s in %s", p.Kind, p.ID, where)
	}
}

// RepairReport summarizes a Repair pass
type RepairReport struct {
	Problems []Problem
}

// Changed reports whether the repair modified the store
func (r RepairReport) Changed() bool {
	return len(r.Problems) > 0
}

// Check reports every structural inconsistency without changing the store.
// A store built through the mutation API never has any; documents loaded
// from disk may.
func (s *Store) Check() []Problem {
	_, _, problems := s.normalize()
	return problems
}

// Repair rewrites the lists so invariants hold again: dangling ids are
// dropped, the first listing of a node wins over later ones, cycles are
// broken and orphans are appended to the root order. Node contents never
// change and no node is removed.
func (s *Store) Repair() RepairReport {
	rootOrder, children, problems := s.normalize()
	if len(problems) == 0 {
		return RepairReport{}
	}

	s.rootOrder = rootOrder
	for id, node := range s.nodes {
		if node.IsFolder() {
			node.Children = children[id]
		}
	}
	s.invalidate()

	s.logger.Info("hierarchy repaired", "problems", len(problems))
	return RepairReport{Problems: problems}
}

// normalize computes the repaired lists and the problems found on the way,
// leaving the store itself untouched.
func (s *Store) normalize() ([]string, map[string][]string, []Problem) {
	var problems []Problem
	placed := make(map[string]string) // id -> list owner it was kept in
	onPath := make(map[string]bool)   // ancestors of the folder being filled
	children := make(map[string][]string)

	var fill func(owner string, ids []string) []string
	fill = func(owner string, ids []string) []string {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			node, ok := s.nodes[id]
			switch {
			case !ok:
				problems = append(problems, Problem{Kind: ProblemDangling, ID: id, ParentID: owner})
				continue
			case onPath[id] || id == owner:
				problems = append(problems, Problem{Kind: ProblemCycle, ID: id, ParentID: owner})
				continue
			}
			if prev, seen := placed[id]; seen {
				kind := ProblemMultipleParents
				if prev == owner {
					kind = ProblemDuplicate
				}
				problems = append(problems, Problem{Kind: kind, ID: id, ParentID: owner})
				continue
			}
			placed[id] = owner
			kept = append(kept, id)
			if node.IsFolder() {
				onPath[id] = true
				children[id] = fill(id, node.Children)
				delete(onPath, id)
			}
		}
		return kept
	}

	rootOrder := fill(Root, s.rootOrder)

	// Whatever is left was not reachable from the root order
	var unplaced []string
	for id := range s.nodes {
		if _, ok := placed[id]; !ok {
			unplaced = append(unplaced, id)
		}
	}
	sort.Strings(unplaced)

	if len(unplaced) > 0 {
		// Heads are unplaced nodes no other unplaced folder lists: true
		// orphans, possibly carrying a whole subtree. Attach those first so
		// their subtrees stay intact.
		listedByUnplaced := make(map[string]bool)
		for _, id := range unplaced {
			node := s.nodes[id]
			if !node.IsFolder() {
				continue
			}
			for _, childID := range node.Children {
				if childID != id {
					listedByUnplaced[childID] = true
				}
			}
		}

		attach := func(id string) {
			if _, done := placed[id]; done {
				return
			}
			problems = append(problems, Problem{Kind: ProblemOrphan, ID: id, ParentID: Root})
			rootOrder = append(rootOrder, fill(Root, []string{id})...)
		}

		for _, id := range unplaced {
			if !listedByUnplaced[id] {
				attach(id)
			}
		}
		// Anything still unplaced hangs off a detached cycle; fill reports
		// the edge that closes it.
		for _, id := range unplaced {
			attach(id)
		}
	}

	return rootOrder, children, problems
}
