package hierarchy

import (
	"github.com/arthur-debert/nanotree/types"
)

// Move relocates id into parentID (Root for the top level) at position.
// Position is the index the node ends up at in the destination list; it is
// clamped to the list bounds and Append (any negative value) means the end.
//
// Only the source and destination lists change. A folder can't be moved into
// itself or one of its descendants. Moving a node to where it already is
// succeeds without changing anything.
func (s *Store) Move(id, parentID string, position int) error {
	if _, ok := s.nodes[id]; !ok {
		return types.NewNodeError("move", id, types.ErrNotFound)
	}
	if parentID != Root {
		dest, ok := s.nodes[parentID]
		if !ok || !dest.IsFolder() {
			return types.NewNodeError("move", parentID, types.ErrInvalidParent)
		}
		if s.isWithin(parentID, id) {
			return types.NewNodeError("move", id, types.ErrCycle)
		}
	}

	source, listed := s.parentIndex()[id]

	// Build both new lists before touching anything
	var newSource []string
	destList := *s.listOf(parentID)
	if listed {
		newSource = without(*s.listOf(source), id)
		if source == parentID {
			destList = newSource
		}
	}

	if position < 0 || position > len(destList) {
		position = len(destList)
	}
	newDest := make([]string, 0, len(destList)+1)
	newDest = append(newDest, destList[:position]...)
	newDest = append(newDest, id)
	newDest = append(newDest, destList[position:]...)

	if listed && source != parentID {
		*s.listOf(source) = newSource
	}
	*s.listOf(parentID) = newDest
	s.invalidate()

	s.logger.Debug("node moved", "id", id, "from", source, "to", parentID, "position", position)
	return nil
}

// MoveBefore places id immediately before siblingID, in siblingID's list
func (s *Store) MoveBefore(id, siblingID string) error {
	return s.moveNextTo("move-before", id, siblingID, 0)
}

// MoveAfter places id immediately after siblingID, in siblingID's list
func (s *Store) MoveAfter(id, siblingID string) error {
	return s.moveNextTo("move-after", id, siblingID, 1)
}

func (s *Store) moveNextTo(op, id, siblingID string, offset int) error {
	if _, ok := s.nodes[id]; !ok {
		return types.NewNodeError(op, id, types.ErrNotFound)
	}
	if _, ok := s.nodes[siblingID]; !ok {
		return types.NewNodeError(op, siblingID, types.ErrNotFound)
	}
	if id == siblingID {
		return nil
	}

	parentID, listed := s.parentIndex()[siblingID]
	if !listed {
		return types.NewNodeError(op, siblingID, types.ErrDanglingReference)
	}

	// Index of the sibling once id has been taken out of the list
	index := indexOf(without(*s.listOf(parentID), id), siblingID)
	return s.Move(id, parentID, index+offset)
}

// without returns a copy of ids with every occurrence of id removed
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
