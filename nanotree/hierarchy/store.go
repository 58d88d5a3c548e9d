// Package hierarchy holds the in-memory tree of leaves and folders.
//
// The Store owns every node and the ordered list of root-level ids. A node's
// parent is never stored on the node itself: it is whichever list (the root
// order or exactly one folder's children) currently holds its id. All
// mutating operations validate first and only then touch the lists, so a
// failed call leaves the store exactly as it was.
//
// The Store performs no I/O and no locking. It is meant to be driven by a
// single logical actor; see the workspace package for a locked, persisted
// wrapper.
package hierarchy

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/arthur-debert/nanotree/types"
	"github.com/google/uuid"
)

// Root is the parent id used to address the root level
const Root = ""

// Append is the position that inserts at the end of the destination list
const Append = -1

// maxIDAttempts bounds how often we ask the generator for a fresh id
const maxIDAttempts = 16

// IDGenerator hands out candidate ids for new nodes
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random version 4 UUIDs
type UUIDGenerator struct{}

// NewID implements IDGenerator.NewID
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// Store is the canonical hierarchy of nodes
type Store struct {
	nodes     map[string]*types.Node
	rootOrder []string

	// retired holds ids of deleted nodes so they are never handed out again
	retired map[string]struct{}

	// parents is a derived id -> parent id index, nil when stale. Readers
	// may rebuild it concurrently, so it has its own lock.
	indexMu sync.Mutex
	parents map[string]string

	idGen  IDGenerator
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator sets a custom id generator, mostly useful in tests
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.idGen = gen
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		nodes:     make(map[string]*types.Node),
		rootOrder: []string{},
		retired:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idGen == nil {
		s.idGen = UUIDGenerator{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// AddLeaf creates a leaf under parentID (or at the root when parentID is Root)
// and returns its id.
func (s *Store) AddLeaf(name, location, parentID string) (string, error) {
	return s.add("add-leaf", parentID, func(id string) *types.Node {
		return types.NewLeaf(id, name, location)
	})
}

// AddFolder creates an empty folder under parentID (or at the root) and
// returns its id.
func (s *Store) AddFolder(name, parentID string) (string, error) {
	return s.add("add-folder", parentID, func(id string) *types.Node {
		return types.NewFolder(id, name)
	})
}

func (s *Store) add(op, parentID string, build func(id string) *types.Node) (string, error) {
	if parentID != Root {
		parent, ok := s.nodes[parentID]
		if !ok || !parent.IsFolder() {
			return "", types.NewNodeError(op, parentID, types.ErrInvalidParent)
		}
	}

	id, err := s.nextID()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	node := build(id)
	s.nodes[id] = node
	if parentID == Root {
		s.rootOrder = append(s.rootOrder, id)
	} else {
		parent := s.nodes[parentID]
		parent.Children = append(parent.Children, id)
	}
	s.invalidate()

	s.logger.Debug("node added", "op", op, "id", id, "kind", node.Kind, "parent", parentID)
	return id, nil
}

// nextID asks the generator for an id that is neither live nor retired
func (s *Store) nextID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.idGen.NewID()
		if id == Root {
			continue
		}
		if _, live := s.nodes[id]; live {
			continue
		}
		if _, dead := s.retired[id]; dead {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("no unused id after %d attempts", maxIDAttempts)
}

// Rename changes a node's display name. Nothing else about the node moves.
func (s *Store) Rename(id, name string) error {
	node, ok := s.nodes[id]
	if !ok {
		return types.NewNodeError("rename", id, types.ErrNotFound)
	}
	node.Name = name
	return nil
}

// Get returns a copy of the node with the given id
func (s *Store) Get(id string) (types.Node, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return types.Node{}, false
	}
	return node.Clone(), true
}

// Contains reports whether id names a live node
func (s *Store) Contains(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// ListChildren returns the ordered ids under id, or the root order when id is
// Root. The returned slice is a copy and may include dangling ids.
func (s *Store) ListChildren(id string) ([]string, error) {
	if id == Root {
		return copyIDs(s.rootOrder), nil
	}
	node, ok := s.nodes[id]
	if !ok {
		return nil, types.NewNodeError("list", id, types.ErrNotFound)
	}
	if !node.IsFolder() {
		return nil, types.NewNodeError("list", id, types.ErrNotFolder)
	}
	return copyIDs(node.Children), nil
}

// RootOrder returns a copy of the top-level ids
func (s *Store) RootOrder() []string {
	return copyIDs(s.rootOrder)
}

// Len returns the number of live nodes
func (s *Store) Len() int {
	return len(s.nodes)
}

// IDs returns every live id in no particular order
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	return ids
}

// invalidate drops derived state after a structural mutation
func (s *Store) invalidate() {
	s.indexMu.Lock()
	s.parents = nil
	s.indexMu.Unlock()
}

// listOf returns a pointer to the membership list addressed by parentID.
// Callers must have checked that parentID is Root or a live folder.
func (s *Store) listOf(parentID string) *[]string {
	if parentID == Root {
		return &s.rootOrder
	}
	return &s.nodes[parentID].Children
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
