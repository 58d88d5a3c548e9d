// Package workspace couples a hierarchy with a durable backend. Every
// mutation is applied in memory and then saved as a whole snapshot; if the
// save fails the in-memory hierarchy is rolled back so memory and disk
// never disagree.
package workspace

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
)

// Tree is a persisted hierarchy
type Tree struct {
	store   *hierarchy.Store
	backend storage.Backend
	lm      *storage.LockManager
	logger  *slog.Logger
	report  *storage.LoadReport
}

type config struct {
	logger    *slog.Logger
	storeOpts []hierarchy.Option
}

// Option configures a Tree
type Option func(*config)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithHierarchyOptions passes options through to the in-memory store
func WithHierarchyOptions(opts ...hierarchy.Option) Option {
	return func(c *config) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// Open loads the hierarchy from backend. An absent or corrupt document
// gives an empty tree; Report says what was recovered.
func Open(backend storage.Backend, opts ...Option) (*Tree, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	storeOpts := append([]hierarchy.Option{hierarchy.WithLogger(cfg.logger)}, cfg.storeOpts...)

	store, report, err := backend.Load(storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load hierarchy: %w", err)
	}

	return &Tree{
		store:   store,
		backend: backend,
		lm:      storage.NewLockManager(),
		logger:  cfg.logger,
		report:  report,
	}, nil
}

// Report returns what happened while loading
func (t *Tree) Report() *storage.LoadReport {
	return t.report
}

// AddLeaf creates a leaf and saves
func (t *Tree) AddLeaf(name, location, parentID string) (string, error) {
	var id string
	err := t.mutate(func(s *hierarchy.Store) error {
		var err error
		id, err = s.AddLeaf(name, location, parentID)
		return err
	})
	return id, err
}

// AddFolder creates a folder and saves
func (t *Tree) AddFolder(name, parentID string) (string, error) {
	var id string
	err := t.mutate(func(s *hierarchy.Store) error {
		var err error
		id, err = s.AddFolder(name, parentID)
		return err
	})
	return id, err
}

// Rename renames a node and saves
func (t *Tree) Rename(id, name string) error {
	return t.mutate(func(s *hierarchy.Store) error {
		return s.Rename(id, name)
	})
}

// Move relocates a node and saves; see hierarchy.Store.Move
func (t *Tree) Move(id, parentID string, position int) error {
	return t.mutate(func(s *hierarchy.Store) error {
		return s.Move(id, parentID, position)
	})
}

// MoveBefore places id right before siblingID and saves
func (t *Tree) MoveBefore(id, siblingID string) error {
	return t.mutate(func(s *hierarchy.Store) error {
		return s.MoveBefore(id, siblingID)
	})
}

// MoveAfter places id right after siblingID and saves
func (t *Tree) MoveAfter(id, siblingID string) error {
	return t.mutate(func(s *hierarchy.Store) error {
		return s.MoveAfter(id, siblingID)
	})
}

// Delete removes a node with its subtree and saves
func (t *Tree) Delete(id string) ([]string, error) {
	var removed []string
	err := t.mutate(func(s *hierarchy.Store) error {
		var err error
		removed, err = s.DeleteSubtree(id)
		return err
	})
	return removed, err
}

// Repair runs the explicit repair pass and saves if anything changed
func (t *Tree) Repair() (hierarchy.RepairReport, error) {
	var report hierarchy.RepairReport
	err := t.lm.Execute(storage.WriteOperation, func() error {
		before := t.store.Snapshot()
		report = t.store.Repair()
		if !report.Changed() {
			return nil
		}
		return t.persist(before)
	})
	return report, err
}

// Batch applies several operations and saves once. If fn fails, none of
// its changes are kept.
func (t *Tree) Batch(fn func(s *hierarchy.Store) error) error {
	return t.mutate(fn)
}

// Replace swaps in a whole new hierarchy, e.g. from a backup, and saves
func (t *Tree) Replace(snap hierarchy.Snapshot) error {
	return t.mutate(func(s *hierarchy.Store) error {
		s.Restore(snap)
		return nil
	})
}

// Get returns a copy of a node
func (t *Tree) Get(id string) (types.Node, bool) {
	var (
		node types.Node
		ok   bool
	)
	_ = t.lm.Execute(storage.ReadOperation, func() error {
		node, ok = t.store.Get(id)
		return nil
	})
	return node, ok
}

// ListChildren lists a folder, or the root level when id is hierarchy.Root
func (t *Tree) ListChildren(id string) ([]string, error) {
	return storage.ExecuteWithResult(t.lm, storage.ReadOperation, func() ([]string, error) {
		return t.store.ListChildren(id)
	})
}

// Check reports structural problems without changing anything
func (t *Tree) Check() []hierarchy.Problem {
	problems, _ := storage.ExecuteWithResult(t.lm, storage.ReadOperation, func() ([]hierarchy.Problem, error) {
		return t.store.Check(), nil
	})
	return problems
}

// View gives fn read access to the hierarchy. fn must not mutate it.
func (t *Tree) View(fn func(s *hierarchy.Store) error) error {
	return t.lm.Execute(storage.ReadOperation, func() error {
		return fn(t.store)
	})
}

// Save writes the current hierarchy to the backend
func (t *Tree) Save() error {
	return t.lm.Execute(storage.WriteOperation, func() error {
		return t.backend.Save(t.store)
	})
}

// Close releases the backend
func (t *Tree) Close() error {
	return t.backend.Close()
}

// mutate applies fn and persists the result. Any failure, from fn or from
// the save, restores the hierarchy to how it was before the call.
func (t *Tree) mutate(fn func(s *hierarchy.Store) error) error {
	return t.lm.Execute(storage.WriteOperation, func() error {
		before := t.store.Snapshot()

		if err := fn(t.store); err != nil {
			t.store.Restore(before)
			return err
		}
		return t.persist(before)
	})
}

// persist saves the hierarchy, restoring before if the save fails. Caller
// must hold the write lock.
func (t *Tree) persist(before hierarchy.Snapshot) error {
	if err := t.backend.Save(t.store); err != nil {
		t.store.Restore(before)
		t.logger.Error("save failed, changes rolled back", "error", err)
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}
