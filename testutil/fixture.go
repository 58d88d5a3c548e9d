// Package testutil provides a shared hierarchy fixture and assertion
// helpers for tests across the module.
package testutil

import (
	_ "embed"
	"fmt"
	"sync"
	"testing"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
)

//go:embed testdata/universe.json
var universeJSON []byte

// Universe names the ids of the fixture hierarchy:
//
//	Personal/
//	  dotfiles -> ~/dotfiles
//	  blog -> ~/src/blog
//	  Archive/
//	    old-site -> ~/src/old-site
//	Work/
//	  api -> ~/work/api
//	  web -> ~/work/web
//	  Infra/
//	    terraform -> ~/work/terraform
//	    Empty/
//	scratch -> /tmp/scratch
type Universe struct {
	Personal, Dotfiles, Blog, Archive, OldSite string
	Work, API, Web, Infra, Terraform, Empty    string
	Scratch                                    string
}

// UniverseNodeCount is the number of nodes in the fixture
const UniverseNodeCount = 12

var universe = Universe{
	Personal:  "personal",
	Dotfiles:  "dotfiles",
	Blog:      "blog",
	Archive:   "archive",
	OldSite:   "old-site",
	Work:      "work",
	API:       "api",
	Web:       "web",
	Infra:     "infra",
	Terraform: "terraform",
	Empty:     "empty",
	Scratch:   "scratch",
}

// UniverseDocument returns a copy of the fixture in the persisted format
func UniverseDocument() []byte {
	return append([]byte(nil), universeJSON...)
}

// LoadUniverse decodes the fixture into a fresh store. New ids come from a
// SequenceIDs generator so tests can predict them.
func LoadUniverse(t *testing.T, opts ...hierarchy.Option) (*hierarchy.Store, Universe) {
	t.Helper()

	opts = append([]hierarchy.Option{hierarchy.WithIDGenerator(NewSequenceIDs("n"))}, opts...)
	s, report, err := storage.Decode(UniverseDocument(), opts...)
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("fixture should load cleanly, got %+v", report)
	}
	if s.Len() != UniverseNodeCount {
		t.Fatalf("expected %d fixture nodes, got %d", UniverseNodeCount, s.Len())
	}
	return s, universe
}

// SequenceIDs hands out "<prefix>1", "<prefix>2", ... in order
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceIDs creates a generator starting at 1
func NewSequenceIDs(prefix string) *SequenceIDs {
	return &SequenceIDs{prefix: prefix, next: 1}
}

// NewID implements hierarchy.IDGenerator
func (g *SequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("%s%d", g.prefix, g.next)
	g.next++
	return id
}

// FixedIDs replays a list of ids, then repeats the last one. It is used to
// force collisions.
type FixedIDs struct {
	mu  sync.Mutex
	ids []string
	pos int
}

// NewFixedIDs creates a generator over ids
func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// NewID implements hierarchy.IDGenerator
func (g *FixedIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.ids) == 0 {
		return ""
	}
	id := g.ids[g.pos]
	if g.pos < len(g.ids)-1 {
		g.pos++
	}
	return id
}
