package hierarchy

import (
	"strings"

	"github.com/arthur-debert/nanotree/types"
)

// minPrefixLen is the shortest prefix Resolve accepts for a partial match
const minPrefixLen = 4

// Resolve turns a user supplied reference into a live id. An exact id always
// wins; otherwise ref must be a prefix, at least minPrefixLen long, of
// exactly one id.
func (s *Store) Resolve(ref string) (string, error) {
	if _, ok := s.nodes[ref]; ok {
		return ref, nil
	}
	if len(ref) < minPrefixLen {
		return "", types.NewNodeError("resolve", ref, types.ErrNotFound)
	}

	match := ""
	for id := range s.nodes {
		if !strings.HasPrefix(id, ref) {
			continue
		}
		if match != "" {
			return "", types.NewNodeError("resolve", ref, types.ErrAmbiguous)
		}
		match = id
	}
	if match == "" {
		return "", types.NewNodeError("resolve", ref, types.ErrNotFound)
	}
	return match, nil
}
