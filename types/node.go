package types

// Kind discriminates the two node variants. It never changes after creation.
type Kind string

const (
	KindLeaf   Kind = "leaf"   // An entry pointing at an external location
	KindFolder Kind = "folder" // A labeled container of other nodes
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindLeaf || k == KindFolder
}

func (k Kind) String() string {
	return string(k)
}

// Node is a single entry in the hierarchy.
//
// Leaves carry a Location and never have children. Folders carry an ordered
// list of child ids. The parent of a node is not stored on the node; it is
// derived from whichever list (root order or a folder's children) holds it.
type Node struct {
	ID       string   // Stable identifier, assigned at creation
	Name     string   // Display name, may be empty
	Kind     Kind     // Leaf or folder
	Location string   // Leaf only: opaque resource location (e.g. a directory)
	Children []string // Folder only: ordered child ids
}

// NewLeaf returns a leaf node with the given identity
func NewLeaf(id, name, location string) *Node {
	return &Node{ID: id, Name: name, Kind: KindLeaf, Location: location}
}

// NewFolder returns an empty folder with the given identity
func NewFolder(id, name string) *Node {
	return &Node{ID: id, Name: name, Kind: KindFolder, Children: []string{}}
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// IsLeaf reports whether the node is a leaf
func (n *Node) IsLeaf() bool {
	return n.Kind == KindLeaf
}

// Clone returns a deep copy so callers can't alias the store's child lists
func (n *Node) Clone() Node {
	c := *n
	if n.Children != nil {
		c.Children = make([]string, len(n.Children))
		copy(c.Children, n.Children)
	}
	return c
}
