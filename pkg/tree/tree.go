package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNilRoot is returned by [New] when the root node is nil.
	ErrNilRoot = errors.New("tree root must not be nil")

	// ErrDuplicateName is returned by [New] when two named nodes share a name.
	// Unnamed nodes are allowed to repeat.
	ErrDuplicateName = errors.New("duplicate node name")

	// ErrNotBinary is returned by [Tree.ValidateBinary] when a node has
	// exactly one child.
	ErrNotBinary = errors.New("node has exactly one child")

	// ErrSharedNode is returned by [New] when a node is reachable twice,
	// which means the input is a DAG rather than a tree.
	ErrSharedNode = errors.New("node reachable from two parents")
)

// Swap records that a guest node exchanged its drawing position with Partner
// while the layout processed host node Host. Swap lists are append-only; a
// renderer replays them in order.
type Swap struct {
	Host    *Node
	Partner *Node
}

// Node is a vertex of a rooted binary tree. The same type serves host and
// guest trees; the layout fields are only meaningful for one of them.
//
// The zero value is a usable unnamed leaf.
type Node struct {
	ID   int    // Pre-order index assigned by New
	Name string // Optional label (unique among named nodes)

	Parent *Node
	Left   *Node
	Right  *Node

	// Rotated is set on internal host nodes whose children should be drawn
	// right-to-left.
	Rotated bool

	// LayoutIndex is the node's position within the ordering of the host
	// level currently being processed. It is overwritten at every level.
	LayoutIndex int

	// Swaps lists the position exchanges applied to this guest node.
	Swaps []Swap
}

// NewNode returns a detached node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// SetChildren links left and right below n, replacing any previous children.
// Either argument may be nil.
func (n *Node) SetChildren(left, right *Node) *Node {
	n.Left, n.Right = left, right
	if left != nil {
		left.Parent = n
	}
	if right != nil {
		right.Parent = n
	}
	return n
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// IsUnary reports whether n has exactly one child.
func (n *Node) IsUnary() bool { return (n.Left == nil) != (n.Right == nil) }

// Children returns the non-nil children of n, left first.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, 2)
	if n.Left != nil {
		out = append(out, n.Left)
	}
	if n.Right != nil {
		out = append(out, n.Right)
	}
	return out
}

// Label returns the node name, or "#<id>" for unnamed nodes.
func (n *Node) Label() string {
	if n == nil {
		return "<nil>"
	}
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("#%d", n.ID)
}

// String implements fmt.Stringer.
func (n *Node) String() string { return n.Label() }

// Tree owns a set of nodes reachable from Root and indexes them by ID and
// name. Tree is not safe for concurrent use.
type Tree struct {
	Root   *Node
	nodes  []*Node
	byName map[string]*Node
}

// New indexes the tree rooted at root. Nodes receive IDs in pre-order, so
// the numbering depends only on the shape and never on memory addresses.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	t := &Tree{Root: root, byName: make(map[string]*Node)}
	seen := make(map[*Node]bool)
	var walk func(n, parent *Node) error
	walk = func(n, parent *Node) error {
		if seen[n] {
			return fmt.Errorf("%w: %s", ErrSharedNode, n.Label())
		}
		seen[n] = true
		n.ID = len(t.nodes)
		n.Parent = parent
		t.nodes = append(t.nodes, n)
		if n.Name != "" {
			if _, dup := t.byName[n.Name]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateName, n.Name)
			}
			t.byName[n.Name] = n
		}
		for _, c := range n.Children() {
			if err := walk(c, n); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, nil); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns all nodes in pre-order. The slice must not be modified.
func (t *Tree) Nodes() []*Node { return t.nodes }

// Node returns the node with the given ID, or nil.
func (t *Tree) Node(id int) *Node {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// ByName returns the node with the given name.
func (t *Tree) ByName(name string) (*Node, bool) {
	n, ok := t.byName[name]
	return n, ok
}

// Leaves returns the leaves in left-to-right order.
func (t *Tree) Leaves() []*Node {
	var out []*Node
	for _, n := range t.nodes {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

// ValidateBinary checks that every node has zero or two children.
// Host trees must satisfy this; guest trees may contain unary chains.
func (t *Tree) ValidateBinary() error {
	for _, n := range t.nodes {
		if n.IsUnary() {
			return fmt.Errorf("%w: %s", ErrNotBinary, n.Label())
		}
	}
	return nil
}

// ResetLayout clears all layout output (rotation flags, indices and swap
// lists) so the tree can be laid out again.
func (t *Tree) ResetLayout() {
	for _, n := range t.nodes {
		n.Rotated = false
		n.LayoutIndex = 0
		n.Swaps = nil
	}
}

// PreOrder calls fn for every node below (and including) n, parents first.
func PreOrder(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	PreOrder(n.Left, fn)
	PreOrder(n.Right, fn)
}

// PostOrder calls fn for every node below (and including) n, children first.
// Returning an error stops the walk.
func PostOrder(n *Node, fn func(*Node) error) error {
	if n == nil {
		return nil
	}
	if err := PostOrder(n.Left, fn); err != nil {
		return err
	}
	if err := PostOrder(n.Right, fn); err != nil {
		return err
	}
	return fn(n)
}
