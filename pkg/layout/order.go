package layout

import (
	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Entry is one slot of an ordering: a guest node and the index recorded for
// it when the ordering was built. Reordering helpers move entries without
// touching Index.
type Entry struct {
	Node  *tree.Node
	Index int
}

// Order is a left-to-right sequence of guest nodes at one host level.
type Order []Entry

// Nodes returns the nodes of o in order.
func (o Order) Nodes() []*tree.Node {
	out := make([]*tree.Node, len(o))
	for i, e := range o {
		out[i] = e.Node
	}
	return out
}

// Names returns the node labels of o in order. Handy in logs and tests.
func (o Order) Names() []string {
	out := make([]string, len(o))
	for i, e := range o {
		out[i] = e.Node.Label()
	}
	return out
}

// positions maps node IDs to their index in o.
func (o Order) positions() map[int]int {
	pos := make(map[int]int, len(o))
	for i, e := range o {
		pos[e.Node.ID] = i
	}
	return pos
}

// NewOrder wraps nodes in an Order whose indices are their positions.
func NewOrder(nodes ...*tree.Node) Order {
	o := make(Order, len(nodes))
	for i, n := range nodes {
		o[i] = Entry{Node: n, Index: i}
	}
	return o
}

// RotateOrder returns a new ordering with the two contiguous halves of
// delta[:n] exchanged: delta[leftSize:n] first, then delta[:leftSize]. Neither
// half is reversed. It panics if leftSize is outside [0, n], like slicing.
//
// Rotating twice with complementary sizes restores the input:
//
//	RotateOrder(RotateOrder(x, n, k), n, n-k) == x
func RotateOrder(delta Order, n, leftSize int) Order {
	out := make(Order, 0, n)
	out = append(out, delta[leftSize:n]...)
	out = append(out, delta[:leftSize]...)
	return out
}

// ReverseOrder returns a new ordering holding delta[:n] back to front.
func ReverseOrder(delta Order, n int) Order {
	out := make(Order, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = delta[i]
	}
	return out
}

// checkPermutation verifies that every ordering holds the same nodes as sigma
// exactly once.
func checkPermutation(sigma Order, refs ...Order) error {
	want := sigma.positions()
	if len(want) != len(sigma) {
		return errors.New(errors.ErrCodeInvalidInput, "ordering lists a node twice")
	}
	for _, ref := range refs {
		if len(ref) != len(sigma) {
			return errors.New(errors.ErrCodeInvalidInput,
				"reference ordering has %d entries, want %d", len(ref), len(sigma))
		}
		seen := make(map[int]bool, len(ref))
		for _, e := range ref {
			if _, ok := want[e.Node.ID]; !ok || seen[e.Node.ID] {
				return errors.New(errors.ErrCodeInvalidInput,
					"reference ordering is not a permutation (at %s)", e.Node.Label())
			}
			seen[e.Node.ID] = true
		}
	}
	return nil
}

// CountInversions returns the number of node pairs whose relative order in
// order differs from their relative order in ref, i.e. the edge crossings of a
// two-layer drawing connecting both orderings. Nodes missing from ref are
// ignored.
//
// It uses a Fenwick tree, so it runs in O(n log n). Unlike the merge-tree
// evaluation it never mirrors anything, which makes it the baseline a
// committed ordering is checked against.
func CountInversions(order, ref Order) int {
	pos := ref.positions()
	fenwick := make([]int, len(ref)+1)
	crossings, total := 0, 0
	for _, e := range order {
		p, ok := pos[e.Node.ID]
		if !ok {
			continue
		}
		// Entries seen so far with a reference position <= p
		lessOrEqual := 0
		for q := p + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := p + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
