// Package gamma holds the gamma map of a reconciliation: for every host node,
// the ordered list of guest nodes placed at it.
//
// The map is produced by a reconciliation algorithm outside this module and
// is read-only from the layout's point of view. It is keyed by the stable
// node IDs assigned by [tree.New], never by pointer address, so iteration
// and lookups are deterministic.
package gamma

import (
	"slices"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Map associates host nodes with ordered guest node lists.
// The zero value is not usable; create one with [New].
type Map struct {
	images map[int][]*tree.Node
}

// New creates an empty gamma map.
func New() *Map {
	return &Map{images: make(map[int][]*tree.Node)}
}

// Set replaces the image of host. The guests slice is copied.
//
// Host and guest nodes are keyed by Node.ID, so they must come from trees
// built with [tree.New]; nodes made with tree.NewNode alone all share ID 0.
func (m *Map) Set(host *tree.Node, guests ...*tree.Node) {
	m.images[host.ID] = slices.Clone(guests)
}

// Append adds guests to the end of the image of host.
func (m *Map) Append(host *tree.Node, guests ...*tree.Node) {
	m.images[host.ID] = append(m.images[host.ID], guests...)
}

// Image returns a fresh copy of the guest nodes at host, in gamma order.
// The copy is a snapshot: callers may reorder it freely.
func (m *Map) Image(host *tree.Node) []*tree.Node {
	return slices.Clone(m.images[host.ID])
}

// Hosts returns the IDs of all host nodes with a non-empty image, sorted.
func (m *Map) Hosts() []int {
	ids := make([]int, 0, len(m.images))
	for id, img := range m.images {
		if len(img) > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the total number of (host, guest) associations.
func (m *Map) Len() int {
	n := 0
	for _, img := range m.images {
		n += len(img)
	}
	return n
}

// Validate checks the preconditions the layout relies on:
//   - no guest node appears twice in one image
//   - the images of the two children of any internal host node are disjoint
//   - every image entry is a non-nil node
//
// Violations are reported as [errors.ErrCodeInvalidGamma].
func (m *Map) Validate(host *tree.Tree) error {
	for _, h := range host.Nodes() {
		seen := make(map[int]bool)
		for i, g := range m.images[h.ID] {
			if g == nil {
				return errors.New(errors.ErrCodeInvalidGamma, "gamma(%s)[%d] is nil", h.Label(), i)
			}
			if seen[g.ID] {
				return errors.New(errors.ErrCodeInvalidGamma, "gamma(%s) lists %s twice", h.Label(), g.Label())
			}
			seen[g.ID] = true
		}
	}
	for _, h := range host.Nodes() {
		if h.Left == nil || h.Right == nil {
			continue
		}
		if err := m.checkDisjoint(h.Left, h.Right); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) checkDisjoint(left, right *tree.Node) error {
	in := make(map[int]bool, len(m.images[left.ID]))
	for _, g := range m.images[left.ID] {
		in[g.ID] = true
	}
	for _, g := range m.images[right.ID] {
		if in[g.ID] {
			return errors.New(errors.ErrCodeInvalidGamma,
				"guest %s is in both gamma(%s) and gamma(%s)", g.Label(), left.Label(), right.Label())
		}
	}
	return nil
}
