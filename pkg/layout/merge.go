package layout

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/matzehuels/reconlayout/pkg/errors"
)

const none = -1

// mergeNode is a vertex of the merge tree. Leaves point at a sigma position;
// internal nodes join two adjacent blocks. Every node covers the sigma range
// [lo, hi) it was built over.
type mergeNode struct {
	left, right int
	leaf        int
	lo, hi      int
}

func (m mergeNode) isLeaf() bool { return m.left == none && m.right == none }

// mergeTree is a tournament tree built over one level's sigma. It lives in
// its own arena, so nothing from an earlier level can leak into a later one.
type mergeTree struct {
	nodes []mergeNode
	root  int
}

// newMergeTree builds the merge tree over n sigma positions split into
// consecutive units of the given sizes. Each unit is merged into its own
// subtree first; the unit roots are then paired left to right, round after
// round, an odd unit out being carried into the next round.
func newMergeTree(sizes []int) *mergeTree {
	t := &mergeTree{root: none}
	units := make([]int, 0, len(sizes))
	pos := 0
	for _, size := range sizes {
		leaves := make([]int, size)
		for k := range leaves {
			leaves[k] = t.add(mergeNode{left: none, right: none, leaf: pos, lo: pos, hi: pos + 1})
			pos++
		}
		if size > 0 {
			units = append(units, t.tournament(leaves))
		}
	}
	t.root = t.tournament(units)
	return t
}

func (t *mergeTree) add(m mergeNode) int {
	t.nodes = append(t.nodes, m)
	return len(t.nodes) - 1
}

func (t *mergeTree) tournament(items []int) int {
	if len(items) == 0 {
		return none
	}
	for len(items) > 1 {
		next := make([]int, 0, (len(items)+1)/2)
		for i := 0; i+1 < len(items); i += 2 {
			l, r := items[i], items[i+1]
			next = append(next, t.add(mergeNode{
				left: l, right: r, leaf: none,
				lo: t.nodes[l].lo, hi: t.nodes[r].hi,
			}))
		}
		if len(items)%2 == 1 {
			next = append(next, items[len(items)-1])
		}
		items = next
	}
	return items[0]
}

// internal returns the number of internal nodes.
func (t *mergeTree) internal() int {
	n := 0
	for _, m := range t.nodes {
		if !m.isLeaf() {
			n++
		}
	}
	return n
}

// walk visits the internal nodes children first. It descends the leftmost
// chain from the root before anything else, so the first node visited is the
// merge parent of sigma[0].
func (t *mergeTree) walk(fn func(idx int) error) error {
	if t.root == none {
		return nil
	}
	type frame struct {
		idx      int
		expanded bool
	}
	stack := arraystack.New()
	stack.Push(frame{idx: t.root})
	for !stack.Empty() {
		v, _ := stack.Pop()
		f := v.(frame)
		if f.idx == none {
			return errors.New(errors.ErrCodeLayoutInconsistency, "merge tree has a dangling child")
		}
		m := t.nodes[f.idx]
		if m.isLeaf() {
			continue
		}
		if f.expanded {
			if err := fn(f.idx); err != nil {
				return err
			}
			continue
		}
		stack.Push(frame{idx: f.idx, expanded: true})
		stack.Push(frame{idx: m.right})
		stack.Push(frame{idx: m.left})
	}
	return nil
}

// boundary follows right (or left) links from idx down to a leaf and returns
// that leaf. A missing link or a leaf outside [0, n) means the tree is
// corrupt.
func (t *mergeTree) boundary(idx int, rightmost bool, n int) (mergeNode, error) {
	for idx != none {
		m := t.nodes[idx]
		if m.isLeaf() {
			if m.leaf < 0 || m.leaf >= n {
				break
			}
			return m, nil
		}
		if rightmost {
			idx = m.right
		} else {
			idx = m.left
		}
	}
	return mergeNode{}, errors.New(errors.ErrCodeLayoutInconsistency, "merge tree boundary walk found no ordered node")
}
