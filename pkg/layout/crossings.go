package layout

import (
	"slices"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Evaluation is the outcome of one crossing evaluation.
type Evaluation struct {
	// Crossings is the total over all merge-tree boundaries of the cheaper of
	// the tau and reversed-tau crossing counts.
	Crossings int
	// Boundaries is the number of merge-tree boundaries evaluated.
	Boundaries int
}

// Exchange is one position swap applied while committing an ordering.
type Exchange struct {
	A, B *tree.Node
}

// CountCrossings evaluates sigma against the reference pair (tau, reversedTau)
// without modifying anything. Every sigma entry is its own merge unit.
//
// A merge tree is built over sigma; at each internal merge node the crossings
// between its left and right block are counted against tau and against
// reversedTau and the smaller count is kept, i.e. each boundary may be
// mirrored independently. For identical orders the result is 0, and so it is
// when tau is sigma reversed.
//
// The three orderings must be permutations of the same nodes; otherwise an
// INVALID_INPUT error is returned.
func CountCrossings(sigma, tau, reversedTau Order) (Evaluation, error) {
	if err := checkPermutation(sigma, tau, reversedTau); err != nil {
		return Evaluation{}, err
	}
	ev := evaluator{sigma: sigma, ref: tau.positions(), rev: reversedTau.positions()}
	return ev.run(unitSizes(len(sigma)))
}

// CommitOrder evaluates like [CountCrossings] and additionally realises the
// cheaper side: wherever reversedTau is strictly cheaper at a boundary, the
// two sibling blocks are exchanged in sigma, in place. Each exchange updates
// the nodes' LayoutIndex and appends a [tree.Swap] tagged with host to both
// nodes. The exchanges are returned in the order they were applied.
//
// Afterwards CountInversions(sigma, tau) equals the returned crossing count.
func CommitOrder(host *tree.Node, sigma, tau, reversedTau Order) (Evaluation, []Exchange, error) {
	if err := checkPermutation(sigma, tau, reversedTau); err != nil {
		return Evaluation{}, nil, err
	}
	ev := evaluator{sigma: sigma, ref: tau.positions(), rev: reversedTau.positions(), host: host, write: true}
	res, err := ev.run(unitSizes(len(sigma)))
	return res, ev.exchanges, err
}

func unitSizes(n int) []int {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = 1
	}
	return sizes
}

// evaluator carries the state of one evaluation. It is used once and thrown
// away; nothing in it outlives the call.
type evaluator struct {
	sigma Order
	ref   map[int]int // node ID -> position in tau
	rev   map[int]int // node ID -> position in reversed tau
	host  *tree.Node
	write bool
	tree  *mergeTree

	exchanges []Exchange
}

func (ev *evaluator) run(sizes []int) (Evaluation, error) {
	var res Evaluation
	ev.tree = newMergeTree(sizes)
	n := len(ev.sigma)

	err := ev.tree.walk(func(idx int) error {
		m := ev.tree.nodes[idx]
		last, err := ev.tree.boundary(m.left, true, n)
		if err != nil {
			return err
		}
		z := last.hi - 1
		maxToCompute := m.hi

		direct := ev.computeCrossing(ev.ref, m.lo, z, maxToCompute)
		mirrored := ev.computeCrossing(ev.rev, m.lo, z, maxToCompute)
		res.Boundaries++
		res.Crossings += min(direct, mirrored)

		if ev.write && mirrored < direct {
			return ev.rotateBinary(idx)
		}
		return nil
	})
	if err != nil {
		return Evaluation{}, err
	}
	return res, nil
}

// computeCrossing counts the pairs (a, b) with a in sigma[lo..z] and b in
// sigma(z..maxToCompute) whose reference positions are inverted. Both blocks
// are sorted by reference position and merged, so a boundary costs
// O(k log k) for a block of k nodes.
func (ev *evaluator) computeCrossing(pos map[int]int, lo, z, maxToCompute int) int {
	left := make([]int, 0, z-lo+1)
	for _, e := range ev.sigma[lo : z+1] {
		left = append(left, pos[e.Node.ID])
	}
	right := make([]int, 0, maxToCompute-z-1)
	for _, e := range ev.sigma[z+1 : maxToCompute] {
		right = append(right, pos[e.Node.ID])
	}
	slices.Sort(left)
	slices.Sort(right)

	crossings, j := 0, 0
	for _, p := range left {
		for j < len(right) && right[j] < p {
			j++
		}
		crossings += j
	}
	return crossings
}

// rotateBinary exchanges the left and right block of merge node idx in sigma.
//
// The four boundary nodes (both ends of both blocks) are located by walking
// merge links down to ordered nodes first; if any walk fails, or the blocks
// are not adjacent, nothing is modified and a LAYOUT_INCONSISTENCY error is
// returned.
//
// Blocks of unequal length are exchanged element by element: the shorter
// block is swapped with the far end of the longer one, which leaves one block
// in its final place, and the remainder is handled the same way.
func (ev *evaluator) rotateBinary(idx int) error {
	m := ev.tree.nodes[idx]
	n := len(ev.sigma)
	leftFirst, err := ev.tree.boundary(m.left, false, n)
	if err != nil {
		return err
	}
	leftLast, err := ev.tree.boundary(m.left, true, n)
	if err != nil {
		return err
	}
	rightFirst, err := ev.tree.boundary(m.right, false, n)
	if err != nil {
		return err
	}
	rightLast, err := ev.tree.boundary(m.right, true, n)
	if err != nil {
		return err
	}
	if leftLast.hi != rightFirst.lo || leftFirst.lo > leftLast.lo || rightFirst.lo > rightLast.lo {
		return errors.New(errors.ErrCodeLayoutInconsistency,
			"host %s: merge blocks [%d,%d) and [%d,%d) are not adjacent",
			ev.host.Label(), leftFirst.lo, leftLast.hi, rightFirst.lo, rightLast.hi)
	}

	lo, mid, hi := leftFirst.lo, rightFirst.lo, rightLast.hi
	for lo < mid && mid < hi {
		la, lb := mid-lo, hi-mid
		switch {
		case la == lb:
			for k := 0; k < la; k++ {
				ev.exchange(lo+k, mid+k)
			}
			return nil
		case la < lb:
			for k := 0; k < la; k++ {
				ev.exchange(lo+k, hi-la+k)
			}
			hi -= la
		default:
			for k := 0; k < lb; k++ {
				ev.exchange(lo+k, mid+k)
			}
			lo += lb
		}
	}
	return nil
}

func (ev *evaluator) exchange(i, j int) {
	a, b := ev.sigma[i].Node, ev.sigma[j].Node
	ev.sigma[i] = Entry{Node: b, Index: i}
	ev.sigma[j] = Entry{Node: a, Index: j}
	a.LayoutIndex, b.LayoutIndex = j, i
	a.Swaps = append(a.Swaps, tree.Swap{Host: ev.host, Partner: b})
	b.Swaps = append(b.Swaps, tree.Swap{Host: ev.host, Partner: a})
	ev.exchanges = append(ev.exchanges, Exchange{A: a, B: b})
}
