package layout

import (
	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Group is a run of guest nodes that must stay adjacent at one host level.
// Guest nodes reached from a father-set node through an unbroken chain of
// guest nodes that belong to no gamma image of the level (typically
// duplications) are coalesced; Rep is the first one visited and stands for
// the whole group. Ungrouped nodes form singleton groups.
type Group struct {
	Rep     *tree.Node
	Members []*tree.Node
}

// level holds the orderings of one internal host node. It is built fresh for
// every host node and dropped when the node is done.
type level struct {
	host     *tree.Node
	leftSize int
	groups   []Group
	sigma    Order
	tau      Order
	revTau   Order
}

func (lv *level) size() int { return len(lv.sigma) }

// groupSizes returns the member counts of lv.groups in sigma order.
func (lv *level) groupSizes() []int {
	sizes := make([]int, len(lv.groups))
	for i, g := range lv.groups {
		sizes[i] = len(g.Members)
	}
	return sizes
}

// collectGroups walks the guest tree depth-first from each father-set node
// and returns the hits (nodes with a tau slot) grouped by the rules of
// [Group]. Descent stops at hits. A hit reached twice is an inconsistency.
func collectGroups(host *tree.Node, fatherSet []*tree.Node, slot map[int]int) ([]Group, error) {
	var (
		groups  []Group
		reached = make(map[int]bool, len(slot))
		fathers = make(map[int]bool, len(fatherSet))
	)
	for _, f := range fatherSet {
		fathers[f.ID] = true
	}

	var visit func(n *tree.Node, chain *Group) error
	visit = func(n *tree.Node, chain *Group) error {
		if n == nil {
			return nil
		}
		if _, hit := slot[n.ID]; hit {
			if reached[n.ID] {
				return errors.New(errors.ErrCodeLayoutInconsistency,
					"host %s: guest %s reached twice from gamma(%s)", host.Label(), n.Label(), host.Label())
			}
			reached[n.ID] = true
			if chain != nil {
				if chain.Rep == nil {
					chain.Rep = n
				}
				chain.Members = append(chain.Members, n)
				return nil
			}
			groups = append(groups, Group{Rep: n, Members: []*tree.Node{n}})
			return nil
		}

		if chain == nil && !fathers[n.ID] && !n.IsLeaf() {
			// Topmost unmapped node: everything found below is one group.
			g := &Group{}
			if err := visit(n.Left, g); err != nil {
				return err
			}
			if err := visit(n.Right, g); err != nil {
				return err
			}
			if len(g.Members) > 0 {
				groups = append(groups, *g)
			}
			return nil
		}
		if err := visit(n.Left, chain); err != nil {
			return err
		}
		return visit(n.Right, chain)
	}

	for _, f := range fatherSet {
		if err := visit(f, nil); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// buildLevel computes sigma, tau and reversed tau for host.
//
// sigma is the depth-first order in which the child-image nodes are reached
// from fatherSet; tau is leftSet followed by rightSet; reversed tau mirrors
// tau. All three are permutations of leftSet ∪ rightSet.
func buildLevel(host *tree.Node, fatherSet, leftSet, rightSet []*tree.Node) (*level, error) {
	if err := checkImage(host.Left, leftSet); err != nil {
		return nil, err
	}
	if err := checkImage(host.Right, rightSet); err != nil {
		return nil, err
	}

	n := len(leftSet) + len(rightSet)
	slot := make(map[int]int, n)
	for i, g := range leftSet {
		slot[g.ID] = i
	}
	for i, g := range rightSet {
		if _, dup := slot[g.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidGamma,
				"host %s: guest %s is in both child images", host.Label(), g.Label())
		}
		slot[g.ID] = len(leftSet) + i
	}

	groups, err := collectGroups(host, fatherSet, slot)
	if err != nil {
		return nil, err
	}

	lv := &level{
		host:     host,
		leftSize: len(leftSet),
		groups:   groups,
		sigma:    make(Order, 0, n),
		tau:      make(Order, n),
	}
	filled := make([]bool, n)
	for _, g := range groups {
		for _, m := range g.Members {
			i := len(lv.sigma)
			m.LayoutIndex = i
			lv.sigma = append(lv.sigma, Entry{Node: m, Index: i})
			s := slot[m.ID]
			lv.tau[s] = Entry{Node: m, Index: s}
			filled[s] = true
		}
	}

	if len(lv.sigma) != n {
		for i, ok := range filled {
			if !ok {
				missing := leftSet
				idx := i
				if i >= len(leftSet) {
					missing, idx = rightSet, i-len(leftSet)
				}
				return nil, errors.New(errors.ErrCodeLayoutInconsistency,
					"host %s: guest %s not reachable from gamma(%s)", host.Label(), missing[idx].Label(), host.Label())
			}
		}
	}
	lv.revTau = ReverseOrder(lv.tau, n)
	return lv, nil
}

// checkImage rejects an image that lists a guest node more than once.
func checkImage(owner *tree.Node, image []*tree.Node) error {
	seen := make(map[int]bool, len(image))
	for _, g := range image {
		if seen[g.ID] {
			label := "?"
			if owner != nil {
				label = owner.Label()
			}
			return errors.New(errors.ErrCodeInvalidGamma, "guest %s is listed twice in gamma(%s)", g.Label(), label)
		}
		seen[g.ID] = true
	}
	return nil
}
