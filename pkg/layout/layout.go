package layout

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Images is the read-only view of a gamma map the layout needs.
// Implementations must return a snapshot that the caller may keep.
type Images interface {
	Image(host *tree.Node) []*tree.Node
}

// LevelReport describes the decision taken at one internal host node.
type LevelReport struct {
	Host       *tree.Node
	Size       int  // |gamma(left)| + |gamma(right)|
	Groups     int  // merge units after coalescing
	Direct     int  // crossings with the children in tree order
	Rotated    int  // crossings with the children exchanged
	Rotate     bool // whether the rotated configuration was chosen
	Crossings  int  // crossings of the committed ordering
	Boundaries int  // merge-tree boundaries evaluated
	Inversions int  // raw inversions of the committed sigma against its reference

	Sigma     Order      // committed ordering
	Reference Order      // tau or rotated tau, whichever was chosen
	Exchanges []Exchange // swaps applied while committing
}

// Result collects the statistics of one run.
type Result struct {
	// RegCount sums the direct cost of every level, as if no host node were
	// ever rotated.
	RegCount int
	// OptCount sums the committed cost of every level. OptCount <= RegCount.
	OptCount int
	// Levels lists one report per internal host node, in post-order.
	Levels []LevelReport
}

// RotatedHosts returns the host nodes that were rotated, in post-order.
func (r *Result) RotatedHosts() []*tree.Node {
	var out []*tree.Node
	for _, lv := range r.Levels {
		if lv.Rotate {
			out = append(out, lv.Host)
		}
	}
	return out
}

type options struct {
	rotateOnTie bool
	logger      *log.Logger
}

// Option configures a [Layout].
type Option func(*options)

// WithRotateOnTie makes a host node rotate when the rotated configuration
// costs the same as the direct one. By default only a strict improvement
// rotates, so OptCount == RegCount exactly when nothing was rotated.
func WithRotateOnTie(on bool) Option {
	return func(o *options) { o.rotateOnTie = on }
}

// WithLogger sets the logger used for per-level debug output.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Layout is one layout run over a host subtree. It owns all per-run state;
// separate Layout values never interfere. A Layout is not safe for concurrent
// use, and no other goroutine may touch the trees while it runs.
type Layout struct {
	host   *tree.Node
	guest  *tree.Node
	images Images
	opts   options
}

// New prepares a layout of the host subtree rooted at host. guest is the
// guest tree root; images supplies gamma.
//
// Nodes are identified by Node.ID, so both trees must carry the IDs assigned
// by [tree.New]. Hand-built nodes all have ID 0 and are rejected by Run.
func New(host, guest *tree.Node, images Images, opts ...Option) *Layout {
	o := options{logger: log.NewWithOptions(io.Discard, log.Options{})}
	for _, opt := range opts {
		opt(&o)
	}
	return &Layout{host: host, guest: guest, images: images, opts: o}
}

// Run validates the input, then visits every internal host node children
// first and commits the cheaper of the direct and rotated orderings. A host
// node rotates only when that strictly lowers its crossings; with
// [WithRotateOnTie] it rotates whenever direct >= rotated, so an equal cost
// also rotates.
//
// Outputs are written to the trees: Rotated on host nodes, LayoutIndex and
// Swaps on guest nodes. Swap lists are appended to, so call
// [tree.Tree.ResetLayout] before laying out the same trees twice.
//
// The first error aborts the walk; host nodes above the failing one keep
// their previous state. The context is checked between host nodes.
func (l *Layout) Run(ctx context.Context) (*Result, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	err := tree.PostOrder(l.host, func(father *tree.Node) error {
		if father.IsLeaf() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := l.process(father)
		if err != nil {
			return err
		}
		res.RegCount += report.Direct
		res.OptCount += report.Crossings
		res.Levels = append(res.Levels, report)

		l.opts.logger.Debug("host level",
			"host", father.Label(),
			"size", report.Size,
			"groups", report.Groups,
			"direct", report.Direct,
			"rotated", report.Rotated,
			"rotate", report.Rotate,
			"swaps", len(report.Exchanges))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// validate checks the preconditions the walk relies on.
func (l *Layout) validate() error {
	if l.host == nil {
		return errors.New(errors.ErrCodeInvalidTree, "host tree is empty")
	}
	if l.guest == nil {
		return errors.New(errors.ErrCodeInvalidTree, "guest tree is empty")
	}
	if l.images == nil {
		return errors.New(errors.ErrCodeInvalidGamma, "gamma map is missing")
	}
	if err := uniqueIDs("host", l.host); err != nil {
		return err
	}
	if err := uniqueIDs("guest", l.guest); err != nil {
		return err
	}
	return tree.PostOrder(l.host, func(h *tree.Node) error {
		if h.IsUnary() {
			return errors.New(errors.ErrCodeInvalidTree, "host node %s has exactly one child", h.Label())
		}
		if h.IsLeaf() {
			return nil
		}
		left := make(map[int]bool)
		for _, g := range l.images.Image(h.Left) {
			left[g.ID] = true
		}
		for _, g := range l.images.Image(h.Right) {
			if left[g.ID] {
				return errors.New(errors.ErrCodeInvalidGamma,
					"guest %s is in both gamma(%s) and gamma(%s)", g.Label(), h.Left.Label(), h.Right.Label())
			}
		}
		return nil
	})
}

// uniqueIDs rejects a tree in which two nodes share an ID.
func uniqueIDs(which string, root *tree.Node) error {
	seen := make(map[int]*tree.Node)
	var dup [2]*tree.Node
	tree.PreOrder(root, func(n *tree.Node) {
		if prev, ok := seen[n.ID]; ok && dup[0] == nil {
			dup = [2]*tree.Node{prev, n}
		}
		seen[n.ID] = n
	})
	if dup[0] != nil {
		return errors.New(errors.ErrCodeInvalidTree,
			"%s nodes %s and %s share ID %d; build the tree with tree.New", which, dup[0].Label(), dup[1].Label(), dup[0].ID)
	}
	return nil
}

// process handles one internal host node.
func (l *Layout) process(father *tree.Node) (LevelReport, error) {
	leftSet := l.images.Image(father.Left)
	rightSet := l.images.Image(father.Right)
	fatherSet := l.images.Image(father)

	lv, err := buildLevel(father, fatherSet, leftSet, rightSet)
	if err != nil {
		return LevelReport{}, err
	}
	n := lv.size()
	sizes := lv.groupSizes()

	direct, err := l.count(lv, lv.tau, lv.revTau, sizes)
	if err != nil {
		return LevelReport{}, err
	}
	rotTau := RotateOrder(lv.tau, n, lv.leftSize)
	revRotTau := ReverseOrder(rotTau, n)
	rotated, err := l.count(lv, rotTau, revRotTau, sizes)
	if err != nil {
		return LevelReport{}, err
	}

	rotate := rotated.Crossings < direct.Crossings ||
		(l.opts.rotateOnTie && rotated.Crossings == direct.Crossings && n > 0)
	father.Rotated = rotate
	ref, rev := lv.tau, lv.revTau
	if rotate {
		ref, rev = rotTau, revRotTau
	}

	ev := evaluator{sigma: lv.sigma, ref: ref.positions(), rev: rev.positions(), host: father, write: true}
	committed, err := ev.run(sizes)
	if err != nil {
		return LevelReport{}, err
	}

	return LevelReport{
		Host:       father,
		Size:       n,
		Groups:     len(lv.groups),
		Direct:     direct.Crossings,
		Rotated:    rotated.Crossings,
		Rotate:     rotate,
		Crossings:  committed.Crossings,
		Boundaries: committed.Boundaries,
		Inversions: CountInversions(lv.sigma, ref),
		Sigma:      lv.sigma,
		Reference:  ref,
		Exchanges:  ev.exchanges,
	}, nil
}

func (l *Layout) count(lv *level, ref, rev Order, sizes []int) (Evaluation, error) {
	ev := evaluator{sigma: lv.sigma, ref: ref.positions(), rev: rev.positions(), host: lv.host}
	return ev.run(sizes)
}
