package layout

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/gamma"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

type scenario struct {
	host, guest *tree.Tree
	gamma       *gamma.Map
}

func (s scenario) host1(t *testing.T, name string) *tree.Node {
	return pick(t, s.host, name)[0]
}

func (s scenario) run(t *testing.T, opts ...Option) *Result {
	t.Helper()
	res, err := New(s.host.Root, s.guest.Root, s.gamma, opts...).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// crossingScenario is host R(X, Y) with guest top(g1(a, u(c, d)), g2(b)).
// Drawn as is, b has to cross the c/d group; with X and Y exchanged nothing
// crosses.
func crossingScenario(t *testing.T) scenario {
	t.Helper()
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	host, err := tree.New(tree.NewNode("R").SetChildren(x, y))
	if err != nil {
		t.Fatal(err)
	}
	guest := guestTree(t)

	m := gamma.New()
	m.Set(host.Root, pick(t, guest, "g1", "g2")...)
	m.Set(x, pick(t, guest, "a", "b")...)
	m.Set(y, pick(t, guest, "c", "d")...)
	return scenario{host: host, guest: guest, gamma: m}
}

// tieScenario is host R(X, Y) with guest top(a, b): both configurations
// cost nothing.
func tieScenario(t *testing.T) scenario {
	t.Helper()
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	host, err := tree.New(tree.NewNode("R").SetChildren(x, y))
	if err != nil {
		t.Fatal(err)
	}
	a, b := tree.NewNode("a"), tree.NewNode("b")
	guest, err := tree.New(tree.NewNode("top").SetChildren(a, b))
	if err != nil {
		t.Fatal(err)
	}
	m := gamma.New()
	m.Set(host.Root, guest.Root)
	m.Set(x, a)
	m.Set(y, b)
	return scenario{host: host, guest: guest, gamma: m}
}

func TestRunRotatesWhenCheaper(t *testing.T) {
	s := crossingScenario(t)
	res := s.run(t)

	if res.RegCount != 1 || res.OptCount != 0 {
		t.Errorf("RegCount, OptCount = %d, %d, want 1, 0", res.RegCount, res.OptCount)
	}
	if !s.host.Root.Rotated {
		t.Error("R not rotated")
	}
	if len(res.Levels) != 1 {
		t.Fatalf("levels = %d, want 1", len(res.Levels))
	}
	lv := res.Levels[0]
	if lv.Direct != 1 || lv.Rotated != 0 || !lv.Rotate {
		t.Errorf("level = direct %d, rotated %d, rotate %v", lv.Direct, lv.Rotated, lv.Rotate)
	}
	if lv.Groups != 3 || lv.Boundaries != 3 {
		t.Errorf("groups, boundaries = %d, %d, want 3, 3", lv.Groups, lv.Boundaries)
	}
	if want := []string{"c", "d", "a", "b"}; !slices.Equal(lv.Sigma.Names(), want) {
		t.Errorf("sigma = %v, want %v", lv.Sigma.Names(), want)
	}
	if want := []string{"c", "d", "a", "b"}; !slices.Equal(lv.Reference.Names(), want) {
		t.Errorf("reference = %v, want %v", lv.Reference.Names(), want)
	}
	if lv.Inversions != lv.Crossings {
		t.Errorf("inversions %d != crossings %d", lv.Inversions, lv.Crossings)
	}

	var got [][2]string
	for _, x := range lv.Exchanges {
		got = append(got, [2]string{x.A.Name, x.B.Name})
	}
	if want := [][2]string{{"a", "d"}, {"d", "c"}}; !slices.Equal(got, want) {
		t.Errorf("exchanges = %v, want %v", got, want)
	}

	d := pick(t, s.guest, "d")[0]
	if len(d.Swaps) != 2 || d.Swaps[0].Host != s.host.Root || d.Swaps[1].Partner.Name != "c" {
		t.Errorf("d.Swaps = %+v", d.Swaps)
	}
	for name, want := range map[string]int{"c": 0, "d": 1, "a": 2, "b": 3} {
		if got := pick(t, s.guest, name)[0].LayoutIndex; got != want {
			t.Errorf("%s.LayoutIndex = %d, want %d", name, got, want)
		}
	}
	if hosts := res.RotatedHosts(); len(hosts) != 1 || hosts[0] != s.host.Root {
		t.Errorf("RotatedHosts = %v", hosts)
	}
}

func TestRunTieRule(t *testing.T) {
	s := tieScenario(t)
	res := s.run(t)
	if s.host.Root.Rotated {
		t.Error("rotated on a tie by default")
	}
	if res.RegCount != 0 || res.OptCount != 0 {
		t.Errorf("RegCount, OptCount = %d, %d, want 0, 0", res.RegCount, res.OptCount)
	}
	if len(s.guest.Root.Left.Swaps) != 0 {
		t.Error("swaps recorded without rotation")
	}

	s.host.ResetLayout()
	s.guest.ResetLayout()
	res = s.run(t, WithRotateOnTie(true))
	if !s.host.Root.Rotated {
		t.Error("not rotated on a tie with WithRotateOnTie")
	}
	if res.OptCount != 0 {
		t.Errorf("OptCount = %d, want 0", res.OptCount)
	}
	if want := []string{"b", "a"}; !slices.Equal(res.Levels[0].Sigma.Names(), want) {
		t.Errorf("sigma = %v, want %v", res.Levels[0].Sigma.Names(), want)
	}
}

func TestRunClearsStaleRotation(t *testing.T) {
	s := tieScenario(t)
	s.host.Root.Rotated = true
	s.run(t)
	if s.host.Root.Rotated {
		t.Error("stale Rotated flag survived the run")
	}
}

func TestRunSkipsLeafHost(t *testing.T) {
	host, err := tree.New(tree.NewNode("X"))
	if err != nil {
		t.Fatal(err)
	}
	guest, err := tree.New(tree.NewNode("a"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := New(host.Root, guest.Root, gamma.New()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RegCount != 0 || len(res.Levels) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) (*tree.Node, *tree.Node, Images)
		code  errors.Code
	}{
		{
			name: "nil host",
			setup: func(t *testing.T) (*tree.Node, *tree.Node, Images) {
				return nil, tree.NewNode("g"), gamma.New()
			},
			code: errors.ErrCodeInvalidTree,
		},
		{
			name: "nil guest",
			setup: func(t *testing.T) (*tree.Node, *tree.Node, Images) {
				return tree.NewNode("h"), nil, gamma.New()
			},
			code: errors.ErrCodeInvalidTree,
		},
		{
			name: "nil gamma",
			setup: func(t *testing.T) (*tree.Node, *tree.Node, Images) {
				return tree.NewNode("h"), tree.NewNode("g"), nil
			},
			code: errors.ErrCodeInvalidGamma,
		},
		{
			name: "host node with one child",
			setup: func(t *testing.T) (*tree.Node, *tree.Node, Images) {
				s := crossingScenario(t)
				s.host1(t, "X").SetChildren(&tree.Node{ID: 99, Name: "X1"}, nil)
				return s.host.Root, s.guest.Root, s.gamma
			},
			code: errors.ErrCodeInvalidTree,
		},
		{
			name: "overlapping sibling images",
			setup: func(t *testing.T) (*tree.Node, *tree.Node, Images) {
				s := crossingScenario(t)
				s.gamma.Append(s.host1(t, "Y"), pick(t, s.guest, "a")...)
				return s.host.Root, s.guest.Root, s.gamma
			},
			code: errors.ErrCodeInvalidGamma,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, guest, images := tt.setup(t)
			_, err := New(host, guest, images).Run(context.Background())
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if host != nil && host.Rotated {
				t.Error("host modified before validation failed")
			}
		})
	}
}

func TestRunRejectsTreesWithoutIDs(t *testing.T) {
	// Without tree.New every node keeps ID 0, so gamma(X) and gamma(Y)
	// would alias the image of R.
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	r := tree.NewNode("R").SetChildren(x, y)
	a, b := tree.NewNode("a"), tree.NewNode("b")
	top := tree.NewNode("top").SetChildren(a, b)

	m := gamma.New()
	m.Set(r, top)
	m.Set(x, a)
	m.Set(y, b)

	_, err := New(r, top, m).Run(context.Background())
	if !errors.Is(err, errors.ErrCodeInvalidTree) {
		t.Fatalf("error = %v, want INVALID_TREE", err)
	}
	if !strings.Contains(err.Error(), "tree.New") {
		t.Errorf("error = %q, want a hint to use tree.New", err)
	}
	if r.Rotated {
		t.Error("host modified before validation failed")
	}

	host, err := tree.New(r)
	if err != nil {
		t.Fatal(err)
	}
	guest, err := tree.New(top)
	if err != nil {
		t.Fatal(err)
	}
	m = gamma.New()
	m.Set(r, top)
	m.Set(x, a)
	m.Set(y, b)
	if _, err := New(host.Root, guest.Root, m).Run(context.Background()); err != nil {
		t.Fatalf("Run after tree.New: %v", err)
	}
}

func TestRunUnreachableChildImage(t *testing.T) {
	s := crossingScenario(t)
	// top sits above gamma(R), so it cannot be reached from there.
	s.gamma.Append(s.host1(t, "Y"), s.guest.Root)

	_, err := New(s.host.Root, s.guest.Root, s.gamma).Run(context.Background())
	if !errors.Is(err, errors.ErrCodeLayoutInconsistency) {
		t.Fatalf("error = %v, want LAYOUT_INCONSISTENCY", err)
	}
}

func TestRunCancelled(t *testing.T) {
	s := crossingScenario(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(s.host.Root, s.guest.Root, s.gamma).Run(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if s.host.Root.Rotated {
		t.Error("host rotated after cancellation")
	}
}

// randomScenario builds a random host tree with the given number of leaves
// and a guest tree that follows it, with duplications coalesced below
// unmapped nodes and occasional losses.
func randomScenario(t *testing.T, r *rand.Rand, leaves int) scenario {
	t.Helper()
	var hostTree func(k int) *tree.Node
	hostTree = func(k int) *tree.Node {
		if k == 1 {
			return &tree.Node{}
		}
		split := 1 + r.IntN(k-1)
		return (&tree.Node{}).SetChildren(hostTree(split), hostTree(k-split))
	}
	hostRoot := hostTree(leaves)

	images := map[*tree.Node][]*tree.Node{}
	var gen func(h *tree.Node) *tree.Node
	gen = func(h *tree.Node) *tree.Node {
		x := &tree.Node{}
		images[h] = append(images[h], x)
		if h.IsLeaf() {
			return x
		}
		switch r.IntN(4) {
		case 0:
			u := (&tree.Node{}).SetChildren(gen(h.Left), gen(h.Right))
			x.SetChildren(u, gen(h.Right))
		case 1:
			x.SetChildren(gen(h.Left), nil)
		case 2:
			x.SetChildren(gen(h.Right), gen(h.Left))
		default:
			x.SetChildren(gen(h.Left), gen(h.Right))
		}
		return x
	}
	guestRoot := gen(hostRoot)

	host, err := tree.New(hostRoot)
	if err != nil {
		t.Fatal(err)
	}
	guest, err := tree.New(guestRoot)
	if err != nil {
		t.Fatal(err)
	}
	m := gamma.New()
	for h, img := range images {
		m.Set(h, img...)
	}
	if err := m.Validate(host); err != nil {
		t.Fatal(err)
	}
	return scenario{host: host, guest: guest, gamma: m}
}

func TestRunInvariantsOnRandomTrees(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		s := randomScenario(t, r, 2+r.IntN(7))
		res := s.run(t)

		if res.OptCount > res.RegCount {
			t.Fatalf("trial %d: OptCount %d > RegCount %d", trial, res.OptCount, res.RegCount)
		}
		internal := 0
		for _, h := range s.host.Nodes() {
			if !h.IsLeaf() {
				internal++
			}
		}
		if len(res.Levels) != internal {
			t.Fatalf("trial %d: %d levels for %d internal host nodes", trial, len(res.Levels), internal)
		}

		rotated := false
		for _, lv := range res.Levels {
			if lv.Inversions != lv.Crossings {
				t.Fatalf("trial %d, host %s: inversions %d != crossings %d",
					trial, lv.Host.Label(), lv.Inversions, lv.Crossings)
			}
			if lv.Crossings != min(lv.Direct, lv.Rotated) {
				t.Fatalf("trial %d, host %s: committed %d, want min(%d, %d)",
					trial, lv.Host.Label(), lv.Crossings, lv.Direct, lv.Rotated)
			}
			if lv.Rotate != lv.Host.Rotated || (lv.Rotate && lv.Rotated >= lv.Direct) {
				t.Fatalf("trial %d, host %s: inconsistent rotation", trial, lv.Host.Label())
			}
			if want := max(lv.Size-1, 0); lv.Boundaries != want {
				t.Fatalf("trial %d: %d boundaries for %d nodes", trial, lv.Boundaries, lv.Size)
			}
			rotated = rotated || lv.Rotate
		}
		if !rotated && res.OptCount != res.RegCount {
			t.Fatalf("trial %d: nothing rotated but OptCount %d != RegCount %d", trial, res.OptCount, res.RegCount)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	s := randomScenario(t, r, 8)

	snapshot := func(res *Result) []string {
		var out []string
		for _, lv := range res.Levels {
			out = append(out, lv.Host.Label())
			out = append(out, lv.Sigma.Names()...)
			for _, x := range lv.Exchanges {
				out = append(out, x.A.Label()+"<>"+x.B.Label())
			}
		}
		return out
	}
	rotations := func() []bool {
		var out []bool
		for _, h := range s.host.Nodes() {
			out = append(out, h.Rotated)
		}
		return out
	}

	first := s.run(t)
	firstSnap, firstRot := snapshot(first), rotations()

	s.host.ResetLayout()
	s.guest.ResetLayout()
	second := s.run(t)

	if first.RegCount != second.RegCount || first.OptCount != second.OptCount {
		t.Errorf("counts differ: %d/%d vs %d/%d", first.RegCount, first.OptCount, second.RegCount, second.OptCount)
	}
	if !slices.Equal(firstSnap, snapshot(second)) {
		t.Error("orderings differ between runs")
	}
	if !slices.Equal(firstRot, rotations()) {
		t.Error("rotations differ between runs")
	}
}
