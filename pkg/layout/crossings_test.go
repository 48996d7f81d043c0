package layout

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

func TestCountCrossingsIdentityAndMirror(t *testing.T) {
	g := guests("A", "B", "C", "D")
	sigma := NewOrder(g...)

	tau := NewOrder(g...)
	ev, err := CountCrossings(sigma, tau, ReverseOrder(tau, 4))
	if err != nil {
		t.Fatalf("CountCrossings: %v", err)
	}
	if ev.Crossings != 0 {
		t.Errorf("identical orders: crossings = %d, want 0", ev.Crossings)
	}

	// tau fully reversed: reversed tau equals sigma, so every boundary
	// prefers the mirrored interpretation.
	tau = NewOrder(g[3], g[2], g[1], g[0])
	rev := ReverseOrder(tau, 4)
	if !slices.Equal(rev.Nodes(), sigma.Nodes()) {
		t.Fatalf("reversed tau = %v, want sigma", rev.Names())
	}
	ev, err = CountCrossings(sigma, tau, rev)
	if err != nil {
		t.Fatalf("CountCrossings: %v", err)
	}
	if ev.Crossings != 0 {
		t.Errorf("reversed tau: crossings = %d, want 0", ev.Crossings)
	}
	if ev.Boundaries != 3 {
		t.Errorf("boundaries = %d, want 3", ev.Boundaries)
	}
}

func TestCountCrossingsTwoNodes(t *testing.T) {
	g := guests("A", "B")
	sigma := NewOrder(g...)
	tau := NewOrder(g[1], g[0])

	ev, err := CountCrossings(sigma, tau, ReverseOrder(tau, 2))
	if err != nil {
		t.Fatalf("CountCrossings: %v", err)
	}
	if ev.Boundaries != 1 {
		t.Errorf("boundaries = %d, want exactly 1", ev.Boundaries)
	}
	if ev.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", ev.Crossings)
	}
}

func TestCountCrossingsTrivial(t *testing.T) {
	g := guests("A")
	one := NewOrder(g...)
	ev, err := CountCrossings(one, one, one)
	if err != nil || ev != (Evaluation{}) {
		t.Errorf("single node: %+v, %v", ev, err)
	}
	ev, err = CountCrossings(nil, nil, nil)
	if err != nil || ev != (Evaluation{}) {
		t.Errorf("empty: %+v, %v", ev, err)
	}
}

func TestCountCrossingsRejectsNonPermutations(t *testing.T) {
	g := guests("A", "B", "C")
	sigma := NewOrder(g...)

	tests := []struct {
		name string
		tau  Order
	}{
		{"short", NewOrder(g[0], g[1])},
		{"duplicate", NewOrder(g[0], g[0], g[1])},
		{"foreign", NewOrder(g[0], g[1], &tree.Node{ID: 42, Name: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CountCrossings(sigma, tt.tau, ReverseOrder(tt.tau, len(tt.tau)))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestCountCrossingsIsRepeatable(t *testing.T) {
	g := guests("a", "b", "c", "d", "e", "f", "g")
	sigma := NewOrder(g[3], g[0], g[6], g[2], g[5], g[1], g[4])
	tau := NewOrder(g...)
	rev := ReverseOrder(tau, len(tau))

	first, err := CountCrossings(sigma, tau, rev)
	if err != nil {
		t.Fatalf("CountCrossings: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := CountCrossings(sigma, tau, rev)
		if again != first {
			t.Fatalf("run %d = %+v, want %+v", i, again, first)
		}
	}
}

func TestCommitOrderMatchesCount(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	host := &tree.Node{ID: 0, Name: "H"}

	for trial := 0; trial < 200; trial++ {
		n := 1 + r.IntN(12)
		g := make([]*tree.Node, n)
		for i := range g {
			g[i] = &tree.Node{ID: i}
		}
		tau := NewOrder(g...)
		rev := ReverseOrder(tau, n)
		perm := r.Perm(n)
		sigmaNodes := make([]*tree.Node, n)
		for i, p := range perm {
			sigmaNodes[i] = g[p]
		}
		sigma := NewOrder(sigmaNodes...)
		start := slices.Clone(sigma)

		counted, err := CountCrossings(sigma, tau, rev)
		if err != nil {
			t.Fatalf("CountCrossings: %v", err)
		}
		if !slices.Equal(sigma, start) {
			t.Fatal("CountCrossings modified sigma")
		}

		committed, exchanges, err := CommitOrder(host, sigma, tau, rev)
		if err != nil {
			t.Fatalf("CommitOrder: %v", err)
		}
		if committed != counted {
			t.Fatalf("trial %d: commit %+v != count %+v", trial, committed, counted)
		}
		if got := CountInversions(sigma, tau); got != committed.Crossings {
			t.Fatalf("trial %d: inversions after commit = %d, want %d", trial, got, committed.Crossings)
		}
		if committed.Crossings > CountInversions(start, tau) {
			t.Fatalf("trial %d: commit made things worse", trial)
		}

		// Replaying the exchanges on the starting order reproduces sigma.
		replay := start.Nodes()
		for _, x := range exchanges {
			i, j := slices.Index(replay, x.A), slices.Index(replay, x.B)
			replay[i], replay[j] = replay[j], replay[i]
		}
		if !slices.Equal(replay, sigma.Nodes()) {
			t.Fatalf("trial %d: replay = %v, want %v", trial, replay, sigma.Nodes())
		}
		for i, e := range sigma {
			if e.Index != i {
				t.Fatalf("trial %d: entry %d has index %d", trial, i, e.Index)
			}
		}
	}
}

func TestCommitOrderRecordsSwaps(t *testing.T) {
	g := guests("a", "b", "c")
	host := &tree.Node{ID: 9, Name: "H"}
	sigma := NewOrder(g[2], g[0], g[1])
	tau := NewOrder(g...)

	// [c a] is mirrored at the first boundary; the second one is a tie
	// and stays put.
	ev, exchanges, err := CommitOrder(host, sigma, tau, ReverseOrder(tau, 3))
	if err != nil {
		t.Fatalf("CommitOrder: %v", err)
	}
	if ev.Crossings != 1 {
		t.Errorf("crossings = %d, want 1", ev.Crossings)
	}
	if want := []string{"a", "c", "b"}; !slices.Equal(sigma.Names(), want) {
		t.Errorf("sigma = %v, want %v", sigma.Names(), want)
	}
	if len(exchanges) != 1 || exchanges[0].A != g[2] || exchanges[0].B != g[0] {
		t.Fatalf("exchanges = %v, want [(c a)]", exchanges)
	}
	if g[0].LayoutIndex != 0 || g[2].LayoutIndex != 1 {
		t.Errorf("layout indices a=%d c=%d, want 0 1", g[0].LayoutIndex, g[2].LayoutIndex)
	}
	for _, n := range g {
		for _, s := range n.Swaps {
			if s.Host != host {
				t.Errorf("swap on %s tagged with %v, want H", n.Name, s.Host)
			}
		}
	}
	if len(g[2].Swaps) == 0 {
		t.Error("moved node c has no swap instructions")
	}
}

func TestRotateBinaryBlockSizes(t *testing.T) {
	for la := 1; la <= 4; la++ {
		for lb := 1; lb <= 4; lb++ {
			n := la + lb
			g := make([]*tree.Node, n)
			for i := range g {
				g[i] = &tree.Node{ID: i}
			}
			ev := evaluator{sigma: NewOrder(g...), host: &tree.Node{Name: "H"}, write: true}
			ev.tree = &mergeTree{root: none}
			left := ev.tree.chain(0, la)
			right := ev.tree.chain(la, n)
			root := ev.tree.add(mergeNode{left: left, right: right, leaf: none, lo: 0, hi: n})

			if err := ev.rotateBinary(root); err != nil {
				t.Fatalf("la=%d lb=%d: %v", la, lb, err)
			}
			want := append(slices.Clone(g[la:]), g[:la]...)
			if !slices.Equal(ev.sigma.Nodes(), want) {
				t.Errorf("la=%d lb=%d: sigma = %v, want %v", la, lb, ev.sigma.Nodes(), want)
			}
		}
	}
}

// chain builds a left-leaning subtree over [lo, hi) for tests.
func (t *mergeTree) chain(lo, hi int) int {
	idx := t.add(mergeNode{left: none, right: none, leaf: lo, lo: lo, hi: lo + 1})
	for p := lo + 1; p < hi; p++ {
		leaf := t.add(mergeNode{left: none, right: none, leaf: p, lo: p, hi: p + 1})
		idx = t.add(mergeNode{left: idx, right: leaf, leaf: none, lo: lo, hi: p + 1})
	}
	return idx
}

func TestRotateBinaryCorruptTree(t *testing.T) {
	g := guests("a", "b", "c")
	host := &tree.Node{Name: "H"}

	tests := []struct {
		name  string
		build func(mt *mergeTree) int
	}{
		{
			name: "dangling left link",
			build: func(mt *mergeTree) int {
				leaf := mt.add(mergeNode{left: none, right: none, leaf: 2, lo: 2, hi: 3})
				half := mt.add(mergeNode{left: none, right: leaf, leaf: none, lo: 0, hi: 2})
				return mt.add(mergeNode{left: half, right: leaf, leaf: none, lo: 0, hi: 3})
			},
		},
		{
			name: "leaf outside sigma",
			build: func(mt *mergeTree) int {
				a := mt.add(mergeNode{left: none, right: none, leaf: 7, lo: 7, hi: 8})
				b := mt.add(mergeNode{left: none, right: none, leaf: 1, lo: 1, hi: 2})
				return mt.add(mergeNode{left: a, right: b, leaf: none, lo: 0, hi: 2})
			},
		},
		{
			name: "blocks not adjacent",
			build: func(mt *mergeTree) int {
				a := mt.add(mergeNode{left: none, right: none, leaf: 0, lo: 0, hi: 1})
				c := mt.add(mergeNode{left: none, right: none, leaf: 2, lo: 2, hi: 3})
				return mt.add(mergeNode{left: a, right: c, leaf: none, lo: 0, hi: 3})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigma := NewOrder(g...)
			ev := evaluator{sigma: sigma, host: host, write: true, tree: &mergeTree{root: none}}
			root := tt.build(ev.tree)

			err := ev.rotateBinary(root)
			if !errors.Is(err, errors.ErrCodeLayoutInconsistency) {
				t.Fatalf("error = %v, want LAYOUT_INCONSISTENCY", err)
			}
			if want := []string{"a", "b", "c"}; !slices.Equal(sigma.Names(), want) {
				t.Errorf("sigma modified: %v", sigma.Names())
			}
			for _, n := range g {
				if len(n.Swaps) != 0 {
					t.Errorf("%s got swaps after aborted rotation", n.Name)
				}
			}
		})
	}
}

func TestMergeTreeKeepsGroupsTogether(t *testing.T) {
	// Units: [0] [1 2] [3]. The group must be one subtree.
	mt := newMergeTree([]int{1, 2, 1})
	if got := mt.internal(); got != 3 {
		t.Fatalf("internal nodes = %d, want 3", got)
	}

	var spans [][2]int
	_ = mt.walk(func(idx int) error {
		m := mt.nodes[idx]
		spans = append(spans, [2]int{m.lo, m.hi})
		return nil
	})
	want := [][2]int{{1, 3}, {0, 3}, {0, 4}}
	if !slices.Equal(spans, want) {
		t.Errorf("walk spans = %v, want %v", spans, want)
	}
}

func TestMergeTreeWalkStartsAtFirstParent(t *testing.T) {
	mt := newMergeTree(unitSizes(5))

	first := -1
	_ = mt.walk(func(idx int) error {
		if first < 0 {
			first = idx
		}
		return nil
	})
	m := mt.nodes[first]
	if m.lo != 0 || m.hi != 2 {
		t.Errorf("first visited node spans [%d,%d), want [0,2)", m.lo, m.hi)
	}
}
