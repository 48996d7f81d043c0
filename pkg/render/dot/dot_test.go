package dot

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/reconlayout/pkg/gamma"
	"github.com/matzehuels/reconlayout/pkg/layout"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

func fixture(t *testing.T) (*tree.Tree, *tree.Tree, *gamma.Map) {
	t.Helper()
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	host, err := tree.New(tree.NewNode("R").SetChildren(x, y))
	if err != nil {
		t.Fatal(err)
	}
	a, b := tree.NewNode("a"), tree.NewNode("b")
	guest, err := tree.New(tree.NewNode("g").SetChildren(a, b))
	if err != nil {
		t.Fatal(err)
	}
	m := gamma.New()
	m.Set(host.Root, guest.Root)
	m.Set(x, a)
	m.Set(y, b)
	return host, guest, m
}

func TestToDOT_Basic(t *testing.T) {
	host, guest, m := fixture(t)
	src := ToDOT(host, guest, m, Options{})

	for _, want := range []string{
		"digraph reconciliation",
		"subgraph cluster_host",
		"subgraph cluster_guest",
		`"h0" [label="R"]`,
		`"h0" -> "h1";`,
		`"g0" -> "g2";`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if strings.Contains(src, "dotted") {
		t.Error("gamma edges emitted without Options.Gamma")
	}
}

func TestToDOT_RotatedHost(t *testing.T) {
	host, guest, m := fixture(t)
	host.Root.Rotated = true
	src := ToDOT(host, guest, m, Options{Detailed: true})

	first := strings.Index(src, `"h0" -> "h2";`)
	second := strings.Index(src, `"h0" -> "h1";`)
	if first < 0 || second < 0 || first > second {
		t.Errorf("rotated host children not emitted right first:\n%s", src)
	}
	if !strings.Contains(src, "R ⟲") {
		t.Error("detailed label missing rotation marker")
	}
}

// leafOrder follows the guest edges of src from g0 and returns the guest
// leaves in drawn order.
func leafOrder(t *testing.T, src string, guest *tree.Tree) []string {
	t.Helper()
	edges := map[string][]string{}
	for _, line := range strings.Split(src, "\n") {
		var from, to string
		if _, err := fmt.Sscanf(strings.TrimSpace(line), "%q -> %q;", &from, &to); err != nil {
			continue
		}
		if strings.HasPrefix(from, "g") && strings.HasPrefix(to, "g") {
			edges[from] = append(edges[from], to)
		}
	}
	var out []string
	var walk func(id string)
	walk = func(id string) {
		if len(edges[id]) == 0 {
			n, err := strconv.Atoi(strings.TrimPrefix(id, "g"))
			if err != nil {
				t.Fatalf("bad node id %q", id)
			}
			out = append(out, guest.Node(n).Label())
			return
		}
		for _, c := range edges[id] {
			walk(c)
		}
	}
	walk("g0")
	return out
}

// splitScenario is host R(X, Y) with guest g(u(a, c), b), gamma(R) = {g},
// gamma(X) = {a} and gamma(Y) = {b, c}. Only the rotated configuration is
// free of crossings, and it needs both g and u drawn right child first.
func splitScenario(t *testing.T) (*tree.Tree, *tree.Tree, *gamma.Map) {
	t.Helper()
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	host, err := tree.New(tree.NewNode("R").SetChildren(x, y))
	if err != nil {
		t.Fatal(err)
	}
	a, b, c := tree.NewNode("a"), tree.NewNode("b"), tree.NewNode("c")
	guest, err := tree.New(tree.NewNode("g").SetChildren(tree.NewNode("u").SetChildren(a, c), b))
	if err != nil {
		t.Fatal(err)
	}
	m := gamma.New()
	m.Set(host.Root, guest.Root)
	m.Set(x, a)
	m.Set(y, b, c)
	return host, guest, m
}

func TestToDOT_GuestOrderFollowsCommittedOrder(t *testing.T) {
	host, guest, m := splitScenario(t)
	res, err := layout.New(host.Root, guest.Root, m).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !host.Root.Rotated {
		t.Fatal("R not rotated")
	}
	sigma := res.Levels[0].Sigma.Names()
	if want := []string{"b", "c", "a"}; !slices.Equal(sigma, want) {
		t.Fatalf("sigma = %v, want %v", sigma, want)
	}

	levels := make([]Level, len(res.Levels))
	for i, lv := range res.Levels {
		levels[i] = Level{Host: lv.Host, Order: lv.Sigma.Nodes()}
	}
	src := ToDOT(host, guest, m, Options{Levels: levels})
	if got := leafOrder(t, src, guest); !slices.Equal(got, sigma) {
		t.Errorf("drawn leaf order = %v, want %v\n%s", got, sigma, src)
	}
}

func TestToDOT_GuestTreeOrderWithoutLevels(t *testing.T) {
	host, guest, m := splitScenario(t)
	// Layout indices alone do not reorder the drawing.
	guest.Root.Left.LayoutIndex = 2
	guest.Root.Right.LayoutIndex = 0

	src := ToDOT(host, guest, m, Options{})
	if got, want := leafOrder(t, src, guest), []string{"a", "c", "b"}; !slices.Equal(got, want) {
		t.Errorf("drawn leaf order = %v, want %v", got, want)
	}
}

func TestToDOT_Gamma(t *testing.T) {
	host, guest, m := fixture(t)
	src := ToDOT(host, guest, m, Options{Gamma: true})

	if got := strings.Count(src, "constraint=false"); got != 3 {
		t.Errorf("gamma edges = %d, want 3", got)
	}
	if !strings.Contains(src, `"h1" -> "g1"`) {
		t.Error("missing gamma edge X -> a")
	}
}

func TestGuestLabel(t *testing.T) {
	n := &tree.Node{Name: "a", LayoutIndex: 2}
	if got := guestLabel(n, false); got != "a" {
		t.Errorf("guestLabel() = %q, want a", got)
	}
	n.Swaps = []tree.Swap{{}}
	if got := guestLabel(n, true); got != "a\nindex: 2\nswaps: 1" {
		t.Errorf("guestLabel() detailed = %q", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeViewBox([]byte(tt.svg)); string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	host, guest, m := fixture(t)
	svg, err := RenderSVG(context.Background(), ToDOT(host, guest, m, Options{Gamma: true}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}
