package gamma

import (
	"slices"
	"testing"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

func hostTree(t *testing.T) (*tree.Tree, *tree.Node, *tree.Node, *tree.Node) {
	t.Helper()
	x, y := tree.NewNode("X"), tree.NewNode("Y")
	r := tree.NewNode("R").SetChildren(x, y)
	h, err := tree.New(r)
	if err != nil {
		t.Fatalf("tree.New: %v", err)
	}
	return h, r, x, y
}

func guestNodes(t *testing.T) []*tree.Node {
	t.Helper()
	a, b, c := tree.NewNode("a"), tree.NewNode("b"), tree.NewNode("c")
	g := tree.NewNode("g").SetChildren(tree.NewNode("ab").SetChildren(a, b), c)
	if _, err := tree.New(g); err != nil {
		t.Fatalf("tree.New: %v", err)
	}
	return []*tree.Node{a, b, c}
}

func TestImageIsSnapshot(t *testing.T) {
	_, r, _, _ := hostTree(t)
	g := guestNodes(t)

	m := New()
	m.Set(r, g...)
	img := m.Image(r)
	img[0], img[1] = img[1], img[0]

	if got := m.Image(r); got[0] != g[0] {
		t.Error("mutating an image copy changed the map")
	}
}

func TestHostsSorted(t *testing.T) {
	_, r, x, y := hostTree(t)
	g := guestNodes(t)

	m := New()
	m.Set(y, g[2])
	m.Set(r, g[0])
	m.Append(x, g[1])

	if got, want := m.Hosts(), []int{r.ID, x.ID, y.ID}; !slices.Equal(got, want) {
		t.Errorf("Hosts() = %v, want %v", got, want)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestValidate(t *testing.T) {
	h, r, x, y := hostTree(t)
	g := guestNodes(t)

	tests := []struct {
		name    string
		fill    func(m *Map)
		wantErr bool
	}{
		{
			name: "disjoint",
			fill: func(m *Map) {
				m.Set(r, g[0], g[1])
				m.Set(x, g[0])
				m.Set(y, g[1], g[2])
			},
		},
		{
			name:    "overlapping siblings",
			fill:    func(m *Map) { m.Set(x, g[0]); m.Set(y, g[0]) },
			wantErr: true,
		},
		{
			name:    "duplicate within image",
			fill:    func(m *Map) { m.Set(x, g[1], g[1]) },
			wantErr: true,
		},
		{
			name:    "nil entry",
			fill:    func(m *Map) { m.Set(y, nil) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.fill(m)
			err := m.Validate(h)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidGamma) {
				t.Errorf("error code = %s, want INVALID_GAMMA", errors.GetCode(err))
			}
		})
	}
}
