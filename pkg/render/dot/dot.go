package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Images supplies the gamma associations to draw.
type Images interface {
	Image(host *tree.Node) []*tree.Node
}

// Options configures diagram generation.
type Options struct {
	// Gamma adds an edge from every host node to each guest node mapped to it.
	Gamma bool

	// Detailed adds layout data to labels: the layout index and swap count
	// of guest nodes and a rotation marker on host nodes.
	Detailed bool

	// Levels holds the committed guest order of each internal host node.
	// Guest children are drawn in that order; without it they keep tree
	// order.
	Levels []Level
}

// Level is the committed order of the guest nodes placed at the children of
// one internal host node.
type Level struct {
	Host  *tree.Node
	Order []*tree.Node
}

// ToDOT converts a reconciliation to Graphviz DOT source. images may be nil
// when opts.Gamma is false and opts.Levels is empty.
func ToDOT(host, guest *tree.Tree, images Images, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph reconciliation {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")

	buf.WriteString("\n  subgraph cluster_host {\n")
	buf.WriteString("    label=\"host\";\n")
	buf.WriteString("    style=\"rounded,dashed\";\n")
	buf.WriteString("    node [shape=box, style=\"rounded,filled\", fillcolor=\"#e8f4f8\"];\n")
	writeTree(&buf, host, "h", func(n *tree.Node) []*tree.Node {
		kids := n.Children()
		if n.Rotated && len(kids) == 2 {
			kids[0], kids[1] = kids[1], kids[0]
		}
		return kids
	}, func(n *tree.Node) string { return hostLabel(n, opts.Detailed) })
	buf.WriteString("  }\n")

	buf.WriteString("\n  subgraph cluster_guest {\n")
	buf.WriteString("    label=\"guest\";\n")
	buf.WriteString("    style=\"rounded,dashed\";\n")
	buf.WriteString("    node [shape=ellipse, style=filled, fillcolor=white];\n")
	order := newGuestOrder(host, images, opts.Levels)
	writeTree(&buf, guest, "g", order.children, func(n *tree.Node) string { return guestLabel(n, opts.Detailed) })
	buf.WriteString("  }\n")

	if opts.Gamma && images != nil {
		buf.WriteString("\n")
		for _, h := range host.Nodes() {
			for _, g := range images.Image(h) {
				fmt.Fprintf(&buf, "  %q -> %q [style=dotted, color=gray50, arrowhead=none, constraint=false];\n",
					nodeID("h", h), nodeID("g", g))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeTree(buf *bytes.Buffer, t *tree.Tree, prefix string, children func(*tree.Node) []*tree.Node, label func(*tree.Node) string) {
	for _, n := range t.Nodes() {
		fmt.Fprintf(buf, "    %q [label=%q];\n", nodeID(prefix, n), label(n))
	}
	for _, n := range t.Nodes() {
		for _, c := range children(n) {
			fmt.Fprintf(buf, "    %q -> %q;\n", nodeID(prefix, n), nodeID(prefix, c))
		}
	}
}

// guestOrder places the children of each guest node by the committed order
// of the host level where that node's subtree splits: the level of the host
// holding its nearest placed ancestor (or itself).
type guestOrder struct {
	placed map[int]*tree.Node  // guest ID -> host
	pos    map[int]map[int]int // host ID -> guest ID -> position in the order
}

func newGuestOrder(host *tree.Tree, images Images, levels []Level) *guestOrder {
	o := &guestOrder{placed: make(map[int]*tree.Node), pos: make(map[int]map[int]int, len(levels))}
	if images == nil || len(levels) == 0 {
		return o
	}
	for _, h := range host.Nodes() {
		for _, g := range images.Image(h) {
			if _, ok := o.placed[g.ID]; !ok {
				o.placed[g.ID] = h
			}
		}
	}
	for _, lv := range levels {
		if lv.Host == nil {
			continue
		}
		p := make(map[int]int, len(lv.Order))
		for i, g := range lv.Order {
			p[g.ID] = i
		}
		o.pos[lv.Host.ID] = p
	}
	return o
}

func (o *guestOrder) children(n *tree.Node) []*tree.Node {
	kids := n.Children()
	if len(kids) != 2 {
		return kids
	}
	pos := o.splitLevel(n)
	if pos == nil {
		return kids
	}
	l, okL := first(kids[0], pos)
	r, okR := first(kids[1], pos)
	if okL && okR && r < l {
		kids[0], kids[1] = kids[1], kids[0]
	}
	return kids
}

// splitLevel returns the positions of the level that orders the children of
// n, or nil when no level does.
func (o *guestOrder) splitLevel(n *tree.Node) map[int]int {
	for a := n; a != nil; a = a.Parent {
		if h, ok := o.placed[a.ID]; ok {
			return o.pos[h.ID]
		}
	}
	return nil
}

// first returns the smallest position among the topmost nodes of the
// subtree at n that appear in pos.
func first(n *tree.Node, pos map[int]int) (int, bool) {
	if n == nil {
		return 0, false
	}
	if i, ok := pos[n.ID]; ok {
		return i, true
	}
	l, okL := first(n.Left, pos)
	r, okR := first(n.Right, pos)
	switch {
	case okL && okR:
		return min(l, r), true
	case okL:
		return l, true
	default:
		return r, okR
	}
}

func nodeID(prefix string, n *tree.Node) string {
	return prefix + strconv.Itoa(n.ID)
}

func hostLabel(n *tree.Node, detailed bool) string {
	if detailed && n.Rotated {
		return n.Label() + " ⟲"
	}
	return n.Label()
}

func guestLabel(n *tree.Node, detailed bool) string {
	if !detailed {
		return n.Label()
	}
	parts := []string{n.Label(), fmt.Sprintf("index: %d", n.LayoutIndex)}
	if len(n.Swaps) > 0 {
		parts = append(parts, fmt.Sprintf("swaps: %d", len(n.Swaps)))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
