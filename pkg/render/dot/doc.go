// Package dot draws a laid-out reconciliation as a Graphviz diagram.
//
// # Overview
//
// [ToDOT] emits the host tree and the guest tree as two clusters of one
// directed graph. Host children are emitted in drawn order, so a host node
// with Rotated set shows its right child first. Guest children follow the
// committed orders passed in [Options.Levels]: the children of a guest node
// are compared by the earliest position of their descendants in the order of
// the host level where they split. With [Options.Gamma] every gamma
// association is added as a dotted, non-constraining edge from the host node
// to the guest node.
//
//	src := dot.ToDOT(s.Host, s.Guest, s.Gamma, dot.Options{Gamma: true, Levels: levels})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Rendering
//
// [RenderSVG] and [RenderPNG] run Graphviz in-process through
// [github.com/goccy/go-graphviz]; no external binary is needed. The SVG
// viewBox is normalized to start at the origin so the output scales cleanly
// when embedded.
package dot
