// Package tree provides the rooted binary trees that reconlayout operates on.
//
// # Overview
//
// Two trees take part in every layout: the host (species) tree, which drives
// the recursion, and the guest (gene) tree, whose nodes are ordered at each
// host level. Both use the same [Node] type. Host nodes receive a
// [Node.Rotated] flag; guest nodes receive a [Node.LayoutIndex] and an
// append-only list of [Swap] instructions.
//
// # Building Trees
//
// Link nodes with [Node.SetChildren], then index them with [New]:
//
//	a, b := tree.NewNode("a"), tree.NewNode("b")
//	root := tree.NewNode("r").SetChildren(a, b)
//	t, err := tree.New(root)
//
// [New] assigns IDs in pre-order. IDs are the stable identity used by gamma
// maps and by the layout engine, so two runs over the same input always see
// the same numbering.
//
// # Shape Rules
//
// Host trees must be strictly binary (see [Tree.ValidateBinary]). Guest trees
// may contain unary nodes, which model lineages passing through a host node
// without an event.
package tree
