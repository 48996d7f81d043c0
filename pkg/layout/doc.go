// Package layout computes a crossing-reduced drawing order for a guest tree
// embedded in a host tree.
//
// # Overview
//
// A reconciliation places every guest (gene) node at some host (species)
// node; the gamma map lists, for each host node, the guest nodes placed at
// it. When the reconciled trees are drawn, the guest edges leaving a host
// node towards its two children cross unless the guest nodes are ordered
// well. [Layout] walks the host tree children first and, at every internal
// host node, decides
//
//   - whether the two host children should be drawn exchanged
//     ([tree.Node.Rotated]), and
//   - which position swaps turn the natural guest order into the cheaper one
//     (appended to [tree.Node.Swaps]).
//
// # Orderings
//
// At host node F with children L and R:
//
//   - sigma is the order in which gamma(L) ∪ gamma(R) is reached by a
//     depth-first walk of the guest tree from gamma(F);
//   - tau is gamma(L) followed by gamma(R), and reversed tau its mirror;
//   - rotated tau is gamma(R) followed by gamma(L) ([RotateOrder]).
//
// Guest nodes reached through duplications that belong to no image of the
// level are coalesced into a [Group] and stay adjacent.
//
// # Crossing Evaluation
//
// A tournament merge tree is built over sigma, groups first. Every internal
// merge node splits a block of sigma into a left and a right part; the
// crossings between the parts are counted against tau and against reversed
// tau, and the smaller number is kept. Keeping the smaller number means the
// two parts may be exchanged, which is exactly what [CommitOrder] does. Since
// exchanging two adjacent blocks inverts precisely the pairs between them,
// the committed ordering has as many inversions against tau as the
// evaluation reported ([CountInversions] checks this).
//
// # Statistics
//
// [Result.RegCount] sums the direct cost of every host level,
// [Result.OptCount] the cost after choosing between direct and rotated.
// With the default tie rule a host node only rotates on a strict
// improvement, so the two are equal exactly when nothing rotated.
//
// # Errors
//
// Precondition violations (a host node with one child, overlapping sibling
// images) are reported before anything is modified, with codes INVALID_TREE
// and INVALID_GAMMA. Inconsistencies found during the walk, such as a guest
// node of a child image that cannot be reached from the father's image, are
// LAYOUT_INCONSISTENCY errors and abort the run.
//
// # Concurrency
//
// A [Layout] is single-use and sequential. Separate Layout values over
// separate trees may run concurrently; nothing is shared between them.
package layout
