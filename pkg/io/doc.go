// Package io reads reconciliation scenarios and writes layout results.
//
// # Scenario Format
//
// A scenario holds a host tree, a guest tree and the gamma map between them.
// Trees are nested objects; a node has an optional name and up to two
// children. A guest node with a single child (a loss) lists just that child.
//
//	{
//	  "host":  {"name": "R", "children": [{"name": "X"}, {"name": "Y"}]},
//	  "guest": {"name": "top", "children": [
//	    {"name": "g1", "children": [{"name": "a"}, {"name": "c"}]},
//	    {"name": "g2", "children": [{"name": "b"}]}
//	  ]},
//	  "gamma": {"R": ["g1", "g2"], "X": ["a", "b"], "Y": ["c"]}
//	}
//
// Gamma keys are host node labels, values are guest node labels in gamma
// order. A label is the node name, or "#<id>" for unnamed nodes, where id is
// the pre-order index assigned by [tree.New].
//
// The same structure can be written as TOML, using arrays of tables for the
// children:
//
//	[host]
//	name = "R"
//	[[host.children]]
//	name = "X"
//	[[host.children]]
//	name = "Y"
//
//	[gamma]
//	R = ["g1", "g2"]
//
// [Import] picks the decoder from the file extension (.json or .toml).
//
// # Result Format
//
// [NewResultFile] flattens a [layout.Result] into a serializable summary: the
// rotated host nodes, every guest node's swap list and one record per host
// level. [ApplyResult] writes such a summary back onto freshly imported
// trees, which is how cached results are reused without re-running the
// layout.
//
// # Errors
//
// Malformed input is reported as INVALID_FORMAT, structural problems as
// INVALID_TREE or INVALID_GAMMA, and a missing file as FILE_NOT_FOUND (see
// [errors.Code]).
package io
