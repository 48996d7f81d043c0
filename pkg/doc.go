// Package pkg provides the libraries behind reconlayout, a layout engine for
// reconciliations: a guest tree (a gene tree, say) embedded in a binary host
// tree (a species tree) through the gamma map.
//
// # Overview
//
// Drawing a reconciliation means choosing, for every internal host node,
// which child goes left, and ordering the guest nodes placed at each host
// node. reconlayout visits the host tree bottom-up, compares the crossings
// of both child orders, keeps the cheaper one and commits a guest order that
// is consistent with the children below.
//
// The typical data flow:
//
//	scenario.json / scenario.toml
//	         ↓
//	    [io] package (parse trees and gamma)
//	         ↓
//	    [layout] package (rotations + guest orders)
//	         ↓
//	    [render/dot] package (Graphviz DOT, SVG, PNG)
//
// # Quick Start
//
//	s, _, err := io.Import("scenario.json")
//	if err != nil {
//	    return err
//	}
//	res, err := layout.New(s.Host.Root, s.Guest.Root, s.Gamma).Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.RegCount, "->", res.OptCount)
//
// # Main Packages
//
// ## Domain
//
// [tree] - Rooted trees with stable node IDs and the layout state written
// by the engine (rotation flag, layout index, swap history).
//
// [gamma] - The host-to-guest placement map and its validation.
//
// [layout] - The crossing minimization engine: per-level sigma construction,
// merge-tree crossing counts, rotation choice and order commitment.
//
// ## Serialization and Rendering
//
// [io] - Scenario import (JSON, TOML), canonical encoding, and the JSON
// result file that can be re-applied onto fresh trees.
//
// [render/dot] - Graphviz output, rendered in-process.
//
// ## Infrastructure
//
// [pipeline] - Layout and render orchestration shared by the CLI and the
// HTTP server, with caching of layouts and artifacts.
//
// [cache] - File, Redis and null cache backends plus cache key derivation.
//
// [server] - HTTP API (chi) with in-memory and MongoDB run stores.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Coded errors shared across packages.
//
// [tree]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/tree
// [gamma]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/gamma
// [layout]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/layout
// [io]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/io
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/cache
// [server]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/server
// [observability]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/reconlayout/pkg/errors
package pkg
