package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/reconlayout/pkg/tree"
)

// MarshalScenario returns the canonical JSON encoding of s. Scenarios read
// from JSON or TOML files with the same content encode identically, which
// makes the output suitable as a cache key input.
func MarshalScenario(s *Scenario) ([]byte, error) {
	return json.Marshal(toFile(s))
}

// WriteJSON encodes s as indented JSON.
func WriteJSON(s *Scenario, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toFile(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func toFile(s *Scenario) scenarioFile {
	f := scenarioFile{
		Host:  toNodeFile(s.Host.Root),
		Guest: toNodeFile(s.Guest.Root),
		Gamma: make(map[string][]string, s.Gamma.Len()),
	}
	for _, id := range s.Gamma.Hosts() {
		h := s.Host.Node(id)
		img := s.Gamma.Image(h)
		labels := make([]string, len(img))
		for i, g := range img {
			labels[i] = g.Label()
		}
		f.Gamma[h.Label()] = labels
	}
	return f
}

func toNodeFile(n *tree.Node) *nodeFile {
	nf := &nodeFile{Name: n.Name}
	for _, c := range n.Children() {
		nf.Children = append(nf.Children, toNodeFile(c))
	}
	return nf
}
