package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/layout"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// ResultFile is the serializable summary of a layout run.
type ResultFile struct {
	RegCount int `json:"reg_count"`
	OptCount int `json:"opt_count"`

	// Rotated lists the labels of rotated host nodes in post-order.
	Rotated []string `json:"rotated"`

	// Swaps maps guest labels to their swap instructions, in the order they
	// were applied. Guest nodes without swaps are omitted.
	Swaps map[string][]SwapRecord `json:"swaps,omitempty"`

	Levels []LevelRecord `json:"levels"`
}

// SwapRecord is one entry of a guest node's swap list.
type SwapRecord struct {
	Host    string `json:"host"`
	Partner string `json:"partner"`
}

// LevelRecord is the report of one internal host node.
type LevelRecord struct {
	Host       string   `json:"host"`
	Size       int      `json:"size"`
	Groups     int      `json:"groups"`
	Direct     int      `json:"direct"`
	Rotated    int      `json:"rotated"`
	Rotate     bool     `json:"rotate"`
	Crossings  int      `json:"crossings"`
	Boundaries int      `json:"boundaries"`
	Order      []string `json:"order"`
	Reference  []string `json:"reference"`
}

// NewResultFile summarizes res. The swap lists are read from the guest tree,
// so it must be called before the trees are reset.
func NewResultFile(res *layout.Result, guest *tree.Tree) ResultFile {
	rf := ResultFile{
		RegCount: res.RegCount,
		OptCount: res.OptCount,
		Rotated:  []string{},
		Levels:   make([]LevelRecord, 0, len(res.Levels)),
	}
	for _, h := range res.RotatedHosts() {
		rf.Rotated = append(rf.Rotated, h.Label())
	}
	for _, lv := range res.Levels {
		rf.Levels = append(rf.Levels, LevelRecord{
			Host:       lv.Host.Label(),
			Size:       lv.Size,
			Groups:     lv.Groups,
			Direct:     lv.Direct,
			Rotated:    lv.Rotated,
			Rotate:     lv.Rotate,
			Crossings:  lv.Crossings,
			Boundaries: lv.Boundaries,
			Order:      lv.Sigma.Names(),
			Reference:  lv.Reference.Names(),
		})
	}
	for _, g := range guest.Nodes() {
		if len(g.Swaps) == 0 {
			continue
		}
		if rf.Swaps == nil {
			rf.Swaps = make(map[string][]SwapRecord)
		}
		recs := make([]SwapRecord, len(g.Swaps))
		for i, s := range g.Swaps {
			recs[i] = SwapRecord{Host: s.Host.Label(), Partner: s.Partner.Label()}
		}
		rf.Swaps[g.Label()] = recs
	}
	return rf
}

// WriteResult encodes rf as indented JSON.
func WriteResult(rf ResultFile, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rf); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResult writes rf to the file at path.
func ExportResult(rf ResultFile, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResult(rf, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MarshalResult returns the JSON encoding of rf.
func MarshalResult(rf ResultFile) ([]byte, error) {
	return json.Marshal(rf)
}

// UnmarshalResult decodes a result produced by [MarshalResult] or
// [WriteResult].
func UnmarshalResult(data []byte) (ResultFile, error) {
	var rf ResultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return ResultFile{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode result")
	}
	return rf, nil
}

// ApplyResult clears the layout fields of s and writes rf onto it: rotation
// flags on host nodes and swap lists on guest nodes. Labels that do not
// resolve in s are INVALID_INPUT errors; s may then be partially written.
func ApplyResult(rf ResultFile, s *Scenario) error {
	s.Host.ResetLayout()
	s.Guest.ResetLayout()

	for _, label := range rf.Rotated {
		h, err := Resolve(s.Host, label)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "rotated host")
		}
		h.Rotated = true
	}
	for label, recs := range rf.Swaps {
		g, err := Resolve(s.Guest, label)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "swap list")
		}
		for _, r := range recs {
			h, err := Resolve(s.Host, r.Host)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "swap of %s", label)
			}
			p, err := Resolve(s.Guest, r.Partner)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "swap of %s", label)
			}
			g.Swaps = append(g.Swaps, tree.Swap{Host: h, Partner: p})
		}
	}
	for _, lv := range rf.Levels {
		for i, label := range lv.Order {
			if g, err := Resolve(s.Guest, label); err == nil {
				g.LayoutIndex = i
			}
		}
	}
	return nil
}
