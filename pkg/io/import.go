package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reconlayout/pkg/errors"
	"github.com/matzehuels/reconlayout/pkg/gamma"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Supported scenario formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Scenario is a decoded reconciliation: both trees and the gamma map.
type Scenario struct {
	Host  *tree.Tree
	Guest *tree.Tree
	Gamma *gamma.Map
}

type scenarioFile struct {
	Host  *nodeFile           `json:"host" toml:"host"`
	Guest *nodeFile           `json:"guest" toml:"guest"`
	Gamma map[string][]string `json:"gamma" toml:"gamma"`
}

type nodeFile struct {
	Name     string      `json:"name,omitempty" toml:"name,omitempty"`
	Children []*nodeFile `json:"children,omitempty" toml:"children,omitempty"`
}

// ReadJSON decodes a JSON scenario from r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Scenario, error) {
	var f scenarioFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json scenario")
	}
	return f.build()
}

// ReadTOML decodes a TOML scenario from r. ReadTOML does not close r.
func ReadTOML(r io.Reader) (*Scenario, error) {
	var f scenarioFile
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml scenario")
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown scenario key %q", undec[0].String())
	}
	return f.build()
}

// Parse decodes data in the given format.
func Parse(data []byte, format string) (*Scenario, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data))
	case FormatTOML:
		return ReadTOML(bytes.NewReader(data))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported scenario format %q", format)
}

// FormatOf returns the scenario format implied by the extension of path.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "cannot tell scenario format of %s (want .json or .toml)", path)
}

// Import reads the scenario file at path. It also returns the raw file
// content, which callers use as a cache key.
func Import(path string) (*Scenario, []byte, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scenario %s", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, data, nil
}

func (f scenarioFile) build() (*Scenario, error) {
	if f.Host == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "scenario has no host tree")
	}
	if f.Guest == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "scenario has no guest tree")
	}
	host, err := buildTree("host", f.Host)
	if err != nil {
		return nil, err
	}
	if err := host.ValidateBinary(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "host tree")
	}
	guest, err := buildTree("guest", f.Guest)
	if err != nil {
		return nil, err
	}

	m := gamma.New()
	for _, hostLabel := range slices.Sorted(maps.Keys(f.Gamma)) {
		guestLabels := f.Gamma[hostLabel]
		h, err := Resolve(host, hostLabel)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGamma, err, "gamma key")
		}
		img := make([]*tree.Node, 0, len(guestLabels))
		for _, l := range guestLabels {
			g, err := Resolve(guest, l)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidGamma, err, "gamma(%s)", hostLabel)
			}
			img = append(img, g)
		}
		m.Set(h, img...)
	}
	if err := m.Validate(host); err != nil {
		return nil, err
	}
	return &Scenario{Host: host, Guest: guest, Gamma: m}, nil
}

func buildTree(which string, root *nodeFile) (*tree.Tree, error) {
	var convert func(nf *nodeFile) (*tree.Node, error)
	convert = func(nf *nodeFile) (*tree.Node, error) {
		if nf == nil {
			return nil, errors.New(errors.ErrCodeInvalidTree, "%s tree has an empty node", which)
		}
		if len(nf.Children) > 2 {
			return nil, errors.New(errors.ErrCodeInvalidTree,
				"%s node %q has %d children, at most 2 allowed", which, nf.Name, len(nf.Children))
		}
		if strings.HasPrefix(nf.Name, "#") {
			return nil, errors.New(errors.ErrCodeInvalidTree,
				"%s node name %q: names starting with '#' are reserved for unnamed nodes", which, nf.Name)
		}
		n := tree.NewNode(nf.Name)
		var kids [2]*tree.Node
		for i, c := range nf.Children {
			k, err := convert(c)
			if err != nil {
				return nil, err
			}
			kids[i] = k
		}
		n.SetChildren(kids[0], kids[1])
		return n, nil
	}
	r, err := convert(root)
	if err != nil {
		return nil, err
	}
	t, err := tree.New(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "%s tree", which)
	}
	return t, nil
}

// Resolve finds the node with the given label: a name, or "#<id>" for an
// unnamed node. Imported names never start with '#', so the two forms cannot
// collide.
func Resolve(t *tree.Tree, label string) (*tree.Node, error) {
	if n, ok := t.ByName(label); ok {
		return n, nil
	}
	if id, ok := strings.CutPrefix(label, "#"); ok {
		if i, err := strconv.Atoi(id); err == nil {
			if n := t.Node(i); n != nil && n.Name == "" {
				return n, nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no node labelled %q", label)
}
