// Package pipeline runs the scenario → layout → render pipeline shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Layout: compute host rotations and guest swap lists for a scenario
//  2. Render: produce DOT, SVG, PNG, or the JSON result summary
//
// Both stages are cached. A layout result is keyed by the canonical encoding
// of the scenario and is re-applied onto the trees on a hit, so a cached run
// leaves the trees in the same state as a fresh one.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, scenario, pipeline.Options{
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reconlayout/pkg/cache"
	"github.com/matzehuels/reconlayout/pkg/errors"
	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/layout"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// DefaultFormat is rendered when no format is requested.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It is JSON-serializable so the server
// can accept it in request bodies.
type Options struct {
	// Layout options
	RotateOnTie bool `json:"rotate_on_tie,omitempty"`
	Refresh     bool `json:"refresh,omitempty"` // ignore cached layouts and artifacts

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Gamma    bool     `json:"gamma,omitempty"`    // draw gamma edges
	Detailed bool     `json:"detailed,omitempty"` // annotate nodes with layout data

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults applies defaults, drops repeated formats, and
// rejects unknown ones. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := o.Formats[:0:0]
	for _, f := range o.Formats {
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	o.Formats = formats
	o.validated = true
	return nil
}

// SetRenderDefaults fills in the default format and logger.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutOptions returns the options passed to [layout.New].
func (o *Options) LayoutOptions() []layout.Option {
	return []layout.Option{
		layout.WithRotateOnTie(o.RotateOnTie),
		layout.WithLogger(o.Logger),
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{RotateOnTie: o.RotateOnTie}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Gamma:    o.Gamma,
		Detailed: o.Detailed,
	}
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result holds the outputs of a pipeline run.
type Result struct {
	// Scenario is the input, with the layout written onto its trees.
	Scenario *rio.Scenario

	// ScenarioHash is the content hash of the canonical scenario encoding.
	ScenarioHash string

	// Summary is the serializable layout result.
	Summary rio.ResultFile

	// Layout holds the full per-level reports. It is nil when the layout
	// came from the cache.
	Layout *layout.Result

	// Artifacts maps format to rendered bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats describes a pipeline run.
type Stats struct {
	HostNodes  int
	GuestNodes int
	Levels     int
	Rotated    int
	RegCount   int
	OptCount   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // all requested artifacts came from the cache
}

func (s Stats) String() string {
	return fmt.Sprintf("%d levels, %d rotated, crossings %d -> %d", s.Levels, s.Rotated, s.RegCount, s.OptCount)
}
