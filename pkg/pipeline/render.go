package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/reconlayout/pkg/errors"
	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/observability"
	"github.com/matzehuels/reconlayout/pkg/render/dot"
	"github.com/matzehuels/reconlayout/pkg/tree"
)

// Render produces the requested formats. The trees of s must already carry
// the layout described by summary.
func Render(ctx context.Context, s *rio.Scenario, summary rio.ResultFile, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(ctx, s, summary, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(ctx context.Context, s *rio.Scenario, summary rio.ResultFile, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var src string
	dotSource := func() (string, error) {
		if src != "" {
			return src, nil
		}
		levels, err := committedLevels(s, summary)
		if err != nil {
			return "", err
		}
		src = dot.ToDOT(s.Host, s.Guest, s.Gamma, dot.Options{Gamma: opts.Gamma, Detailed: opts.Detailed, Levels: levels})
		return src, nil
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			var text string
			text, err = dotSource()
			data = []byte(text)
		case FormatSVG, FormatPNG:
			var text string
			if text, err = dotSource(); err != nil {
				break
			}
			if format == FormatSVG {
				data, err = dot.RenderSVG(ctx, text)
			} else {
				data, err = dot.RenderPNG(ctx, text)
			}
		case FormatJSON:
			var buf bytes.Buffer
			err = rio.WriteResult(summary, &buf)
			data = buf.Bytes()
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// committedLevels resolves the committed guest order of every level in
// summary against the trees of s.
func committedLevels(s *rio.Scenario, summary rio.ResultFile) ([]dot.Level, error) {
	levels := make([]dot.Level, 0, len(summary.Levels))
	for _, lv := range summary.Levels {
		h, err := rio.Resolve(s.Host, lv.Host)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "level host")
		}
		order := make([]*tree.Node, len(lv.Order))
		for i, label := range lv.Order {
			if order[i], err = rio.Resolve(s.Guest, label); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "order of %s", lv.Host)
			}
		}
		levels = append(levels, dot.Level{Host: h, Order: order})
	}
	return levels, nil
}
