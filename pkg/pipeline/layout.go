package pipeline

import (
	"context"
	"time"

	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/layout"
	"github.com/matzehuels/reconlayout/pkg/observability"
)

// RunLayout clears any previous layout on s, lays it out, and returns the
// full result along with its serializable summary.
func RunLayout(ctx context.Context, s *rio.Scenario, opts Options) (*layout.Result, rio.ResultFile, error) {
	opts.SetRenderDefaults()
	hooks := observability.Pipeline()

	s.Host.ResetLayout()
	s.Guest.ResetLayout()

	hooks.OnLayoutStart(ctx, s.Host.Len(), s.Guest.Len())
	start := time.Now()
	res, err := layout.New(s.Host.Root, s.Guest.Root, s.Gamma, opts.LayoutOptions()...).Run(ctx)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, time.Since(start), err)
		return nil, rio.ResultFile{}, err
	}
	for _, lv := range res.Levels {
		hooks.OnLevel(ctx, lv.Host.Label(), lv.Direct, lv.Rotated, lv.Rotate)
	}
	hooks.OnLayoutComplete(ctx, res.OptCount, time.Since(start), nil)

	return res, rio.NewResultFile(res, s.Guest), nil
}
