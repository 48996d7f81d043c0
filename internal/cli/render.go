package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single format) or base path
	formats string // comma-separated output formats
	noCache bool
	opts    pipeline.Options
}

// renderCommand creates the render command for drawing a scenario.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts

	cmd := &cobra.Command{
		Use:   "render [scenario.json|scenario.toml]",
		Short: "Lay out a scenario and draw it",
		Long: `Lay out a scenario and draw it.

The host tree is drawn with its chosen rotations and the guest tree with its
committed orderings. With --gamma the placement of each guest node is drawn
as a dashed edge to its host node; with --detailed nodes carry their layout
index and swap history.

Formats: svg (default), png, dot, json. With several formats, -o names the
base path and each output gets the format as extension.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.opts.Formats = parseFormats(ro.formats)
			if err := pipeline.ValidateFormats(ro.opts.Formats); err != nil {
				return err
			}
			if ro.output == "-" && len(ro.opts.Formats) > 1 {
				return fmt.Errorf("stdout output needs exactly one format")
			}
			return c.runRender(cmd.Context(), args[0], ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&ro.opts.Gamma, "gamma", false, "draw gamma edges from guest to host nodes")
	cmd.Flags().BoolVar(&ro.opts.Detailed, "detailed", false, "annotate nodes with layout index and swaps")
	cmd.Flags().BoolVar(&ro.opts.RotateOnTie, "rotate-on-tie", false, "rotate when both configurations cost the same")
	cmd.Flags().BoolVar(&ro.opts.Refresh, "refresh", false, "recompute even when cached outputs exist")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, ro renderOpts) error {
	s, _, err := rio.Import(input)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := ro.opts
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, s, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(ro.output, input, opts.Formats)
	for _, f := range opts.Formats {
		if err := writeArtifact(paths[f], result.Artifacts[f]); err != nil {
			return err
		}
	}
	if ro.output == "-" {
		return nil
	}

	printSuccess("Rendered %d output(s)", len(opts.Formats))
	for _, f := range opts.Formats {
		printFile(paths[f])
	}
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	return nil
}

// outputPaths maps each format to its output file. A single format with an
// explicit output writes exactly there. JSON results use the ".layout.json"
// extension.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		ext := f
		if f == pipeline.FormatJSON {
			ext = "layout.json"
		}
		paths[f] = base + "." + ext
	}
	return paths
}
