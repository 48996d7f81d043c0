package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/pipeline"
)

// layoutCommand creates the layout command for computing rotations and
// guest orderings.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [scenario.json|scenario.toml]",
		Short: "Compute host rotations and guest orderings for a scenario",
		Long: `Compute host rotations and guest orderings for a scenario.

The scenario file holds the host tree, the guest tree and the gamma map. The
layout visits host nodes bottom-up, decides for each whether exchanging its
children lowers the number of crossings, and reorders the guest nodes mapped
there. The result is written as JSON (same format as 'render -f json').

Results are cached locally for faster subsequent runs.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().BoolVar(&opts.RotateOnTie, "rotate-on-tie", false, "rotate when both configurations cost the same")

	return cmd
}

// runLayout loads the scenario, computes the layout and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	s, _, err := rio.Import(input)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.Formats = []string{pipeline.FormatJSON}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, s, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := writeArtifact(outputPath, result.Artifacts[pipeline.FormatJSON]); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}
