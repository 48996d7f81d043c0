package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	rio "github.com/matzehuels/reconlayout/pkg/io"
	"github.com/matzehuels/reconlayout/pkg/pipeline"
)

// inspectCommand creates the inspect command for browsing per-level
// decisions.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain   bool
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [scenario.json|scenario.toml]",
		Short: "Browse the rotation decision taken at each host node",
		Long: `Browse the rotation decision taken at each host node.

Lists every internal host node in post-order with the number of guest nodes
placed below it, the crossings of both configurations and the choice made.
Select a row to see the committed guest order and its reference.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeScenario,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], opts, plain, noCache)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the table instead of starting the interactive view")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.RotateOnTie, "rotate-on-tie", false, "rotate when both configurations cost the same")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts pipeline.Options, plain, noCache bool) error {
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
	result, err := runner.Execute(ctx, s, opts)
	if err != nil {
		return err
	}

	levels := result.Summary.Levels
	if plain {
		fmt.Fprintln(out, levelTable(levels, -1))
		printStats(result.Stats, result.CacheInfo.LayoutHit)
		return nil
	}

	p := tea.NewProgram(NewLevelListModel(levels), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interactive view: %w", err)
	}
	return nil
}
