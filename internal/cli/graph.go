package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jarscope/pkg/pipeline"
	"github.com/matzehuels/jarscope/pkg/render"
)

type graphOpts struct {
	analysisFlags
	format     string
	output     string
	detailed   bool
	unresolved bool
	nesting    bool
	failOn     string
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: render.FormatSVG}

	cmd := &cobra.Command{
		Use:   "graph <inventory>",
		Short: "Render the resolved dependency graph (dot or svg)",
		Long: `Render the Depends On relation as a node-link graph.

Each archive is a node; an edge points from a consumer to the archive its
requirement resolves to. Archives in a version conflict are highlighted.`,
		Example: `  # SVG via graphviz
  jarscope graph inventory.yaml -o deps.svg

  # DOT source with symbol labels and unresolved requirements
  jarscope graph inventory.yaml -f dot --detailed --unresolved`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && strings.HasSuffix(strings.ToLower(opts.output), ".dot") {
				opts.format = render.FormatDOT
			}
			if err := render.ValidateFormat(opts.format, render.GraphFormats); err != nil {
				return err
			}
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(render.GraphFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with symbols and nodes with versions")
	cmd.Flags().BoolVar(&opts.unresolved, "unresolved", false, "add nodes for unresolved requirements")
	cmd.Flags().BoolVar(&opts.nesting, "nesting", false, "draw containment edges for nested archives")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "exit with status 2 at this severity: warning, critical")
	opts.analysisFlags.register(cmd)

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input string, opts graphOpts) error {
	failOn, err := parseFailOn(opts.failOn)
	if err != nil {
		return err
	}

	a, err := c.analyze(ctx, input, opts.analysisFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()
	data, cached, err := a.runner.RenderGraphWithCacheInfo(ctx, a.result, pipeline.GraphOptions{
		Format:     opts.format,
		Detailed:   opts.detailed,
		Unresolved: opts.unresolved,
		Nesting:    opts.nesting,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Wrote %s graph", opts.format)
		printFile(opts.output)
		printStats(a.result.Stats, a.result.Report.Severity, cached)
		if opts.format == render.FormatDOT {
			printNextStep("Render with graphviz", "dot -Tsvg "+opts.output)
		}
	}
	return checkFailOn(a.result.Report, failOn)
}
