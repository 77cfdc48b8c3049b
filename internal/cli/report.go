package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jarscope/pkg/pipeline"
	"github.com/matzehuels/jarscope/pkg/render"
)

type reportOpts struct {
	analysisFlags
	format string
	view   string
	output string
	title  string
	links  bool
	failOn string
}

// reportCommand creates the report command.
func (c *CLI) reportCommand() *cobra.Command {
	opts := reportOpts{format: render.FormatText}

	cmd := &cobra.Command{
		Use:   "report <inventory>",
		Short: "Report Depends On, Dependants and version conflicts",
		Long: `Analyze an archive inventory and report, for every archive:

  Depends On      the archives its requirements resolve to, and the
                  requirements nothing provides
  Dependants      the archives whose requirements it satisfies
  Eliminate Jars  archives deployed in more than one version

Requirements matched by an enabled profile (see 'jarscope profiles') are
treated as provided by the platform. Filter rules in the configuration file
mark findings as suppressed without hiding them.

Use --fail-on to exit with status 2 when the report reaches a severity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && opts.output != "" {
				opts.format = formatFromPath(opts.output)
			}
			if err := render.ValidateFormat(opts.format, render.ReportFormats); err != nil {
				return err
			}
			return c.runReport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(render.ReportFormats, ", "))
	cmd.Flags().StringVar(&opts.view, "view", string(render.ViewAll), "report view: all, depends-on, dependants, conflicts")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.title, "title", "", "HTML page title (default inventory file name)")
	cmd.Flags().BoolVar(&opts.links, "links", false, "link archive names to per-archive pages (html)")
	cmd.Flags().StringVar(&opts.failOn, "fail-on", "", "exit with status 2 at this severity: warning, critical")
	opts.analysisFlags.register(cmd)

	return cmd
}

func (c *CLI) runReport(ctx context.Context, input string, opts reportOpts) error {
	view, err := render.ParseView(opts.view)
	if err != nil {
		return err
	}
	failOn, err := parseFailOn(opts.failOn)
	if err != nil {
		return err
	}

	a, err := c.analyze(ctx, input, opts.analysisFlags)
	if err != nil {
		return err
	}
	defer a.Close()

	title := opts.title
	if title == "" {
		title = filepath.Base(input)
	}
	data, cached, err := a.runner.RenderWithCacheInfo(ctx, a.result, pipeline.RenderOptions{
		Format: opts.format,
		View:   view,
		Title:  title,
		Links:  opts.links,
	})
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}

	if opts.output != "" {
		printSuccess("Wrote %s report", opts.format)
		printFile(opts.output)
		printStats(a.result.Stats, a.result.Report.Severity, cached)
	}
	return checkFailOn(a.result.Report, failOn)
}

// formatFromPath infers a report format from an output file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "md", "markdown":
		return render.FormatMarkdown
	case "csv":
		return render.FormatCSV
	case "json":
		return render.FormatJSON
	case "html", "htm":
		return render.FormatHTML
	default:
		return render.FormatText
	}
}
