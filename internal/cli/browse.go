package cli

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags analysisFlags
	var findings bool

	cmd := &cobra.Command{
		Use:   "browse <inventory>",
		Short: "Browse an analysis report interactively",
		Long: `Analyze an archive inventory and open an interactive browser listing every
archive with its Depends On, Dependants and version conflict details.

Press f to show only archives with findings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], flags, findings)
		},
	}

	cmd.Flags().BoolVar(&findings, "findings", false, "start with only archives that have findings")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, flags analysisFlags, findings bool) error {
	a, err := c.analyze(ctx, input, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	m := NewReportModel(a.result.Report, filepath.Base(input))
	if findings {
		m.Findings = true
		m.rows = m.visible()
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
