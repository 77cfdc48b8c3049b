package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jarscope/pkg/profile"
)

// profilesCommand creates the profiles command.
func (c *CLI) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [name]",
		Short: "List built-in profiles or the symbols of one profile",
		Long: `List the built-in profiles. A profile is a bundle of symbols (typically
packages of a platform runtime) that are always available, so requirements
on them are not reported as unresolved.

Enable profiles in the configuration file:

  [analysis]
  profiles = ["java.se", "java.ee"]`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			enabled, err := cfg.Profiles()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				set, err := profile.Lookup(args[0])
				if err != nil {
					if p, ok := findProfile(enabled, args[0]); ok {
						return writeSymbols(os.Stdout, p)
					}
					return err
				}
				return writeSymbols(os.Stdout, set[0])
			}

			all := profile.Builtin()
			for _, p := range enabled {
				if _, ok := findProfile(all, p.Name()); !ok {
					all = append(all, p)
				}
			}
			fmt.Println(profileTable(all, enabled.Names()))
			return nil
		},
	}
}

func findProfile(set profile.Set, name string) (*profile.Profile, bool) {
	i := slices.IndexFunc(set, func(p *profile.Profile) bool { return p.Name() == name })
	if i < 0 {
		return nil, false
	}
	return set[i], true
}

// profileTable renders profiles with their enabled state.
func profileTable(set profile.Set, enabled []string) string {
	rows := make([][]string, len(set))
	for i, p := range set {
		mark := ""
		if slices.Contains(enabled, p.Name()) {
			mark = iconSuccess
		}
		rows[i] = []string{mark, p.Name(), fmt.Sprint(p.Len()), p.Description()}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Profile", "Symbols", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleSuccess
			case col == 1:
				return StyleHighlight
			case col == 2:
				return StyleNumber
			}
			return StyleDim
		}).
		Render()
}

// writeSymbols prints one symbol per line so the output can be piped.
func writeSymbols(w io.Writer, p *profile.Profile) error {
	for _, s := range p.Symbols() {
		if _, err := fmt.Fprintln(w, s); err != nil {
			return err
		}
	}
	return nil
}
