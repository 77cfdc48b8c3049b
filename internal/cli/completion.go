package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/render"
	"github.com/matzehuels/jarscope/pkg/resolve"
)

// inventoryExts are the file extensions offered for inventory arguments.
var inventoryExts = []string{"yaml", "yml", "json"}

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for jarscope. Besides commands and flags it
completes inventory files, report formats and views, --fail-on severities and
built-in profile names.

  bash        source <(jarscope completion bash)
  zsh         jarscope completion zsh > "${fpath[1]}/_jarscope"
  fish        jarscope completion fish > ~/.config/fish/completions/jarscope.fish
  powershell  jarscope completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerCompletions attaches argument and flag completions to the
// subcommands of root.
func registerCompletions(root *cobra.Command) {
	views := make([]string, len(render.Views))
	for i, v := range render.Views {
		views[i] = string(v)
	}
	severities := []string{resolve.SeverityWarning.String(), resolve.SeverityCritical.String()}

	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "report", "graph", "browse", "serve":
			cmd.ValidArgsFunction = completeInventory
		case "profiles":
			cmd.ValidArgsFunction = completeProfiles
		}

		switch cmd.Name() {
		case "report":
			_ = cmd.RegisterFlagCompletionFunc("format", completeValues(render.ReportFormats...))
		case "graph":
			_ = cmd.RegisterFlagCompletionFunc("format", completeValues(render.GraphFormats...))
		}
		if cmd.Flags().Lookup("view") != nil {
			_ = cmd.RegisterFlagCompletionFunc("view", completeValues(views...))
		}
		if cmd.Flags().Lookup("fail-on") != nil {
			_ = cmd.RegisterFlagCompletionFunc("fail-on", completeValues(severities...))
		}
		for _, name := range []string{"keyring", "signature"} {
			if cmd.Flags().Lookup(name) != nil {
				_ = cmd.MarkFlagFilename(name)
			}
		}
	}
}

// completeValues completes a fixed set of values.
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return withPrefix(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeInventory offers inventory files for the single positional argument.
func completeInventory(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return inventoryExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeProfiles offers the built-in profile names.
func completeProfiles(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withPrefix(profile.Builtin().Names(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func withPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}
