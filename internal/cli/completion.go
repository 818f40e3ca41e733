package cli

import (
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// shells maps a shell name to its completion script generator.
var shells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// diagramExtensions are the document formats dag.ReadDocument understands.
var diagramExtensions = []string{"toml", "yaml", "yml", "json"}

func (c *CLI) completionCommand() *cobra.Command {
	names := slices.Sorted(maps.Keys(shells))

	return &cobra.Command{
		Use:   "completion [" + strings.Join(names, "|") + "]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the given shell. Diagram arguments complete
to .toml, .yaml and .json files and --format completes to the known formats.

  source <(ddlayout completion bash)
  ddlayout completion zsh > "${fpath[1]}/_ddlayout"
  ddlayout completion fish > ~/.config/fish/completions/ddlayout.fish
  ddlayout completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             names,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shells[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeDiagram completes the single diagram argument of layout, render,
// watch and play.
func completeDiagram(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return diagramExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeOneOf completes a flag to a fixed set of values.
func completeOneOf(values ...string) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, prefix string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, prefix) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
