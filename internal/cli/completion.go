package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/pipeline"
)

var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(r *cobra.Command, w io.Writer) error { return r.GenBashCompletionV2(w, true) },
	"zsh":        func(r *cobra.Command, w io.Writer) error { return r.GenZshCompletion(w) },
	"fish":       func(r *cobra.Command, w io.Writer) error { return r.GenFishCompletion(w, true) },
	"powershell": func(r *cobra.Command, w io.Writer) error { return r.GenPowerShellCompletionWithDesc(w) },
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Print a shell completion script",
		Long: `Print a completion script for the given shell.

  source <(flowmap completion bash)
  flowmap completion zsh > "${fpath[1]}/_flowmap"
  flowmap completion fish > ~/.config/fish/completions/flowmap.fish
  flowmap completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, ok := completionShells[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell %q", args[0])
			}
			return gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// viewFormats lists the formats each view renders to, for flag completion.
var viewFormats = map[string][]string{
	pipeline.ViewFull:   {pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatJSON},
	pipeline.ViewSimple: {pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatDOT},
}

// completeRenderFlags registers value completion for --view and --format.
// Formats follow the view chosen on the command line so far; fixedView
// pins it for commands without a --view flag.
func completeRenderFlags(cmd *cobra.Command, fixedView string) {
	if fixedView == "" {
		_ = cmd.RegisterFlagCompletionFunc("view", cobra.FixedCompletions(
			[]string{pipeline.ViewFull, pipeline.ViewSimple}, cobra.ShellCompDirectiveNoFileComp))
	}
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		view := fixedView
		if view == "" {
			view, _ = cmd.Flags().GetString("view")
		}
		return formatCompletions(view, toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})
}

// formatCompletions completes the last entry of a comma-separated list,
// skipping formats already given.
func formatCompletions(view, toComplete string) []string {
	done, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		done, last = toComplete[:i+1], toComplete[i+1:]
	}
	given := parseFormats(done)
	var out []string
	for _, f := range viewFormats[view] {
		if !strings.HasPrefix(f, last) || (done != "" && slices.Contains(given, f)) {
			continue
		}
		out = append(out, done+f)
	}
	return out
}
