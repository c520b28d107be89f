package cli

import (
	"io"
	"slices"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// completionScripts maps a shell to the cobra generator for its script.
var completionScripts = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

// flagValues lists the fixed values offered when completing a flag.
var flagValues = map[string][]string{
	"pipeline":     {pipeline.PipelineLayered, pipeline.PipelineMinimal},
	"rankdir":      {string(layout.RankdirTB), string(layout.RankdirBT), string(layout.RankdirLR), string(layout.RankdirRL)},
	"ranker":       {layout.RankerNetworkSimplex, layout.RankerTightTree, layout.RankerLongestPath, layout.RankerNone},
	"acyclicer":    {"dfs", layout.AcyclicerGreedy},
	"align":        {"UL", "UR", "DL", "DR"},
	"format":       pipeline.Formats,
	"input-format": pkgio.Formats,
}

func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(completionScripts))
	for sh := range completionScripts {
		shells = append(shells, sh)
	}
	slices.Sort(shells)

	return &cobra.Command{
		Use:   "completion [bash|fish|powershell|zsh]",
		Short: "Generate shell completion scripts",
		Long: `Print the completion script for a shell. Besides commands and flags it
completes the values of --pipeline, --ranker, --rankdir, --format and the
other enumerated layout options.`,
		Example: `  source <(strata completion bash)
  strata completion zsh > "${fpath[1]}/_strata"
  strata completion fish > ~/.config/fish/completions/strata.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionScripts[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeFlagValues registers value completions for every flag of cmd and
// its subcommands named in flagValues.
func completeFlagValues(cmd *cobra.Command) {
	for name, values := range flagValues {
		if cmd.LocalNonPersistentFlags().Lookup(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
	for _, sub := range cmd.Commands() {
		completeFlagValues(sub)
	}
}
