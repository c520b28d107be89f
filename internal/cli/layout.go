package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// layoutOpts holds the command-line flags for the layout command.
type layoutOpts struct {
	layoutFlags
	output string
	format string
}

// layoutCommand creates the layout command for computing graph layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{}

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute the layout of a graph document",
		Long: `Compute node positions and edge routes for a graph document.

The document may be JSON, YAML or TOML (chosen by extension); "-" reads
stdin, JSON unless --input-format says otherwise. The layout is written as
JSON to stdout or to the file given with -o.`,
		Example: `  strata layout graph.yaml -o layout.json
  strata layout graph.json --rankdir LR --ranker longest-path
  cat graph.json | strata layout - --pipeline minimal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.format, "input-format", "", "document format for stdin: json, yaml, toml")

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, opts *layoutOpts) error {
	ctx := cmd.Context()
	doc, err := readDocument(input, opts.format)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, cached, err := c.layoutStages(ctx, cmd.ErrOrStderr(), runner, doc, &opts.layoutFlags)
	if err != nil {
		return err
	}

	data, err := pkgio.MarshalResult(res)
	if err != nil {
		return err
	}
	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(append(data, '\n')); err != nil {
		return err
	}

	if opts.output != "" && opts.output != "-" {
		con := newConsole(cmd)
		con.ok("Layout complete")
		con.summary(len(res.Nodes), len(res.Edges), cached)
		con.file(opts.output)
		con.hint("Render it", "strata render --layout "+opts.output)
	}
	return nil
}

// layoutStages lays out doc while a spinner on status names the pipeline
// stage that finished last.
func (c *CLI) layoutStages(ctx context.Context, status io.Writer, runner *pipeline.Runner, doc *pkgio.Document, f *layoutFlags) (pkgio.Result, bool, error) {
	spin := startSpinner(ctx, status, "Laying out")
	restore := spin.track()
	prog := newProgress(c.Logger)
	res, cached, err := runner.LayoutWithCacheInfo(ctx, doc, c.options(f))
	restore()
	spin.Stop()
	if err != nil {
		return pkgio.Result{}, false, err
	}
	prog.done(fmt.Sprintf("Laid out %d nodes", len(res.Nodes)))
	return res, cached, nil
}
