package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	layoutFlags
	output      string
	formats     string
	inputFormat string
	fromLayout  bool
}

// renderCommand creates the render command for generating drawings.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Draw a graph document or a finished layout",
		Long: `Lay out a graph document and draw it, or draw a layout produced by
"strata layout" (--layout). Drawings are made with Graphviz at the computed
coordinates.

With a single format and -o, the drawing is written to that exact path; -o -
writes to stdout. Otherwise each format is written next to the input (or to
the -o base path) with its extension.`,
		Example: `  strata render graph.yaml -f svg,png
  strata render --layout layout.json -f pdf -o out/graph
  strata render graph.json -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: svg (default), png, pdf, dot, json")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "document format for stdin: json, yaml, toml")
	cmd.Flags().BoolVar(&opts.fromLayout, "layout", false, "input is a layout JSON file rather than a graph document")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	formats := parseFormats(opts.formats)
	for _, f := range formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, cached, err := c.loadResult(ctx, cmd.ErrOrStderr(), runner, input, opts)
	if err != nil {
		return err
	}

	spin := startSpinner(ctx, cmd.ErrOrStderr(), "Rendering")
	written := make([]string, 0, len(formats))
	for _, f := range formats {
		spin.Say("Rendering " + f)
		data, _, err := runner.RenderWithCacheInfo(ctx, res, f)
		if err != nil {
			spin.Stop()
			return fmt.Errorf("render %s: %w", f, err)
		}
		path := outputPath(input, opts.output, f, len(formats) > 1)
		if err := writeOutput(path, data); err != nil {
			spin.Stop()
			return err
		}
		written = append(written, path)
	}
	spin.Stop()

	if opts.output == "-" {
		return nil
	}
	con := newConsole(cmd)
	con.ok("Rendered %s", strings.Join(formats, ", "))
	con.summary(len(res.Nodes), len(res.Edges), cached)
	for _, p := range written {
		con.file(p)
	}
	return nil
}

// loadResult reads a finished layout or lays out a graph document, showing
// progress on status.
func (c *CLI) loadResult(ctx context.Context, status io.Writer, runner *pipeline.Runner, input string, opts *renderOpts) (pkgio.Result, bool, error) {
	if opts.fromLayout {
		if input == "-" {
			data, err := readAll(os.Stdin)
			if err != nil {
				return pkgio.Result{}, false, err
			}
			res, err := pkgio.UnmarshalResult(data)
			return res, false, err
		}
		res, err := pkgio.ReadResultFile(input)
		return res, false, err
	}

	doc, err := readDocument(input, opts.inputFormat)
	if err != nil {
		return pkgio.Result{}, false, err
	}
	return c.layoutStages(ctx, status, runner, doc, &opts.layoutFlags)
}

// outputPath returns where the drawing in format goes. An explicit output is
// used verbatim for a single format and as a base path for several. Derived
// JSON paths get a ".layout.json" suffix so they never replace a JSON input.
func outputPath(input, output, format string, multi bool) string {
	if output == "-" {
		return output
	}
	if output != "" && !multi {
		return output
	}
	ext := "." + format
	if format == pipeline.FormatJSON {
		ext = ".layout.json"
	}
	return basePath(input, output) + ext
}

// basePath derives the base output path (without extension).
func basePath(input, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == "" || input == "-" {
		return "graph"
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); path != "-" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
