// Package cli implements the strata command-line interface.
//
// # Commands
//
//   - layout: compute a layout and write it as JSON
//   - render: compute (or load) a layout and draw it as SVG, PNG, PDF or DOT
//   - rank: print the rank assigned to every node
//   - cycles: list the cycles of a graph and the edges that break them
//   - components: list the weakly connected components of a graph
//   - inspect: browse a finished layout interactively
//   - serve: run the HTTP layout service
//   - cache: inspect and clear the layout cache
//
// Defaults come from the TOML config file (see internal/config); flags
// override it. All commands support --verbose (-v) for debug logging.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/internal/config"
	"github.com/matzehuels/strata/pkg/buildinfo"
	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Strata computes layered graph layouts",
		Long:          `Strata lays out directed graphs in ranks, Sugiyama style: cycles are broken, nodes ranked, crossings reduced and coordinates assigned. Layouts can be written as JSON, drawn as SVG/PNG/PDF or served over HTTP.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/strata/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.cyclesCommand())
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	completeFlagValues(root)

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc := c.Config.Cache
	if noCache {
		cc.Backend = config.BackendNone
	}
	backend, err := cc.Open(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "backend", cc.Backend, "error", err)
		backend = cache.NewNullCache()
	}
	return pipeline.NewRunner(backend, cc.Keyer(), c.Logger), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags registers the layout option flags on cmd. Flag defaults come
// from the config file, so they are bound when the command runs.
type layoutFlags struct {
	opts    pipeline.Options
	noCache bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.opts.Pipeline, "pipeline", "p", "", "layout pipeline: layered (default), minimal")
	fl.StringVarP(&f.opts.Rankdir, "rankdir", "r", "", "rank direction: TB, BT, LR, RL")
	fl.Float64Var(&f.opts.Nodesep, "nodesep", 0, "separation between nodes in a rank")
	fl.Float64Var(&f.opts.Ranksep, "ranksep", 0, "separation between ranks")
	fl.Float64Var(&f.opts.Edgesep, "edgesep", 0, "separation between edges in a rank")
	fl.Float64Var(&f.opts.Marginx, "marginx", 0, "horizontal margin around the drawing")
	fl.Float64Var(&f.opts.Marginy, "marginy", 0, "vertical margin around the drawing")
	fl.StringVar(&f.opts.Ranker, "ranker", "", "ranker: network-simplex (default), tight-tree, longest-path, none")
	fl.StringVar(&f.opts.Acyclicer, "acyclicer", "", "cycle breaking: dfs (default), greedy")
	fl.StringVar(&f.opts.Align, "align", "", "Brandes-Köpf alignment: UL, UR, DL, DR (default: balanced)")
	fl.DurationVar(&f.opts.Timeout, "timeout", 0, "layout deadline (default 30s, negative disables)")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "recompute even if a cached layout exists")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options merges the flags over the config file's [layout] section. Each
// run logs under its own short id.
func (c *CLI) options(f *layoutFlags) pipeline.Options {
	opts := c.Config.Layout.Options().Override(f.opts)
	opts.Logger = c.Logger.With("run", uuid.NewString()[:8])
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
