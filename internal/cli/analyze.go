package cli

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/graph/alg"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/layout/acyclic"
	"github.com/matzehuels/strata/pkg/layout/rank"
)

// =============================================================================
// Shared
// =============================================================================

// analyzeOpts holds the flags shared by rank, cycles and components.
type analyzeOpts struct {
	inputFormat string
	json        bool
}

func (o *analyzeOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.inputFormat, "input-format", "", "document format for stdin: json, yaml, toml")
	cmd.Flags().BoolVar(&o.json, "json", false, "print JSON instead of a table")
}

// leafView returns a flat multigraph over the nodes of g without children.
// Edges touching a cluster are dropped. Labels are shared with g.
func leafView(g *layout.Graph) *layout.Graph {
	flat := layout.AsNonCompoundGraph(g)
	v := layout.NewGraph(graph.Options{Multigraph: true})
	v.SetGraphLabel(flat.GraphLabel())
	for _, id := range flat.Nodes() {
		v.SetNode(id, layout.NodeOf(flat, id))
	}
	for _, k := range g.Edges() {
		if g.HasChildren(k.V) || g.HasChildren(k.W) {
			continue
		}
		v.SetEdgeKey(k, layout.EdgeOf(g, k))
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// rank
// =============================================================================

// RankRow is one node of the rank command's output.
type RankRow struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

// computeRanks breaks cycles and ranks the leaf nodes of g with the ranker
// named in its graph label. Ranks start at 0. Rows are ordered by rank, then
// by insertion order.
func computeRanks(g *layout.Graph) []RankRow {
	v := leafView(g)
	acyclic.Run(v)
	rank.Rank(v)
	layout.NormalizeRanks(v)
	acyclic.Undo(v)

	rows := make([]RankRow, 0, v.NodeCount())
	for _, id := range v.Nodes() {
		rows = append(rows, RankRow{ID: id, Rank: layout.RankOf(v, id)})
	}
	slices.SortStableFunc(rows, func(a, b RankRow) int { return a.Rank - b.Rank })
	return rows
}

func (c *CLI) rankCommand() *cobra.Command {
	var (
		opts      analyzeOpts
		ranker    string
		acyclicer string
	)
	cmd := &cobra.Command{
		Use:   "rank [file]",
		Short: "Print the rank of every node",
		Long: `Break cycles and assign every node a rank, without computing coordinates.
Edges into or out of clusters are ignored.`,
		Example: `  strata rank graph.yaml --ranker longest-path`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateRanker(ranker); err != nil {
				return err
			}
			if err := errors.ValidateAcyclicer(acyclicer); err != nil {
				return err
			}
			g, err := readGraph(args[0], opts.inputFormat)
			if err != nil {
				return err
			}
			gl := layout.GraphOf(g)
			if ranker != "" {
				gl.Ranker = ranker
			}
			if acyclicer != "" {
				gl.Acyclicer = acyclicer
			}

			rows := computeRanks(g)
			c.Logger.Debug("ranked", "nodes", len(rows), "ranker", gl.Ranker)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, rows)
			}
			table := make([][]string, len(rows))
			for i, r := range rows {
				table[i] = []string{r.ID, strconv.Itoa(r.Rank)}
			}
			console{w: out}.table([]string{"Node", "Rank"}, table)
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&ranker, "ranker", "", "ranker: network-simplex (default), tight-tree, longest-path, none")
	cmd.Flags().StringVar(&acyclicer, "acyclicer", "", "cycle breaking: dfs (default), greedy")
	return cmd
}

// =============================================================================
// cycles
// =============================================================================

// CycleReport lists the cycles of a graph and the edges each heuristic
// reverses to break them.
type CycleReport struct {
	Cycles [][]string      `json:"cycles"`
	DFS    []graph.EdgeKey `json:"dfs"`
	Greedy []graph.EdgeKey `json:"greedy"`
}

func findCycles(g *layout.Graph) CycleReport {
	v := leafView(g)
	return CycleReport{
		Cycles: alg.FindCycles(v),
		DFS:    acyclic.DFSFAS(v),
		Greedy: acyclic.GreedyFAS(v, func(e *layout.EdgeLabel) int {
			if e == nil {
				return 1
			}
			return int(e.Weight + 0.5)
		}),
	}
}

func (c *CLI) cyclesCommand() *cobra.Command {
	var (
		opts  analyzeOpts
		check bool
	)
	cmd := &cobra.Command{
		Use:   "cycles [file]",
		Short: "List cycles and the edges that break them",
		Long: `List every cycle (strongly connected component or self-loop) and the
feedback arc sets found by the dfs and greedy cycle breakers. Exits with an
error when the graph has cycles and --check is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(args[0], opts.inputFormat)
			if err != nil {
				return err
			}
			report := findCycles(g)
			if err := printCycles(cmd.OutOrStdout(), report, opts.json); err != nil {
				return err
			}
			if check && len(report.Cycles) > 0 {
				return errors.New(errors.ErrCodeInvalidInput, "graph has %d cycles", len(report.Cycles))
			}
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&check, "check", false, "fail when the graph has cycles")
	return cmd
}

func printCycles(out io.Writer, report CycleReport, asJSON bool) error {
	if asJSON {
		return writeJSON(out, report)
	}
	con := console{w: out}
	if len(report.Cycles) == 0 {
		con.ok("No cycles")
		return nil
	}
	con.warn("%d cycles", len(report.Cycles))
	rows := make([][]string, len(report.Cycles))
	for i, cyc := range report.Cycles {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(len(cyc)), strings.Join(cyc, ", ")}
	}
	con.table([]string{"#", "Size", "Nodes"}, rows)
	con.field("dfs", edgeList(report.DFS))
	con.field("greedy", edgeList(report.Greedy))
	return nil
}

func edgeList(keys []graph.EdgeKey) string {
	if len(keys) == 0 {
		return "(none)"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// components
// =============================================================================

func (c *CLI) componentsCommand() *cobra.Command {
	var opts analyzeOpts
	cmd := &cobra.Command{
		Use:   "components [file]",
		Short: "List the weakly connected components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(args[0], opts.inputFormat)
			if err != nil {
				return err
			}
			comps := alg.Components(leafView(g))
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, comps)
			}
			rows := make([][]string, len(comps))
			for i, comp := range comps {
				rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(len(comp)), strings.Join(comp, ", ")}
			}
			console{w: out}.table([]string{"#", "Size", "Nodes"}, rows)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}
