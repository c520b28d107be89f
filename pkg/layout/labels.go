package layout

import (
	"github.com/matzehuels/strata/pkg/graph"
)

// Graph is the layout graph every stage operates on.
type Graph = graph.Graph[*NodeLabel, *EdgeLabel, *GraphLabel]

// Rankdir selects the direction ranks flow in.
type Rankdir string

const (
	RankdirTB Rankdir = "TB" // top to bottom
	RankdirBT Rankdir = "BT" // bottom to top
	RankdirLR Rankdir = "LR" // left to right
	RankdirRL Rankdir = "RL" // right to left
)

// Horizontal reports whether ranks are laid out along the x axis.
func (r Rankdir) Horizontal() bool { return r == RankdirLR || r == RankdirRL }

// LabelPos is the position of an edge label relative to its edge.
type LabelPos string

const (
	LabelPosCenter LabelPos = "c"
	LabelPosLeft   LabelPos = "l"
	LabelPosRight  LabelPos = "r"
)

// DummyKind marks synthetic nodes inserted by the layout stages.
type DummyKind string

const (
	// DummyNone marks a real node.
	DummyNone DummyKind = ""
	// DummyEdge is an intermediate point of a long edge.
	DummyEdge DummyKind = "edge"
	// DummyEdgeLabel is the chain member reserving an edge label's box.
	DummyEdgeLabel DummyKind = "edge-label"
	// DummyEdgeProxy temporarily records the rank of an edge label.
	DummyEdgeProxy DummyKind = "edge-proxy"
	// DummySelfEdge reserves space for a self-loop next to its node.
	DummySelfEdge DummyKind = "selfedge"
	// DummyBorder is a cluster border segment.
	DummyBorder DummyKind = "border"
)

// Align selects a single Brandes-Köpf alignment instead of balancing all four.
type Align string

const (
	AlignNone Align = ""
	AlignUL   Align = "UL"
	AlignUR   Align = "UR"
	AlignDL   Align = "DL"
	AlignDR   Align = "DR"
)

// Ranker names accepted in [GraphLabel.Ranker].
const (
	RankerNetworkSimplex = "network-simplex"
	RankerTightTree      = "tight-tree"
	RankerLongestPath    = "longest-path"
	RankerNone           = "none"
)

// AcyclicerGreedy selects the weighted greedy feedback arc set. Any other
// value uses the depth-first heuristic.
const AcyclicerGreedy = "greedy"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// NodeLabel carries the geometry of a node and the bookkeeping the layout
// stages attach to it.
type NodeLabel struct {
	// Label is the display text. Layout never reads it.
	Label string

	Width  float64
	Height float64
	// X and Y are the center of the node once positioned.
	X float64
	Y float64

	Rank  int
	Order int

	// Dummy is non-empty for synthetic nodes.
	Dummy DummyKind
	// BorderType is "borderLeft" or "borderRight" for cluster border dummies.
	BorderType string
	// LabelPos and LabelOffset are copied from the edge for edge-label
	// dummies.
	LabelPos    LabelPos
	LabelOffset float64

	// EdgeLabel and EdgeObj point back to the edge a dummy chain replaces.
	EdgeLabel *EdgeLabel
	EdgeObj   graph.EdgeKey

	// SelfEdges holds self-loops removed before ranking.
	SelfEdges []SelfEdge
}

// IsDummy reports whether the node was synthesized by a layout stage.
func (n *NodeLabel) IsDummy() bool { return n != nil && n.Dummy != DummyNone }

// EdgeLabel carries the layout constraints of an edge and its routed result.
type EdgeLabel struct {
	// Label is the display text. Layout only reads Width and Height.
	Label string

	// Width and Height are the size of the edge label box, zero for none.
	Width       float64
	Height      float64
	LabelPos    LabelPos
	LabelOffset float64
	// LabelRank is the rank of the chain dummy carrying the label box. Only
	// meaningful when the edge has a label box.
	LabelRank int

	// Minlen is the minimum rank span of the edge.
	Minlen int
	// Weight is the importance of keeping the edge short and straight.
	Weight float64

	// Reversed and ForwardName record a reversal done while breaking cycles.
	Reversed    bool
	ForwardName string

	// Points is the routed polyline.
	Points []Point
	// Position is the center of the label box once placed.
	Position *Point
}

// NewEdgeLabel returns an edge label with the default constraints.
func NewEdgeLabel() *EdgeLabel {
	return &EdgeLabel{Minlen: 1, Weight: 1, LabelPos: LabelPosCenter, LabelOffset: 10}
}

// HasLabel reports whether the edge carries a label box.
func (e *EdgeLabel) HasLabel() bool { return e != nil && e.Width > 0 && e.Height > 0 }

// Clone returns a deep copy of the label.
func (e *EdgeLabel) Clone() *EdgeLabel {
	if e == nil {
		return nil
	}
	c := *e
	c.Points = append([]Point(nil), e.Points...)
	if e.Position != nil {
		p := *e.Position
		c.Position = &p
	}
	return &c
}

// SelfEdge is a self-loop parked on its node while ranks and orders are
// computed.
type SelfEdge struct {
	Key   graph.EdgeKey
	Label *EdgeLabel
}

// GraphLabel holds the graph-wide layout options and state.
type GraphLabel struct {
	Rankdir Rankdir
	Nodesep float64
	Ranksep float64
	Edgesep float64
	Marginx float64
	Marginy float64

	Align     Align
	Ranker    string
	Acyclicer string

	// DummyChains holds the first dummy of every chain created when long
	// edges are split.
	DummyChains []string
	// NodeRankFactor enables removal of empty ranks not divisible by it.
	NodeRankFactor int
	// IDSeq is the last suffix handed out by [UniqueID], per prefix.
	IDSeq map[string]int

	// Width and Height are the bounds of the finished layout.
	Width  float64
	Height float64
}

// DefaultGraphLabel returns a graph label with the default spacing.
func DefaultGraphLabel() *GraphLabel {
	return &GraphLabel{
		Rankdir: RankdirTB,
		Nodesep: 50,
		Ranksep: 50,
		Edgesep: 20,
	}
}

// NewGraph creates a layout graph with default label factories installed.
func NewGraph(opts graph.Options) *Graph {
	g := graph.New[*NodeLabel, *EdgeLabel, *GraphLabel](opts)
	g.SetDefaultNodeLabel(func(string) *NodeLabel { return &NodeLabel{} })
	g.SetDefaultEdgeLabel(func(_, _, _ string) *EdgeLabel { return NewEdgeLabel() })
	g.SetGraphLabel(DefaultGraphLabel())
	return g
}

// GraphOf returns the graph label, creating a default one when unset.
func GraphOf(g *Graph) *GraphLabel {
	gl := g.GraphLabel()
	if gl == nil {
		gl = DefaultGraphLabel()
		g.SetGraphLabel(gl)
	}
	return gl
}

// NodeOf returns the label of v, or nil if v does not exist.
func NodeOf(g *Graph, v string) *NodeLabel {
	n, _ := g.Node(v)
	return n
}

// EdgeOf returns the label of the edge k, or nil if it does not exist.
func EdgeOf(g *Graph, k graph.EdgeKey) *EdgeLabel {
	e, _ := g.EdgeByKey(k)
	return e
}

// RankOf returns the rank of v, or 0 when v or its label is missing.
func RankOf(g *Graph, v string) int {
	if n := NodeOf(g, v); n != nil {
		return n.Rank
	}
	return 0
}

// Minlen returns the minimum length of the edge k, or 1 when it is missing.
func Minlen(g *Graph, k graph.EdgeKey) int {
	if e := EdgeOf(g, k); e != nil {
		return e.Minlen
	}
	return 1
}

// Weight returns the weight of the edge k, or 0 when it is missing.
func Weight(g *Graph, k graph.EdgeKey) float64 {
	if e := EdgeOf(g, k); e != nil {
		return e.Weight
	}
	return 0
}

// Clone returns a copy of the node label. The referenced edge label and
// parked self-loops are shared.
func (n *NodeLabel) Clone() *NodeLabel {
	if n == nil {
		return nil
	}
	c := *n
	c.SelfEdges = append([]SelfEdge(nil), n.SelfEdges...)
	return &c
}
