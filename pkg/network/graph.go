// Package network turns a provider edge list into an immutable undirected PPI graph.
//
// Nodes are protein symbols in first-seen order; gonum node ids are the index of
// the symbol in that order. Repeated pairs collapse into one edge. A self-pair
// (A, A) is kept as a self-loop: it counts as one edge and adds 2 to the degree
// of A, but it is left out of the simple projection returned by Undirected and
// Directed because gonum simple graphs cannot hold self edges.
package network

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// Graph is an undirected, unweighted simple PPI graph keyed by protein symbol
type Graph struct {
	g         *simple.UndirectedGraph
	symbols   []models.ProteinIdentifier
	ids       map[models.ProteinIdentifier]int64
	edges     []models.InteractionEdge
	selfLoops map[int64]bool
}

// Build constructs a graph from the interaction set. Pure; never fails.
func Build(edges models.InteractionSet) *Graph {
	g := &Graph{
		g:         simple.NewUndirectedGraph(),
		ids:       make(map[models.ProteinIdentifier]int64),
		selfLoops: make(map[int64]bool),
	}

	for _, edge := range edges {
		from := g.addNode(edge.ProteinA)
		to := g.addNode(edge.ProteinB)

		if from == to {
			if !g.selfLoops[from] {
				g.selfLoops[from] = true
				g.edges = append(g.edges, edge)
			}
			continue
		}

		// Only add if edge doesn't already exist
		if !g.g.HasEdgeBetween(from, to) {
			g.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			g.edges = append(g.edges, edge)
		}
	}

	return g
}

func (g *Graph) addNode(symbol models.ProteinIdentifier) int64 {
	if id, ok := g.ids[symbol]; ok {
		return id
	}
	id := int64(len(g.symbols))
	g.symbols = append(g.symbols, symbol)
	g.ids[symbol] = id
	g.g.AddNode(simple.Node(id))
	return id
}

// NodeCount returns the number of distinct proteins
func (g *Graph) NodeCount() int {
	return len(g.symbols)
}

// EdgeCount returns the number of distinct unordered pairs, self-loops included
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns the protein symbols in first-seen order
func (g *Graph) Nodes() []models.ProteinIdentifier {
	out := make([]models.ProteinIdentifier, len(g.symbols))
	copy(out, g.symbols)
	return out
}

// Edges returns each distinct pair once, in the orientation it was first seen
func (g *Graph) Edges() []models.InteractionEdge {
	out := make([]models.InteractionEdge, len(g.edges))
	copy(out, g.edges)
	return out
}

// ID maps a protein symbol to its gonum node id
func (g *Graph) ID(symbol models.ProteinIdentifier) (int64, bool) {
	id, ok := g.ids[symbol]
	return id, ok
}

// Symbol maps a gonum node id back to the protein symbol
func (g *Graph) Symbol(id int64) models.ProteinIdentifier {
	if id < 0 || id >= int64(len(g.symbols)) {
		return ""
	}
	return g.symbols[id]
}

// HasEdge reports whether a and b interact (either orientation)
func (g *Graph) HasEdge(a, b models.ProteinIdentifier) bool {
	from, ok := g.ids[a]
	if !ok {
		return false
	}
	to, ok := g.ids[b]
	if !ok {
		return false
	}
	if from == to {
		return g.selfLoops[from]
	}
	return g.g.HasEdgeBetween(from, to)
}

// HasSelfLoop reports whether the provider listed symbol as interacting with itself
func (g *Graph) HasSelfLoop(symbol models.ProteinIdentifier) bool {
	id, ok := g.ids[symbol]
	return ok && g.selfLoops[id]
}

// Neighbors returns the distinct neighbours of symbol, excluding itself,
// ordered by first appearance in the graph
func (g *Graph) Neighbors(symbol models.ProteinIdentifier) []models.ProteinIdentifier {
	id, ok := g.ids[symbol]
	if !ok {
		return nil
	}
	ids := graph.NodesOf(g.g.From(id))
	present := make(map[int64]bool, len(ids))
	for _, n := range ids {
		present[n.ID()] = true
	}
	out := make([]models.ProteinIdentifier, 0, len(ids))
	for nid, s := range g.symbols {
		if present[int64(nid)] {
			out = append(out, s)
		}
	}
	return out
}

// Degree counts incident edges; a self-loop contributes 2
func (g *Graph) Degree(symbol models.ProteinIdentifier) int {
	id, ok := g.ids[symbol]
	if !ok {
		return 0
	}
	d := g.g.From(id).Len()
	if g.selfLoops[id] {
		d += 2
	}
	return d
}

// SimpleDegree counts distinct neighbours, ignoring any self-loop
func (g *Graph) SimpleDegree(symbol models.ProteinIdentifier) int {
	id, ok := g.ids[symbol]
	if !ok {
		return 0
	}
	return g.g.From(id).Len()
}

// Degrees returns the degree table in node order
func (g *Graph) Degrees() []models.NodeDegree {
	out := make([]models.NodeDegree, 0, len(g.symbols))
	for _, s := range g.symbols {
		out = append(out, models.NodeDegree{Protein: s, Degree: g.Degree(s)})
	}
	return out
}

// Undirected exposes the loop-free projection for gonum algorithms. Callers must not mutate it.
func (g *Graph) Undirected() graph.Undirected {
	return g.g
}

// Directed returns the loop-free projection with every edge in both directions,
// the form gonum's random-walk algorithms expect
func (g *Graph) Directed() graph.Directed {
	directed := simple.NewDirectedGraph()

	// Add all nodes
	for id := range g.symbols {
		directed.AddNode(simple.Node(int64(id)))
	}

	// Add edges in both directions
	edges := g.g.Edges()
	for edges.Next() {
		edge := edges.Edge()
		directed.SetEdge(simple.Edge{F: edge.From(), T: edge.To()})
		directed.SetEdge(simple.Edge{F: edge.To(), T: edge.From()})
	}

	return directed
}
