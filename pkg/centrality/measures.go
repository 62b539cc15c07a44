package centrality

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
	ppi "github.com/gilchrisn/ppi-network-service/pkg/network"
)

// Degree returns deg(v)/(n-1) over the loop-free projection; 0 when n == 1
func Degree(g *ppi.Graph) map[models.ProteinIdentifier]float64 {
	n := g.NodeCount()
	scores := make(map[models.ProteinIdentifier]float64, n)
	if n == 1 {
		for _, s := range g.Nodes() {
			scores[s] = 0
		}
		return scores
	}

	scale := 1 / float64(n-1)
	for _, s := range g.Nodes() {
		scores[s] = float64(g.SimpleDegree(s)) * scale
	}
	return scores
}

// Betweenness returns normalized shortest-path betweenness.
//
// gonum sums over ordered (s, t) pairs, so for an undirected graph the raw
// value is twice the unordered-pair count and the standard undirected
// normalization 2/((n-1)(n-2)) becomes 1/((n-1)(n-2)).
func Betweenness(g *ppi.Graph) map[models.ProteinIdentifier]float64 {
	n := g.NodeCount()
	scores := make(map[models.ProteinIdentifier]float64, n)
	for _, s := range g.Nodes() {
		scores[s] = 0
	}
	if n <= 2 {
		return scores
	}

	// gonum only reports non-zero scores
	raw := network.Betweenness(g.Undirected())
	scale := 1 / float64((n-1)*(n-2))
	for id, b := range raw {
		scores[g.Symbol(id)] = b * scale
	}
	return scores
}

// Closeness returns Wasserman-Faust closeness: nodes outside v's component are
// left out of the average distance and the score is scaled by the fraction of
// the graph that v reaches
func Closeness(g *ppi.Graph) map[models.ProteinIdentifier]float64 {
	n := g.NodeCount()
	scores := make(map[models.ProteinIdentifier]float64, n)
	u := g.Undirected()

	for _, s := range g.Nodes() {
		id, _ := g.ID(s)

		var total, reached int
		bf := traverse.BreadthFirst{}
		bf.Walk(u, simple.Node(id), func(_ graph.Node, depth int) bool {
			total += depth
			reached++
			return false
		})

		if total == 0 || n <= 1 {
			scores[s] = 0
			continue
		}
		r := float64(reached - 1)
		scores[s] = (r / float64(total)) * (r / float64(n-1))
	}
	return scores
}

// Eigenvector returns the principal eigenvector of the adjacency matrix.
//
// Power iteration runs on (A + I) from the uniform vector, normalizing to unit
// L2 length each step. It stops once the L1 change drops below n*tol. The
// identity shift keeps bipartite graphs from oscillating. On a disconnected
// graph the vector concentrates on the component with the largest spectral
// radius; the other components decay towards zero.
func Eigenvector(ctx context.Context, g *ppi.Graph, maxIter int, tol float64) (map[models.ProteinIdentifier]float64, error) {
	n := g.NodeCount()
	if n == 0 {
		return map[models.ProteinIdentifier]float64{}, nil
	}
	adj := adjacency(g)

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	next := make([]float64, n)

	for iter := 1; iter <= maxIter; iter++ {
		if iter%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &EngineError{Measure: models.MeasureEigenvector, Iterations: iter, Err: err}
			}
		}

		copy(next, x)
		for v, nbrs := range adj {
			for _, w := range nbrs {
				next[w] += x[v]
			}
		}

		norm := floats.Norm(next, 2)
		if norm == 0 {
			norm = 1
		}
		floats.Scale(1/norm, next)

		if floats.Distance(next, x, 1) < float64(n)*tol {
			scores := make(map[models.ProteinIdentifier]float64, n)
			for i, val := range next {
				scores[g.Symbol(int64(i))] = val
			}
			return scores, nil
		}
		x, next = next, x
	}

	return nil, &EngineError{
		Measure:    models.MeasureEigenvector,
		Iterations: maxIter,
		Err:        ErrNotConverged,
	}
}

// adjacency returns neighbour ids indexed by node id over the loop-free projection
func adjacency(g *ppi.Graph) [][]int64 {
	u := g.Undirected()
	adj := make([][]int64, g.NodeCount())
	for i := range adj {
		nodes := graph.NodesOf(u.From(int64(i)))
		nbrs := make([]int64, 0, len(nodes))
		for _, nd := range nodes {
			nbrs = append(nbrs, nd.ID())
		}
		adj[i] = nbrs
	}
	return adj
}
