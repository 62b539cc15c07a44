package centrality

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
	ppi "github.com/gilchrisn/ppi-network-service/pkg/network"
)

// PageRankResult contains PageRank scores and derived metrics
type PageRankResult struct {
	Scores     map[models.ProteinIdentifier]float64
	MinScore   float64
	MaxScore   float64
	Iterations int
}

// PageRankCalculator computes PageRank scores for PPI graphs
type PageRankCalculator struct {
	dampingFactor float64
	tolerance     float64
	maxIterations int
}

// NewPageRankCalculator creates a new PageRank calculator
func NewPageRankCalculator() *PageRankCalculator {
	return &PageRankCalculator{
		dampingFactor: DefaultDampingFactor,
		tolerance:     DefaultTolerance,
		maxIterations: DefaultPageRankIterations,
	}
}

// WithDampingFactor sets the damping factor (default: 0.85)
func (pr *PageRankCalculator) WithDampingFactor(factor float64) *PageRankCalculator {
	pr.dampingFactor = factor
	return pr
}

// WithTolerance sets the per-node convergence tolerance (default: 1e-6)
func (pr *PageRankCalculator) WithTolerance(tolerance float64) *PageRankCalculator {
	pr.tolerance = tolerance
	return pr
}

// WithMaxIterations sets the iteration bound (default: 100)
func (pr *PageRankCalculator) WithMaxIterations(n int) *PageRankCalculator {
	pr.maxIterations = n
	return pr
}

// Calculate runs damped power iteration from the uniform vector over the
// both-direction view of g. Rank held by nodes without neighbours is spread
// evenly, so the scores always sum to 1.
func (pr *PageRankCalculator) Calculate(ctx context.Context, g *ppi.Graph) (*PageRankResult, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}

	directed := g.Directed()
	out := make([][]int64, n)
	for i := range out {
		for _, nd := range graph.NodesOf(directed.From(int64(i))) {
			out[i] = append(out[i], nd.ID())
		}
	}

	d := pr.dampingFactor
	N := float64(n)

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / N
	}
	next := make([]float64, n)

	for iter := 1; iter <= pr.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, &EngineError{Measure: models.MeasurePageRank, Iterations: iter, Err: err}
		}

		var dangling float64
		for i, targets := range out {
			if len(targets) == 0 {
				dangling += x[i]
			}
		}
		base := (1-d)/N + d*dangling/N
		for i := range next {
			next[i] = base
		}
		for i, targets := range out {
			if len(targets) == 0 {
				continue
			}
			share := d * x[i] / float64(len(targets))
			for _, t := range targets {
				next[t] += share
			}
		}

		if floats.Distance(next, x, 1) < N*pr.tolerance {
			return pr.result(g, next, iter), nil
		}
		x, next = next, x
	}

	return nil, &EngineError{
		Measure:    models.MeasurePageRank,
		Iterations: pr.maxIterations,
		Err:        ErrNotConverged,
	}
}

func (pr *PageRankCalculator) result(g *ppi.Graph, vec []float64, iterations int) *PageRankResult {
	scores := make(map[models.ProteinIdentifier]float64, len(vec))
	for i, score := range vec {
		scores[g.Symbol(int64(i))] = score
	}
	res := NewPageRankResult(scores)
	res.Iterations = iterations
	return res
}

// NewPageRankResult wraps precomputed scores, e.g. the PageRank entry of a Result
func NewPageRankResult(scores map[models.ProteinIdentifier]float64) *PageRankResult {
	res := &PageRankResult{Scores: scores}
	first := true
	for _, score := range scores {
		if first {
			res.MinScore, res.MaxScore = score, score
			first = false
			continue
		}
		if score < res.MinScore {
			res.MinScore = score
		}
		if score > res.MaxScore {
			res.MaxScore = score
		}
	}
	return res
}

// NormalizedScore returns a PageRank score mapped to the 0-1 range
func (result *PageRankResult) NormalizedScore(protein models.ProteinIdentifier) float64 {
	score, exists := result.Scores[protein]
	if !exists {
		return 0.0
	}

	if result.MaxScore == result.MinScore {
		return 1.0 // All nodes have same score
	}

	return (score - result.MinScore) / (result.MaxScore - result.MinScore)
}

// RadiusFromScore converts a PageRank score to a node radius for drawing
func (result *PageRankResult) RadiusFromScore(protein models.ProteinIdentifier, minRadius, maxRadius float64) float64 {
	normalized := result.NormalizedScore(protein)
	return minRadius + normalized*(maxRadius-minRadius)
}
