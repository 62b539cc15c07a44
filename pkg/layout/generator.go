// Package layout places the nodes of a PPI graph on a 2-D canvas.
//
// Positions come from classical MDS over hop distances and are scaled to
// [-100, 100] on each axis. Node radius follows the PageRank score.
package layout

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/ppi-network-service/pkg/centrality"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/network"
)

const (
	CanvasMin = -100.0
	CanvasMax = 100.0
	MinRadius = 3.0
	MaxRadius = 20.0

	// DefaultMaxNodes bounds the O(n^3) eigendecomposition
	DefaultMaxNodes = 3000
)

// Generator orchestrates coordinate generation using PageRank and MDS
type Generator struct {
	mdsCalc  *MDSCalculator
	maxNodes int
	logger   zerolog.Logger
}

// NewGenerator creates a new coordinate generator
func NewGenerator(logger zerolog.Logger) *Generator {
	return &Generator{
		mdsCalc:  NewMDSCalculator(),
		maxNodes: DefaultMaxNodes,
		logger:   logger.With().Str("component", "layout").Logger(),
	}
}

// WithMaxNodes sets the largest graph the generator will lay out; 0 disables the bound
func (g *Generator) WithMaxNodes(n int) *Generator {
	g.maxNodes = n
	return g
}

// WithMaxDistance sets the hop distance used for unreachable pairs
func (g *Generator) WithMaxDistance(d float64) *Generator {
	g.mdsCalc.WithMaxDistance(d)
	return g
}

// Generate returns a position per protein. A nil pageRank gives every node the
// minimum radius.
func (g *Generator) Generate(graph *network.Graph, pageRank *centrality.PageRankResult) (map[models.ProteinIdentifier]models.NodePosition, error) {
	coordinates := make(map[models.ProteinIdentifier]models.NodePosition)
	if graph == nil || graph.NodeCount() == 0 {
		return coordinates, nil
	}

	if g.maxNodes > 0 && graph.NodeCount() > g.maxNodes {
		return nil, fmt.Errorf("graph has %d nodes, layout limit is %d", graph.NodeCount(), g.maxNodes)
	}

	g.logger.Debug().
		Int("nodes", graph.NodeCount()).
		Msg("Computing MDS layout")

	mdsResult, err := g.mdsCalc.Calculate(graph)
	if err != nil {
		return nil, fmt.Errorf("MDS calculation failed: %w", err)
	}

	for _, protein := range graph.Nodes() {
		id, _ := graph.ID(protein)
		position := mdsResult.GetScaledPosition(id, CanvasMin, CanvasMax)

		radius := MinRadius
		if pageRank != nil {
			radius = pageRank.RadiusFromScore(protein, MinRadius, MaxRadius)
		}

		coordinates[protein] = models.NodePosition{
			X:      position.X,
			Y:      position.Y,
			Radius: radius,
		}
	}

	g.logger.Debug().
		Int("coordinates_generated", len(coordinates)).
		Msg("Layout complete")

	return coordinates, nil
}
