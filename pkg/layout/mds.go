package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/ppi-network-service/pkg/network"
)

// eigenvalues at or below this fraction of the largest are treated as zero
const relativeEigenFloor = 1e-9

// MDSResult contains 2D coordinates from MDS
type MDSResult struct {
	Coordinates map[int64]Position // gonum nodeID -> 2D position
	MinX, MaxX  float64
	MinY, MaxY  float64
}

// Position represents a 2D coordinate
type Position struct {
	X, Y float64
}

// MDSCalculator computes 2D coordinates using classical multidimensional scaling
// of the hop-distance matrix
type MDSCalculator struct {
	maxDistance float64 // distance for unreachable pairs; 0 means max finite + 1
}

// NewMDSCalculator creates a new MDS calculator
func NewMDSCalculator() *MDSCalculator {
	return &MDSCalculator{}
}

// WithMaxDistance sets the distance used for unreachable node pairs
func (mdsc *MDSCalculator) WithMaxDistance(maxDist float64) *MDSCalculator {
	mdsc.maxDistance = maxDist
	return mdsc
}

// Calculate computes 2D coordinates for every node of g
func (mdsc *MDSCalculator) Calculate(g *network.Graph) (*MDSResult, error) {
	n := g.NodeCount()
	if n == 0 {
		return nil, errors.New("graph has no nodes")
	}

	nodeList := make([]int64, 0, n)
	for _, s := range g.Nodes() {
		id, _ := g.ID(s)
		nodeList = append(nodeList, id)
	}
	sort.Slice(nodeList, func(i, j int) bool { return nodeList[i] < nodeList[j] })

	if n == 1 {
		return &MDSResult{
			Coordinates: map[int64]Position{nodeList[0]: {X: 0, Y: 0}},
		}, nil
	}

	distMatrix := mdsc.computeDistanceMatrix(g.Undirected(), nodeList)

	coordinates, err := classicalScaling(distMatrix)
	if err != nil {
		return nil, fmt.Errorf("MDS computation failed: %w", err)
	}

	result := &MDSResult{Coordinates: make(map[int64]Position, n)}
	for i, nodeID := range nodeList {
		x := coordinates.At(i, 0)
		y := coordinates.At(i, 1)
		result.Coordinates[nodeID] = Position{X: x, Y: y}

		if i == 0 {
			result.MinX, result.MaxX = x, x
			result.MinY, result.MaxY = y, y
			continue
		}
		result.MinX = math.Min(result.MinX, x)
		result.MaxX = math.Max(result.MaxX, x)
		result.MinY = math.Min(result.MinY, y)
		result.MaxY = math.Max(result.MaxY, y)
	}

	return result, nil
}

// computeDistanceMatrix computes BFS hop distances between all node pairs
func (mdsc *MDSCalculator) computeDistanceMatrix(g graph.Undirected, nodeList []int64) *mat.SymDense {
	n := len(nodeList)
	index := make(map[int64]int, n)
	for i, id := range nodeList {
		index[id] = i
	}

	dist := make([][]float64, n)
	longest := 0.0
	for i, source := range nodeList {
		row := make([]float64, n)
		for j := range row {
			row[j] = -1
		}
		bf := traverse.BreadthFirst{}
		bf.Walk(g, simple.Node(source), func(v graph.Node, depth int) bool {
			row[index[v.ID()]] = float64(depth)
			if float64(depth) > longest {
				longest = float64(depth)
			}
			return false
		})
		dist[i] = row
	}

	unreachable := mdsc.maxDistance
	if unreachable <= 0 {
		unreachable = longest + 1
	}

	distMatrix := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := dist[i][j]
			if d < 0 {
				d = unreachable
			}
			distMatrix.SetSym(i, j, d)
		}
	}
	return distMatrix
}

// classicalScaling double-centers the squared distances and projects onto the
// two leading eigenvectors. Dimensions without a positive eigenvalue are zero.
func classicalScaling(distMatrix *mat.SymDense) (*mat.Dense, error) {
	n := distMatrix.SymmetricDim()

	sq := make([]float64, n*n)
	rowMean := make([]float64, n)
	grandMean := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := distMatrix.At(i, j)
			sq[i*n+j] = d * d
			rowMean[i] += d * d
		}
		grandMean += rowMean[i]
		rowMean[i] /= float64(n)
	}
	grandMean /= float64(n * n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(sq[i*n+j]-rowMean[i]-rowMean[j]+grandMean))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(b, true); !ok {
		return nil, errors.New("eigendecomposition did not converge")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	// values are ascending; the leading pair sits at the end
	largest := values[n-1]
	coords := mat.NewDense(n, 2, nil)
	for dim := 0; dim < 2 && dim < n; dim++ {
		col := n - 1 - dim
		lambda := values[col]
		if lambda <= 0 || lambda <= largest*relativeEigenFloor {
			continue
		}
		scale := math.Sqrt(lambda)

		// fix the sign so the largest-magnitude component is positive
		sign := 1.0
		peak := 0.0
		for i := 0; i < n; i++ {
			if v := vectors.At(i, col); math.Abs(v) > peak+1e-12 {
				peak = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}
		for i := 0; i < n; i++ {
			coords.Set(i, dim, sign*scale*vectors.At(i, col))
		}
	}
	return coords, nil
}

// GetNormalizedPosition returns coordinates normalized to [0,1] range
func (result *MDSResult) GetNormalizedPosition(nodeID int64) Position {
	pos, exists := result.Coordinates[nodeID]
	if !exists {
		return Position{X: 0.5, Y: 0.5}
	}

	x, y := 0.5, 0.5
	if result.MaxX != result.MinX {
		x = (pos.X - result.MinX) / (result.MaxX - result.MinX)
	}
	if result.MaxY != result.MinY {
		y = (pos.Y - result.MinY) / (result.MaxY - result.MinY)
	}
	return Position{X: x, Y: y}
}

// GetScaledPosition returns coordinates scaled to specified range
func (result *MDSResult) GetScaledPosition(nodeID int64, minVal, maxVal float64) Position {
	normalized := result.GetNormalizedPosition(nodeID)
	scale := maxVal - minVal

	return Position{
		X: minVal + normalized.X*scale,
		Y: minVal + normalized.Y*scale,
	}
}
