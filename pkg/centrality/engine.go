// Package centrality computes the five per-node centrality measures of a PPI graph.
//
// Every measure runs independently. A measure that fails (no convergence, an
// undefined case, a panic inside a library call) is reported as an *EngineError
// for that measure only; the remaining measures are still returned.
package centrality

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/network"
)

// Engine defaults.
const (
	// DefaultMaxIterations bounds eigenvector power iteration.
	DefaultMaxIterations = 1000

	// DefaultTolerance is the per-node convergence threshold for power iteration.
	DefaultTolerance = 1e-6

	// DefaultDampingFactor is the PageRank link-follow probability.
	DefaultDampingFactor = 0.85

	// DefaultPageRankIterations bounds PageRank power iteration.
	DefaultPageRankIterations = 100
)

// ErrNotConverged is wrapped by EngineError when power iteration hits its bound
var ErrNotConverged = errors.New("power iteration failed to converge")

// EngineError reports a failure of a single measure
type EngineError struct {
	Measure    models.Measure
	Iterations int
	Err        error
}

func (e *EngineError) Error() string {
	if e.Iterations > 0 {
		return fmt.Sprintf("%s: %v (after %d iterations)", e.Measure, e.Err, e.Iterations)
	}
	return fmt.Sprintf("%s: %v", e.Measure, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Options tunes the iterative measures
type Options struct {
	EigenvectorMaxIterations int
	EigenvectorTolerance     float64
	DampingFactor            float64
	PageRankMaxIterations    int
	PageRankTolerance        float64
}

// DefaultOptions returns the standard policy values
func DefaultOptions() Options {
	return Options{
		EigenvectorMaxIterations: DefaultMaxIterations,
		EigenvectorTolerance:     DefaultTolerance,
		DampingFactor:            DefaultDampingFactor,
		PageRankMaxIterations:    DefaultPageRankIterations,
		PageRankTolerance:        DefaultTolerance,
	}
}

// Validate replaces out-of-range values with defaults
func (o *Options) Validate() {
	if o.EigenvectorMaxIterations <= 0 {
		o.EigenvectorMaxIterations = DefaultMaxIterations
	}
	if o.EigenvectorTolerance <= 0 {
		o.EigenvectorTolerance = DefaultTolerance
	}
	if o.DampingFactor <= 0 || o.DampingFactor >= 1 {
		o.DampingFactor = DefaultDampingFactor
	}
	if o.PageRankMaxIterations <= 0 {
		o.PageRankMaxIterations = DefaultPageRankIterations
	}
	if o.PageRankTolerance <= 0 {
		o.PageRankTolerance = DefaultTolerance
	}
}

// MeasureResult is the value-or-error outcome of one measure
type MeasureResult struct {
	Measure   models.Measure
	Scores    map[models.ProteinIdentifier]float64
	Err       error
	RuntimeMS int64
}

// Result aggregates the five measure outcomes of one graph. Immutable after Compute.
type Result struct {
	measures []MeasureResult
}

// Measures returns every outcome in display order
func (r *Result) Measures() []MeasureResult {
	out := make([]MeasureResult, len(r.measures))
	copy(out, r.measures)
	return out
}

// Scores returns the score map of a successful measure
func (r *Result) Scores(m models.Measure) (map[models.ProteinIdentifier]float64, bool) {
	for _, mr := range r.measures {
		if mr.Measure == m && mr.Err == nil {
			return mr.Scores, true
		}
	}
	return nil, false
}

// Err returns the failure of measure m, or nil
func (r *Result) Err(m models.Measure) error {
	for _, mr := range r.measures {
		if mr.Measure == m {
			return mr.Err
		}
	}
	return nil
}

// Map returns measure -> scores for every measure that succeeded
func (r *Result) Map() map[models.Measure]map[models.ProteinIdentifier]float64 {
	out := make(map[models.Measure]map[models.ProteinIdentifier]float64, len(r.measures))
	for _, mr := range r.measures {
		if mr.Err == nil {
			out[mr.Measure] = mr.Scores
		}
	}
	return out
}

// Diagnostics returns the errors of failed measures
func (r *Result) Diagnostics() []error {
	var errs []error
	for _, mr := range r.measures {
		if mr.Err != nil {
			errs = append(errs, mr.Err)
		}
	}
	return errs
}

// Ranked returns the scores of m sorted by descending score, ties by symbol
func (r *Result) Ranked(m models.Measure) []models.NodeScore {
	scores, ok := r.Scores(m)
	if !ok {
		return nil
	}
	out := make([]models.NodeScore, 0, len(scores))
	for p, s := range scores {
		out = append(out, models.NodeScore{Protein: p, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Protein < out[j].Protein
	})
	return out
}

type measureFunc func(ctx context.Context, g *network.Graph) (map[models.ProteinIdentifier]float64, error)

// Engine runs the five measures over one graph
type Engine struct {
	opts   Options
	funcs  map[models.Measure]measureFunc
	logger zerolog.Logger
}

// NewEngine creates an engine; invalid options fall back to defaults
func NewEngine(opts Options, logger zerolog.Logger) *Engine {
	opts.Validate()
	e := &Engine{
		opts:   opts,
		logger: logger.With().Str("component", "centrality").Logger(),
	}
	e.funcs = map[models.Measure]measureFunc{
		models.MeasureDegree:      exact(Degree),
		models.MeasureBetweenness: exact(Betweenness),
		models.MeasureCloseness:   exact(Closeness),
		models.MeasureEigenvector: e.eigenvector,
		models.MeasurePageRank:    e.pageRank,
	}
	return e
}

// exact adapts a closed-form measure that cannot fail
func exact(fn func(*network.Graph) map[models.ProteinIdentifier]float64) measureFunc {
	return func(_ context.Context, g *network.Graph) (map[models.ProteinIdentifier]float64, error) {
		return fn(g), nil
	}
}

// Options returns the validated options in use
func (e *Engine) Options() Options {
	return e.opts
}

// Compute runs every measure over g. It never fails as a whole.
func (e *Engine) Compute(ctx context.Context, g *network.Graph) *Result {
	result := &Result{measures: make([]MeasureResult, 0, len(models.Measures))}

	if g == nil || g.NodeCount() == 0 {
		for _, m := range models.Measures {
			result.measures = append(result.measures, MeasureResult{
				Measure: m,
				Scores:  map[models.ProteinIdentifier]float64{},
			})
		}
		e.logger.Debug().Msg("Empty graph, skipping centrality computation")
		return result
	}

	for _, m := range models.Measures {
		mr := e.run(ctx, m, e.funcs[m], g)
		if mr.Err != nil {
			e.logger.Warn().
				Str("measure", string(m)).
				Err(mr.Err).
				Msg("Centrality measure failed")
		} else {
			e.logger.Debug().
				Str("measure", string(m)).
				Int("nodes", len(mr.Scores)).
				Int64("runtime_ms", mr.RuntimeMS).
				Msg("Centrality measure computed")
		}
		result.measures = append(result.measures, mr)
	}

	return result
}

func (e *Engine) run(ctx context.Context, m models.Measure, fn measureFunc, g *network.Graph) (mr MeasureResult) {
	start := time.Now()
	mr.Measure = m

	defer func() {
		if r := recover(); r != nil {
			mr.Scores = nil
			mr.Err = &EngineError{Measure: m, Err: fmt.Errorf("panic: %v", r)}
		}
		mr.RuntimeMS = time.Since(start).Milliseconds()
	}()

	if err := ctx.Err(); err != nil {
		mr.Err = &EngineError{Measure: m, Err: err}
		return mr
	}

	scores, err := fn(ctx, g)
	if err != nil {
		var engineErr *EngineError
		if !errors.As(err, &engineErr) {
			err = &EngineError{Measure: m, Err: err}
		}
		mr.Err = err
		return mr
	}
	mr.Scores = scores
	return mr
}

func (e *Engine) eigenvector(ctx context.Context, g *network.Graph) (map[models.ProteinIdentifier]float64, error) {
	return Eigenvector(ctx, g, e.opts.EigenvectorMaxIterations, e.opts.EigenvectorTolerance)
}

func (e *Engine) pageRank(ctx context.Context, g *network.Graph) (map[models.ProteinIdentifier]float64, error) {
	res, err := NewPageRankCalculator().
		WithDampingFactor(e.opts.DampingFactor).
		WithTolerance(e.opts.PageRankTolerance).
		WithMaxIterations(e.opts.PageRankMaxIterations).
		Calculate(ctx, g)
	if err != nil {
		return nil, err
	}
	return res.Scores, nil
}
