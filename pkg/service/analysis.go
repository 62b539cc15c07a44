// Package service runs the fetch -> build -> centrality -> layout pipeline for
// one protein query.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/ppi-network-service/pkg/centrality"
	"github.com/gilchrisn/ppi-network-service/pkg/fetcher"
	"github.com/gilchrisn/ppi-network-service/pkg/layout"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/network"
)

const (
	// EmptyIdentifierPrompt is shown when no identifier was entered
	EmptyIdentifierPrompt = "Please enter a protein identifier"
	// NoDataWarning is attached when a fetch succeeds with zero interactions
	NoDataWarning = "No data found. Please check the Protein ID."
)

var (
	// ErrEmptyIdentifier is returned before any remote call for a blank identifier
	ErrEmptyIdentifier = errors.New("empty protein identifier")
	// ErrUnknownSource is returned before any remote call for an unsupported source
	ErrUnknownSource = fetcher.ErrUnknownSource
)

// InteractionFetcher retrieves the edge list for one identifier
type InteractionFetcher interface {
	Fetch(ctx context.Context, identifier models.ProteinIdentifier, source models.Source) (models.InteractionSet, error)
	Sources() []models.SourceInfo
}

// AnalysisService orchestrates one query end to end
type AnalysisService struct {
	fetcher InteractionFetcher
	engine  *centrality.Engine
	layout  *layout.Generator
	build   func(models.InteractionSet) *network.Graph
	logger  zerolog.Logger
}

// NewAnalysisService creates a new analysis service. A nil layout generator
// skips node placement.
func NewAnalysisService(f InteractionFetcher, engine *centrality.Engine, gen *layout.Generator, logger zerolog.Logger) *AnalysisService {
	return &AnalysisService{
		fetcher: f,
		engine:  engine,
		layout:  gen,
		build:   network.Build,
		logger:  logger.With().Str("component", "analysis").Logger(),
	}
}

// Sources lists the configured interaction databases
func (s *AnalysisService) Sources() []models.SourceInfo {
	return s.fetcher.Sources()
}

// Interactions fetches the raw edge list without building a graph
func (s *AnalysisService) Interactions(ctx context.Context, identifier, source string) (models.InteractionSet, error) {
	id, src, err := validateQuery(identifier, source)
	if err != nil {
		return models.InteractionSet{}, err
	}
	return s.fetcher.Fetch(ctx, id, src)
}

// Analyze fetches, builds and scores the interaction network of identifier.
//
// Input errors return a nil report. A failed fetch returns the report with the
// empty interaction set and the error as a warning; the graph is never built.
// Measure and layout failures become diagnostics, never errors.
func (s *AnalysisService) Analyze(ctx context.Context, identifier, source string) (*models.AnalysisReport, error) {
	id, src, err := validateQuery(identifier, source)
	if err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		RequestID:    uuid.New().String(),
		Identifier:   id,
		Source:       src,
		Interactions: models.InteractionSet{},
		CreatedAt:    time.Now().UTC(),
	}
	logger := s.logger.With().
		Str("request_id", report.RequestID).
		Str("identifier", id).
		Str("source", string(src)).
		Logger()

	logger.Info().Msg("Starting analysis")

	start := time.Now()
	edges, err := s.fetcher.Fetch(ctx, id, src)
	report.Timings.FetchMS = time.Since(start).Milliseconds()
	if err != nil {
		report.Warnings = append(report.Warnings, err.Error())
		logger.Warn().Err(err).Msg("Analysis stopped after failed fetch")
		return report, err
	}
	if edges == nil {
		edges = models.InteractionSet{}
	}
	report.Interactions = edges
	if len(edges) == 0 {
		report.Warnings = append(report.Warnings, NoDataWarning)
	}

	s.score(ctx, report, edges)

	logger.Info().
		Int("nodes", report.NodeCount).
		Int("edges", report.EdgeCount).
		Int("diagnostics", len(report.Diagnostics)).
		Msg("Analysis complete")

	return report, nil
}

// Centrality builds and scores a caller-supplied edge list
func (s *AnalysisService) Centrality(ctx context.Context, edges models.InteractionSet) *models.CentralityResponse {
	g := s.build(edges)
	result := s.engine.Compute(ctx, g)

	return &models.CentralityResponse{
		NodeCount:    g.NodeCount(),
		EdgeCount:    g.EdgeCount(),
		Centralities: result.Map(),
		Diagnostics:  errorStrings(result.Diagnostics()),
	}
}

func (s *AnalysisService) score(ctx context.Context, report *models.AnalysisReport, edges models.InteractionSet) {
	start := time.Now()
	g := s.build(edges)
	report.Timings.BuildMS = time.Since(start).Milliseconds()
	report.NodeCount = g.NodeCount()
	report.EdgeCount = g.EdgeCount()
	report.Degrees = g.Degrees()

	start = time.Now()
	result := s.engine.Compute(ctx, g)
	report.Timings.CentralityMS = time.Since(start).Milliseconds()
	report.Centralities = result.Map()
	report.Diagnostics = errorStrings(result.Diagnostics())

	report.Rankings = make(map[models.Measure][]models.NodeScore, len(report.Centralities))
	for m := range report.Centralities {
		report.Rankings[m] = result.Ranked(m)
	}

	if s.layout == nil {
		return
	}

	var pageRank *centrality.PageRankResult
	if scores, ok := result.Scores(models.MeasurePageRank); ok {
		pageRank = centrality.NewPageRankResult(scores)
	}

	start = time.Now()
	positions, err := s.layout.Generate(g, pageRank)
	report.Timings.LayoutMS = time.Since(start).Milliseconds()
	if err != nil {
		report.Diagnostics = append(report.Diagnostics, fmt.Sprintf("layout: %v", err))
		return
	}
	report.Layout = positions
}

func validateQuery(identifier, source string) (models.ProteinIdentifier, models.Source, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", "", ErrEmptyIdentifier
	}
	src, err := models.ParseSource(source)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return id, src, nil
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
