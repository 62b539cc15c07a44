package models

import (
	"fmt"
	"strings"
	"time"
)

// OrganismHuman is the NCBI taxonomy id used as the organism filter on every query
const OrganismHuman = 9606

// ProteinIdentifier is an opaque, case-sensitive gene symbol or accession
type ProteinIdentifier = string

// Source selects the remote interaction database
type Source string

const (
	SourceBioGRID Source = "biogrid"
	SourceSTRING  Source = "string"
)

// Sources lists the supported providers in display order
var Sources = []Source{SourceBioGRID, SourceSTRING}

// DisplayName returns the human-facing provider name
func (s Source) DisplayName() string {
	switch s {
	case SourceBioGRID:
		return "BioGRID"
	case SourceSTRING:
		return "STRING"
	default:
		return string(s)
	}
}

// ParseSource accepts the provider key case-insensitively ("BioGRID", "string", ...)
func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case SourceBioGRID:
		return SourceBioGRID, nil
	case SourceSTRING:
		return SourceSTRING, nil
	}
	return "", fmt.Errorf("unknown interaction source %q", value)
}

// InteractionEdge is an unordered protein pair as reported by a provider
type InteractionEdge struct {
	ProteinA ProteinIdentifier `json:"proteinA" validate:"required"`
	ProteinB ProteinIdentifier `json:"proteinB" validate:"required"`
}

// IsSelfPair reports whether both endpoints name the same protein
func (e InteractionEdge) IsSelfPair() bool {
	return e.ProteinA == e.ProteinB
}

// InteractionSet is the ordered edge list of one response (insertion order only)
type InteractionSet []InteractionEdge

// Measure is one of the five fixed centrality labels
type Measure string

const (
	MeasureDegree      Measure = "Degree Centrality"
	MeasureBetweenness Measure = "Betweenness Centrality"
	MeasureCloseness   Measure = "Closeness Centrality"
	MeasureEigenvector Measure = "Eigenvector Centrality"
	MeasurePageRank    Measure = "PageRank"
)

// Measures lists every centrality measure in display order
var Measures = []Measure{
	MeasureDegree,
	MeasureBetweenness,
	MeasureCloseness,
	MeasureEigenvector,
	MeasurePageRank,
}

// NodeScore is one row of a ranked centrality table
type NodeScore struct {
	Protein ProteinIdentifier `json:"protein"`
	Score   float64           `json:"score"`
}

// NodeDegree is one row of the degree table
type NodeDegree struct {
	Protein ProteinIdentifier `json:"protein"`
	Degree  int               `json:"degree"`
}

// NodePosition is a 2-D placement with a display radius
type NodePosition struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// AnalysisReport is everything the presentation layer needs for one query
type AnalysisReport struct {
	RequestID    string                                    `json:"requestId"`
	Identifier   ProteinIdentifier                         `json:"identifier"`
	Source       Source                                    `json:"source"`
	Interactions InteractionSet                            `json:"interactions"`
	NodeCount    int                                       `json:"nodeCount"`
	EdgeCount    int                                       `json:"edgeCount"`
	Degrees      []NodeDegree                              `json:"degrees,omitempty"`
	Centralities map[Measure]map[ProteinIdentifier]float64 `json:"centralities,omitempty"`
	Rankings     map[Measure][]NodeScore                   `json:"rankings,omitempty"`
	Layout       map[ProteinIdentifier]NodePosition        `json:"layout,omitempty"`
	Diagnostics  []string                                  `json:"diagnostics,omitempty"`
	Warnings     []string                                  `json:"warnings,omitempty"`
	Timings      Timings                                   `json:"timings"`
	CreatedAt    time.Time                                 `json:"createdAt"`
}

// Timings records per-stage wall time in milliseconds
type Timings struct {
	FetchMS      int64 `json:"fetchMS"`
	BuildMS      int64 `json:"buildMS"`
	CentralityMS int64 `json:"centralityMS"`
	LayoutMS     int64 `json:"layoutMS"`
}

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalysisRequest is the body form of an analysis query. An empty source means BioGRID.
type AnalysisRequest struct {
	Identifier string `json:"identifier" validate:"max=256"`
	Source     string `json:"source" validate:"omitempty,max=32"`
}

// CentralityRequest scores a caller-supplied edge list without a remote fetch
type CentralityRequest struct {
	Interactions InteractionSet `json:"interactions" validate:"max=200000,dive"`
}

type CentralityResponse struct {
	NodeCount    int                                       `json:"nodeCount"`
	EdgeCount    int                                       `json:"edgeCount"`
	Centralities map[Measure]map[ProteinIdentifier]float64 `json:"centralities"`
	Diagnostics  []string                                  `json:"diagnostics,omitempty"`
}

type InteractionsResponse struct {
	Identifier   ProteinIdentifier `json:"identifier"`
	Source       Source            `json:"source"`
	Count        int               `json:"count"`
	Interactions InteractionSet    `json:"interactions"`
}

type SourceInfo struct {
	Key      Source `json:"key"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}
