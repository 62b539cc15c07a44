package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// Record is one decoded interaction object of a provider response
type Record map[string]interface{}

// Provider is one interaction database. Each provider knows its own request
// shape and the two field names that carry the interacting symbols.
type Provider interface {
	Source() models.Source
	Endpoint() string
	NewRequest(ctx context.Context, identifier models.ProteinIdentifier) (*http.Request, error)
	FieldA() string
	FieldB() string
}

// BioGRIDProvider queries the BioGRID REST interactions service
type BioGRIDProvider struct {
	BaseURL   string
	AccessKey string
	Organism  int
}

func (p *BioGRIDProvider) Source() models.Source { return models.SourceBioGRID }
func (p *BioGRIDProvider) FieldA() string        { return "OFFICIAL_SYMBOL_A" }
func (p *BioGRIDProvider) FieldB() string        { return "OFFICIAL_SYMBOL_B" }

func (p *BioGRIDProvider) Endpoint() string {
	return strings.TrimRight(p.BaseURL, "/") + "/interactions"
}

func (p *BioGRIDProvider) NewRequest(ctx context.Context, identifier models.ProteinIdentifier) (*http.Request, error) {
	params := url.Values{}
	params.Set("accessKey", p.AccessKey)
	params.Set("format", "json")
	params.Set("searchNames", "true")
	params.Set("geneList", identifier)
	params.Set("organism", strconv.Itoa(organismOrDefault(p.Organism)))
	params.Set("includeInteractors", "true")
	return newGet(ctx, p.Endpoint(), params)
}

// STRINGProvider queries the STRING network API
type STRINGProvider struct {
	BaseURL  string
	Organism int
}

func (p *STRINGProvider) Source() models.Source { return models.SourceSTRING }
func (p *STRINGProvider) FieldA() string        { return "preferredName_A" }
func (p *STRINGProvider) FieldB() string        { return "preferredName_B" }

func (p *STRINGProvider) Endpoint() string {
	return strings.TrimRight(p.BaseURL, "/") + "/api/json/network"
}

func (p *STRINGProvider) NewRequest(ctx context.Context, identifier models.ProteinIdentifier) (*http.Request, error) {
	params := url.Values{}
	params.Set("identifiers", identifier)
	params.Set("species", strconv.Itoa(organismOrDefault(p.Organism)))
	return newGet(ctx, p.Endpoint(), params)
}

func newGet(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	u.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func organismOrDefault(organism int) int {
	if organism <= 0 {
		return models.OrganismHuman
	}
	return organism
}

// project maps one record to an edge using the provider's field names
func project(p Provider, index int, rec Record) (models.InteractionEdge, error) {
	a, err := stringField(rec, p.FieldA())
	if err != nil {
		return models.InteractionEdge{}, &MappingError{Source: p.Source(), Index: index, Field: p.FieldA(), Err: err}
	}
	b, err := stringField(rec, p.FieldB())
	if err != nil {
		return models.InteractionEdge{}, &MappingError{Source: p.Source(), Index: index, Field: p.FieldB(), Err: err}
	}
	return models.InteractionEdge{ProteinA: a, ProteinB: b}, nil
}

func stringField(rec Record, field string) (string, error) {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return "", errFieldMissing
	}
	s, ok := raw.(string)
	if !ok {
		return "", errFieldType
	}
	if s == "" {
		return "", errFieldEmpty
	}
	return s, nil
}
