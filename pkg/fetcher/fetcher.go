// Package fetcher retrieves protein-protein interaction lists from remote databases.
//
// A fetch is one synchronous GET with no retry and no pagination. The response is
// projected to an ordered edge list; on any failure the returned InteractionSet
// is empty (never nil) and the error is a *RetrievalError or *MappingError.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppi_fetch_total",
		Help: "Interaction fetches by source and outcome",
	}, []string{"source", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppi_fetch_duration_seconds",
		Help:    "Interaction fetch latency by source",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"source"})
)

// Client performs single best-effort fetches against registered providers
type Client struct {
	httpClient *http.Client
	providers  map[models.Source]Provider
	logger     zerolog.Logger
}

// NewClient creates a client for the given providers. A nil httpClient means
// a client with no timeout override.
func NewClient(httpClient *http.Client, logger zerolog.Logger, providers ...Provider) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		httpClient: httpClient,
		providers:  make(map[models.Source]Provider, len(providers)),
		logger:     logger.With().Str("component", "fetcher").Logger(),
	}
	for _, p := range providers {
		c.Register(p)
	}
	return c
}

// Register adds or replaces the provider for its source
func (c *Client) Register(p Provider) {
	c.providers[p.Source()] = p
}

// Provider returns the provider registered for source
func (c *Client) Provider(source models.Source) (Provider, bool) {
	p, ok := c.providers[source]
	return p, ok
}

// Sources lists registered providers in display order
func (c *Client) Sources() []models.SourceInfo {
	var out []models.SourceInfo
	for _, s := range models.Sources {
		if p, ok := c.providers[s]; ok {
			out = append(out, models.SourceInfo{Key: s, Name: s.DisplayName(), Endpoint: p.Endpoint()})
		}
	}
	return out
}

// Fetch performs one GET for identifier against source and returns its edges
func (c *Client) Fetch(ctx context.Context, identifier models.ProteinIdentifier, source models.Source) (models.InteractionSet, error) {
	p, ok := c.providers[source]
	if !ok {
		return models.InteractionSet{}, &RetrievalError{Source: source, Err: fmt.Errorf("%w: %q", ErrUnknownSource, source)}
	}

	start := time.Now()
	edges, err := c.fetch(ctx, p, identifier)
	fetchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	fetchTotal.WithLabelValues(string(source), outcome(err)).Inc()

	if err != nil {
		c.logger.Warn().
			Str("source", string(source)).
			Str("identifier", identifier).
			Err(err).
			Msg("Interaction fetch failed")
		return models.InteractionSet{}, err
	}

	c.logger.Info().
		Str("source", string(source)).
		Str("identifier", identifier).
		Int("interactions", len(edges)).
		Dur("duration", time.Since(start)).
		Msg("Interactions retrieved")
	return edges, nil
}

func (c *Client) fetch(ctx context.Context, p Provider, identifier models.ProteinIdentifier) (models.InteractionSet, error) {
	req, err := p.NewRequest(ctx, identifier)
	if err != nil {
		return nil, &RetrievalError{Source: p.Source(), Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetrievalError{Source: p.Source(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &RetrievalError{
			Source:     p.Source(),
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetrievalError{Source: p.Source(), Err: fmt.Errorf("reading body: %w", err)}
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, &MappingError{Source: p.Source(), Index: -1, Err: err}
	}

	edges := make(models.InteractionSet, 0, len(records))
	for i, rec := range records {
		edge, err := project(p, i, rec)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// decodeRecords accepts either a JSON array of records or a JSON object whose
// values are records (BioGRID keys each interaction by its numeric id).
// Object entries are ordered by numeric key, or lexically if any key is not
// numeric.
func decodeRecords(body []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}

	switch trimmed[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		return records, nil
	case '{':
		var keyed map[string]Record
		if err := json.Unmarshal(trimmed, &keyed); err != nil {
			return nil, fmt.Errorf("decoding record object: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sortKeys(keys)
		records := make([]Record, 0, len(keys))
		for _, k := range keys {
			records = append(records, keyed[k])
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unexpected JSON value starting with %q", trimmed[0])
	}
}

func sortKeys(keys []string) {
	nums := make(map[string]int64, len(keys))
	for _, k := range keys {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			sort.Strings(keys)
			return
		}
		nums[k] = n
	}
	sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
}

func outcome(err error) string {
	var retrievalErr *RetrievalError
	var mappingErr *MappingError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &retrievalErr):
		return "retrieval_error"
	case errors.As(err, &mappingErr):
		return "mapping_error"
	default:
		return "error"
	}
}
