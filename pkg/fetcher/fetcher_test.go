package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

const fakeKey = "test-access-key"

type fakeProvider struct {
	server *httptest.Server
	hits   int32

	mu       sync.Mutex
	lastPath string
	lastQ    url.Values
}

func (fp *fakeProvider) last() (string, url.Values) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.lastPath, fp.lastQ
}

func newFakeServer(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fp.hits, 1)
		fp.mu.Lock()
		fp.lastPath = r.URL.Path
		fp.lastQ = r.URL.Query()
		fp.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func newTestClient(fp *fakeProvider) *Client {
	return NewClient(fp.server.Client(), zerolog.Nop(),
		&BioGRIDProvider{BaseURL: fp.server.URL, AccessKey: fakeKey, Organism: models.OrganismHuman},
		&STRINGProvider{BaseURL: fp.server.URL},
	)
}

func TestFetch_BioGRIDRequestAndProjection(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[
		{"OFFICIAL_SYMBOL_A": "TP53", "OFFICIAL_SYMBOL_B": "MDM2", "EXPERIMENTAL_SYSTEM": "Two-hybrid"},
		{"OFFICIAL_SYMBOL_A": "TP53", "OFFICIAL_SYMBOL_B": "EP300"},
		{"OFFICIAL_SYMBOL_A": "TP53", "OFFICIAL_SYMBOL_B": "TP53"}
	]`)

	edges, err := newTestClient(fp).Fetch(context.Background(), "TP53", models.SourceBioGRID)
	require.NoError(t, err)

	assert.Equal(t, models.InteractionSet{
		{ProteinA: "TP53", ProteinB: "MDM2"},
		{ProteinA: "TP53", ProteinB: "EP300"},
		{ProteinA: "TP53", ProteinB: "TP53"},
	}, edges)

	path, q := fp.last()
	assert.Equal(t, "/interactions", path)
	assert.Equal(t, fakeKey, q.Get("accessKey"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "true", q.Get("searchNames"))
	assert.Equal(t, "TP53", q.Get("geneList"))
	assert.Equal(t, "9606", q.Get("organism"))
	assert.Equal(t, "true", q.Get("includeInteractors"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&fp.hits))
}

func TestFetch_STRINGRequestAndProjection(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[
		{"stringId_A": "9606.ENSP1", "preferredName_A": "BRCA1", "preferredName_B": "BARD1", "score": 0.999},
		{"preferredName_A": "BRCA1", "preferredName_B": "PALB2"}
	]`)

	edges, err := newTestClient(fp).Fetch(context.Background(), "BRCA1", models.SourceSTRING)
	require.NoError(t, err)

	assert.Equal(t, models.InteractionSet{
		{ProteinA: "BRCA1", ProteinB: "BARD1"},
		{ProteinA: "BRCA1", ProteinB: "PALB2"},
	}, edges)
	path, q := fp.last()
	assert.Equal(t, "/api/json/network", path)
	assert.Equal(t, "BRCA1", q.Get("identifiers"))
	assert.Equal(t, "9606", q.Get("species"))
	assert.Empty(t, q.Get("accessKey"))
}

func TestFetch_KeyedObjectOrderedByNumericKey(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `{
		"103": {"OFFICIAL_SYMBOL_A": "C", "OFFICIAL_SYMBOL_B": "D"},
		"9":   {"OFFICIAL_SYMBOL_A": "A", "OFFICIAL_SYMBOL_B": "B"},
		"20":  {"OFFICIAL_SYMBOL_A": "B", "OFFICIAL_SYMBOL_B": "C"}
	}`)

	edges, err := newTestClient(fp).Fetch(context.Background(), "A", models.SourceBioGRID)
	require.NoError(t, err)
	assert.Equal(t, models.InteractionSet{
		{ProteinA: "A", ProteinB: "B"},
		{ProteinA: "B", ProteinB: "C"},
		{ProteinA: "C", ProteinB: "D"},
	}, edges)
}

func TestFetch_EmptyArray(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[]`)

	edges, err := newTestClient(fp).Fetch(context.Background(), "NOPE", models.SourceSTRING)
	require.NoError(t, err)
	require.NotNil(t, edges)
	assert.Empty(t, edges)
}

func TestFetch_Non200IsRetrievalError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		fp := newFakeServer(t, status, `{"error": "nope"}`)

		edges, err := newTestClient(fp).Fetch(context.Background(), "TP53", models.SourceBioGRID)

		require.Error(t, err)
		var retrievalErr *RetrievalError
		require.True(t, errors.As(err, &retrievalErr), "status %d", status)
		assert.Equal(t, status, retrievalErr.StatusCode)
		assert.Equal(t, models.SourceBioGRID, retrievalErr.Source)
		assert.Contains(t, err.Error(), "BioGRID")
		require.NotNil(t, edges)
		assert.Empty(t, edges)
	}
}

func TestFetch_TransportFailureIsRetrievalError(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[]`)
	client := newTestClient(fp)
	fp.server.Close()

	edges, err := client.Fetch(context.Background(), "TP53", models.SourceSTRING)

	var retrievalErr *RetrievalError
	require.True(t, errors.As(err, &retrievalErr))
	assert.Zero(t, retrievalErr.StatusCode)
	assert.NotNil(t, edges)
	assert.Empty(t, edges)
}

func TestFetch_MalformedRecordFailsWholeFetch(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		index int
		field string
	}{
		{
			name:  "missing field",
			body:  `[{"preferredName_A": "A", "preferredName_B": "B"}, {"preferredName_A": "A"}]`,
			index: 1,
			field: "preferredName_B",
		},
		{
			name:  "wrong provider schema",
			body:  `[{"OFFICIAL_SYMBOL_A": "A", "OFFICIAL_SYMBOL_B": "B"}]`,
			index: 0,
			field: "preferredName_A",
		},
		{
			name:  "non-string value",
			body:  `[{"preferredName_A": 42, "preferredName_B": "B"}]`,
			index: 0,
			field: "preferredName_A",
		},
		{
			name:  "empty value",
			body:  `[{"preferredName_A": "A", "preferredName_B": ""}]`,
			index: 0,
			field: "preferredName_B",
		},
		{
			name:  "null record",
			body:  `[null]`,
			index: 0,
			field: "preferredName_A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFakeServer(t, http.StatusOK, tt.body)

			edges, err := newTestClient(fp).Fetch(context.Background(), "A", models.SourceSTRING)

			var mappingErr *MappingError
			require.True(t, errors.As(err, &mappingErr), "got %v", err)
			assert.Equal(t, tt.index, mappingErr.Index)
			assert.Equal(t, tt.field, mappingErr.Field)
			assert.NotNil(t, edges)
			assert.Empty(t, edges)
		})
	}
}

func TestFetch_UndecodableBody(t *testing.T) {
	for _, body := range []string{``, `not json`, `"a string"`, `[1, 2`} {
		fp := newFakeServer(t, http.StatusOK, body)

		_, err := newTestClient(fp).Fetch(context.Background(), "A", models.SourceSTRING)

		var mappingErr *MappingError
		require.True(t, errors.As(err, &mappingErr), "body %q", body)
		assert.Equal(t, -1, mappingErr.Index)
	}
}

func TestFetch_UnknownSource(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[]`)

	edges, err := newTestClient(fp).Fetch(context.Background(), "A", models.Source("intact"))

	assert.True(t, errors.Is(err, ErrUnknownSource))
	assert.NotNil(t, edges)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fp.hits))
}

func TestSources(t *testing.T) {
	fp := newFakeServer(t, http.StatusOK, `[]`)
	sources := newTestClient(fp).Sources()

	require.Len(t, sources, 2)
	assert.Equal(t, models.SourceBioGRID, sources[0].Key)
	assert.Equal(t, "BioGRID", sources[0].Name)
	assert.Equal(t, fp.server.URL+"/interactions", sources[0].Endpoint)
	assert.Equal(t, models.SourceSTRING, sources[1].Key)
}

func TestSortKeys(t *testing.T) {
	keys := []string{"10", "2", "1"}
	sortKeys(keys)
	assert.Equal(t, []string{"1", "2", "10"}, keys)

	mixed := []string{"b", "10", "a"}
	sortKeys(mixed)
	assert.Equal(t, []string{"10", "a", "b"}, mixed)
}
