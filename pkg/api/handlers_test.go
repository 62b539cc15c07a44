package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/ppi-network-service/pkg/centrality"
	"github.com/gilchrisn/ppi-network-service/pkg/fetcher"
	"github.com/gilchrisn/ppi-network-service/pkg/layout"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// newTestRouter serves the API against a fake upstream that answers every
// provider request with status and body
func newTestRouter(t *testing.T, status int, body string) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	client := fetcher.NewClient(upstream.Client(), zerolog.Nop(),
		&fetcher.BioGRIDProvider{BaseURL: upstream.URL, AccessKey: "k"},
		&fetcher.STRINGProvider{BaseURL: upstream.URL},
	)
	svc := service.NewAnalysisService(client,
		centrality.NewEngine(centrality.DefaultOptions(), zerolog.Nop()),
		layout.NewGenerator(zerolog.Nop()),
		zerolog.Nop(),
	)
	return NewRouter(NewHandlers(svc), nil)
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

const stringBody = `[
	{"preferredName_A": "A", "preferredName_B": "B"},
	{"preferredName_A": "B", "preferredName_B": "C"},
	{"preferredName_A": "A", "preferredName_B": "B"}
]`

func TestHealthCheck(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, `[]`), "GET", "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestRouter(t, http.StatusOK, `[]`).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestListSources(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, `[]`), "GET", "/api/v1/sources", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sources []models.SourceInfo
	require.NoError(t, json.Unmarshal(env.Data, &sources))
	require.Len(t, sources, 2)
	assert.Equal(t, models.SourceBioGRID, sources[0].Key)
	assert.Equal(t, models.SourceSTRING, sources[1].Key)
}

func TestGetInteractions(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, stringBody), "GET", "/api/v1/interactions?identifier=A&source=STRING", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.InteractionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, models.SourceSTRING, resp.Source)
	assert.Equal(t, "A", resp.Identifier)
}

func TestAnalyzeNetwork_Get(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, stringBody), "GET", "/api/v1/networks/analysis?identifier=A&source=string", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 3, report.NodeCount)
	assert.Equal(t, 2, report.EdgeCount)
	assert.InDelta(t, 1.0, report.Centralities[models.MeasureDegree]["B"], 1e-12)
	assert.Len(t, report.Layout, 3)
	assert.NotEmpty(t, report.RequestID)
}

func TestAnalyzeNetwork_Post(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, stringBody), "POST", "/api/v1/networks/analysis",
		"application/json", `{"identifier": "A", "source": "string"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
}

func TestAnalyzeNetwork_NoData(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, `[]`), "GET", "/api/v1/networks/analysis?identifier=NOPE&source=string", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.NoDataWarning, env.Message)
}

func TestAnalyzeNetwork_EmptyIdentifier(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, stringBody), "GET", "/api/v1/networks/analysis?identifier=&source=string", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, service.EmptyIdentifierPrompt, env.Message)
}

func TestAnalyzeNetwork_UnknownSource(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusOK, stringBody), "GET", "/api/v1/networks/analysis?identifier=A&source=intact", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error, "intact")
}

func TestAnalyzeNetwork_UpstreamFailure(t *testing.T) {
	rec, env := do(t, newTestRouter(t, http.StatusInternalServerError, `oops`), "GET", "/api/v1/networks/analysis?identifier=TP53", "", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "failed to retrieve data from BioGRID: HTTP 500", env.Error)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.NotNil(t, report.Interactions)
	assert.Empty(t, report.Interactions)
	assert.Zero(t, report.NodeCount)
	assert.Len(t, report.Warnings, 1)
}

func TestAnalyzeNetwork_MalformedUpstream(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, http.StatusOK, `[{"preferredName_A": "A"}]`), "GET", "/api/v1/networks/analysis?identifier=A&source=string", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAnalyzeNetwork_BadBody(t *testing.T) {
	h := newTestRouter(t, http.StatusOK, stringBody)

	rec, _ := do(t, h, "POST", "/api/v1/networks/analysis", "text/plain", `{"identifier": "A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, "POST", "/api/v1/networks/analysis", "application/json", `{"identifier": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, "POST", "/api/v1/networks/analysis", "application/json", `{"protein": "A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeCentrality(t *testing.T) {
	body := `{"interactions": [{"proteinA": "A", "proteinB": "B"}, {"proteinA": "B", "proteinB": "C"}]}`
	rec, env := do(t, newTestRouter(t, http.StatusOK, `[]`), "POST", "/api/v1/networks/centrality", "application/json", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CentralityResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 3, resp.NodeCount)
	assert.Equal(t, 2, resp.EdgeCount)
	assert.Len(t, resp.Centralities, len(models.Measures))
	assert.InDelta(t, 1.0, resp.Centralities[models.MeasureBetweenness]["B"], 1e-12)
}

func TestComputeCentrality_ValidationErrors(t *testing.T) {
	body := `{"interactions": [{"proteinA": "A", "proteinB": ""}]}`
	rec, env := do(t, newTestRouter(t, http.StatusOK, `[]`), "POST", "/api/v1/networks/centrality", "application/json", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var data map[string]map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "required", data["validation_errors"]["CentralityRequest.Interactions[0].ProteinB"])
}

func TestMethodNotAllowed(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, http.StatusOK, `[]`), "GET", "/api/v1/networks/centrality", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/networks/analysis", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	newTestRouter(t, http.StatusOK, `[]`).ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, http.StatusOK, `[]`)
	do(t, h, "GET", "/api/v1/health", "", "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ppi_http_requests_total")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RequestIDMiddleware(RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env envelope
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&env))
	assert.False(t, env.Success)
}

func TestRecoveryMiddleware_AfterHeaderWritten(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}
