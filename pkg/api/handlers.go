package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/ppi-network-service/pkg/fetcher"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
	"github.com/gilchrisn/ppi-network-service/pkg/service"
	"github.com/gilchrisn/ppi-network-service/pkg/utils"
)

// maxBodyBytes bounds POSTed edge lists
const maxBodyBytes = 32 << 20

// Handlers contains HTTP request handlers
type Handlers struct {
	analysisService *service.AnalysisService
	validate        *validator.Validate
}

// NewHandlers creates new API handlers
func NewHandlers(analysisService *service.AnalysisService) *Handlers {
	return &Handlers{
		analysisService: analysisService,
		validate:        validator.New(),
	}
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ListSources lists the configured interaction databases
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Sources retrieved successfully", h.analysisService.Sources())
}

// GetInteractions returns the raw interaction table for one identifier
func (h *Handlers) GetInteractions(w http.ResponseWriter, r *http.Request) {
	identifier, source := queryParams(r)

	edges, err := h.analysisService.Interactions(r.Context(), identifier, source)
	if err != nil {
		h.writeServiceError(w, r, err, nil)
		return
	}

	src, _ := models.ParseSource(source)
	utils.WriteSuccessResponse(w, "Interactions retrieved successfully", models.InteractionsResponse{
		Identifier:   strings.TrimSpace(identifier),
		Source:       src,
		Count:        len(edges),
		Interactions: edges,
	})
}

// AnalyzeNetwork runs the full pipeline. Accepts query parameters on GET and a
// JSON AnalysisRequest on POST.
func (h *Handlers) AnalyzeNetwork(w http.ResponseWriter, r *http.Request) {
	var identifier, source string
	if r.Method == http.MethodPost {
		var req models.AnalysisRequest
		if !h.decodeBody(w, r, &req) {
			return
		}
		identifier, source = req.Identifier, req.Source
		if source == "" {
			source = string(models.SourceBioGRID)
		}
	} else {
		identifier, source = queryParams(r)
	}

	report, err := h.analysisService.Analyze(r.Context(), identifier, source)
	if err != nil {
		var data interface{}
		if report != nil {
			data = report
		}
		h.writeServiceError(w, r, err, data)
		return
	}

	message := "Analysis completed successfully"
	if len(report.Warnings) > 0 {
		message = report.Warnings[0]
	}
	utils.WriteSuccessResponse(w, message, report)
}

// ComputeCentrality scores a posted edge list without contacting a provider
func (h *Handlers) ComputeCentrality(w http.ResponseWriter, r *http.Request) {
	var req models.CentralityRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	resp := h.analysisService.Centrality(r.Context(), req.Interactions)

	zerolog.Ctx(r.Context()).Info().
		Int("nodes", resp.NodeCount).
		Int("edges", resp.EdgeCount).
		Msg("Centrality computed for posted edge list")

	utils.WriteSuccessResponse(w, "Centrality computed successfully", resp)
}

// decodeBody parses and validates a JSON body, writing the 400 itself on failure
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !utils.ValidateContentType(r, "application/json") {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Content-Type must be application/json", nil)
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Namespace()] = fe.Tag()
			}
			utils.WriteValidationErrorResponse(w, "Request validation failed", fields)
			return false
		}
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps pipeline errors to HTTP status codes
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	var retrievalErr *fetcher.RetrievalError
	var mappingErr *fetcher.MappingError

	switch {
	case errors.Is(err, service.ErrEmptyIdentifier):
		utils.WriteErrorResponse(w, http.StatusBadRequest, service.EmptyIdentifierPrompt, err)
	case errors.Is(err, service.ErrUnknownSource):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Unknown interaction source", err)
	case errors.As(err, &retrievalErr):
		utils.WriteErrorResponseWithData(w, http.StatusBadGateway, "Failed to retrieve interactions", err, data)
	case errors.As(err, &mappingErr):
		utils.WriteErrorResponseWithData(w, http.StatusBadGateway, "Provider response could not be mapped", err, data)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Unexpected pipeline error")
		utils.WriteErrorResponseWithData(w, http.StatusInternalServerError, "Analysis failed", err, data)
	}
}

func queryParams(r *http.Request) (identifier, source string) {
	q := r.URL.Query()
	identifier = q.Get("identifier")
	source = q.Get("source")
	if source == "" {
		source = string(models.SourceBioGRID)
	}
	return identifier, source
}
