package utils

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// WriteSuccessResponse writes a successful JSON response
func WriteSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	response := models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}

	writeJSONResponse(w, http.StatusOK, response)
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	WriteErrorResponseWithData(w, statusCode, message, err, nil)
}

// WriteErrorResponseWithData writes an error JSON response that still carries
// a payload, e.g. a partial analysis report
func WriteErrorResponseWithData(w http.ResponseWriter, statusCode int, message string, err error, data interface{}) {
	response := models.APIResponse{
		Success: false,
		Message: message,
		Data:    data,
	}

	if err != nil {
		response.Error = err.Error()
	}

	writeJSONResponse(w, statusCode, response)
}

// WriteValidationErrorResponse writes a validation error response
func WriteValidationErrorResponse(w http.ResponseWriter, message string, errors map[string]string) {
	response := models.APIResponse{
		Success: false,
		Message: message,
		Data:    map[string]interface{}{"validation_errors": errors},
	}

	writeJSONResponse(w, http.StatusBadRequest, response)
}

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("Failed to encode JSON response")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "message": "Internal server error", "error": "JSON encoding failed"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// ValidateContentType checks if request has correct content type
func ValidateContentType(r *http.Request, expectedType string) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, expectedType)
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}

	return r.RemoteAddr
}
