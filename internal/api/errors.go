package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/httputil"
	"github.com/persistorai/conceptmap/internal/metrics"
	"github.com/persistorai/conceptmap/internal/middleware"
	"github.com/persistorai/conceptmap/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeNotFound            = "not_found"
	ErrCodeConflict            = "conflict"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeExtractionFailed    = "extraction_failed"
	ErrCodePersistenceFailed   = "persistence_failed"
	ErrCodeTimeout             = "timeout"
	ErrCodeInternalError       = "internal_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// errorMapping pairs a sentinel with the response it produces. Order matters:
// a duplicate key is also a persistence failure and must map to 409 first.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{models.ErrInvalidArticleID, http.StatusBadRequest, ErrCodeInvalidRequest, ""},
	{models.ErrInvalidQuery, http.StatusBadRequest, ErrCodeInvalidRequest, ""},
	{models.ErrNotFoundUpstream, http.StatusNotFound, ErrCodeNotFound, "article not found"},
	{models.ErrArticleNotFound, http.StatusNotFound, ErrCodeNotFound, "article not found"},
	{models.ErrConceptNotFound, http.StatusNotFound, ErrCodeNotFound, "concept not found"},
	{models.ErrFieldNotFound, http.StatusNotFound, ErrCodeNotFound, "field of study not found"},
	{models.ErrDuplicateKey, http.StatusConflict, ErrCodeConflict, "article is being ingested concurrently, retry"},
	{models.ErrExtractionFailed, http.StatusBadGateway, ErrCodeExtractionFailed, "concept extraction failed"},
	{models.ErrUpstreamUnavailable, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "upstream service unavailable"},
	{models.ErrPersistenceFailed, http.StatusServiceUnavailable, ErrCodePersistenceFailed, "could not store article"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out"},
}

// respondServiceError maps a service-layer error onto an HTTP response.
// Client errors echo the validation message; everything else gets a fixed
// message and is logged with the request-scoped logger.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, action string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}

		msg := m.message
		if msg == "" {
			msg = err.Error()
		}

		if m.status >= http.StatusInternalServerError {
			middleware.Logger(c, log).WithError(err).WithField("action", action).Warn("request failed")
		}

		respondError(c, m.status, m.code, msg)

		return
	}

	middleware.Logger(c, log).WithError(err).WithField("action", action).Error("request failed")
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}
