package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/epochgraph/epochgraph/internal/authz"
	"github.com/epochgraph/epochgraph/internal/httputil"
	"github.com/epochgraph/epochgraph/internal/metrics"
	"github.com/epochgraph/epochgraph/internal/models"
	"github.com/epochgraph/epochgraph/internal/query"
	"github.com/epochgraph/epochgraph/internal/temporal"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeForbidden       = "forbidden"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeUnavailable     = "unavailable"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// badRequestErrors are sentinel errors that map to HTTP 400. Validation
// errors from request payloads are handled where the payload is bound;
// this list covers errors surfacing from deeper layers.
var badRequestErrors = []error{
	models.ErrMissingWebID,
	models.ErrMissingEntityID,
	models.ErrMissingEntityType,
	models.ErrMissingSchema,
	models.ErrMissingEmbedding,
	models.ErrInvalidEntityID,
	query.ErrInvalidFilter,
	query.ErrInvalidQueryPath,
	query.ErrParameterConversion,
	query.ErrCursorDisallowed,
	query.ErrUnsupportedDistanceExpression,
	query.ErrUnsupportedEmbeddingPath,
	query.ErrConvertDistanceParameter,
	query.ErrMultipleEmbeddings,
	temporal.ErrAxesConflict,
}

// respondServiceError maps errors surfacing from the service layer onto
// HTTP statuses. Unrecognized errors are logged and reported as 500
// without leaking internals to the client.
func respondServiceError(c *gin.Context, log *logrus.Logger, action string, err error) {
	switch {
	case errors.Is(err, models.ErrEntityNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "entity not found")
	case errors.Is(err, models.ErrEntityTypeNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "entity type not found")
	case errors.Is(err, models.ErrWebNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "web not found")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource already exists")
	case errors.Is(err, models.ErrRaceConditionOnUpdate):
		respondError(c, http.StatusConflict, ErrCodeConflict, "concurrent update, retry the operation")
	case errors.Is(err, models.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "permission denied")
	case errors.Is(err, authz.ErrCircuitOpen):
		log.WithError(err).Warn(action)
		respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "permission service unavailable")
	case isBadRequest(err):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		log.WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func isBadRequest(err error) bool {
	for _, sentinel := range badRequestErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
