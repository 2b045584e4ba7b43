package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"equitycli/internal/infrastructure"
)

// Common error types following RFC 7807
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
)

// Domain-specific error types
const (
	TypeWorkbookSchema  = "/errors/workbook/schema"
	TypeDataQuality     = "/errors/workbook/data-quality"
	TypeModelFit        = "/errors/analysis/model-fit"
	TypeConfiguration   = "/errors/analysis/configuration"
	TypeJobNotFound     = "/errors/analysis/job-not-found"
	TypeAnalysisNoData  = "/errors/analysis/no-results"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	problem.Write(w)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details.
// Each core analysis error kind maps to a distinct HTTP status.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	// Context errors first
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	// Core analysis error taxonomy
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeWorkbookSchema,
			"Workbook Schema Error",
			schemaErr.Error(),
			r.URL.Path,
		).WithExtension("sheet", schemaErr.Sheet).
			WithExtension("column", schemaErr.Column)
	}

	var qualityErr *DataQualityError
	if errors.As(err, &qualityErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeDataQuality,
			"Workbook Data Quality Error",
			qualityErr.Error(),
			r.URL.Path,
		).WithExtension("sheet", qualityErr.Sheet).
			WithExtension("dropped_rows", qualityErr.Dropped).
			WithExtension("total_rows", qualityErr.Total)
	}

	var fitErr *ModelFitError
	if errors.As(err, &fitErr) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeModelFit,
			"Model Fit Error",
			fitErr.Error(),
			r.URL.Path,
		).WithExtension("model_kind", fitErr.Kind)
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeConfiguration,
			"Configuration Error",
			cfgErr.Error(),
			r.URL.Path,
		).WithExtension("field", cfgErr.Field)
	}

	// Our structured API errors
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	// Generic internal error
	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "MISSING_PARAMETER", "MISSING_FILE":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "JOB_NOT_FOUND":
		problemType = TypeJobNotFound
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	case "PAYLOAD_TOO_LARGE":
		problemType = TypePayloadTooLarge
	case "UNPROCESSABLE_ENTITY":
		problemType = TypeAnalysisNoData
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		fmt.Sprintf("An unexpected error occurred: %v", recovered),
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	problem.Write(w)
}
