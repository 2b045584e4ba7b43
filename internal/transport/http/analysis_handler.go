package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "equitycli/internal/errors"
	"equitycli/internal/services"
)

// uploadField is the multipart form field carrying the workbook.
const uploadField = "file"

// AnalysisHandler handles workbook upload and analysis requests
type AnalysisHandler struct {
	service        *services.AnalysisService
	errorHandler   *apperrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, errorHandler *apperrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *AnalysisHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:        service,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "analysis")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Analyze)
	return r
}

// Analyze handles POST /api/analyze: a multipart workbook upload analyzed
// synchronously, returning the full report.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	payload, fileName, err := h.readUpload(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.AnalyzeSync(r.Context(), payload, fileName)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, report)
}

// readUpload extracts the workbook bytes from the multipart form, enforcing
// the configured size limit.
func (h *AnalysisHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", apperrors.ErrPayloadTooLarge
		}
		if strings.Contains(err.Error(), "request body too large") {
			return nil, "", apperrors.ErrPayloadTooLarge
		}
		return nil, "", apperrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", apperrors.ErrMissingFile
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.InvalidRequestWithError(err)
	}
	if len(payload) == 0 {
		return nil, "", apperrors.ErrMissingFile
	}

	h.logger.DebugContext(r.Context(), "workbook received",
		slog.String("file_name", header.Filename),
		slog.Int("bytes", len(payload)))

	return payload, header.Filename, nil
}
