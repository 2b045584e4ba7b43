package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	apperrors "equitycli/internal/errors"
	"equitycli/internal/jobs"
	"equitycli/internal/services"
	apiv1 "equitycli/pkg/contracts/api/v1"
	"equitycli/pkg/contracts/events"
)

// JobsHandler handles async analysis job requests
type JobsHandler struct {
	service        *services.AnalysisService
	errorHandler   *apperrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
	upgrader       websocket.Upgrader
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(service *services.AnalysisService, errorHandler *apperrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *JobsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		service:        service,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "jobs")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Same-origin browsers and non-browser clients only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns the job routes
func (h *JobsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
		r.Get("/ws", h.Stream)
	})
	return r
}

// Submit handles POST /api/analysis/jobs: queue a workbook for background
// analysis and return 202 with the pending job.
func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	upload := &AnalysisHandler{
		service:        h.service,
		errorHandler:   h.errorHandler,
		maxUploadBytes: h.maxUploadBytes,
		logger:         h.logger,
	}
	payload, fileName, err := upload.readUpload(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	job, err := h.service.SubmitJob(r.Context(), payload, fileName)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.ErrServiceUnavailable)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job)
}

// Get handles GET /api/analysis/jobs/{id}
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, job)
}

// List handles GET /api/analysis/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := apiv1.ParseJobListRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}

	filter := jobs.Filter{
		Status: jobs.Status(req.Status),
		Limit:  req.Limit,
	}
	list, err := h.service.ListJobs(filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Listings stay light: replace full reports with summary metadata.
	summaries := make([]jobSummary, 0, len(list))
	for _, job := range list {
		entry := jobSummary{Job: *job}
		if job.Report != nil {
			meta := apiv1.SummarizeReport(job.Report)
			entry.Analysis = &meta
			entry.Report = nil
		}
		summaries = append(summaries, entry)
	}
	render.JSON(w, r, map[string]interface{}{"jobs": summaries})
}

// jobSummary is a listing entry: the job record with its report swapped for
// summary metadata.
type jobSummary struct {
	jobs.Job
	Analysis *apiv1.AnalyzeResponseMeta `json:"analysis,omitempty"`
}

// Cancel handles DELETE /api/analysis/jobs/{id}
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.CancelJob(id); err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	render.JSON(w, r, map[string]string{"status": "cancelled", "id": id})
}

// streamWriteTimeout bounds each websocket write.
const streamWriteTimeout = 10 * time.Second

// Stream handles GET /api/analysis/jobs/{id}/ws: upgrades to a websocket and
// pushes a job snapshot on every status change until the job finishes.
func (h *JobsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snapshots, cancel, err := h.service.SubscribeJob(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("job_id", id),
			slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snapshot := range snapshots {
		event := events.NewJobEvent(snapshot.ID, string(snapshot.Status),
			snapshot.Message, snapshot.Error, snapshot.Report)
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.DebugContext(r.Context(), "websocket client gone",
				slog.String("job_id", id))
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
