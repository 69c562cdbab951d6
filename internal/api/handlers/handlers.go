// Package handlers implements the HTTP surface consumed by the web UI:
// statement upload, job status, per-session dashboard and transaction
// endpoints, and category metadata.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/spendlens/spendlens/internal/api/middleware"
	"github.com/spendlens/spendlens/internal/domain"
	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/session"
	"github.com/spendlens/spendlens/internal/statement"
)

// MaxUploadBytes caps one uploaded statement file.
const MaxUploadBytes = 10 << 20

// StatementsHandler handles statement upload and analysis endpoints.
type StatementsHandler struct {
	publisher jobs.Publisher
	sessions  *session.Store
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(publisher jobs.Publisher, sessions *session.Store, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{publisher: publisher, sessions: sessions, log: log}
}

// Upload handles POST /api/statements. The multipart "file" field holds
// the statement; analysis runs asynchronously and the response carries
// the job id to watch.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid or oversized multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	job := &jobs.AnalyzeStatementJob{
		Filename: filepath.Base(header.Filename),
		Data:     data,
	}
	if err := h.publisher.PublishAnalyzeStatement(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("job_id", job.JobID).
		Str("filename", job.Filename).
		Int("bytes", len(data)).
		Msg("Analysis job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"jobId":    job.JobID,
		"filename": job.Filename,
		"status":   string(job.Status),
	})
}

// SessionsHandler serves analyzed results for one upload session.
type SessionsHandler struct {
	sessions *session.Store
	log      zerolog.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessions *session.Store, log zerolog.Logger) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, log: log}
}

// Dashboard handles GET /api/sessions/:id/dashboard. Every view is
// recomputed from the current transaction set, so overrides are
// reflected immediately.
func (h *SessionsHandler) Dashboard(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	warning := ""
	if sess.Degraded {
		warning = pipeline.CategorizationWarning
	}
	middleware.WriteJSON(w, http.StatusOK, pipeline.BuildDashboard(sess.Transactions, warning))
}

// Transactions handles GET /api/sessions/:id/transactions.
func (h *SessionsHandler) Transactions(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": sess.Transactions,
		"count":        len(sess.Transactions),
	})
}

// OverrideCategory handles PUT /api/sessions/:id/transactions/:txId/category.
func (h *SessionsHandler) OverrideCategory(w http.ResponseWriter, r *http.Request, sessionID, txID string) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := domain.Category(req.Category)
	if !category.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown category")
		return
	}

	sess, err := h.sessions.Override(sessionID, txID, category)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			middleware.WriteError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, session.ErrTransactionNotFound):
			middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		default:
			h.log.Error().Err(err).Msg("Failed to override category")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to override category")
		}
		return
	}

	h.log.Info().
		Str("session_id", sessionID).
		Str("transaction_id", txID).
		Str("category", string(category)).
		Msg("Category overridden")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": sess.Transactions,
	})
}

// Reset handles DELETE /api/sessions/:id, discarding the session.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request, sessionID string) {
	h.sessions.Delete(sessionID)
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CategoriesHandler serves the closed category set with its display
// metadata.
type CategoriesHandler struct{}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler() *CategoriesHandler {
	return &CategoriesHandler{}
}

// ListCategories handles GET /api/categories.
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	out := make([]domain.CategoryConfig, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, c.Config())
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": out,
		"count":      len(out),
	})
}

// JobsHandler serves job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/:id.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs with optional ?status= filtering.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// ErrorStatus maps a pipeline failure onto an HTTP status. Document-
// level input problems are the client's to fix; anything else is a 500.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyFile),
		errors.Is(err, pipeline.ErrTooManyRows),
		errors.Is(err, pipeline.ErrMissingColumns),
		errors.Is(err, pipeline.ErrNoTransactions),
		errors.Is(err, statement.ErrNotTextBased),
		errors.Is(err, statement.ErrTooComplex),
		errors.Is(err, statement.ErrNoTransactions):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
