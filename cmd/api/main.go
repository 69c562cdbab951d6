package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spendlens/spendlens/internal/api/handlers"
	"github.com/spendlens/spendlens/internal/api/middleware"
	"github.com/spendlens/spendlens/internal/api/ws"
	"github.com/spendlens/spendlens/internal/categorize"
	"github.com/spendlens/spendlens/internal/jobs"
	"github.com/spendlens/spendlens/internal/jobs/inmemory"
	"github.com/spendlens/spendlens/internal/logger"
	"github.com/spendlens/spendlens/internal/pipeline"
	"github.com/spendlens/spendlens/internal/session"
)

func main() {
	// Parse command-line flags
	var (
		port      = flag.String("port", "8080", "HTTP server port")
		logLevel  = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		model     = flag.String("model", os.Getenv("CLASSIFIER_MODEL"), "classifier model name (or set CLASSIFIER_MODEL env)")
		batchSize = flag.Int("batch-size", categorize.DefaultBatchSize, "categorization batch size")
		workers   = flag.Int("workers", 2, "analysis worker count")
		rateLimit = flag.Int("rate-limit", 30, "requests per minute per client")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New(*logLevel)

	// Core components: classifier, gateway, pipeline, session store.
	classifier := categorize.NewGeminiClassifier(*model)
	gateway := categorize.NewGateway(classifier, *batchSize, log)
	analyzer := pipeline.NewAnalyzer(gateway, log)
	sessions := session.NewStore()

	// Job infrastructure and progress broadcasting.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	hub := ws.NewHub(log)
	hub.Start()
	jobQueue.OnStatusChange(hub.BroadcastJobUpdate)

	ctx := context.Background()
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.AnalyzeStatementJob) error {
		log.Info().
			Str("job_id", job.JobID).
			Str("filename", job.Filename).
			Msg("Processing analysis job")

		dash, err := analyzer.Analyze(ctx, job.Filename, job.Data)
		if err != nil {
			// Input problems fail identically on every attempt.
			if handlers.ErrorStatus(err) == http.StatusUnprocessableEntity {
				return jobs.Permanent(err)
			}
			return err
		}

		sess := sessions.Create(job.Filename, dash.Transactions, dash.Warning != "")
		job.SessionID = sess.ID

		log.Info().
			Str("job_id", job.JobID).
			Str("session_id", sess.ID).
			Int("transactions", len(dash.Transactions)).
			Msg("Analysis job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting analysis workers")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	statementsHandler := handlers.NewStatementsHandler(jobQueue, sessions, log)
	sessionsHandler := handlers.NewSessionsHandler(sessions, log)
	categoriesHandler := handlers.NewCategoriesHandler()
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Session endpoints: /api/sessions/:id[/dashboard|/transactions[/:txId/category]]
	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Session ID is required")
			return
		}
		sessionID := parts[0]

		switch {
		case len(parts) == 1 && r.Method == http.MethodDelete:
			sessionsHandler.Reset(w, r, sessionID)
		case len(parts) == 2 && parts[1] == "dashboard" && r.Method == http.MethodGet:
			sessionsHandler.Dashboard(w, r, sessionID)
		case len(parts) == 2 && parts[1] == "transactions" && r.Method == http.MethodGet:
			sessionsHandler.Transactions(w, r, sessionID)
		case len(parts) == 4 && parts[1] == "transactions" && parts[3] == "category" && r.Method == http.MethodPut:
			sessionsHandler.OverrideCategory(w, r, sessionID, parts[2])
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.ListCategories(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Job progress over WebSocket
	mux.HandleFunc("/ws", hub.HandleWebSocket)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	limiter := middleware.NewRateLimiter(*rateLimit, time.Minute)
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					limiter.Middleware(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	hub.Stop()

	log.Info().Msg("Server exited")
}
