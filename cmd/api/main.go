package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"finview/internal/api/handlers"
	"finview/internal/api/middleware"
	bq "finview/internal/bigquery"
	"finview/internal/config"
	infraBQ "finview/internal/infra/bigquery"
	"finview/internal/logger"
	"finview/internal/prediction"
	"finview/internal/store/inmemory"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Initialize transaction repository
	var repo bq.TransactionRepository
	switch cfg.StoreBackend {
	case "memory":
		log.Warn().Msg("Using in-memory store - data will not survive a restart")
		repo = inmemory.NewStore()
	default:
		bqRepo, err := infraBQ.NewTransactionRepository(ctx, infraBQ.Config{
			ProjectID:       cfg.BQProjectID,
			Dataset:         cfg.BQDataset,
			CredentialsFile: cfg.BQCredentialsFile,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create transaction repository")
		}
		repo = bqRepo
	}
	defer repo.Close()

	// Initialize AI advisor
	advisor := prediction.NewAdvisor(prediction.Config{
		GatewayURL: cfg.AIGatewayURL,
		Model:      cfg.AIModel,
	}, log)

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	summaryHandler := handlers.NewSummaryHandler(repo, log)
	predictionsHandler := handlers.NewPredictionsHandler(advisor, log)
	healthHandler := &handlers.HealthHandler{}

	// API routes require an authenticated caller
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if transactionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, transactionID)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, transactionID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.GetSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	apiMux.HandleFunc("/api/predictions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			predictionsHandler.CreatePrediction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Root router: health stays unauthenticated
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler.Health)
	mux.Handle("/api/", middleware.Auth([]byte(cfg.JWTSecret))(apiMux))

	// Apply middleware; CORS runs before Auth so preflight requests never
	// need a token
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
