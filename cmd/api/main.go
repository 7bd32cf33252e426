package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/sheets-importer/internal/api/handlers"
	"github.com/dvloznov/sheets-importer/internal/api/middleware"
	"github.com/dvloznov/sheets-importer/internal/archive"
	"github.com/dvloznov/sheets-importer/internal/gauth"
	"github.com/dvloznov/sheets-importer/internal/logger"
	"github.com/dvloznov/sheets-importer/internal/session"
	"github.com/dvloznov/sheets-importer/internal/session/inmemory"
	"github.com/dvloznov/sheets-importer/internal/session/redisstore"
	"github.com/dvloznov/sheets-importer/internal/sink"
)

func main() {
	// Parse command-line flags
	var (
		port   = flag.String("port", "8080", "HTTP server port")
		origin = flag.String("origin", envOr("FRONTEND_ORIGIN", "http://localhost:5173"), "Allowed CORS origin (or set FRONTEND_ORIGIN env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	// Load environment variables
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found, continuing")
		}
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURI := envOr("GOOGLE_REDIRECT_URI", *origin+"/auth/callback")
	if clientID == "" || clientSecret == "" {
		log.Fatal().Msg("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}

	flow := gauth.NewFlow(clientID, clientSecret, redirectURI)

	ctx := context.Background()

	// Token store: Redis when configured, in-memory otherwise
	var tokens session.TokenStore
	if dsn := os.Getenv("REDIS_URL"); dsn != "" {
		client, err := redisstore.Open(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		tokens = redisstore.NewStore(client)
		log.Info().Msg("Using Redis token store")
	} else {
		tokens = inmemory.NewStore()
		log.Warn().Msg("No REDIS_URL configured - sessions are lost on restart")
	}

	// Import sink: BigQuery when configured, logging otherwise
	var importSink sink.Sink
	if project := os.Getenv("BQ_PROJECT"); project != "" {
		dataset := envOr("BQ_DATASET", "finance")
		bq, err := sink.NewBigQuerySink(ctx, project, dataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery sink")
		}
		defer bq.Close()
		importSink = bq
		log.Info().Str("project", project).Str("dataset", dataset).Msg("Using BigQuery import sink")
	} else {
		importSink = sink.NewLogSink(log)
		log.Warn().Msg("No BQ_PROJECT configured - imported batches will not be persisted")
	}

	// Batch archive is optional
	var arch *archive.Writer
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		arch = archive.NewWriter(bucket)
		log.Info().Str("bucket", bucket).Msg("Archiving raw import batches to GCS")
	}

	// Initialize handlers
	sheetsHandler := handlers.NewSheetsHandler(flow, handlers.NewServiceFactory(flow), tokens, importSink, arch, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/google/auth-url", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			sheetsHandler.AuthURL(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/google/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			sheetsHandler.Callback(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/google/sheets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			sheetsHandler.ListSheets(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/google/preview-sheet", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sheetsHandler.PreviewSheet(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/google/import-sheet", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sheetsHandler.ImportSheet(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/google/disconnect", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			sheetsHandler.Disconnect(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(*origin)(
					middleware.Session(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
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

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
