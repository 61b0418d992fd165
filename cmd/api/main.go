package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bizledger/internal/analytics/bigquery"
	"github.com/dvloznov/bizledger/internal/api/handlers"
	"github.com/dvloznov/bizledger/internal/api/middleware"
	"github.com/dvloznov/bizledger/internal/classifier"
	"github.com/dvloznov/bizledger/internal/config"
	"github.com/dvloznov/bizledger/internal/docstore"
	"github.com/dvloznov/bizledger/internal/events"
	eventskafka "github.com/dvloznov/bizledger/internal/events/kafka"
	"github.com/dvloznov/bizledger/internal/extraction"
	"github.com/dvloznov/bizledger/internal/insights"
	"github.com/dvloznov/bizledger/internal/ledger"
	ledgermemory "github.com/dvloznov/bizledger/internal/ledger/memory"
	ledgerpg "github.com/dvloznov/bizledger/internal/ledger/postgres"
	"github.com/dvloznov/bizledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()

	// Ledger storage. Without a database URL the service runs on the
	// in-memory store, which loses data on restart.
	var (
		store      ledger.LedgerStore
		businesses ledger.BusinessStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := ledgerpg.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Postgres")
		}
		defer pg.Close()
		store, businesses = pg, pg
		log.Info().Msg("Using Postgres ledger store")
	} else {
		mem := ledgermemory.NewStore()
		store, businesses = mem, mem
		log.Warn().Msg("No DATABASE_URL configured - using in-memory ledger store")
	}

	// Extraction pipeline.
	gemini := classifier.NewGemini(cfg.GeminiModel, log)
	engine := extraction.NewEngine(gemini, store, log)
	insightsGen := insights.NewGenerator(cfg.GeminiModel, log)

	// Optional event publishing.
	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka event publishing enabled")
	}

	// Optional analytics mirroring.
	var sink handlers.RecordSink
	if cfg.BigQueryProject != "" {
		bq, err := bigquery.NewSink(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery sink")
		}
		defer bq.Close()
		sink = bq
		log.Info().Str("project", cfg.BigQueryProject).Str("dataset", cfg.BigQueryDataset).Msg("BigQuery mirroring enabled")
	}

	// Optional receipt storage.
	var uploader *docstore.Uploader
	if cfg.GCSBucket != "" {
		uploader = docstore.NewUploader(cfg.GCSBucket)
	} else {
		log.Warn().Msg("No GCS bucket configured - receipt uploads will be disabled")
	}

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(engine, store, businesses, publisher, sink, log)
	businessHandler := handlers.NewBusinessHandler(businesses, log)
	summaryHandler := handlers.NewSummaryHandler(store, businesses, log)
	insightsHandler := handlers.NewInsightsHandler(insightsGen, businesses, log)
	receiptsHandler := handlers.NewReceiptsHandler(uploader, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			transactionsHandler.Extract(w, r)
		case http.MethodGet:
			transactionsHandler.List(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/business/setup", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			businessHandler.Setup(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/business", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			businessHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Authenticated API surface. Health stays outside the session check.
	apiHandler := middleware.Session(middleware.HeaderSession{})(mux)

	root := http.NewServeMux()
	root.Handle("/api/", apiHandler)
	root.HandleFunc("/health", handlers.HealthHandler)

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(root),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
