package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/hiring-pipeline/internal/auth"
	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/config"
	"github.com/justsurfingit/hiring-pipeline/internal/database"
	"github.com/justsurfingit/hiring-pipeline/internal/handlers"
	"github.com/justsurfingit/hiring-pipeline/internal/services"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// 2. Session: resume a persisted credential when there is one
	credStore := auth.NewFileStore(cfg.CredentialFile)
	cred, err := credStore.Load()
	if err != nil {
		log.Println("No stored credential, starting logged out")
	}
	guard := session.NewGuard(cred, credStore, session.NavigatorFunc(func(reason string) {
		logger.Warn("session expired, login required", slog.String("login", cfg.LoginPath), slog.String("reason", reason))
	}), logger)

	// 3. Backend transport (bearer token from the guard)
	transport := backend.NewHTTPTransport(cfg.BackendBaseURL, guard,
		backend.WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst))

	// 4. Optional status journal
	mutationOpts := []services.MutationOption{services.WithBulkConcurrency(cfg.BulkConcurrency)}
	var journal *services.GormJournal
	if cfg.JournalDatabaseURL != "" {
		db, err := database.Connect(cfg.JournalDatabaseURL)
		if err != nil {
			log.Printf("⚠️  Journal disabled, database unavailable: %v", err)
		} else {
			journal = services.NewGormJournal(db)
			mutationOpts = append(mutationOpts, services.WithJournal(journal))
		}
	}

	// 5. Core services
	endpoints := services.DefaultEndpoints()
	store := services.NewApplicationStore()
	resolver := services.NewResolver(transport, guard, logger, services.WithAttemptTimeout(cfg.AttemptTimeout))
	aggregator := services.NewAggregationService(resolver, endpoints, cfg.AggregateConcurrency, logger)
	dashboard := services.NewDashboardService(resolver, aggregator, store, guard, endpoints, logger)
	mutations := services.NewMutationService(transport, guard, store, endpoints, logger, mutationOpts...)

	// 6. Handlers
	applicationHandler := handlers.NewApplicationHandler(dashboard, mutations, store, cfg.LoginPath)
	if journal != nil {
		applicationHandler.History = journal
	}
	sessionHandler := handlers.NewSessionHandler(guard, credStore)

	// 7. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // For development only
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 8. Routes
	handlers.Register(r.Group("/api/v1"), applicationHandler, sessionHandler)

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
