package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/rs/zerolog/log"

	"github.com/markedwards8480/invoice-processor/internal/core/activity"
	"github.com/markedwards8480/invoice-processor/internal/core/auth"
	"github.com/markedwards8480/invoice-processor/internal/core/export"
	"github.com/markedwards8480/invoice-processor/internal/core/extraction"
	"github.com/markedwards8480/invoice-processor/internal/core/llm"
	"github.com/markedwards8480/invoice-processor/internal/core/scheduler"
	"github.com/markedwards8480/invoice-processor/internal/core/storage"
	"github.com/markedwards8480/invoice-processor/internal/core/zoho"
	dashboardhandlers "github.com/markedwards8480/invoice-processor/internal/modules/dashboard/handlers"
	dashboardrepos "github.com/markedwards8480/invoice-processor/internal/modules/dashboard/repositories"
	dashboardservices "github.com/markedwards8480/invoice-processor/internal/modules/dashboard/services"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/handlers"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/models"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/repositories"
	"github.com/markedwards8480/invoice-processor/internal/modules/invoices/services"
	"github.com/markedwards8480/invoice-processor/internal/shared/config"
	"github.com/markedwards8480/invoice-processor/internal/shared/database"
	"github.com/markedwards8480/invoice-processor/internal/shared/utils"

	_ "github.com/markedwards8480/invoice-processor/cmd/server/docs"
)

// @title Invoice Processor API
// @version 1.0
// @description Extracts supplier invoices, posts them as Zoho Books bills and serves the aircraft cost dashboard.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)
	logger := utils.Component("server")
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting invoice processor")

	db := database.NewDB(cfg.DatabaseURL, cfg.Env)
	defer db.Close()

	// Repositories
	transactionRepo := repositories.NewTransactionRepo(db.GORM)
	mappingRepo := repositories.NewMappingRepo(db.GORM)
	accountRepo := repositories.NewAccountRepo(db.GORM)
	settingsRepo := repositories.NewSettingsRepo(db.GORM)
	stagedImportRepo := repositories.NewStagedImportRepo(db.GORM)
	monthRepo := dashboardrepos.NewMonthRepo(db.GORM)

	activityService := activity.NewService(activity.NewGormStore(db.GORM))

	// External providers
	llmService, err := llm.NewService(&llm.ProviderConfig{
		Type:      llm.ProviderType(cfg.LLMProvider),
		ClaudeKey: cfg.ClaudeAPIKey,
		OpenAIKey: cfg.OpenAIAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize LLM provider")
	}
	extractor := extraction.NewExtractor(llmService)

	documentStore, err := storage.NewProvider(storage.Config{
		Provider:           cfg.StorageProvider,
		LocalPath:          cfg.StorageLocalPath,
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
		AWSRegion:          cfg.AWSRegion,
		S3Bucket:           cfg.S3Bucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document store")
	}

	zohoClient := zoho.NewClient()

	// Services
	settingsService := services.NewSettingsService(settingsRepo, zoho.NewRefresher(), cfg.ZohoTokenURL, activityService)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := settingsService.Seed(seedCtx, map[string]string{
		models.SettingAPIDomain:      cfg.ZohoAPIDomain,
		models.SettingOrganizationID: cfg.ZohoOrganizationID,
		models.SettingClientID:       cfg.ZohoClientID,
		models.SettingClientSecret:   cfg.ZohoClientSecret,
		models.SettingRefreshToken:   cfg.ZohoRefreshToken,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed settings")
	}
	cancelSeed()

	queue := services.NewQueueService(cfg.MaxUploadMB << 20)
	suggester := services.NewAccountSuggester(mappingRepo, accountRepo)
	duplicates := services.NewDuplicateDetector(transactionRepo)
	vendors := services.NewVendorResolver(zohoClient, services.VendorMode(cfg.VendorMode))

	processingService := services.NewProcessingService(queue, extractor, suggester, duplicates, activityService, cfg.DefaultCurrency)
	uploadService := services.NewUploadService(queue, settingsService, zohoClient, vendors, suggester,
		transactionRepo, documentStore, activityService, cfg.DefaultCurrency)
	accountService := services.NewAccountService(zohoClient, settingsService, accountRepo, mappingRepo, activityService)
	historyService := services.NewHistoryService(transactionRepo, export.NewService(), activityService)
	folderWatcher := services.NewFolderWatcher(settingsService, documentStore, stagedImportRepo, activityService)
	importService := services.NewImportService(stagedImportRepo, documentStore, queue, activityService)
	dashboardService := dashboardservices.NewDashboardService(monthRepo)

	// Background jobs
	jobs := scheduler.NewScheduler()
	if err := jobs.Every(services.JobTokenRefresh, cfg.TokenRefreshInterval, services.TokenRefreshJob(settingsService)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule token refresh")
	}
	if err := jobs.Every(services.JobFolderWatch, cfg.WatchInterval, services.FolderWatchJob(folderWatcher)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule folder watch")
	}
	jobs.Start()

	// Don't wait for the first tick to replace a token that expired while we were down.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := jobs.RunNow(startupCtx, services.JobTokenRefresh); err != nil {
		logger.Warn().Err(err).Msg("Startup token refresh failed")
	}
	cancelStartup()

	// HTTP
	app := fiber.New(fiber.Config{
		AppName:   "Invoice Processor API",
		BodyLimit: (cfg.MaxUploadMB + 5) << 20,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(fiberlogger.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", handlers.NewHealthHandler(llmService.GetProviderName(), documentStore.GetProviderName()).GetHealth)

	api := app.Group("/api")
	if cfg.AuthEnabled() {
		authService := auth.NewService(cfg.AdminUsername, cfg.AdminPasswordHash, auth.NewJWTService(cfg.JWTSecret, 12*time.Hour))
		app.Post("/auth/login", auth.NewHandler(authService).Login)
		api.Use(auth.AuthMiddleware(authService))
		logger.Info().Msg("Admin authentication enabled")
	}

	handlers.RegisterRoutes(api, handlers.Handlers{
		Invoices:     handlers.NewInvoiceHandler(queue, processingService, uploadService, extractor),
		Settings:     handlers.NewSettingsHandler(settingsService, accountService, vendors),
		Transactions: handlers.NewTransactionHandler(historyService),
		Activity:     handlers.NewActivityHandler(activityService),
		Imports:      handlers.NewImportHandler(importService, folderWatcher),
	})
	dashboardhandlers.RegisterRoutes(api, dashboardhandlers.NewDashboardHandler(dashboardService))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()
	logger.Info().Str("swagger", "http://localhost:"+cfg.Port+"/swagger/").Msg("Invoice processor running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := jobs.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("Background jobs did not stop in time")
	}
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown failed")
	}
}
