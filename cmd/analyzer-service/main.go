package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"etf-trend-analyzer/internal/analyzer/cache"
	"etf-trend-analyzer/internal/analyzer/config"
	deliveryhttp "etf-trend-analyzer/internal/analyzer/delivery/http"
	"etf-trend-analyzer/internal/analyzer/delivery/scheduler"
	"etf-trend-analyzer/internal/analyzer/delivery/telegrambot"
	"etf-trend-analyzer/internal/analyzer/repository"
	"etf-trend-analyzer/internal/analyzer/service"
	"etf-trend-analyzer/internal/analyzer/storage"
	"etf-trend-analyzer/pkg/logger"
	"etf-trend-analyzer/pkg/telegram"
	"etf-trend-analyzer/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the analyzer service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Analyzer Service",
		zap.String("name", cfg.App.Name),
		zap.String("symbol", cfg.Analyzer.Symbol))

	// Initialize the backing stores. Either store may be down; the service
	// still serves reports, degraded.
	store := storage.NewManager(cfg, appLogger)
	defer store.Close()

	// Initialize the cache layer
	dataCache := cache.New(cache.NewRedisStore(store.Cache()), appLogger)

	// Initialize repositories
	recordRepo := repository.NewAnalysisRecordRepository(store)
	priceRepo, err := repository.NewYahooFinanceRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize price repository", logger.ErrorField(err))
	}

	var newsRepo repository.NewsRepository
	switch cfg.News.Provider {
	case "newsapi":
		newsRepo, err = repository.NewNewsAPIRepository(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize NewsAPI repository", logger.ErrorField(err))
		}
	case "google_rss", "":
		newsRepo = repository.NewGoogleNewsRSSRepository(cfg, appLogger)
	default:
		appLogger.Fatal("Invalid news provider specified in config", logger.StringField("provider", cfg.News.Provider))
	}

	// Initialize the orchestrator
	analyzerSvc := service.NewMarketAnalyzerService(cfg, appLogger, dataCache, priceRepo, newsRepo, recordRepo)

	// Initialize Telegram notifier and command bot
	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	bot, err := telegrambot.New(cfg, appLogger, analyzerSvc)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram bot", logger.ErrorField(err))
	}
	bot.Start(ctx)

	// Initialize the scheduler
	cronScheduler := scheduler.New(cfg, appLogger, analyzerSvc, notifier)
	if err := cronScheduler.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scheduler", logger.ErrorField(err))
	}

	// Initialize the HTTP API
	e := echo.New()
	e.HideBanner = true
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	analysisHandler := deliveryhttp.NewAnalysisHandler(recordRepo, appLogger)
	analysisHandler.RegisterRoutes(e.Group("/api/v1/analyses"))

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	utils.GoSafe(func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", logger.ErrorField(err))
		}
	})

	appLogger.Info("Analyzer service started")

	// Wait for interrupt signal to gracefully shut down the service
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down analyzer service...")
	cancel()
	cronScheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", logger.ErrorField(err))
	}

	appLogger.Info("Analyzer service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "analyzer-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-analyzer.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing analyzer-service CLI: %s\n", err)
		os.Exit(1)
	}
}
