package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marove/grabbit/app/api"
	"github.com/marove/grabbit/app/cfg"
	"github.com/marove/grabbit/app/database"
	"github.com/marove/grabbit/app/download"
	"github.com/marove/grabbit/app/entity"
	"github.com/marove/grabbit/app/extract"
	"github.com/marove/grabbit/app/reddit"
	"github.com/marove/grabbit/app/status"
	"github.com/marove/grabbit/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Printf("Starting Grabbit %s...", appCfg.Version)

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run database migrations:", err)
	}
	log.Printf("Connected to database successfully (schema version %d, dirty: %t)", version, dirty)

	// Load entity configurations
	log.Printf("Loading entity configurations from %s...", appCfg.EntitiesDir)
	configCache := entity.NewConfigCache(appCfg.EntitiesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load configurations:", err)
	}
	log.Printf("Loaded %d entity configurations", len(configCache.GetConfigs()))

	// Initialize repositories
	entityRepo := database.NewEntityRepository(db)
	contentRepo := database.NewContentRepository(db)

	// Initialize core components
	httpClient := &http.Client{Timeout: 60 * time.Second}
	registry := entity.NewRegistry()
	queue := status.NewQueue()
	source := reddit.NewClient(httpClient, appCfg.UserAgent)
	dispatcher := extract.NewDispatcher(extract.NewEnv(httpClient, appCfg.UserAgent, appCfg.ImgurClientID))
	executor := download.NewExecutor(httpClient, queue, download.Options{
		SetFileModifiedDate: appCfg.SetFileModifiedDate,
		UserAgent:           appCfg.UserAgent,
	})

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(configCache, registry, source, dispatcher, executor,
		entityRepo, contentRepo, queue, tasks.Options{
			Interval:         time.Duration(appCfg.SchedulerInterval) * time.Second,
			WorkerCount:      appCfg.WorkerCount,
			DownloadWorkers:  appCfg.DownloadWorkers,
			SaveRoot:         appCfg.SaveRoot,
			SaveUndownloaded: appCfg.SaveUndownloadedContent,
		})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, registry, entityRepo, contentRepo, queue, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  List entities: http://localhost:%s/api/entities (requires API key)", appCfg.Port)
			log.Printf("  Details:       http://localhost:%s/api/entities/<name> (requires API key)", appCfg.Port)
			log.Printf("  Messages:      http://localhost:%s/api/messages (requires API key)", appCfg.Port)
			log.Printf("  Run pass:      http://localhost:%s/api/entities/<name>/run (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Grabbit started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("Grabbit shutdown complete")
}
