package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"dramabridge/api"
	"dramabridge/config"
	"dramabridge/handlers"
	"dramabridge/services/catalog"
	"dramabridge/services/metadata"
	"dramabridge/services/scraper"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

const version = "1.0.0"

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("DramaBridge starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("DRAMABRIDGE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Standard log goes to both console and file
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if !settings.Providers.MDLEnabled() {
		log.Printf("[main] MyDramaList key not configured; alias expansion disabled")
	}

	fetcher := scraper.New(scraper.Config{
		BaseURL:          settings.Source.BaseURL,
		DramacoolBaseURL: settings.Secondary.DramacoolBaseURL,
		AsiaflixBaseURL:  settings.Secondary.AsiaflixBaseURL,
		SessionTTL:       time.Duration(settings.Source.SessionTTLMinutes) * time.Minute,
		MinInterval:      time.Duration(settings.Source.MinIntervalMs) * time.Millisecond,
		Timeout:          time.Duration(settings.Source.TimeoutSeconds) * time.Second,
		UserAgents:       settings.Source.UserAgents,
		Proxies:          settings.Source.Proxies,
	})

	metadataService := metadata.NewService(metadata.Config{
		TMDBAPIKey: settings.Providers.TMDBAPIKey,
		OMDBAPIKey: settings.Providers.OMDBAPIKey,
		MDLAPIKey:  settings.Providers.MDLAPIKey,
		MDLEnabled: settings.Providers.MDLEnabled(),
	})

	catalogService := catalog.NewService(fetcher, metadataService)
	addonHandler := handlers.NewAddonHandler(catalogService, version)

	r := mux.NewRouter()
	api.Register(r, addonHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)
	fmt.Printf("Install URL: http://127.0.0.1:%d/manifest.json\n", settings.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
