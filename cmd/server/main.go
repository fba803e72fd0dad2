package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gw2tools/gw2-session-tracker/internal/api"
	"github.com/gw2tools/gw2-session-tracker/internal/database"
	"github.com/gw2tools/gw2-session-tracker/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./gw2_tracker.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// API credential and tracked character
	apiKey := os.Getenv("GW2_API_KEY")
	if apiKey == "" {
		log.Fatal("GW2_API_KEY is required")
	}
	character := os.Getenv("GW2_CHARACTER")
	if character == "" {
		log.Fatal("GW2_CHARACTER is required")
	}

	// Update cadence
	updateInterval := time.Minute
	if raw := os.Getenv("UPDATE_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			updateInterval = time.Duration(minutes) * time.Minute
		}
	}

	// Session export directory
	exportDir := os.Getenv("SESSION_EXPORT_DIR")
	if exportDir == "" {
		exportDir = "./data/sessions"
	}

	db := database.GetDB()

	// Initialize services
	gw2 := services.NewGW2Service(apiKey)
	catalog := services.NewItemCatalog(db, gw2)
	prices := services.NewPriceService(db, gw2, catalog)
	snapshots := services.NewSnapshotStore(db)
	valuer := services.NewValuer(catalog, prices, snapshots)
	currencies := services.NewCurrencyCatalog(db, gw2)
	exporter := services.NewSessionExporter(exportDir)
	tracker := services.NewSessionTracker(gw2, valuer, snapshots, exporter, updateInterval)
	refresher := services.NewPriceRefresher(db, gw2, character)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One-shot bulk price refresh in the background, gated on staleness
	go refresher.Start(ctx)

	// Start the session; a remote failure here leaves the API up so the
	// session can be started later through it
	if err := tracker.Start(ctx, character); err != nil {
		log.Printf("Failed to start session for %s: %v", character, err)
	}

	// Setup router
	router := api.SetupRouter(api.Deps{
		AppCtx:     ctx,
		Tracker:    tracker,
		Refresher:  refresher,
		Catalog:    catalog,
		Prices:     prices,
		Valuer:     valuer,
		Snapshots:  snapshots,
		GW2:        gw2,
		Currencies: currencies,
	})

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the session loop and the background refresher
	tracker.Stop()
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
