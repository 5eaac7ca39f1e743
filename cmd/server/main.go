package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomrecall/roomrecall/internal/api"
	"github.com/roomrecall/roomrecall/internal/config"
	"github.com/roomrecall/roomrecall/internal/core"
	"github.com/roomrecall/roomrecall/internal/metrics"
	"github.com/roomrecall/roomrecall/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flag for database seeding
	seedFlag := flag.Bool("seed", false, "Reset the database, load sample data, and exit")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize LLM service
	llmService, err := core.NewLLMService(context.Background(), config.AppConfig.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize LLM service: %v", err)
	}
	defer llmService.Close()

	// Handle database seeding if flag is set
	if *seedFlag {
		log.Println("Starting database seeding...")
		numSeeded, err := dbStore.Seed(func(text string) ([]float32, error) {
			return llmService.Embed(context.Background(), text)
		})
		if err != nil {
			log.Fatalf("Database seeding failed: %v", err)
		}
		log.Printf("Seeding complete. Embedded %d audio chunks. Exiting.", numSeeded)
		os.Exit(0)
	}

	// Initialize metrics and services
	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	retrievalService := core.NewRetrievalService(dbStore, llmService, appMetrics)
	roomService := core.NewRoomService(dbStore, retrievalService, llmService, appMetrics)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(roomService)
	router := api.NewRouter(apiHandler, appMetrics)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // Transcription and generation calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
