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

	"chatclone/internal/config"
	"chatclone/internal/handlers"
	"chatclone/internal/llm"
	"chatclone/internal/middleware"
	"chatclone/internal/router"
	"chatclone/internal/services"
	"chatclone/internal/session"
	"chatclone/internal/telemetry"
	"chatclone/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Chat Clone...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ Invalid configuration: %v", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Telemetry ────
	tel, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Endpoint: cfg.OTelEndpoint,
		Env:      cfg.Env,
	})
	if err != nil {
		log.Fatalf("✗ Telemetry initialization failed: %v", err)
	}
	log.Println("✓ Telemetry initialized")

	// ──── Step 3: Initialize LLM Client ────
	completer, err := llm.New(llm.Options{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		log.Fatalf("✗ LLM client initialization failed: %v", err)
	}
	log.Printf("✓ LLM client initialized (provider: %s)", cfg.LLMProvider)

	// ──── Step 4: Initialize Session Store ────
	store := session.NewStore(cfg.Greeting, cfg.SessionTTL)
	store.Start()
	log.Printf("✓ Session store started (idle TTL: %s)", cfg.SessionTTL)

	// ──── Initialize Services ────
	fetcher := services.NewResponseFetcher(completer)
	chatService := services.NewChatService(store, fetcher)
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, cfg.SessionTTL, store, cfg.Env == "production")
	chatLimiter := middleware.NewRateLimiter(cfg.ChatRequestsPerMin, time.Minute)

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(chatService)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(chatService, chatLimiter)
	log.Println("✓ WebSocket hub started")

	// ──── Step 6: Start HTTP Server ────
	r := router.New(sessionAuth, chatLimiter, chatHandler, wsHub)

	// No WriteTimeout: a reply takes as long as the model needs.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		store.Stop()
		chatLimiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		if err := tel.Shutdown(ctx); err != nil {
			log.Printf("Telemetry shutdown failed: %v", err)
		}
	}()

	log.Printf("✓ Chat Clone ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	<-done
}
