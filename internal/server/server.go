// Package server provides HTTP server initialization and lifecycle
// management for the Eigentalk relay.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/eigentalk/internal/config"
	"github.com/scrypster/eigentalk/internal/llm"
	"github.com/scrypster/eigentalk/internal/session"
	"github.com/scrypster/eigentalk/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. Returns the actual address
// being listened on (useful for testing with port 0) and the SocketRelay
// for graceful shutdown. Each WebSocket connection gets its own session
// built around the given completer.
func Start(ctx context.Context, cfg *config.Config, completer llm.ChatCompleter) (string, *handlers.SocketRelay) {
	mux := http.NewServeMux()

	relay := handlers.NewSocketRelay(func() *session.Session {
		return session.New(completer, session.Options{
			HistoryWindow: cfg.Session.HistoryWindow,
			MaxTokens:     cfg.LLM.MaxTokens,
			Temperature:   cfg.LLM.Temperature,
		})
	}, handlers.RelayConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		EventsPerSec:   cfg.Session.EventsPerSec,
		EventBurst:     cfg.Session.EventBurst,
	})

	// Create rate limiter (10 req/sec, burst of 20) for the plain HTTP
	// surface. The WebSocket relay has its own per-connection limiter.
	rateLimiter := handlers.NewRateLimiter(10.0, 20)

	healthHandler := handlers.NewHealthHandler(relay, completer, cfg.LLM.Provider)

	mux.Handle("/ws", handlers.RequireAuth(relay, cfg))
	mux.Handle("/api/health", handlers.RateLimitMiddleware(healthHandler, rateLimiter))

	handler := securityHeadersMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}
	actualAddr := listener.Addr().String()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("ERROR: HTTP server stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		relay.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return actualAddr, relay
}
