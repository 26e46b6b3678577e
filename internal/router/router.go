package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chatclone/internal/handlers"
	"chatclone/internal/middleware"
	"chatclone/internal/web"
	"chatclone/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	chatLimiter *middleware.RateLimiter,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", handlers.Health)

	// The page itself needs no session; its first API call creates one.
	r.Get("/", web.Index)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessionAuth.Middleware)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/history", chatHandler.History)
			r.Delete("/history", chatHandler.Reset)

			r.Group(func(r chi.Router) {
				r.Use(chatLimiter.Middleware)
				r.Post("/messages", chatHandler.SendMessage)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
