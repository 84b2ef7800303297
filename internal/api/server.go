package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	chatapi "github.com/quiverai/quiver/internal/api/chat"
	"github.com/quiverai/quiver/internal/api/docs"
	"github.com/quiverai/quiver/internal/api/middleware"
	sourceapi "github.com/quiverai/quiver/internal/api/source"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(chatHandler *chatapi.Handler, sourceHandler *sourceapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests
	r.Use(middleware.CORS)           // Handle CORS

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// The chat stream runs for as long as the model generates, so it
	// stays outside the request timeout group.
	r.Group(func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		chatapi.RegisterConversationRoutes(r, chatHandler)
		sourceapi.RegisterRoutes(r, sourceHandler)
	})

	return r
}
