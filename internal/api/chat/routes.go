package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterConversationRoutes registers the non-streaming chat routes.
// The streaming POST /chat endpoint is mounted by the server so it can
// sit outside the request timeout group.
func RegisterConversationRoutes(r chi.Router, h *Handler) {
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.ListConversations)

		r.Route("/{conversation_id}", func(r chi.Router) {
			r.Get("/", h.GetConversation)
			r.Delete("/", h.DeleteConversation)
			r.Get("/export", h.ExportConversation)
		})
	})
}
