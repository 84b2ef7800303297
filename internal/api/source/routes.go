package source

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers knowledge vault routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sources", func(r chi.Router) {
		r.Get("/", h.ListSources)
		r.Delete("/", h.DeleteSource)
		r.Post("/files", h.UploadFiles)
		r.Post("/url", h.AddURL)
	})

	r.Post("/reindex", h.Reindex)
}
