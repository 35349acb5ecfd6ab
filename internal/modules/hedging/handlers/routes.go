package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all hedging routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/hedging", func(r chi.Router) {
		// Analytics
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/hedge", h.HandleHedge)
		r.Post("/options", h.HandleOptions)
		r.Get("/reference", h.HandleGetReference)

		// Quote cache
		r.Put("/quotes", h.HandlePutQuotes)
		r.Get("/quotes", h.HandleGetQuotes)
		r.Get("/quotes/{symbol}", h.HandleGetQuote)

		// Interactive re-pricing
		r.Get("/stream", h.HandleStream)
	})
}
