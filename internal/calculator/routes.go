package calculator

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts all calculator endpoints onto the given router
// under the /calculator prefix.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/calculator", func(r chi.Router) {
		r.Post("/evaluate", h.Evaluate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.OpenSession)
				r.Get("/", h.GetSession)
				r.Delete("/", h.CloseSession)
				r.Post("/keys", h.PressKeys)
				r.Post("/explain", h.Explain)

				r.Get("/history", h.GetHistory)
				r.Delete("/history", h.ClearHistory)
				r.Post("/history/{itemID}/select", h.SelectHistory)
			})
		})
	})
}
