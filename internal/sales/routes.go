package sales

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.Form)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Post("/{id}/pay", h.MarkPaid)
	r.Post("/{id}/cancel", h.Cancel)
}
