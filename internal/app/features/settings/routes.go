package settings

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the settings routes on the given router.
// All routes require admin authentication.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/automation", h.ServeSettings)
	r.Put("/automation", h.HandleUpdate)
}
