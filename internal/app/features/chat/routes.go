package chat

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the chat routes on the given router. The router is
// already behind RequireSignedIn.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/results", h.HandleSend)
	r.Get("/results/{goalID}", h.ServeHistory)
}
