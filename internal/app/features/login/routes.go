package login

import (
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the auth routes on the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.With(auth.RequireSignedIn).Get("/me", h.ServeMe)
}
