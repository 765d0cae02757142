package users

import (
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the signed-in directory routes. Mutations and the full
// listing are admin-only; any user may read their own profile.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{userID}", h.ServeUser)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.RoleAdmin))
		r.Get("/", h.ServeList)
		r.Put("/{userID}", h.HandleUpdate)
		r.Post("/invite", h.HandleInvite)
		r.Post("/{userID}/resend-invite", h.HandleResendInvite)
	})
}

// MountPublicRoutes mounts the invite completion routes, reachable without a
// session because the invitee has no account yet.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/invite/{token}", h.ServeInvite)
	r.Post("/invite/{token}/complete", h.HandleCompleteInvite)
}
