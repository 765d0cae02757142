package teams

import (
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the team routes on the given router. Mutations are
// admin-only; managers may read their own teams.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/manager/{managerID}", h.ServeByManager)
	r.Get("/{teamID}", h.ServeTeam)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(authz.RoleAdmin))
		r.Get("/", h.ServeList)
		r.Post("/", h.HandleCreate)
		r.Put("/{teamID}", h.HandleUpdate)
		r.Delete("/{teamID}", h.HandleDelete)
	})
}
