package goals

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the goal-sheet routes on the given router. The router is
// already behind RequireSignedIn.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/user/{userID}", h.ServeList)
	r.Post("/", h.HandleSave)
	r.Get("/{goalID}", h.ServeGoal)
	r.Post("/{goalID}/submit", h.HandleSubmitGoals)
	r.Post("/{goalID}/results", h.HandleSubmitResults)
	r.Post("/{goalID}/comments", h.HandleAddComment)
	r.Post("/{goalID}/comments/{commentID}/replies", h.HandleAddReply)
	r.Put("/{goalID}/comments/{commentID}/resolve", h.HandleResolveComment)
}
