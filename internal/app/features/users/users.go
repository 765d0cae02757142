package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type usersResponse struct {
	Users []shared.UserView `json:"users"`
}

type userResponse struct {
	User shared.UserView `json:"user"`
}

type userMutationResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    shared.UserView `json:"user"`
}

// ServeList handles GET /api/users. Admin only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx)
	if err != nil {
		h.ErrLog.WriteError(w, r, "users list", apperr.Storage(err, "failed to load users"))
		return
	}
	httpjson.Write(w, http.StatusOK, usersResponse{Users: shared.NewUserViews(list)})
}

// ServeUser handles GET /api/users/{userID}. ICs may only read their own
// profile; managers and admins may read anyone's.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	role, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "user get", apperr.Validation("invalid user id"))
		return
	}
	if id != callerID && !authz.CanManage(role) {
		h.ErrLog.WriteError(w, r, "user get", apperr.Unauthorized("you may only view your own profile"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "user get", apperr.NotFound("user not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "user get", apperr.Storage(err, "failed to load user"))
		return
	}
	httpjson.Write(w, http.StatusOK, userResponse{User: shared.NewUserView(u)})
}

type updateRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	TeamID *string `json:"teamId"`
}

// HandleUpdate handles PUT /api/users/{userID}. Admin only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "user update", apperr.Validation("invalid user id"))
		return
	}

	var req updateRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "user update: decode", err)
		return
	}
	if req.Name == "" || req.Email == "" {
		h.ErrLog.WriteError(w, r, "user update", apperr.Validation("name and email are required"))
		return
	}
	if !authz.ValidRole(req.Role) {
		h.ErrLog.WriteError(w, r, "user update", apperr.Validation("role must be admin, manager, or ic"))
		return
	}

	upd := userstore.Update{Name: req.Name, Email: req.Email, Role: req.Role}
	if req.TeamID != nil && *req.TeamID != "" {
		// Only ICs carry a team reference.
		if req.Role != authz.RoleIC {
			h.ErrLog.WriteError(w, r, "user update", apperr.Validation("only ic users can be assigned to a team"))
			return
		}
		teamID, err := primitive.ObjectIDFromHex(*req.TeamID)
		if err != nil {
			h.ErrLog.WriteError(w, r, "user update", apperr.Validation("invalid team id"))
			return
		}
		upd.TeamID = &teamID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UpdateUser(ctx, id, upd); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.WriteError(w, r, "user update", apperr.NotFound("user not found"))
		case errors.Is(err, userstore.ErrDuplicateEmail):
			h.ErrLog.WriteError(w, r, "user update", apperr.Conflict("a user with this email already exists"))
		default:
			h.ErrLog.WriteError(w, r, "user update", apperr.Storage(err, "failed to update user"))
		}
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "user update", apperr.Storage(err, "failed to reload user"))
		return
	}
	httpjson.Write(w, http.StatusOK, userMutationResponse{
		Success: true,
		Message: "User updated successfully",
		User:    shared.NewUserView(u),
	})
}
