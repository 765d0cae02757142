package teams

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	teamstore "github.com/Pythagora-io/okrtracker/internal/app/store/teams"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type teamsResponse struct {
	Teams []shared.TeamView `json:"teams"`
}

type teamMutationResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Team    shared.TeamView `json:"team"`
}

// ServeList handles GET /api/teams. Admin only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Teams.List(ctx)
	if err != nil {
		h.ErrLog.WriteError(w, r, "teams list", apperr.Storage(err, "failed to load teams"))
		return
	}
	httpjson.Write(w, http.StatusOK, teamsResponse{Teams: shared.NewTeamViews(list)})
}

// ServeTeam handles GET /api/teams/{teamID}: the team plus its member users.
func (h *Handler) ServeTeam(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "teamID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "team get", apperr.Validation("invalid team id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "team get", apperr.NotFound("team not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "team get", apperr.Storage(err, "failed to load team"))
		return
	}

	members, err := h.Users.ListByTeam(ctx, t.ID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "team get", apperr.Storage(err, "failed to load team members"))
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"team":    shared.NewTeamView(t),
		"members": shared.NewUserViews(members),
	})
}

// ServeByManager handles GET /api/teams/manager/{managerID}. Managers may
// only read their own teams; admins may read anyone's.
func (h *Handler) ServeByManager(w http.ResponseWriter, r *http.Request) {
	role, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	managerID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "managerID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "teams by manager", apperr.Validation("invalid manager id"))
		return
	}
	if managerID != callerID && role != authz.RoleAdmin {
		h.ErrLog.WriteError(w, r, "teams by manager", apperr.Unauthorized("you may only view your own teams"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Teams.ListByManager(ctx, managerID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "teams by manager", apperr.Storage(err, "failed to load teams"))
		return
	}
	httpjson.Write(w, http.StatusOK, teamsResponse{Teams: shared.NewTeamViews(list)})
}

type teamRequest struct {
	Name      string   `json:"name"`
	ManagerID string   `json:"managerId"`
	ICIDs     []string `json:"icIds"`
}

// HandleCreate handles POST /api/teams. Admin only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "team create: decode", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	managerID, icIDs, err := h.validateRoster(ctx, req)
	if err != nil {
		h.ErrLog.WriteError(w, r, "team create", err)
		return
	}

	t, err := h.Teams.Create(ctx, models.Team{
		Name:      req.Name,
		ManagerID: managerID,
		ICIDs:     icIDs,
	})
	if err != nil {
		if errors.Is(err, teamstore.ErrDuplicateName) {
			h.ErrLog.WriteError(w, r, "team create", apperr.Conflict("a team with this name already exists"))
			return
		}
		h.ErrLog.WriteError(w, r, "team create", apperr.Storage(err, "failed to create team"))
		return
	}

	if err := h.Users.AssignTeam(ctx, icIDs, t.ID); err != nil {
		h.ErrLog.WriteError(w, r, "team create", apperr.Storage(err, "failed to assign team members"))
		return
	}

	httpjson.Write(w, http.StatusOK, teamMutationResponse{
		Success: true,
		Message: "Team created successfully",
		Team:    shared.NewTeamView(&t),
	})
}

// HandleUpdate handles PUT /api/teams/{teamID}. Admin only. Users removed
// from the roster get their team_id cleared; added users get it set.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "teamID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "team update", apperr.Validation("invalid team id"))
		return
	}

	var req teamRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "team update: decode", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	managerID, icIDs, err := h.validateRoster(ctx, req)
	if err != nil {
		h.ErrLog.WriteError(w, r, "team update", err)
		return
	}

	if err := h.Teams.UpdateTeam(ctx, id, teamstore.Update{
		Name:      req.Name,
		ManagerID: managerID,
		ICIDs:     icIDs,
	}); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			h.ErrLog.WriteError(w, r, "team update", apperr.NotFound("team not found"))
		case errors.Is(err, teamstore.ErrDuplicateName):
			h.ErrLog.WriteError(w, r, "team update", apperr.Conflict("a team with this name already exists"))
		default:
			h.ErrLog.WriteError(w, r, "team update", apperr.Storage(err, "failed to update team"))
		}
		return
	}

	// Reconcile users.team_id with the new roster.
	if err := h.Users.UnassignTeam(ctx, id, icIDs); err != nil {
		h.ErrLog.WriteError(w, r, "team update", apperr.Storage(err, "failed to reconcile team members"))
		return
	}
	if err := h.Users.AssignTeam(ctx, icIDs, id); err != nil {
		h.ErrLog.WriteError(w, r, "team update", apperr.Storage(err, "failed to reconcile team members"))
		return
	}

	t, err := h.Teams.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "team update", apperr.Storage(err, "failed to reload team"))
		return
	}
	httpjson.Write(w, http.StatusOK, teamMutationResponse{
		Success: true,
		Message: "Team updated successfully",
		Team:    shared.NewTeamView(t),
	})
}

// HandleDelete handles DELETE /api/teams/{teamID}. Admin only. Members'
// team_id fields are cleared first so no user points at a dead team.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "teamID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "team delete", apperr.Validation("invalid team id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.UnassignTeam(ctx, id, nil); err != nil {
		h.ErrLog.WriteError(w, r, "team delete", apperr.Storage(err, "failed to unassign team members"))
		return
	}

	n, err := h.Teams.Delete(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "team delete", apperr.Storage(err, "failed to delete team"))
		return
	}
	if n == 0 {
		h.ErrLog.WriteError(w, r, "team delete", apperr.NotFound("team not found"))
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Team deleted successfully",
	})
}

// validateRoster parses and role-checks the manager and IC IDs: the manager
// must hold a manager or admin role, members must be ICs.
func (h *Handler) validateRoster(ctx context.Context, req teamRequest) (primitive.ObjectID, []primitive.ObjectID, error) {
	if req.Name == "" {
		return primitive.NilObjectID, nil, apperr.Validation("name is required")
	}
	managerID, err := primitive.ObjectIDFromHex(req.ManagerID)
	if err != nil {
		return primitive.NilObjectID, nil, apperr.Validation("invalid manager id")
	}

	mgr, err := h.Users.GetByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, nil, apperr.Validation("manager not found")
		}
		return primitive.NilObjectID, nil, apperr.Storage(err, "failed to validate manager")
	}
	if !authz.CanManage(mgr.Role) {
		return primitive.NilObjectID, nil, apperr.Validation("team manager must have a manager or admin role")
	}

	icIDs := make([]primitive.ObjectID, 0, len(req.ICIDs))
	for _, raw := range req.ICIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return primitive.NilObjectID, nil, apperr.Validation("invalid member id %q", raw)
		}
		u, err := h.Users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return primitive.NilObjectID, nil, apperr.Validation("member %s not found", raw)
			}
			return primitive.NilObjectID, nil, apperr.Storage(err, "failed to validate members")
		}
		if u.Role != authz.RoleIC {
			return primitive.NilObjectID, nil, apperr.Validation("team members must have the IC role")
		}
		icIDs = append(icIDs, id)
	}

	return managerID, icIDs, nil
}
