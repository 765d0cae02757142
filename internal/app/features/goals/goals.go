package goals

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/htmlsanitize"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type goalListResponse struct {
	Goals []shared.GoalView `json:"goals"`
}

type goalResponse struct {
	Goal shared.GoalView `json:"goal"`
}

type goalMutationResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Goal    shared.GoalView `json:"goal"`
}

// ServeList handles GET /api/goals/user/{userID}. ICs may only read their
// own sheets; managers and admins may read anyone's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "goals list", apperr.Validation("invalid user id"))
		return
	}
	if target != callerID && role != authz.RoleManager && role != authz.RoleAdmin {
		h.ErrLog.WriteError(w, r, "goals list", apperr.Unauthorized("you may only view your own goals"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Goals.ListByUser(ctx, target)
	if err != nil {
		h.ErrLog.WriteError(w, r, "goals list", apperr.Storage(err, "failed to load goals"))
		return
	}
	httpjson.Write(w, http.StatusOK, goalListResponse{Goals: shared.NewGoalViews(list)})
}

// ServeGoal handles GET /api/goals/{goalID}. Owners always may read their own
// sheet; managers and admins may read anyone's.
func (h *Handler) ServeGoal(w http.ResponseWriter, r *http.Request) {
	role, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.loadGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "goal get", err)
		return
	}
	if g.UserID != callerID && role != authz.RoleManager && role != authz.RoleAdmin {
		h.ErrLog.WriteError(w, r, "goal get", apperr.Unauthorized("you may only view your own goals"))
		return
	}
	httpjson.Write(w, http.StatusOK, goalResponse{Goal: shared.NewGoalView(g)})
}

type saveRequest struct {
	UserID       string    `json:"userId"`
	WeekStart    time.Time `json:"weekStart"`
	WeekEnd      time.Time `json:"weekEnd"`
	GoalsContent string    `json:"goalsContent"`
}

// HandleSave handles POST /api/goals: create or update the caller's sheet for
// a week. The week start is normalized to Monday 00:00 UTC before the upsert,
// and weekEnd is always derived from it rather than trusted from the client.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req saveRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "goal save: decode", err)
		return
	}
	if req.WeekStart.IsZero() {
		h.ErrLog.WriteError(w, r, "goal save", apperr.Validation("weekStart is required"))
		return
	}
	if req.UserID != "" {
		id, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			h.ErrLog.WriteError(w, r, "goal save", apperr.Validation("invalid user id"))
			return
		}
		if id != callerID {
			h.ErrLog.WriteError(w, r, "goal save", apperr.Unauthorized("you may only save your own goals"))
			return
		}
	}

	weekStart := models.StartOfWeek(req.WeekStart)
	weekEnd := models.EndOfWeek(weekStart)
	content := htmlsanitize.Clean(req.GoalsContent)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Goals.SaveGoals(ctx, callerID, weekStart, weekEnd, content)
	if err != nil {
		if errors.Is(err, goalstore.ErrDuplicateWeek) {
			h.ErrLog.WriteError(w, r, "goal save", apperr.Conflict("a goal sheet for this week already exists"))
			return
		}
		h.ErrLog.WriteError(w, r, "goal save", apperr.Storage(err, "failed to save goals"))
		return
	}
	httpjson.Write(w, http.StatusOK, goalMutationResponse{
		Success: true,
		Message: "Goals saved successfully",
		Goal:    shared.NewGoalView(g),
	})
}

// HandleSubmitGoals handles POST /api/goals/{goalID}/submit. Owner only.
// The manager is notified outside the write's failure boundary.
func (h *Handler) HandleSubmitGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.loadOwnedGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "submit goals", err)
		return
	}
	if g.GoalsContent == "" {
		h.ErrLog.WriteError(w, r, "submit goals", apperr.Validation("cannot submit an empty goal sheet"))
		return
	}

	updated, err := h.Goals.SubmitGoals(ctx, g.ID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "submit goals", apperr.Storage(err, "failed to submit goals"))
		return
	}

	h.Notify.GoalsSubmitted(updated)
	httpjson.Write(w, http.StatusOK, goalMutationResponse{
		Success: true,
		Message: "Goals submitted successfully",
		Goal:    shared.NewGoalView(updated),
	})
}

type resultsRequest struct {
	ResultsContent string `json:"resultsContent"`
}

// HandleSubmitResults handles POST /api/goals/{goalID}/results. Owner only.
// The results content and its submission stamp land in a single write.
func (h *Handler) HandleSubmitResults(w http.ResponseWriter, r *http.Request) {
	var req resultsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "submit results: decode", err)
		return
	}
	if req.ResultsContent == "" {
		h.ErrLog.WriteError(w, r, "submit results", apperr.Validation("resultsContent is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.loadOwnedGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "submit results", err)
		return
	}

	updated, err := h.Goals.SubmitResults(ctx, g.ID, htmlsanitize.Clean(req.ResultsContent))
	if err != nil {
		h.ErrLog.WriteError(w, r, "submit results", apperr.Storage(err, "failed to submit results"))
		return
	}

	h.Notify.ResultsSubmitted(updated)
	httpjson.Write(w, http.StatusOK, goalMutationResponse{
		Success: true,
		Message: "Results submitted successfully",
		Goal:    shared.NewGoalView(updated),
	})
}

// loadGoal parses {goalID} and loads the sheet, mapping the usual failures.
func (h *Handler) loadGoal(ctx context.Context, r *http.Request) (*models.WeekGoal, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "goalID"))
	if err != nil {
		return nil, apperr.Validation("invalid goal id")
	}
	g, err := h.Goals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("goal not found")
		}
		return nil, apperr.Storage(err, "failed to load goal")
	}
	return g, nil
}

// loadOwnedGoal is loadGoal plus an ownership check against the session user.
func (h *Handler) loadOwnedGoal(ctx context.Context, r *http.Request) (*models.WeekGoal, error) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}
	g, err := h.loadGoal(ctx, r)
	if err != nil {
		return nil, err
	}
	if g.UserID != callerID {
		return nil, apperr.Unauthorized("this goal sheet belongs to another user")
	}
	return g, nil
}
