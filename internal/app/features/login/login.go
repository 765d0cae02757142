package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User shared.UserView `json:"user"`
}

// HandleLogin handles POST /api/auth/login. Wrong email and wrong password
// produce the same 401 so the endpoint does not confirm which emails exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "login: decode", err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.ErrLog.WriteError(w, r, "login: validate", apperr.Validation("email and password are required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.writeBadCredentials(w)
			return
		}
		h.ErrLog.WriteError(w, r, "login: lookup", apperr.Storage(err, "failed to sign in"))
		return
	}
	if !u.Active || !userstore.VerifyPassword(u, req.Password) {
		h.writeBadCredentials(w)
		return
	}

	if err := h.Sessions.SignIn(w, r, &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.DisplayName(),
		Email: u.Email,
		Role:  u.Role,
	}); err != nil {
		h.ErrLog.WriteError(w, r, "login: session", apperr.Storage(err, "failed to sign in"))
		return
	}

	if err := h.Users.SetLastLogin(ctx, u.ID); err != nil {
		// Non-fatal: the session is already issued.
		h.Log.Warn("failed to stamp last login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	httpjson.Write(w, http.StatusOK, userResponse{User: shared.NewUserView(u)})
}

func (h *Handler) writeBadCredentials(w http.ResponseWriter) {
	httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
}

// HandleLogout handles POST /api/auth/logout. Always succeeds, signed in or not.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(w, r); err != nil {
		h.ErrLog.WriteError(w, r, "logout", apperr.Storage(err, "failed to sign out"))
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// ServeMe handles GET /api/auth/me: the signed-in user's fresh profile.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "me", apperr.NotFound("user not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "me", apperr.Storage(err, "failed to load profile"))
		return
	}
	httpjson.Write(w, http.StatusOK, userResponse{User: shared.NewUserView(u)})
}
