package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// inviteTTL is how long an invitation link stays valid.
const inviteTTL = 7 * 24 * time.Hour

// minPasswordLen guards invite completion.
const minPasswordLen = 8

func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type inviteRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// HandleInvite handles POST /api/users/invite. Admin only. The user record
// is created inactive; a failed invitation email is logged but does not roll
// the creation back, since the invite can be resent.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	_, inviterName, inviterID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req inviteRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "invite: decode", err)
		return
	}
	if req.Email == "" {
		h.ErrLog.WriteError(w, r, "invite", apperr.Validation("email is required"))
		return
	}
	if !authz.ValidRole(req.Role) {
		h.ErrLog.WriteError(w, r, "invite", apperr.Validation("role must be admin, manager, or ic"))
		return
	}

	token, err := newInviteToken()
	if err != nil {
		h.ErrLog.WriteError(w, r, "invite", apperr.Storage(err, "failed to create invitation"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.CreateInvited(ctx, models.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	}, token, time.Now().Add(inviteTTL), inviterID)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			h.ErrLog.WriteError(w, r, "invite", apperr.Conflict("a user with this email already exists"))
			return
		}
		h.ErrLog.WriteError(w, r, "invite", apperr.Storage(err, "failed to create invitation"))
		return
	}

	h.sendInviteEmail(ctx, &u, token, inviterName)
	httpjson.Write(w, http.StatusOK, userMutationResponse{
		Success: true,
		Message: "Invitation sent successfully",
		User:    shared.NewUserView(&u),
	})
}

// HandleResendInvite handles POST /api/users/{userID}/resend-invite. Admin
// only. Issues a fresh token and expiry; the old link stops working.
func (h *Handler) HandleResendInvite(w http.ResponseWriter, r *http.Request) {
	_, inviterName, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "resend invite", apperr.Validation("invalid user id"))
		return
	}

	token, err := newInviteToken()
	if err != nil {
		h.ErrLog.WriteError(w, r, "resend invite", apperr.Storage(err, "failed to create invitation"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Users.ResetInvite(ctx, id, token, time.Now().Add(inviteTTL)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "resend invite", apperr.NotFound("no pending invitation for this user"))
			return
		}
		h.ErrLog.WriteError(w, r, "resend invite", apperr.Storage(err, "failed to refresh invitation"))
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "resend invite", apperr.Storage(err, "failed to reload user"))
		return
	}

	h.sendInviteEmail(ctx, u, token, inviterName)
	httpjson.Write(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Invitation resent successfully",
	})
}

// ServeInvite handles GET /api/users/invite/{token}: lets the invite page
// show who the invitation is for before asking for a password.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.lookupPendingInvite(ctx, chi.URLParam(r, "token"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "invite lookup", err)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]string{
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	})
}

type completeRequest struct {
	Password string `json:"password"`
}

// HandleCompleteInvite handles POST /api/users/invite/{token}/complete: sets
// the password, activates the account, and burns the token.
func (h *Handler) HandleCompleteInvite(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "invite complete: decode", err)
		return
	}
	if len(req.Password) < minPasswordLen {
		h.ErrLog.WriteError(w, r, "invite complete",
			apperr.Validation("password must be at least %d characters", minPasswordLen))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token := chi.URLParam(r, "token")
	if _, err := h.lookupPendingInvite(ctx, token); err != nil {
		h.ErrLog.WriteError(w, r, "invite complete", err)
		return
	}

	u, err := h.Users.CompleteInvite(ctx, token, req.Password)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "invite complete", apperr.NotFound("invitation not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "invite complete", apperr.Storage(err, "failed to complete invitation"))
		return
	}
	httpjson.Write(w, http.StatusOK, userMutationResponse{
		Success: true,
		Message: "Account activated successfully",
		User:    shared.NewUserView(u),
	})
}

// lookupPendingInvite resolves a token to its pending user, rejecting
// unknown and expired tokens the same way a completion attempt would.
func (h *Handler) lookupPendingInvite(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Validation("invitation token is required")
	}
	u, err := h.Users.GetByInviteToken(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("invitation not found")
		}
		return nil, apperr.Storage(err, "failed to look up invitation")
	}
	if u.InviteExpires == nil || time.Now().After(*u.InviteExpires) {
		return nil, apperr.Validation("this invitation has expired")
	}
	return u, nil
}

func (h *Handler) sendInviteEmail(ctx context.Context, u *models.User, token, inviterName string) {
	e := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:    h.SiteName,
		InviterName: inviterName,
		InviteLink:  fmt.Sprintf("%s/invite/%s", h.BaseURL, token),
		ExpiresIn:   "7 days",
	})
	e.To = u.Email
	if err := h.Sender.Send(ctx, e); err != nil {
		// Non-fatal: the account exists and the invite can be resent.
		h.Log.Warn("failed to send invitation email",
			zap.String("to", u.Email), zap.Error(err))
	}
}
