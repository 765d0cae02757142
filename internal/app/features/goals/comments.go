package goals

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentRequest struct {
	Text            string `json:"text"`
	HighlightedText string `json:"highlightedText"`
	Position        int    `json:"position"`
}

type commentMutationResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Comment shared.CommentView `json:"comment"`
}

type replyMutationResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Reply   shared.ReplyView `json:"reply"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleAddComment handles POST /api/goals/{goalID}/comments. Any signed-in
// user may comment; the owner and the owner's manager get notified depending
// on who wrote it.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	role, name, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req commentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "comment: decode", err)
		return
	}
	if req.Text == "" {
		h.ErrLog.WriteError(w, r, "comment", apperr.Validation("text is required"))
		return
	}
	if req.Position < 0 {
		h.ErrLog.WriteError(w, r, "comment", apperr.Validation("position must not be negative"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.loadGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "comment", err)
		return
	}

	updated, c, err := h.Goals.AddComment(ctx, g.ID, models.Comment{
		UserID:          callerID,
		UserName:        name,
		UserRole:        role,
		Text:            req.Text,
		HighlightedText: req.HighlightedText,
		Position:        req.Position,
	})
	if err != nil {
		h.ErrLog.WriteError(w, r, "comment", apperr.Storage(err, "failed to add comment"))
		return
	}

	h.Notify.CommentAdded(updated, c)
	httpjson.Write(w, http.StatusOK, commentMutationResponse{
		Success: true,
		Message: "Comment added successfully",
		Comment: shared.NewCommentView(c),
	})
}

type replyRequest struct {
	Text string `json:"text"`
}

// HandleAddReply handles POST /api/goals/{goalID}/comments/{commentID}/replies.
func (h *Handler) HandleAddReply(w http.ResponseWriter, r *http.Request) {
	_, name, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req replyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "reply: decode", err)
		return
	}
	if req.Text == "" {
		h.ErrLog.WriteError(w, r, "reply", apperr.Validation("text is required"))
		return
	}

	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "reply", apperr.Validation("invalid comment id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.loadGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "reply", err)
		return
	}

	updated, reply, err := h.Goals.AddReply(ctx, g.ID, commentID, models.Reply{
		UserID:   callerID,
		UserName: name,
		Text:     req.Text,
	})
	if err != nil {
		if errors.Is(err, goalstore.ErrCommentNotFound) {
			h.ErrLog.WriteError(w, r, "reply", apperr.NotFound("comment not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "reply", apperr.Storage(err, "failed to add reply"))
		return
	}

	h.Notify.ReplyAdded(updated, commentID, callerID, name)
	httpjson.Write(w, http.StatusOK, replyMutationResponse{
		Success: true,
		Message: "Reply added successfully",
		Reply:   shared.NewReplyView(reply),
	})
}

// HandleResolveComment handles PUT /api/goals/{goalID}/comments/{commentID}/resolve.
// Resolving an already-resolved comment is a success, not an error.
func (h *Handler) HandleResolveComment(w http.ResponseWriter, r *http.Request) {
	if _, ok := authUser(r); !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "resolve comment", apperr.Validation("invalid comment id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.loadGoal(ctx, r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "resolve comment", err)
		return
	}

	if _, err := h.Goals.ResolveComment(ctx, g.ID, commentID); err != nil {
		if errors.Is(err, goalstore.ErrCommentNotFound) {
			h.ErrLog.WriteError(w, r, "resolve comment", apperr.NotFound("comment not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "resolve comment", apperr.Storage(err, "failed to resolve comment"))
		return
	}
	httpjson.Write(w, http.StatusOK, statusResponse{
		Success: true,
		Message: "Comment resolved successfully",
	})
}

func authUser(r *http.Request) (primitive.ObjectID, bool) {
	_, _, id, ok := authz.UserCtx(r)
	return id, ok
}
