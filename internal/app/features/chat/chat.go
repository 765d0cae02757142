package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/Pythagora-io/okrtracker/internal/app/features/shared"
	"github.com/Pythagora-io/okrtracker/internal/app/system/apperr"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/timeouts"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sendRequest struct {
	GoalID  string `json:"goalId"`
	Message string `json:"message"`
}

type sendResponse struct {
	Success bool                   `json:"success"`
	Message shared.ChatMessageView `json:"message"`
}

// HandleSend handles POST /api/chat/results: persist the user's message, ask
// the LLM with the goal sheet and full history as context, persist and return
// the assistant's reply.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	_, _, callerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Write(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req sendRequest
	if err := httpjson.Decode(r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "chat send: decode", err)
		return
	}
	if req.GoalID == "" || req.Message == "" {
		h.ErrLog.WriteError(w, r, "chat send", apperr.Validation("goalId and message are required"))
		return
	}
	goalID, err := primitive.ObjectIDFromHex(req.GoalID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat send", apperr.Validation("invalid goal id"))
		return
	}

	// LLM round-trips can be slow; give the whole exchange the long budget.
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	g, err := h.Goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.WriteError(w, r, "chat send", apperr.NotFound("goal not found"))
			return
		}
		h.ErrLog.WriteError(w, r, "chat send", apperr.Storage(err, "failed to load goal"))
		return
	}

	// The user's turn is persisted before the LLM call, so the question
	// survives even when the provider is down.
	if _, err := h.Messages.Insert(ctx, models.ChatMessage{
		GoalID:  goalID,
		UserID:  callerID,
		Role:    models.ChatRoleUser,
		Content: req.Message,
	}); err != nil {
		h.ErrLog.WriteError(w, r, "chat send", apperr.Storage(err, "failed to save message"))
		return
	}

	history, err := h.Messages.ListByGoal(ctx, goalID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat send", apperr.Storage(err, "failed to load chat history"))
		return
	}

	prompt := BuildPrompt(g, history, req.Message)
	reply, err := h.Completer.Complete(ctx, prompt)
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat send", err)
		return
	}

	assistant, err := h.Messages.Insert(ctx, models.ChatMessage{
		GoalID:  goalID,
		UserID:  callerID,
		Role:    models.ChatRoleAssistant,
		Content: reply,
	})
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat send", apperr.Storage(err, "failed to save reply"))
		return
	}

	httpjson.Write(w, http.StatusOK, sendResponse{
		Success: true,
		Message: shared.NewChatMessageView(&assistant),
	})
}

type historyResponse struct {
	Messages []shared.ChatMessageView `json:"messages"`
}

// ServeHistory handles GET /api/chat/results/{goalID}: the conversation for a
// goal sheet, oldest first.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	goalID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "goalID"))
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat history", apperr.Validation("invalid goal id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.ListByGoal(ctx, goalID)
	if err != nil {
		h.ErrLog.WriteError(w, r, "chat history", apperr.Storage(err, "failed to load chat history"))
		return
	}
	httpjson.Write(w, http.StatusOK, historyResponse{Messages: shared.NewChatMessageViews(msgs)})
}
