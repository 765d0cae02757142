// Package chat implements the assistant conversation attached to a weekly
// goal sheet. Each exchange persists both turns, so history survives reloads
// and feeds the next prompt.
package chat

import (
	chatstore "github.com/Pythagora-io/okrtracker/internal/app/store/chat"
	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/llm"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the chat endpoints.
type Handler struct {
	Goals     *goalstore.Store
	Messages  *chatstore.Store
	Completer llm.Completer
	Log       *zap.Logger
	ErrLog    *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and LLM
// completer.
func NewHandler(db *mongo.Database, completer llm.Completer, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Goals:     goalstore.New(db),
		Messages:  chatstore.New(db),
		Completer: completer,
		Log:       logger,
		ErrLog:    errLog,
	}
}
