// Package goals implements the weekly goal-sheet API: saving and submitting
// goals and results, and the inline comment threads on them.
package goals

import (
	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	teamstore "github.com/Pythagora-io/okrtracker/internal/app/store/teams"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the goal-sheet handlers.
type Handler struct {
	Goals  *goalstore.Store
	Users  *userstore.Store
	Teams  *teamstore.Store
	Notify *Notifier
	Log    *zap.Logger
	ErrLog *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database. sender
// and baseURL feed the notification emails.
func NewHandler(db *mongo.Database, sender mailer.Sender, baseURL, siteName string, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	users := userstore.New(db)
	teams := teamstore.New(db)
	return &Handler{
		Goals:  goalstore.New(db),
		Users:  users,
		Teams:  teams,
		Notify: NewNotifier(users, teams, sender, baseURL, siteName, logger),
		Log:    logger,
		ErrLog: errLog,
	}
}
