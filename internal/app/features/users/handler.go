// Package users implements the user directory and the invitation flow:
// admins invite people by email, invitees follow a tokenized link to set a
// password and activate their account.
package users

import (
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the user directory and invite handlers.
type Handler struct {
	Users    *userstore.Store
	Sender   mailer.Sender
	BaseURL  string
	SiteName string
	Log      *zap.Logger
	ErrLog   *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database. sender
// and baseURL feed the invitation emails.
func NewHandler(db *mongo.Database, sender mailer.Sender, baseURL, siteName string, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Sender:   sender,
		BaseURL:  baseURL,
		SiteName: siteName,
		Log:      logger,
		ErrLog:   errLog,
	}
}
