package login

import (
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the session endpoints: login, logout, and whoami.
type Handler struct {
	Users    *userstore.Store
	Sessions *auth.SessionManager
	Log      *zap.Logger
	ErrLog   *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and
// session manager.
func NewHandler(db *mongo.Database, sessions *auth.SessionManager, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Sessions: sessions,
		Log:      logger,
		ErrLog:   errLog,
	}
}
