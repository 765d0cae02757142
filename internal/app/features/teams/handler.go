// Package teams implements team administration: creating teams, assigning a
// manager and ICs, and keeping users' team_id fields reconciled with the
// team's member list.
package teams

import (
	teamstore "github.com/Pythagora-io/okrtracker/internal/app/store/teams"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the team administration handlers.
type Handler struct {
	Teams  *teamstore.Store
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database.
func NewHandler(db *mongo.Database, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Teams:  teamstore.New(db),
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
