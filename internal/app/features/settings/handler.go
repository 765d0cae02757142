// Package settings exposes the automation schedule (when the weekly reminder
// fires) to admins.
package settings

import (
	settingsstore "github.com/Pythagora-io/okrtracker/internal/app/store/settings"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the admin-facing settings handlers.
type Handler struct {
	Settings *settingsstore.Store
	Log      *zap.Logger
	ErrLog   *httpjson.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database.
func NewHandler(db *mongo.Database, errLog *httpjson.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Settings: settingsstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}
