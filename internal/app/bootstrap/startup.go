package bootstrap

import (
	"context"
	"errors"

	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	settingsstore "github.com/Pythagora-io/okrtracker/internal/app/store/settings"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"github.com/Pythagora-io/okrtracker/internal/app/system/workers"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// reminderWorker is started here and stopped in Shutdown.
var reminderWorker *workers.WeeklyReminder

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: seeding
// the admin account and starting the weekly reminder worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := seedAdmin(ctx, appCfg, deps, logger); err != nil {
		return err
	}

	if appCfg.RemindersEnabled {
		reminderWorker = workers.NewWeeklyReminder(
			userstore.New(deps.MongoDatabase),
			goalstore.New(deps.MongoDatabase),
			settingsstore.New(deps.MongoDatabase),
			newMailer(appCfg, logger),
			appCfg.BaseURL,
			appCfg.SiteName,
			logger,
		)
		reminderWorker.Start()
	}

	return nil
}

// seedAdmin creates the configured admin account if no user owns that email
// yet. Idempotent across restarts.
func seedAdmin(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		return nil
	}

	users := userstore.New(deps.MongoDatabase)
	if _, err := users.GetByEmail(ctx, appCfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	u, err := users.CreateActive(ctx, models.User{
		Email: appCfg.AdminEmail,
		Name:  "Admin",
		Role:  authz.RoleAdmin,
	}, appCfg.AdminPassword)
	if err != nil {
		// A concurrent replica may have won the race.
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return nil
		}
		return err
	}

	logger.Info("seed admin created", zap.String("email", u.Email))
	return nil
}

// newMailer builds the SMTP mailer from config. A blank host yields a
// disabled mailer that logs and drops.
func newMailer(appCfg AppConfig, logger *zap.Logger) *mailer.Mailer {
	return mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
}
