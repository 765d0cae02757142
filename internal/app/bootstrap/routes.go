package bootstrap

import (
	"net/http"

	chatfeature "github.com/Pythagora-io/okrtracker/internal/app/features/chat"
	goalsfeature "github.com/Pythagora-io/okrtracker/internal/app/features/goals"
	healthfeature "github.com/Pythagora-io/okrtracker/internal/app/features/health"
	loginfeature "github.com/Pythagora-io/okrtracker/internal/app/features/login"
	settingsfeature "github.com/Pythagora-io/okrtracker/internal/app/features/settings"
	teamsfeature "github.com/Pythagora-io/okrtracker/internal/app/features/teams"
	usersfeature "github.com/Pythagora-io/okrtracker/internal/app/features/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/auth"
	"github.com/Pythagora-io/okrtracker/internal/app/system/authz"
	"github.com/Pythagora-io/okrtracker/internal/app/system/httpjson"
	"github.com/Pythagora-io/okrtracker/internal/app/system/llm"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The API is mounted under /api; the SPA is
// served by whatever fronts this process, so everything here is JSON.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	errLog := httpjson.NewErrorLogger(logger)
	sender := newMailer(appCfg, logger)

	completer, err := llm.New(llm.Config{
		Provider:        appCfg.LLMProvider,
		Model:           appCfg.LLMModel,
		AnthropicAPIKey: appCfg.AnthropicAPIKey,
		OpenAIAPIKey:    appCfg.OpenAIAPIKey,
	}, logger)
	if err != nil {
		// Missing API key: the rest of the app works; chat returns 502.
		logger.Warn("llm completer unavailable", zap.Error(err))
		completer = llm.Disabled()
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	usersHandler := usersfeature.NewHandler(deps.MongoDatabase, sender, appCfg.BaseURL, appCfg.SiteName, errLog, logger)

	r.Route("/api", func(r chi.Router) {
		// Health check endpoint for load balancers and orchestrators.
		healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
		r.Get("/health", healthHandler.Serve)

		// Session endpoints and invite completion are reachable without a
		// signed-in user.
		loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, logger)
		r.Route("/auth", loginHandler.MountRoutes)
		r.Route("/users", func(r chi.Router) {
			usersHandler.MountPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireSignedIn)
				usersHandler.MountRoutes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignedIn)

			goalsHandler := goalsfeature.NewHandler(deps.MongoDatabase, sender, appCfg.BaseURL, appCfg.SiteName, errLog, logger)
			r.Route("/goals", goalsHandler.MountRoutes)

			chatHandler := chatfeature.NewHandler(deps.MongoDatabase, completer, errLog, logger)
			r.Route("/chat", chatHandler.MountRoutes)

			teamsHandler := teamsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
			r.Route("/teams", teamsHandler.MountRoutes)

			settingsHandler := settingsfeature.NewHandler(deps.MongoDatabase, errLog, logger)
			r.Route("/settings", func(r chi.Router) {
				r.Use(auth.RequireRole(authz.RoleAdmin))
				settingsHandler.MountRoutes(r)
			})
		})
	})

	return r, nil
}
