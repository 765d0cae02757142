package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the OKR tracker.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: OKRTRACKER_MONGO_URI, OKRTRACKER_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "okr_tracker", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "okrtracker-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Email/SMTP configuration. A blank host disables outgoing email.
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables email)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@okrtracker.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "OKR Tracker", Desc: "From display name"},

	// Base URL for email links (invites, goal notifications)
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
	{Name: "site_name", Default: "OKR Tracker", Desc: "Display name used in emails"},

	// LLM provider for the goal chat
	{Name: "llm_provider", Default: "anthropic", Desc: "LLM provider: 'anthropic' or 'openai'"},
	{Name: "llm_model", Default: "", Desc: "LLM model name (blank uses the provider default)"},
	{Name: "anthropic_api_key", Default: "", Desc: "Anthropic API key"},
	{Name: "openai_api_key", Default: "", Desc: "OpenAI API key"},

	// Seed admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the seed admin user (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Password for the seed admin user"},

	// Weekly reminder worker
	{Name: "reminders_enabled", Default: true, Desc: "Enable the weekly goal reminder emails"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific to
// this app. config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, OKRTRACKER_* for app), and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "OKRTRACKER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		LLMProvider:     appValues.String("llm_provider"),
		LLMModel:        appValues.String("llm_model"),
		AnthropicAPIKey: appValues.String("anthropic_api_key"),
		OpenAIAPIKey:    appValues.String("openai_api_key"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		RemindersEnabled: appValues.Bool("reminders_enabled"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any backend
// is touched.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// The chat feature needs a key for whichever provider is selected; fail
	// at startup rather than on the first chat request.
	switch appCfg.LLMProvider {
	case "", "anthropic":
		if appCfg.AnthropicAPIKey == "" {
			logger.Warn("anthropic_api_key not set; goal chat will be unavailable")
		}
	case "openai":
		if appCfg.OpenAIAPIKey == "" {
			logger.Warn("openai_api_key not set; goal chat will be unavailable")
		}
	default:
		return fmt.Errorf("llm_provider must be 'anthropic' or 'openai', got %q", appCfg.LLMProvider)
	}

	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		return fmt.Errorf("admin_email and admin_password must be set together")
	}

	return nil
}
