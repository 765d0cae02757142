package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS); AppConfig is everything specific to the OKR tracker.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: okrtracker-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (blank disables email entirely)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@okrtracker.io)
	MailFromName string // From display name (e.g., OKR Tracker)

	// Base URL for links embedded in emails (invites, goal notifications)
	BaseURL  string // e.g., "https://okr.example.com" or "http://localhost:3000"
	SiteName string // Display name used in emails

	// LLM provider configuration for the goal chat
	LLMProvider     string // "anthropic" or "openai"
	LLMModel        string // model name; blank uses the provider default
	AnthropicAPIKey string
	OpenAIAPIKey    string

	// Seed admin created on first startup if no user has the email yet
	AdminEmail    string
	AdminPassword string

	// Weekly reminder worker
	RemindersEnabled bool
}
