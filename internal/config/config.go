package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Tracker   TrackerConfig   `mapstructure:"tracker"   validate:"required"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Task      TaskConfig      `mapstructure:"task"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// BaseURL is the externally reachable URL of this service, used when
	// building subscription-management links embedded in newsletters.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// DatabaseConfig contains all database related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains link-token signing and admin access settings.
type AuthConfig struct {
	// TokenSecret signs the JWT tokens embedded in subscribe, unsubscribe,
	// and manage links.
	TokenSecret string `mapstructure:"token_secret" validate:"required,min=32"`

	// LinkLifetimeDays is how long emailed management links stay valid.
	LinkLifetimeDays int `mapstructure:"link_lifetime_days" validate:"gt=0"`

	// AdminUsername and AdminPasswordHash gate the /admin surface via HTTP
	// basic auth. The hash is a bcrypt hash; see cmd/hash-generator.
	AdminUsername     string `mapstructure:"admin_username"      validate:"required"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required"`

	// HostEmail, when set, is the one account allowed to manage subscriptions
	// even if it equals the SMTP sender address.
	HostEmail string `mapstructure:"host_email"`
}

// LLMConfig contains Gemini integration settings. An empty API key switches
// the summarizer into dry-run mode with deterministic placeholder output.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// TrackerConfig contains settings for the external task tracker API.
type TrackerConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// APIKey is sent as a bearer token when present.
	APIKey string `mapstructure:"api_key"`

	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gt=0"`

	// FetchConcurrency bounds how many category task fetches run in flight
	// while building a snapshot.
	FetchConcurrency int `mapstructure:"fetch_concurrency" validate:"gt=0"`
}

// SMTPConfig contains outbound mail settings. Missing credentials switch the
// sender into dry-run mode that only logs what would have been sent.
type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	SenderAddress  string `mapstructure:"sender_address"`
	SenderName     string `mapstructure:"sender_name"`
	RetryCount     int    `mapstructure:"retry_count"`
	RetryBackoffMs int    `mapstructure:"retry_backoff_ms"`
}

// BroadcastConfig contains newsletter broadcast settings.
type BroadcastConfig struct {
	// Recipients are addresses always included in a broadcast, in addition to
	// every recipient registered in the store. They are auto-provisioned as
	// store recipients on first broadcast.
	Recipients []string `mapstructure:"recipients"`

	// CacheTTLMinutes is how long a fetched snapshot stays valid.
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes" validate:"gt=0"`
}

// TaskConfig contains background task runner settings.
type TaskConfig struct {
	QueueSize   int `mapstructure:"queue_size"   validate:"gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
}

// ScheduleConfig contains cron specs for the periodic jobs.
type ScheduleConfig struct {
	// RefreshSpec triggers a snapshot refresh; defaults to every 15 minutes.
	RefreshSpec string `mapstructure:"refresh_spec" validate:"required"`

	// BroadcastSpec triggers the weekly newsletter broadcast.
	BroadcastSpec string `mapstructure:"broadcast_spec" validate:"required"`
}

// SenderAddressOrUsername returns the configured sender address, falling back
// to the SMTP username (the original system's default).
func (c SMTPConfig) SenderAddressOrUsername() string {
	if c.SenderAddress != "" {
		return c.SenderAddress
	}
	return c.Username
}
