package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables, e.g.
// BRIEFING_SERVER_PORT maps to server.port.
const envPrefix = "BRIEFING"

// Load reads configuration from an optional config file and from environment
// variables. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables can carry everything.
	}

	// BRIEFING_SERVER_PORT -> server.port
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against the struct validation tags and
// returns a readable error listing every failing field.
func Validate(cfg *Config) error {
	validate := validator.New()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("configuration validation setup failed: %w", err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
	}

	return fmt.Errorf("configuration validation failed: %w", err)
}

// setDefaults registers default values for everything that has a sensible
// one. Secrets are registered with empty defaults so viper picks them up from
// the environment during Unmarshal; validation rejects the empty values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.host_email", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("tracker.base_url", "")
	v.SetDefault("tracker.api_key", "")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.sender_address", "")
	v.SetDefault("smtp.sender_name", "")
	v.SetDefault("broadcast.recipients", []string{})

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("auth.link_lifetime_days", 30)
	v.SetDefault("auth.admin_username", "admin")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("tracker.timeout_seconds", 60)
	v.SetDefault("tracker.fetch_concurrency", 10)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.retry_count", 3)
	v.SetDefault("smtp.retry_backoff_ms", 100)

	v.SetDefault("broadcast.cache_ttl_minutes", 15)

	v.SetDefault("task.queue_size", 16)
	v.SetDefault("task.worker_count", 2)

	v.SetDefault("schedule.refresh_spec", "@every 15m")
	v.SetDefault("schedule.broadcast_spec", "0 8 * * MON")
}
