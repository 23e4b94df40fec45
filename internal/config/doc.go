// Package config defines the application configuration structure and loading
// logic. Configuration is read from an optional config.yaml and from
// environment variables with the BRIEFING_ prefix; environment variables take
// precedence. Loaded configuration is validated before use.
package config
