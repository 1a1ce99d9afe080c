// Package config provides the configuration schema, loader, and validation
// for the interactinkd daemon.
package config

import "log/slog"

// Config is the root configuration structure for interactinkd. It is
// typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Discord DiscordConfig `yaml:"discord"`
	Sync    SyncConfig    `yaml:"sync"`
}

// ServerConfig holds logging and framework-wide runtime settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`

	// RunAsync dispatches every interaction handler in its own goroutine
	// instead of blocking the caller until it returns.
	RunAsync bool `yaml:"run_async"`

	// ThrowOnError makes an Execute call also return a handler panic as an
	// error, after the failed ExecuteResult has been published.
	ThrowOnError bool `yaml:"throw_on_error"`
}

// LogLevel is a validated log verbosity name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Level converts l to a slog.Level, defaulting to Info for an empty value.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DiscordConfig holds the credentials and scope for the Discord transport
// adapter.
type DiscordConfig struct {
	// Token is the bot token used to open the gateway session.
	Token string `yaml:"token"`

	// GuildID scopes command sync and registration to a single guild.
	// Leave empty to sync commands globally.
	GuildID string `yaml:"guild_id"`
}

// SyncConfig controls how the daemon reconciles declared commands against
// the platform's registered command set at startup.
type SyncConfig struct {
	// DeleteMissing removes any registered command with no declared
	// counterpart instead of leaving it in place.
	DeleteMissing bool `yaml:"delete_missing"`
}
