package config_test

import (
	"strings"
	"testing"

	"github.com/mrwong99/interactink/internal/config"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	yaml := `
server:
  log_level: debug
  run_async: true
discord:
  token: abc123
  guild_id: "123456"
sync:
  delete_missing: true
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: unexpected error: %v", err)
	}
	if cfg.Server.LogLevel != config.LogLevelDebug || !cfg.Server.RunAsync {
		t.Fatalf("Server = %+v, want debug/run_async", cfg.Server)
	}
	if cfg.Discord.Token != "abc123" || cfg.Discord.GuildID != "123456" {
		t.Fatalf("Discord = %+v, want token/guild wired", cfg.Discord)
	}
	if !cfg.Sync.DeleteMissing {
		t.Fatal("Sync.DeleteMissing = false, want true")
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	yaml := `
discord:
  token: abc123
  bogus_field: oops
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("LoadFromReader: expected error for unknown field")
	}
}

func TestValidate_MissingToken(t *testing.T) {
	t.Parallel()

	err := config.Validate(&config.Config{})
	if err == nil {
		t.Fatal("Validate: expected error for missing discord.token")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Discord: config.DiscordConfig{Token: "x"}}
	cfg.Server.LogLevel = "verbose"
	if err := config.Validate(cfg); err == nil {
		t.Fatal("Validate: expected error for invalid log level")
	}
}
