// Command interactinkd is a demo host for the interactink framework: it
// loads configuration, registers an example module tree, opens a Discord
// session through the discord transport adapter, and syncs commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrwong99/interactink/internal/config"
	"github.com/mrwong99/interactink/pkg/interactink"
	"github.com/mrwong99/interactink/pkg/interactink/discord"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	adminRoleID := flag.String("admin-role", "", "Discord role ID required to use admin commands")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "interactinkd: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "interactinkd: %v\n", err)
		}
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Server.LogLevel.Level()}))
	slog.SetDefault(logger)

	slog.Info("interactinkd starting", "config", *configPath, "log_level", cfg.Server.LogLevel)

	framework := interactink.New(
		interactink.WithLogger(logger),
		interactink.WithOptions(interactink.Options{
			LogLevel:     cfg.Server.LogLevel.Level(),
			RunAsync:     cfg.Server.RunAsync,
			ThrowOnError: cfg.Server.ThrowOnError,
		}),
	)

	if _, err := framework.AddModules(demoModuleSource(*adminRoleID)); err != nil {
		slog.Error("failed to register modules", "error", err)
		return 1
	}
	stats := framework.StatsSnapshot()
	slog.Info("modules registered", "modules", stats.Modules, "slash_commands", stats.SlashCommands)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := discord.New(ctx, discord.Config{
		Token:         cfg.Discord.Token,
		GuildID:       cfg.Discord.GuildID,
		DeleteMissing: cfg.Sync.DeleteMissing,
	}, framework)
	if err != nil {
		slog.Error("failed to open discord session", "error", err)
		return 1
	}

	slog.Info("daemon ready — press Ctrl+C to shut down")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "error", err)
	}

	slog.Info("shutdown signal received, stopping…")
	if err := bot.Close(); err != nil {
		slog.Error("shutdown error", "error", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}
