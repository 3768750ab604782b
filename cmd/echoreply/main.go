// Package main is the entry point for the echoreply CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/echoreply/echoreply/internal/config"
	"github.com/echoreply/echoreply/internal/engine"
	"github.com/echoreply/echoreply/internal/gateway"
	"github.com/echoreply/echoreply/internal/memory"
	"github.com/echoreply/echoreply/internal/memory/sqlite"
	"github.com/echoreply/echoreply/internal/probe"
	"github.com/echoreply/echoreply/internal/ratelimit"
	"github.com/echoreply/echoreply/internal/reload"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "echoreply",
		Short:         "A reply decision engine for automated conversational replies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("echoreply %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the reply engine and HTTP gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))

			return run(cfgPath, cfg, logger)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func run(cfgPath string, cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(cfg.Memory, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.New(*cfg, store, logger)
	limiter := ratelimit.New(cfg.Reply.MaxRepliesPerMinute, cfg.Reply.MaxRepliesPerHour)
	handler := reload.NewHandler(cfgPath, eng, limiter, logger)

	server := gateway.New(cfg.Server, eng, limiter, store, handler.Reload, logger)
	if err := server.Start(); err != nil {
		return err
	}

	prober := probe.New(cfg.Probe.Schedule, eng.AI(), server.Metrics().ProbeSuccess, logger)
	if err := prober.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := reload.NewWatcher(cfgPath, cfg.Reload.PollInterval, handler.Reload, logger)
	watcher.Start(ctx)

	logger.Info("echoreply started",
		"version", version,
		"provider", cfg.AI.Provider,
		"ai_enabled", cfg.AI.Enabled,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	watcher.Stop()
	if err := prober.Stop(ctx); err != nil {
		logger.Error("probe shutdown error", "error", err)
	}
	return server.Stop(ctx)
}

// openStore selects the user-memory backend: SQLite when a path is
// configured, otherwise in-memory.
func openStore(cfg config.MemoryConfig, logger *slog.Logger) (memory.Store, func(), error) {
	if cfg.Path == "" {
		logger.Info("using in-memory user memory store")
		return memory.NewInMemoryStore(cfg.MaxSnippets), func() {}, nil
	}

	store, db, err := sqlite.Open(cfg.Path, cfg.MaxSnippets)
	if err != nil {
		return nil, nil, fmt.Errorf("opening memory store: %w", err)
	}
	logger.Info("using sqlite user memory store", "path", cfg.Path)
	return store, func() { _ = db.Close() }, nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			fmt.Printf("Configuration OK (provider: %s, rules: %d)\n", cfg.AI.Provider, len(cfg.Reply.Rules))
			return nil
		},
	})
	return cmd
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/echoreply/echoreply.yaml → ./echoreply.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "echoreply", "echoreply.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "echoreply", "echoreply.yaml"))
	}

	candidates = append(candidates, "echoreply.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
