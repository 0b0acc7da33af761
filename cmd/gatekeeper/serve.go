// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/00-00-00-11/gatekeeper-bot/internal/access"
	"github.com/00-00-00-11/gatekeeper-bot/internal/command"
	"github.com/00-00-00-11/gatekeeper-bot/internal/config"
	"github.com/00-00-00-11/gatekeeper-bot/internal/logging"
	"github.com/00-00-00-11/gatekeeper-bot/internal/observability"
	"github.com/00-00-00-11/gatekeeper-bot/internal/platform/console"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// Defaults for the console session flags.
const (
	defaultGuildID    = "local"
	defaultOperatorID = "1"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var (
		guildID    string
		operatorID string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot with a console session",
		Long: `Run the permission engine against the configured store and attach a
console session to stdin/stdout. Each input line is dispatched as a chat
message; guild roles for the session are held in memory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, guildID, operatorID)
		},
	}

	// Flag defaults mirror config.Default so a bare invocation works; a
	// config file still wins over an unchanged flag.
	defaults := config.Default()
	cmd.Flags().String("redis-addr", defaults.Redis.Addr, "store address")
	cmd.Flags().String("redis-password", defaults.Redis.Password, "store password")
	cmd.Flags().Int("redis-db", defaults.Redis.DB, "store database number")
	cmd.Flags().String("metrics-addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("command-prefix", defaults.Command.Prefix, "bot command prefix")
	cmd.Flags().StringVar(&guildID, "guild-id", defaultGuildID, "guild ID for the console session")
	cmd.Flags().StringVar(&operatorID, "operator-id", defaultOperatorID, "member ID the console session acts as")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, guildID, operatorID string) error {
	logging.SetDefault("gatekeeper", version, cfg.Log.Format)

	slog.Info("starting gatekeeper",
		"redis_addr", cfg.Redis.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"prefix", cfg.Command.Prefix,
	)

	s := store.NewRedisStore(store.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := s.Close(); err != nil {
			slog.Warn("error closing store", "error", err)
		}
	}()

	// The store may still be coming up alongside us.
	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.Ping(ctx); err != nil {
			slog.Warn("store not reachable yet", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("store unreachable at %s: %w", cfg.Redis.Addr, err)
	}
	slog.Info("connected to store")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	permsets := roles.NewPermsetRepository(s)
	repo := roles.NewRoleRepository(s, permsets)
	engine := access.NewEngine(repo, slog.Default())

	var obsErr <-chan error
	if cfg.Metrics.Addr != "" {
		obs := observability.NewServer(cfg.Metrics.Addr, func() bool {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return s.Ping(pingCtx) == nil
		})
		access.RegisterMetrics(obs.Registry())
		command.RegisterMetrics(obs.Registry())

		ch, err := obs.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		obsErr = ch
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := obs.Stop(stopCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
		slog.Info("observability server started", "addr", obs.Addr())
	}

	binding := console.New(guildID, roles.Member{ID: operatorID, Name: "operator"}, os.Stdin, os.Stdout)
	registry := command.NewRegistry()
	command.RegisterCommands(registry, cfg.Command.Prefix)
	dispatcher, err := command.NewDispatcher(cfg.Command.Prefix, registry, &command.Services{
		Roles:     repo,
		Permsets:  permsets,
		Access:    engine,
		Responder: binding,
		Prompter:  binding,
		Platform:  binding,
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}

	sessionDone := make(chan error, 1)
	go func() {
		sessionDone <- binding.Run(ctx, dispatcher)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		return nil
	case err := <-obsErr:
		return fmt.Errorf("observability server failed: %w", err)
	case err := <-sessionDone:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("console session failed: %w", err)
		}
		slog.Info("console session ended")
		return nil
	}
}
