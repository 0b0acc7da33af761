// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/00-00-00-11/gatekeeper-bot/internal/config"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// NewAuditCmd creates the audit subcommand.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check stored keys against the schema",
		Long: `Scan every guild key in the store and report keys that do not match
the role, permset, or member layout. A non-zero exit means violations were
found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			s := store.NewRedisStore(store.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer func() { _ = s.Close() }()

			return runAudit(cmd.Context(), s, cmd.OutOrStdout())
		},
	}

	defaults := config.Default()
	cmd.Flags().String("redis-addr", defaults.Redis.Addr, "store address")
	cmd.Flags().String("redis-password", defaults.Redis.Password, "store password")
	cmd.Flags().Int("redis-db", defaults.Redis.DB, "store database number")

	return cmd
}

// runAudit scans the guild namespace and reports schema violations.
func runAudit(ctx context.Context, s store.Store, out io.Writer) error {
	keys, err := s.ScanPrefix(ctx, "guild:")
	if err != nil {
		return err
	}
	sort.Strings(keys)

	invalid := 0
	for _, key := range keys {
		if !store.ValidKey(key) {
			fmt.Fprintf(out, "invalid key: %s\n", key)
			invalid++
		}
	}
	fmt.Fprintf(out, "scanned %d keys, %d invalid\n", len(keys), invalid)

	if invalid > 0 {
		return oops.Code("AUDIT_VIOLATIONS").
			With("invalid", invalid).
			Errorf("%d keys violate the schema", invalid)
	}
	return nil
}
