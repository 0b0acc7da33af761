// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gatekeeper CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatekeeper",
		Short: "Gatekeeper - role-scoped permissions for chat communities",
		Long: `Gatekeeper manages roles, permission sets, and memberships for a
chat community, backed by a key-value store. Administrative actions are
gated by a deny-by-default permission check.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewAuditCmd())

	return cmd
}
