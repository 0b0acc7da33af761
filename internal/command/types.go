// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package command routes inbound chat messages to handlers.
//
// The chat platform binding turns platform events into Message values and
// calls Dispatcher.Dispatch; everything platform-specific stays behind the
// Platform, Responder, and Prompter interfaces.
package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/00-00-00-11/gatekeeper-bot/internal/access"
	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
)

// Message is an inbound chat message with platform lookups already resolved.
type Message struct {
	GuildID   string
	ChannelID string
	Author    roles.Member
	Content   string

	// Mentions are the user mentions in the message, in order.
	Mentions []roles.Member

	// GuildRoles are the guild's roles, for name lookup.
	GuildRoles []roles.GuildRole

	// AuthorCanManageRoles is the platform-level manage-roles permission,
	// gating role creation and deletion.
	AuthorCanManageRoles bool
}

// FindGuildRole looks up a guild role by case-insensitive name.
func (m *Message) FindGuildRole(name string) (roles.GuildRole, bool) {
	for _, r := range m.GuildRoles {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return roles.GuildRole{}, false
}

// Responder sends replies back to the channel a message came from.
type Responder interface {
	Reply(ctx context.Context, msg *Message, text string) error
}

// Prompter runs the interactive permission questionnaire: post the options,
// collect reactions, and return the selection once the user submits. A nil
// selection means the user let the prompt expire.
type Prompter interface {
	SelectPermissions(ctx context.Context, msg *Message, options []perm.Permission) ([]perm.Permission, error)
}

// Platform performs guild-role mutations on the chat platform itself.
type Platform interface {
	CreateGuildRole(ctx context.Context, guildID, name string) (roles.GuildRole, error)
	DeleteGuildRole(ctx context.Context, guildID, roleID string) error
	AssignGuildRole(ctx context.Context, guildID, roleID, memberID string) error
}

// Services bundles the collaborators handlers need.
type Services struct {
	Roles     *roles.RoleRepository
	Permsets  *roles.PermsetRepository
	Access    *access.Engine
	Responder Responder
	Prompter  Prompter
	Platform  Platform
	Logger    *slog.Logger
}

// Execution carries one command invocation through a handler.
type Execution struct {
	ID       ulid.ULID
	Msg      *Message
	Args     string // message content after the matched prefix
	Services *Services
}

// Handler processes one command execution.
type Handler func(ctx context.Context, exec *Execution) error

// Entry describes a registered command.
type Entry struct {
	// Phrase is the command phrase after the bot prefix,
	// e.g. "create role named".
	Phrase  string
	Usage   string
	Handler Handler
}
