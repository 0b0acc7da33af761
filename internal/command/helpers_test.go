// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/00-00-00-11/gatekeeper-bot/internal/access"
	"github.com/00-00-00-11/gatekeeper-bot/internal/command"
	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// recordingResponder captures channel replies.
type recordingResponder struct {
	replies []string
}

func (r *recordingResponder) Reply(_ context.Context, _ *command.Message, text string) error {
	r.replies = append(r.replies, text)
	return nil
}

func (r *recordingResponder) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.replies)
	return r.replies[len(r.replies)-1]
}

// stubPrompter returns a canned selection. A nil selection mimics an
// expired prompt.
type stubPrompter struct {
	selection []perm.Permission
	offered   []perm.Permission
}

func (p *stubPrompter) SelectPermissions(_ context.Context, _ *command.Message, options []perm.Permission) ([]perm.Permission, error) {
	p.offered = options
	return p.selection, nil
}

// fakePlatform simulates the chat platform's guild role registry.
type fakePlatform struct {
	nextID   int
	created  []roles.GuildRole
	deleted  []string
	assigned []string
}

func (f *fakePlatform) CreateGuildRole(_ context.Context, guildID, name string) (roles.GuildRole, error) {
	f.nextID++
	gr := roles.GuildRole{GuildID: guildID, RoleID: strconv.Itoa(900 + f.nextID), Name: name}
	f.created = append(f.created, gr)
	return gr, nil
}

func (f *fakePlatform) DeleteGuildRole(_ context.Context, _, roleID string) error {
	f.deleted = append(f.deleted, roleID)
	return nil
}

func (f *fakePlatform) AssignGuildRole(_ context.Context, _, _, memberID string) error {
	f.assigned = append(f.assigned, memberID)
	return nil
}

// cmdEnv wires real repositories over miniredis behind stub boundaries.
type cmdEnv struct {
	store     *store.RedisStore
	permsets  *roles.PermsetRepository
	roles     *roles.RoleRepository
	responder *recordingResponder
	prompter  *stubPrompter
	platform  *fakePlatform
	services  *command.Services
}

func newCmdEnv(t *testing.T) *cmdEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := store.NewRedisStoreWithClient(client)
	permsets := roles.NewPermsetRepository(s)
	repo := roles.NewRoleRepository(s, permsets)

	env := &cmdEnv{
		store:     s,
		permsets:  permsets,
		roles:     repo,
		responder: &recordingResponder{},
		prompter:  &stubPrompter{},
		platform:  &fakePlatform{},
	}
	env.services = &command.Services{
		Roles:     repo,
		Permsets:  permsets,
		Access:    access.NewEngine(repo, nil),
		Responder: env.responder,
		Prompter:  env.prompter,
		Platform:  env.platform,
	}
	return env
}

// message builds an inbound message from the fixture guild.
func (e *cmdEnv) message(author roles.Member, content string) *command.Message {
	return &command.Message{
		GuildID:   "100",
		ChannelID: "555",
		Author:    author,
		Content:   content,
		GuildRoles: []roles.GuildRole{
			{GuildID: "100", RoleID: "200", Name: "Raiders"},
			{GuildID: "100", RoleID: "201", Name: "Fun Zone"},
		},
	}
}

// exec builds an execution the way the dispatcher would.
func (e *cmdEnv) exec(author roles.Member, args string) *command.Execution {
	return &command.Execution{
		Msg:      e.message(author, ""),
		Args:     args,
		Services: e.services,
	}
}

// seedRole creates the Raiders fixture role with the given creator.
func (e *cmdEnv) seedRole(ctx context.Context, t *testing.T, creator roles.Member) *roles.Role {
	t.Helper()
	role, err := e.roles.Create(ctx, roles.GuildRole{GuildID: "100", RoleID: "200", Name: "Raiders"}, creator)
	require.NoError(t, err)
	return role
}
