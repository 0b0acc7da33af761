// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/00-00-00-11/gatekeeper-bot/internal/command"
	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
	"github.com/00-00-00-11/gatekeeper-bot/pkg/errutil"
)

var (
	admin    = roles.Member{ID: "1", Name: "alice"}
	stranger = roles.Member{ID: "2", Name: "bob"}
)

func TestCreateRoleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates guild role, registers it, assigns the author", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "Night Shift")
		exec.Msg.AuthorCanManageRoles = true

		require.NoError(t, command.CreateRoleHandler(ctx, exec))

		require.Len(t, env.platform.created, 1)
		created := env.platform.created[0]
		assert.Equal(t, "Night Shift", created.Name)
		assert.Equal(t, []string{admin.ID}, env.platform.assigned)

		role, err := env.roles.Get(ctx, created)
		require.NoError(t, err)
		allowed, err := env.roles.CheckMemberForPermission(ctx, role, admin.ID, perm.DeleteRole)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Contains(t, env.responder.last(t), "Night Shift")
	})

	t.Run("rejects a taken guild role name", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "Raiders")
		exec.Msg.AuthorCanManageRoles = true

		err := command.CreateRoleHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
		assert.Empty(t, env.platform.created)
	})

	t.Run("requires the platform manage-roles permission", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "Night Shift")

		err := command.CreateRoleHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})

	t.Run("rejects a missing name", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "")
		exec.Msg.AuthorCanManageRoles = true

		err := command.CreateRoleHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeInvalidArgs)
	})
}

func TestDeleteRoleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the managed entry and the guild role", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		exec := env.exec(admin, "Raiders")
		exec.Msg.AuthorCanManageRoles = true

		require.NoError(t, command.DeleteRoleHandler(ctx, exec))

		assert.Equal(t, []string{"200"}, env.platform.deleted)
		_, err := env.roles.Get(ctx, roles.GuildRole{GuildID: role.GuildID, RoleID: role.RoleID})
		assert.ErrorIs(t, err, roles.ErrNotFound)
	})

	t.Run("deletes a simple role on the platform only", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "Fun Zone")
		exec.Msg.AuthorCanManageRoles = true

		require.NoError(t, command.DeleteRoleHandler(ctx, exec))
		assert.Equal(t, []string{"201"}, env.platform.deleted)
	})

	t.Run("requires the platform manage-roles permission", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)
		exec := env.exec(stranger, "Raiders")

		err := command.DeleteRoleHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
		assert.Empty(t, env.platform.deleted)
	})
}

func TestInviteUsersHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("adds mentions to the default permset", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		exec := env.exec(admin, "<@2> to Raiders")
		exec.Msg.Mentions = []roles.Member{stranger}

		require.NoError(t, command.InviteUsersHandler(ctx, exec))

		ps, err := env.permsets.GetForMember(ctx, role, stranger.ID)
		require.NoError(t, err)
		assert.Equal(t, roles.DefaultPermset, ps.Name)
		assert.Contains(t, env.responder.last(t), "1 were added")
	})

	t.Run("existing members are not reassigned", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		exec := env.exec(admin, "<@1> to Raiders")
		exec.Msg.Mentions = []roles.Member{admin}

		require.NoError(t, command.InviteUsersHandler(ctx, exec))

		ps, err := env.permsets.GetForMember(ctx, role, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, roles.AdministratorsPermset, ps.Name)
		assert.Contains(t, env.responder.last(t), "0 were added")
	})

	t.Run("denies an author without the invite permission", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)
		exec := env.exec(stranger, "<@3> to Raiders")
		exec.Msg.Mentions = []roles.Member{{ID: "3"}}

		err := command.InviteUsersHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})

	t.Run("reports a simple role", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "<@3> to Fun Zone")

		err := command.InviteUsersHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
		assert.Contains(t, command.UserMessage(err), "simple role")
	})

	t.Run("reports an unknown role", func(t *testing.T) {
		env := newCmdEnv(t)
		exec := env.exec(admin, "<@3> to Ghosts")

		err := command.InviteUsersHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
		assert.Contains(t, command.UserMessage(err), "No role named")
	})
}

func TestKickUsersHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("removes mentioned members", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))

		exec := env.exec(admin, "<@2> from Raiders")
		exec.Msg.Mentions = []roles.Member{stranger}

		require.NoError(t, command.KickUsersHandler(ctx, exec))

		_, err := env.permsets.GetForMember(ctx, role, stranger.ID)
		assert.ErrorIs(t, err, roles.ErrNotFound)
	})

	t.Run("denies an author without the remove permission", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))

		exec := env.exec(stranger, "<@1> from Raiders")
		exec.Msg.Mentions = []roles.Member{admin}

		err := command.KickUsersHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})
}

func TestListPermsetsHandler(t *testing.T) {
	ctx := context.Background()

	env := newCmdEnv(t)
	role := env.seedRole(ctx, t, admin)
	_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
	require.NoError(t, err)

	exec := env.exec(stranger, "for Raiders")
	require.NoError(t, command.ListPermsetsHandler(ctx, exec))

	reply := env.responder.last(t)
	assert.Contains(t, reply, "administrators")
	assert.Contains(t, reply, "default")
	assert.Contains(t, reply, "mods")
}

func TestCreatePermsetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with defaults and applies the selection", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		env.prompter.selection = []perm.Permission{perm.InviteUsers, perm.ModifyChannels}

		exec := env.exec(admin, "mods for Raiders")
		require.NoError(t, command.CreatePermsetHandler(ctx, exec))

		ps, err := env.permsets.Get(ctx, role, "mods")
		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]perm.Permission{perm.InviteUsers, perm.ModifyChannels},
			ps.Permissions)
		assert.Contains(t, env.responder.last(t), "was created")
	})

	t.Run("offers only the author's giveable permissions", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)

		exec := env.exec(admin, "mods for Raiders")
		require.NoError(t, command.CreatePermsetHandler(ctx, exec))

		// The admin holds the full catalog; the administrative flags must
		// not be offered.
		assert.NotContains(t, env.prompter.offered, perm.CreatePermsets)
		assert.NotContains(t, env.prompter.offered, perm.DeleteRole)
		assert.Contains(t, env.prompter.offered, perm.InviteUsers)
	})

	t.Run("expired prompt keeps the defaults", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		env.prompter.selection = nil

		exec := env.exec(admin, "mods for Raiders")
		require.NoError(t, command.CreatePermsetHandler(ctx, exec))

		ps, err := env.permsets.Get(ctx, role, "mods")
		require.NoError(t, err)
		assert.ElementsMatch(t, perm.Default(), ps.Permissions)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)

		exec := env.exec(admin, "default for Raiders")
		err := command.CreatePermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
	})

	t.Run("denies an author without the create-permsets permission", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))

		exec := env.exec(stranger, "mods for Raiders")
		err := command.CreatePermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})
}

func TestUpdatePermsetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces permissions wholesale", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		env.prompter.selection = []perm.Permission{perm.RemoveUsers}

		exec := env.exec(admin, "mods for Raiders")
		require.NoError(t, command.UpdatePermsetHandler(ctx, exec))

		ps, err := env.permsets.Get(ctx, role, "mods")
		require.NoError(t, err)
		assert.ElementsMatch(t, []perm.Permission{perm.RemoveUsers}, ps.Permissions)
	})

	t.Run("expired prompt leaves the permset untouched", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		env.prompter.selection = nil

		exec := env.exec(admin, "mods for Raiders")
		err = command.UpdatePermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePromptExpired)

		ps, err := env.permsets.Get(ctx, role, "mods")
		require.NoError(t, err)
		assert.ElementsMatch(t, []perm.Permission{perm.InviteUsers}, ps.Permissions)
	})

	t.Run("reports a missing permset", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)

		exec := env.exec(admin, "ghosts for Raiders")
		err := command.UpdatePermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
	})
}

func TestDeletePermsetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the permset and its memberships", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, "mods"))

		exec := env.exec(admin, "mods for Raiders")
		require.NoError(t, command.DeletePermsetHandler(ctx, exec))

		_, err = env.permsets.Get(ctx, role, "mods")
		assert.ErrorIs(t, err, roles.ErrNotFound)
		_, err = env.permsets.GetForMember(ctx, role, stranger.ID)
		assert.ErrorIs(t, err, roles.ErrNotFound)
	})

	t.Run("denies an author without the create-permsets permission", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))

		exec := env.exec(stranger, "mods for Raiders")
		err = command.DeletePermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})
}

func TestGrantPermsetHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("adds new members and reassigns existing ones", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))
		newcomer := roles.Member{ID: "3", Name: "carol"}

		exec := env.exec(admin, "mods for Raiders to <@2> <@3>")
		exec.Msg.Mentions = []roles.Member{stranger, newcomer}

		require.NoError(t, command.GrantPermsetHandler(ctx, exec))

		for _, m := range []roles.Member{stranger, newcomer} {
			ps, err := env.permsets.GetForMember(ctx, role, m.ID)
			require.NoError(t, err)
			assert.Equal(t, "mods", ps.Name)
		}
	})

	t.Run("denies an author without the modify-roles permission", func(t *testing.T) {
		env := newCmdEnv(t)
		role := env.seedRole(ctx, t, admin)
		_, err := env.permsets.Create(ctx, role, "mods", []perm.Permission{perm.InviteUsers})
		require.NoError(t, err)
		require.NoError(t, env.roles.AddMember(ctx, role, stranger, roles.DefaultPermset))

		exec := env.exec(stranger, "mods for Raiders to <@3>")
		exec.Msg.Mentions = []roles.Member{{ID: "3"}}

		err = command.GrantPermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodePermissionDenied)
	})

	t.Run("reports a missing permset", func(t *testing.T) {
		env := newCmdEnv(t)
		env.seedRole(ctx, t, admin)

		exec := env.exec(admin, "ghosts for Raiders to <@3>")
		exec.Msg.Mentions = []roles.Member{{ID: "3"}}

		err := command.GrantPermsetHandler(ctx, exec)
		errutil.AssertErrorCode(t, err, command.CodeDomainError)
	})
}
