// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
)

// RegisterCommands registers the built-in command set on the registry.
// prefix is the bot trigger word, used only to render help text.
func RegisterCommands(reg *Registry, prefix string) {
	reg.Register(Entry{
		Phrase:  "create role named",
		Usage:   "create role named <name>",
		Handler: CreateRoleHandler,
	})
	reg.Register(Entry{
		Phrase:  "delete role named",
		Usage:   "delete role named <name>",
		Handler: DeleteRoleHandler,
	})
	reg.Register(Entry{
		Phrase:  "invite",
		Usage:   "invite <user mention> [<user mention>, ...] to <role>",
		Handler: InviteUsersHandler,
	})
	reg.Register(Entry{
		Phrase:  "kick",
		Usage:   "kick <user mention> [<user mention>, ...] from <role>",
		Handler: KickUsersHandler,
	})
	reg.Register(Entry{
		Phrase:  "list permsets",
		Usage:   "list permsets for <role>",
		Handler: ListPermsetsHandler,
	})
	reg.Register(Entry{
		Phrase:  "create permset named",
		Usage:   "create permset named <name> for <role>",
		Handler: CreatePermsetHandler,
	})
	reg.Register(Entry{
		Phrase:  "update permset named",
		Usage:   "update permset named <name> for <role>",
		Handler: UpdatePermsetHandler,
	})
	reg.Register(Entry{
		Phrase:  "delete permset named",
		Usage:   "delete permset named <name> for <role>",
		Handler: DeletePermsetHandler,
	})
	reg.Register(Entry{
		Phrase:  "grant permset named",
		Usage:   "grant permset named <name> for <role> to <user mention> [<user mention>, ...]",
		Handler: GrantPermsetHandler,
	})
	reg.Register(Entry{
		Phrase:  "help",
		Usage:   "help",
		Handler: helpHandler(reg, prefix),
	})
}

// resolveRole finds the guild role by name and loads its managed entry.
// Both failure modes carry a user-facing message.
func resolveRole(ctx context.Context, exec *Execution, roleName string) (*roles.Role, error) {
	guildRole, ok := exec.Msg.FindGuildRole(roleName)
	if !ok {
		return nil, DomainError(
			fmt.Sprintf("No role named %q was found.", roleName), nil)
	}
	guildRole.GuildID = exec.Msg.GuildID

	role, err := exec.Services.Roles.Get(ctx, guildRole)
	if errors.Is(err, roles.ErrNotFound) {
		return nil, DomainError(
			fmt.Sprintf("Role named %q is a simple role.", roleName), err)
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

// requirePermission checks the author against the role's memberships.
// Denial and store failure alike come back as PERMISSION_DENIED; the
// engine fails closed.
func requirePermission(ctx context.Context, exec *Execution, role *roles.Role, p perm.Permission, cmd string) error {
	if exec.Services.Access.Check(ctx, role, exec.Msg.Author.ID, p) {
		return nil
	}
	return ErrPermissionDenied(cmd, p.Label())
}

// CreateRoleHandler creates a guild role on the platform and registers it
// as a managed role with the author as its first administrator.
func CreateRoleHandler(ctx context.Context, exec *Execution) error {
	name, ok := ParseName(exec.Args)
	if !ok {
		return ErrInvalidArgs("create role named", "create role named <name>")
	}

	if _, taken := exec.Msg.FindGuildRole(name); taken {
		return DomainError(fmt.Sprintf("Role name %q is taken.", name), nil)
	}
	if !exec.Msg.AuthorCanManageRoles {
		return ErrPermissionDenied("create role named", "manage_roles")
	}

	guildRole, err := exec.Services.Platform.CreateGuildRole(ctx, exec.Msg.GuildID, name)
	if err != nil {
		return err
	}

	if _, err := exec.Services.Roles.Create(ctx, guildRole, exec.Msg.Author); err != nil {
		return err
	}
	if err := exec.Services.Platform.AssignGuildRole(ctx, guildRole.GuildID, guildRole.RoleID, exec.Msg.Author.ID); err != nil {
		return err
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Role named %q was created!", name))
}

// DeleteRoleHandler deletes a managed role and its guild role. The store
// entry goes first so a platform failure cannot leave orphaned grants
// backing a live guild role.
func DeleteRoleHandler(ctx context.Context, exec *Execution) error {
	name, ok := ParseName(exec.Args)
	if !ok {
		return ErrInvalidArgs("delete role named", "delete role named <name>")
	}

	guildRole, found := exec.Msg.FindGuildRole(name)
	if !found {
		return DomainError(fmt.Sprintf("No role named %q was found.", name), nil)
	}
	guildRole.GuildID = exec.Msg.GuildID
	if !exec.Msg.AuthorCanManageRoles {
		return ErrPermissionDenied("delete role named", "manage_roles")
	}

	role, err := exec.Services.Roles.Get(ctx, guildRole)
	switch {
	case errors.Is(err, roles.ErrNotFound):
		// Simple role. Nothing of ours to clean up.
	case err != nil:
		return err
	default:
		if err := exec.Services.Roles.Delete(ctx, role); err != nil {
			return err
		}
	}

	if err := exec.Services.Platform.DeleteGuildRole(ctx, guildRole.GuildID, guildRole.RoleID); err != nil {
		return err
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Role named %q was deleted!", name))
}

// InviteUsersHandler adds the mentioned users to the role's default permset.
// Users already in the role are left untouched.
func InviteUsersHandler(ctx context.Context, exec *Execution) error {
	roleName, ok := ParseTo(exec.Args)
	if !ok {
		return ErrInvalidArgs("invite",
			"invite <user mention> [<user mention>, ...] to <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.InviteUsers, "invite"); err != nil {
		return err
	}

	added := 0
	for _, user := range exec.Msg.Mentions {
		err := exec.Services.Roles.AddMember(ctx, role, user, roles.DefaultPermset)
		if errors.Is(err, roles.ErrAlreadyMember) {
			continue
		}
		if err != nil {
			return err
		}
		added++
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("%d were added to %q", added, roleName))
}

// KickUsersHandler removes the mentioned users from the role.
func KickUsersHandler(ctx context.Context, exec *Execution) error {
	roleName, ok := ParseFrom(exec.Args)
	if !ok {
		return ErrInvalidArgs("kick",
			"kick <user mention> [<user mention>, ...] from <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.RemoveUsers, "kick"); err != nil {
		return err
	}

	for _, user := range exec.Msg.Mentions {
		if err := exec.Services.Roles.RemoveMember(ctx, role, user); err != nil {
			return err
		}
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("%d were removed from %q", len(exec.Msg.Mentions), roleName))
}

// ListPermsetsHandler lists the permsets of a role.
func ListPermsetsHandler(ctx context.Context, exec *Execution) error {
	roleName, ok := ParseFor(exec.Args)
	if !ok {
		return ErrInvalidArgs("list permsets", "list permsets for <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}

	permsets, err := exec.Services.Permsets.GetAll(ctx, role)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(permsets))
	for _, ps := range permsets {
		names = append(names, ps.Name)
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Permsets for role %q are:\n\n%s",
			roleName, strings.Join(names, "\n")))
}

// CreatePermsetHandler creates a permset with the default permissions, then
// runs the questionnaire bounded by the author's giveable permissions and
// applies the selection.
func CreatePermsetHandler(ctx context.Context, exec *Execution) error {
	name, roleName, ok := ParseNameFor(exec.Args)
	if !ok {
		return ErrInvalidArgs("create permset named",
			"create permset named <name> for <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.CreatePermsets, "create permset named"); err != nil {
		return err
	}

	ps, err := exec.Services.Permsets.Create(ctx, role, name, perm.Default())
	if errors.Is(err, roles.ErrAlreadyExists) {
		return DomainError(fmt.Sprintf("Permset named %q already exists.", name), err)
	}
	if err != nil {
		return err
	}

	selected, err := promptGiveable(ctx, exec, role)
	if err != nil {
		return err
	}
	if len(selected) > 0 {
		if err := exec.Services.Permsets.Update(ctx, ps, "", selected); err != nil {
			return err
		}
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Permset named %q was created!", ps.Name))
}

// UpdatePermsetHandler replaces a permset's permissions with a fresh
// questionnaire selection.
func UpdatePermsetHandler(ctx context.Context, exec *Execution) error {
	name, roleName, ok := ParseNameFor(exec.Args)
	if !ok {
		return ErrInvalidArgs("update permset named",
			"update permset named <name> for <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}

	ps, err := exec.Services.Permsets.Get(ctx, role, name)
	if errors.Is(err, roles.ErrNotFound) {
		return DomainError(fmt.Sprintf("No permset named %q was found.", name), err)
	}
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.CreatePermsets, "update permset named"); err != nil {
		return err
	}

	selected, err := promptGiveable(ctx, exec, role)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return ErrPromptExpired("update permset named")
	}

	if err := exec.Services.Permsets.Update(ctx, ps, "", selected); err != nil {
		return err
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Permset named %q was updated!", ps.Name))
}

// DeletePermsetHandler deletes a permset and the memberships pointing at it.
func DeletePermsetHandler(ctx context.Context, exec *Execution) error {
	name, roleName, ok := ParseNameFor(exec.Args)
	if !ok {
		return ErrInvalidArgs("delete permset named",
			"delete permset named <name> for <role>")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}

	ps, err := exec.Services.Permsets.Get(ctx, role, name)
	if errors.Is(err, roles.ErrNotFound) {
		return DomainError(fmt.Sprintf("No permset named %q was found.", name), err)
	}
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.CreatePermsets, "delete permset named"); err != nil {
		return err
	}

	if err := exec.Services.Permsets.Delete(ctx, ps); err != nil {
		return err
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Permset named %q was deleted!", ps.Name))
}

// GrantPermsetHandler assigns the mentioned users to a permset. Existing
// members are reassigned, new ones added.
func GrantPermsetHandler(ctx context.Context, exec *Execution) error {
	name, roleName, ok := ParseGrant(exec.Args)
	if !ok {
		return ErrInvalidArgs("grant permset named",
			"grant permset named <name> for <role> to <user mention> [<user mention>, ...]")
	}

	role, err := resolveRole(ctx, exec, roleName)
	if err != nil {
		return err
	}
	if err := requirePermission(ctx, exec, role, perm.ModifyRoles, "grant permset named"); err != nil {
		return err
	}

	ps, err := exec.Services.Permsets.Get(ctx, role, name)
	if errors.Is(err, roles.ErrNotFound) {
		return DomainError(fmt.Sprintf("No permset named %q was found.", name), err)
	}
	if err != nil {
		return err
	}

	for _, user := range exec.Msg.Mentions {
		err := exec.Services.Roles.AddMember(ctx, role, user, ps.Name)
		if errors.Is(err, roles.ErrAlreadyMember) {
			err = exec.Services.Roles.UpdateMember(ctx, role, user, ps.Name)
		}
		if err != nil {
			return err
		}
	}

	return exec.Services.Responder.Reply(ctx, exec.Msg,
		fmt.Sprintf("Permset named %q given to %d users!", ps.Name, len(exec.Msg.Mentions)))
}

// promptGiveable runs the questionnaire over the author's giveable
// permissions. Returns nil without error when the prompt expires.
func promptGiveable(ctx context.Context, exec *Execution, role *roles.Role) ([]perm.Permission, error) {
	author, err := exec.Services.Permsets.GetForMember(ctx, role, exec.Msg.Author.ID)
	if errors.Is(err, roles.ErrNotFound) {
		// Author passed the permission check but lost their membership
		// since. Nothing is giveable.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return exec.Services.Prompter.SelectPermissions(ctx, exec.Msg, author.Giveable())
}

// helpHandler replies with the usage of every registered command.
func helpHandler(reg *Registry, prefix string) Handler {
	return func(ctx context.Context, exec *Execution) error {
		var b strings.Builder
		b.WriteString("Here are some commands.\n\n")
		for _, entry := range reg.All() {
			fmt.Fprintf(&b, "`%s %s`\n", prefix, entry.Usage)
		}
		return exec.Services.Responder.Reply(ctx, exec.Msg, b.String())
	}
}
