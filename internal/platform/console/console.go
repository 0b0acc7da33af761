// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package console binds the command dispatcher to a line-oriented terminal
// session. It stands in for a chat platform client: guild roles live in
// memory, replies and questionnaires go to the writer. Useful for local
// operation and smoke testing against a real store.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/00-00-00-11/gatekeeper-bot/internal/command"
	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
)

var mentionPattern = regexp.MustCompile(`<@(\d+)>`)

// Binding is a single-guild console session. It implements
// command.Responder, command.Prompter, and command.Platform.
type Binding struct {
	guildID string
	author  roles.Member
	out     io.Writer
	in      *bufio.Scanner

	mu         sync.Mutex
	guildRoles []roles.GuildRole
	nextRoleID int
}

// New creates a console binding for the given guild. The author identity is
// attached to every message the session produces.
func New(guildID string, author roles.Member, in io.Reader, out io.Writer) *Binding {
	return &Binding{
		guildID:    guildID,
		author:     author,
		out:        out,
		in:         bufio.NewScanner(in),
		nextRoleID: 1000,
	}
}

// Reply writes the text to the session output.
func (b *Binding) Reply(_ context.Context, _ *command.Message, text string) error {
	_, err := fmt.Fprintln(b.out, text)
	return err
}

// SelectPermissions renders the questionnaire and reads one line of
// identity numbers. An empty line or EOF counts as an expired prompt.
func (b *Binding) SelectPermissions(_ context.Context, _ *command.Message, options []perm.Permission) ([]perm.Permission, error) {
	fmt.Fprintln(b.out, "When creating the permset, what permissions would you like me to give?")
	fmt.Fprintln(b.out)
	for _, p := range options {
		fmt.Fprintf(b.out, "%d %s - %s\n", p.Identity(), p.Emoji(), p.Description())
	}
	fmt.Fprintln(b.out, "\nEnter the numbers to grant, separated by spaces:")

	if !b.in.Scan() {
		return nil, b.in.Err()
	}
	fields := strings.Fields(b.in.Text())
	if len(fields) == 0 {
		return nil, nil
	}

	allowed := make(map[perm.Permission]bool, len(options))
	for _, p := range options {
		allowed[p] = true
	}

	var selected []perm.Permission
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		p, err := perm.FromIdentity(n)
		if err != nil || !allowed[p] {
			fmt.Fprintf(b.out, "Skipping %s: not a giveable permission.\n", f)
			continue
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// CreateGuildRole registers a new in-memory guild role.
func (b *Binding) CreateGuildRole(_ context.Context, guildID, name string) (roles.GuildRole, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextRoleID++
	gr := roles.GuildRole{
		GuildID: guildID,
		RoleID:  strconv.Itoa(b.nextRoleID),
		Name:    name,
	}
	b.guildRoles = append(b.guildRoles, gr)
	return gr, nil
}

// DeleteGuildRole removes the in-memory guild role. Deleting an unknown
// role is not an error, matching platform semantics for already-gone roles.
func (b *Binding) DeleteGuildRole(_ context.Context, _, roleID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, gr := range b.guildRoles {
		if gr.RoleID == roleID {
			b.guildRoles = append(b.guildRoles[:i], b.guildRoles[i+1:]...)
			return nil
		}
	}
	return nil
}

// AssignGuildRole is a no-op; the console has no member list to decorate.
func (b *Binding) AssignGuildRole(_ context.Context, _, _, _ string) error {
	return nil
}

// SeedGuildRole adds an existing guild role to the session, for roles that
// predate it.
func (b *Binding) SeedGuildRole(gr roles.GuildRole) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guildRoles = append(b.guildRoles, gr)
}

// snapshot copies the guild role list for a message.
func (b *Binding) snapshot() []roles.GuildRole {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]roles.GuildRole, len(b.guildRoles))
	copy(out, b.guildRoles)
	return out
}

// Message builds an inbound message from one console line. Mentions use the
// chat notation <@123>.
func (b *Binding) Message(line string) *command.Message {
	var mentions []roles.Member
	for _, m := range mentionPattern.FindAllStringSubmatch(line, -1) {
		mentions = append(mentions, roles.Member{ID: m[1]})
	}
	return &command.Message{
		GuildID:              b.guildID,
		Author:               b.author,
		Content:              line,
		Mentions:             mentions,
		GuildRoles:           b.snapshot(),
		AuthorCanManageRoles: true,
	}
}

// Run reads lines until EOF or context cancellation, dispatching each one.
// Dispatch errors are already reported to the session; they do not stop the
// loop. The read is synchronous: any questionnaire a handler starts reads
// the next lines of the same input.
func (b *Binding) Run(ctx context.Context, d *command.Dispatcher) error {
	for b.in.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = d.Dispatch(ctx, b.Message(b.in.Text()))
	}
	if err := b.in.Err(); err != nil {
		return err
	}
	return nil
}
