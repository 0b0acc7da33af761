// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package perm defines the closed permission catalog.
//
// Every permission has a stable integer identity used for storage and
// equality. Identities are never reassigned: stored grants reference them by
// value, so renumbering would silently change who is allowed to do what.
package perm

import (
	"errors"
	"strconv"

	"github.com/samber/oops"
)

// ErrInvalidPermission is returned when an identity outside the catalog is
// looked up, typically on schema drift or storage corruption.
var ErrInvalidPermission = errors.New("invalid permission")

// Permission is a single capability flag from the catalog.
type Permission int

// The catalog. Identities are part of the persisted schema.
const (
	CreateAndDeleteChannels Permission = 1
	ModifyChannels          Permission = 2
	ModifyRoles             Permission = 3
	InviteUsers             Permission = 4
	RemoveUsers             Permission = 5
	CreatePermsets          Permission = 6
	DeleteRole              Permission = 7
)

// details holds the human-facing attributes of a permission. The emoji is
// consumed by interactive prompter implementations.
type details struct {
	label       string
	description string
	emoji       string
}

var catalog = map[Permission]details{
	CreateAndDeleteChannels: {"CREATE_AND_DELETE_CHANNELS", "Create and delete role specific channels.", "📻"},
	ModifyChannels:          {"MODIFY_CHANNELS", "Modify properties of existing channels.", "📝"},
	ModifyRoles:             {"MODIFY_ROLES", "Modify properties of the related guild role.", "🖌"},
	InviteUsers:             {"INVITE_USERS", "Invite new users to the role.", "📯"},
	RemoveUsers:             {"REMOVE_USERS", "Remove users from the role.", "👞"},
	CreatePermsets:          {"CREATE_PERMSETS", "Create new permsets for the role.", "📐"},
	DeleteRole:              {"DELETE_ROLE", "Delete the entire role.", "💣"},
}

// All returns the full catalog in identity order. Used to seed the
// administrators permset.
func All() []Permission {
	return []Permission{
		CreateAndDeleteChannels,
		ModifyChannels,
		ModifyRoles,
		InviteUsers,
		RemoveUsers,
		CreatePermsets,
		DeleteRole,
	}
}

// Default returns the seed for an unprivileged permset.
func Default() []Permission {
	return []Permission{
		InviteUsers,
		CreateAndDeleteChannels,
	}
}

// Administrative returns the flags stripped from giveable sets: holders of a
// permset may not pass these on to permsets they create.
func Administrative() []Permission {
	return []Permission{
		CreatePermsets,
		DeleteRole,
	}
}

// FromIdentity resolves a stored integer identity to a Permission.
func FromIdentity(n int) (Permission, error) {
	p := Permission(n)
	if _, ok := catalog[p]; !ok {
		return 0, oops.Code("INVALID_PERMISSION").
			With("identity", n).
			Wrap(ErrInvalidPermission)
	}
	return p, nil
}

// FromStorage resolves the decimal string form used inside stored sets.
func FromStorage(s string) (Permission, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, oops.Code("INVALID_PERMISSION").
			With("raw", s).
			Wrap(ErrInvalidPermission)
	}
	return FromIdentity(n)
}

// Identity returns the stable integer identity.
func (p Permission) Identity() int { return int(p) }

// StorageValue returns the decimal string form written to the store.
func (p Permission) StorageValue() string { return strconv.Itoa(int(p)) }

// Label returns the stable upper-snake label.
func (p Permission) Label() string { return catalog[p].label }

// Description returns the short human-readable description.
func (p Permission) Description() string { return catalog[p].description }

// Emoji returns the reaction emoji used by questionnaire prompters.
func (p Permission) Emoji() string { return catalog[p].emoji }

func (p Permission) String() string {
	if d, ok := catalog[p]; ok {
		return d.label
	}
	return "UNKNOWN(" + strconv.Itoa(int(p)) + ")"
}
