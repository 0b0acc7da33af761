// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package roles implements the permission data model: roles bound to
// external guild roles, named permsets within them, and member-to-permset
// assignments, all persisted in a key-value store.
package roles

import (
	"context"

	"github.com/samber/oops"

	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// Reserved permset names seeded at role creation.
const (
	// AdministratorsPermset holds the full catalog. Every role owns one
	// from the moment it is created.
	AdministratorsPermset = "administrators"

	// DefaultPermset is the unprivileged permset members are invited into.
	DefaultPermset = "default"
)

// GuildRole identifies the external group object a Role is bound to. It is
// used for identity only and never mutated by this engine.
type GuildRole struct {
	GuildID string
	RoleID  string
	Name    string
}

// Key returns the role root key for this external identity.
func (g GuildRole) Key() string {
	return store.RoleKey(g.GuildID, g.RoleID)
}

// Member identifies an external member/user object.
type Member struct {
	ID   string
	Name string
}

// Role is a permission domain bound 1:1 to an external guild role. It owns
// its permsets and memberships in the key namespace; no child key outlives it.
type Role struct {
	Key     string
	GuildID string
	RoleID  string
}

// RoleRepository manages roles and role-scoped membership, and orchestrates
// the cascading deletes of permsets and members.
type RoleRepository struct {
	store    store.Store
	permsets *PermsetRepository
}

// NewRoleRepository creates a RoleRepository sharing the permset repository,
// which it drives for seeding and cascades.
func NewRoleRepository(s store.Store, permsets *PermsetRepository) *RoleRepository {
	return &RoleRepository{store: s, permsets: permsets}
}

// Create establishes a new role for the external guild role. It fails with
// ErrAlreadyExists when the role key is present. Otherwise it writes the
// root marker, seeds the administrators permset with the full catalog and
// the default permset with the default catalog, and assigns the creating
// member to administrators.
//
// The sequence is independent store writes, not a transaction: two
// concurrent creates for the same role can both pass the existence check
// and the last writer wins per key.
func (r *RoleRepository) Create(ctx context.Context, external GuildRole, creator Member) (*Role, error) {
	key := external.Key()
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, oops.Code("ROLE_ALREADY_EXISTS").
			With("role_key", key).
			Wrap(ErrAlreadyExists)
	}

	role := &Role{Key: key, GuildID: external.GuildID, RoleID: external.RoleID}

	if err := r.store.Set(ctx, key, "1"); err != nil {
		return nil, err
	}
	if _, err := r.permsets.Create(ctx, role, AdministratorsPermset, perm.All()); err != nil {
		return nil, err
	}
	if _, err := r.permsets.Create(ctx, role, DefaultPermset, perm.Default()); err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, store.MemberKey(key, creator.ID), AdministratorsPermset); err != nil {
		return nil, err
	}
	return role, nil
}

// Get retrieves the role for the external guild role. Existence is
// determined by whether any key under the role's prefix exists, with the
// root marker as a fallback for a role whose children are gone. Fails with
// ErrNotFound for a role that was never created (or fully deleted).
func (r *RoleRepository) Get(ctx context.Context, external GuildRole) (*Role, error) {
	key := external.Key()
	children, err := r.store.ScanPrefix(ctx, key+":")
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		marked, err := r.store.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !marked {
			return nil, oops.Code("ROLE_NOT_FOUND").
				With("role_key", key).
				Wrap(ErrNotFound)
		}
	}
	return &Role{Key: key, GuildID: external.GuildID, RoleID: external.RoleID}, nil
}

// AddMember assigns the member to the named permset. It is a silent no-op
// when the permset does not exist, and fails with ErrAlreadyMember when the
// member already has an assignment (reassignment goes through UpdateMember).
func (r *RoleRepository) AddMember(ctx context.Context, role *Role, member Member, permsetName string) error {
	permsetName = store.CleanName(permsetName)
	exists, err := r.permsets.ExistsKey(ctx, permsetName, role.Key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	memberKey := store.MemberKey(role.Key, member.ID)
	assigned, err := r.store.Exists(ctx, memberKey)
	if err != nil {
		return err
	}
	if assigned {
		return oops.Code("ALREADY_MEMBER").
			With("role_key", role.Key).
			With("member", member.ID).
			Wrap(ErrAlreadyMember)
	}
	return r.store.Set(ctx, memberKey, permsetName)
}

// UpdateMember reassigns an existing member to the named permset. It is a
// no-op when the permset does not exist or when the member has no existing
// assignment.
func (r *RoleRepository) UpdateMember(ctx context.Context, role *Role, member Member, permsetName string) error {
	permsetName = store.CleanName(permsetName)
	exists, err := r.permsets.ExistsKey(ctx, permsetName, role.Key)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	memberKey := store.MemberKey(role.Key, member.ID)
	assigned, err := r.store.Exists(ctx, memberKey)
	if err != nil {
		return err
	}
	if !assigned {
		return nil
	}
	return r.store.Set(ctx, memberKey, permsetName)
}

// RemoveMember deletes the member's assignment. Removing an absent member
// is not an error.
func (r *RoleRepository) RemoveMember(ctx context.Context, role *Role, member Member) error {
	return r.store.Delete(ctx, store.MemberKey(role.Key, member.ID))
}

// CheckMemberForPermission resolves the member's permset and reports whether
// it contains the permission. A member without an assignment has no
// permissions. A membership pointing at a deleted permset yields false, not
// an error: the set probe on the missing key is simply empty.
func (r *RoleRepository) CheckMemberForPermission(ctx context.Context, role *Role, memberID string, p perm.Permission) (bool, error) {
	permsetName, ok, err := r.store.Get(ctx, store.MemberKey(role.Key, memberID))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return r.store.IsSetMember(ctx, store.PermsetKey(role.Key, permsetName), p.StorageValue())
}

// Delete removes the role and everything it owns. Permsets are deleted
// first, each cascading its own memberships; the remaining membership keys
// are swept afterwards, and the root marker goes last. After Delete returns
// no key under the role's prefix remains.
func (r *RoleRepository) Delete(ctx context.Context, role *Role) error {
	permsets, err := r.permsets.GetAll(ctx, role)
	if err != nil {
		return err
	}
	for _, ps := range permsets {
		if err := r.permsets.Delete(ctx, ps); err != nil {
			return err
		}
	}

	members, err := r.store.ScanPrefix(ctx, store.MemberPrefix(role.Key))
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, members...); err != nil {
		return err
	}

	return r.store.Delete(ctx, role.Key)
}
