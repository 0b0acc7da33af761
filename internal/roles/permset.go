// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package roles

import (
	"context"
	"strings"

	"github.com/samber/oops"

	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/store"
)

// Permset is a named set of permissions scoped to a role.
type Permset struct {
	RoleKey     string
	Name        string
	Permissions []perm.Permission
}

// Key returns the storage key addressing this permset.
func (p *Permset) Key() string {
	return store.PermsetKey(p.RoleKey, p.Name)
}

// Contains reports whether the permset holds the given permission.
func (p *Permset) Contains(want perm.Permission) bool {
	for _, have := range p.Permissions {
		if have == want {
			return true
		}
	}
	return false
}

// Giveable returns the permissions an assignee of this permset may in turn
// grant to permsets they create: the permset's permissions minus the
// administrative flags.
func (p *Permset) Giveable() []perm.Permission {
	admin := make(map[perm.Permission]bool)
	for _, a := range perm.Administrative() {
		admin[a] = true
	}
	giveable := make([]perm.Permission, 0, len(p.Permissions))
	for _, g := range p.Permissions {
		if !admin[g] {
			giveable = append(giveable, g)
		}
	}
	return giveable
}

// PermsetRepository manages named permission sets within a role.
type PermsetRepository struct {
	store store.Store
}

// NewPermsetRepository creates a PermsetRepository over the given store.
func NewPermsetRepository(s store.Store) *PermsetRepository {
	return &PermsetRepository{store: s}
}

// Create writes a new permset under the role. The name is normalized to a
// slug first. Fails with ErrAlreadyExists when (role, name) is present and
// with ErrEmptyPermissions when permissions is empty.
func (r *PermsetRepository) Create(ctx context.Context, role *Role, name string, permissions []perm.Permission) (*Permset, error) {
	name = store.CleanName(name)
	if len(permissions) == 0 {
		return nil, oops.Code("PERMSET_EMPTY").
			With("role_key", role.Key).
			With("permset", name).
			Wrap(ErrEmptyPermissions)
	}

	key := store.PermsetKey(role.Key, name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, oops.Code("PERMSET_ALREADY_EXISTS").
			With("role_key", role.Key).
			With("permset", name).
			Wrap(ErrAlreadyExists)
	}

	if err := r.store.AddToSet(ctx, key, storageValues(permissions)...); err != nil {
		return nil, err
	}
	return &Permset{RoleKey: role.Key, Name: name, Permissions: permissions}, nil
}

// Get retrieves a permset by name. Fails with ErrNotFound when absent.
// Existence is probed via Exists so that a permset is distinguishable from
// an empty member listing.
func (r *PermsetRepository) Get(ctx context.Context, role *Role, name string) (*Permset, error) {
	return r.getByKey(ctx, role.Key, store.CleanName(name))
}

// GetAll returns every permset owned by the role, materialized from a
// prefix scan.
func (r *PermsetRepository) GetAll(ctx context.Context, role *Role) ([]*Permset, error) {
	prefix := store.PermsetPrefix(role.Key)
	keys, err := r.store.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	permsets := make([]*Permset, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, prefix)
		ps, err := r.getByKey(ctx, role.Key, name)
		if err != nil {
			return nil, err
		}
		permsets = append(permsets, ps)
	}
	return permsets, nil
}

// GetForMember resolves the permset the member is assigned to within the
// role. Fails with ErrNotFound when the member has no membership or the
// membership points at a permset that no longer exists.
func (r *PermsetRepository) GetForMember(ctx context.Context, role *Role, memberID string) (*Permset, error) {
	name, ok, err := r.store.Get(ctx, store.MemberKey(role.Key, memberID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, oops.Code("MEMBERSHIP_NOT_FOUND").
			With("role_key", role.Key).
			With("member", memberID).
			Wrap(ErrNotFound)
	}
	return r.getByKey(ctx, role.Key, name)
}

// Update modifies a permset in place. A non-nil newPermissions replaces the
// stored set wholesale (delete then add, never a merge). A non-empty newName
// moves the stored identities to the new key, retargets every membership
// referencing the old name, and deletes the old key; the entity's Name is
// updated to match. Fails with ErrNotFound when the permset is absent, and
// with ErrAlreadyExists when renaming onto a taken name.
func (r *PermsetRepository) Update(ctx context.Context, ps *Permset, newName string, newPermissions []perm.Permission) error {
	key := ps.Key()
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return oops.Code("PERMSET_NOT_FOUND").
			With("role_key", ps.RoleKey).
			With("permset", ps.Name).
			Wrap(ErrNotFound)
	}

	if newPermissions != nil {
		if len(newPermissions) == 0 {
			return oops.Code("PERMSET_EMPTY").
				With("role_key", ps.RoleKey).
				With("permset", ps.Name).
				Wrap(ErrEmptyPermissions)
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
		if err := r.store.AddToSet(ctx, key, storageValues(newPermissions)...); err != nil {
			return err
		}
		ps.Permissions = newPermissions
	}

	if newName = store.CleanName(newName); newName != "" && newName != ps.Name {
		newKey := store.PermsetKey(ps.RoleKey, newName)
		taken, err := r.store.Exists(ctx, newKey)
		if err != nil {
			return err
		}
		if taken {
			return oops.Code("PERMSET_ALREADY_EXISTS").
				With("role_key", ps.RoleKey).
				With("permset", newName).
				Wrap(ErrAlreadyExists)
		}

		members, err := r.store.MembersOf(ctx, key)
		if err != nil {
			return err
		}
		if err := r.store.AddToSet(ctx, newKey, members...); err != nil {
			return err
		}
		if err := r.retargetMembersUnder(ctx, ps.RoleKey, ps.Name, newName); err != nil {
			return err
		}
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
		ps.Name = newName
	}

	return nil
}

// Delete removes the permset. Every membership in the role that references
// it is deleted first so no membership is left pointing at a missing
// permset, then the permset key itself is removed.
func (r *PermsetRepository) Delete(ctx context.Context, ps *Permset) error {
	if err := r.deleteMembersUnder(ctx, ps.RoleKey, ps.Name); err != nil {
		return err
	}
	return r.store.Delete(ctx, ps.Key())
}

// Exists probes whether a named permset exists under the role.
func (r *PermsetRepository) Exists(ctx context.Context, name string, role *Role) (bool, error) {
	return r.ExistsKey(ctx, name, role.Key)
}

// ExistsKey is the same probe addressed by a precomputed role key.
func (r *PermsetRepository) ExistsKey(ctx context.Context, name, roleKey string) (bool, error) {
	return r.store.Exists(ctx, store.PermsetKey(roleKey, store.CleanName(name)))
}

// getByKey materializes a permset from its stored identity set.
func (r *PermsetRepository) getByKey(ctx context.Context, roleKey, name string) (*Permset, error) {
	key := store.PermsetKey(roleKey, name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, oops.Code("PERMSET_NOT_FOUND").
			With("role_key", roleKey).
			With("permset", name).
			Wrap(ErrNotFound)
	}

	raw, err := r.store.MembersOf(ctx, key)
	if err != nil {
		return nil, err
	}
	permissions := make([]perm.Permission, 0, len(raw))
	for _, v := range raw {
		p, err := perm.FromStorage(v)
		if err != nil {
			// Schema drift or corruption. Surfaced, not skipped:
			// authorization paths treat this as a deny.
			return nil, oops.With("role_key", roleKey).With("permset", name).Wrap(err)
		}
		permissions = append(permissions, p)
	}
	return &Permset{RoleKey: roleKey, Name: name, Permissions: permissions}, nil
}

// retargetMembersUnder rewrites every membership in the role whose value is
// oldName to point at newName. Without this a rename would strand its
// members on a dead permset name and deny them everywhere.
func (r *PermsetRepository) retargetMembersUnder(ctx context.Context, roleKey, oldName, newName string) error {
	keys, err := r.store.ScanPrefix(ctx, store.MemberPrefix(roleKey))
	if err != nil {
		return err
	}
	for _, key := range keys {
		val, ok, err := r.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok && val == oldName {
			if err := r.store.Set(ctx, key, newName); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteMembersUnder removes every membership in the role whose value is the
// given permset name. Linear scan-and-filter over the member prefix; O(members)
// per delete is a known scaling limit, not a correctness issue.
func (r *PermsetRepository) deleteMembersUnder(ctx context.Context, roleKey, permsetName string) error {
	keys, err := r.store.ScanPrefix(ctx, store.MemberPrefix(roleKey))
	if err != nil {
		return err
	}
	for _, key := range keys {
		val, ok, err := r.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok && val == permsetName {
			if err := r.store.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}

func storageValues(permissions []perm.Permission) []string {
	values := make([]string, len(permissions))
	for i, p := range permissions {
		values[i] = p.StorageValue()
	}
	return values
}
