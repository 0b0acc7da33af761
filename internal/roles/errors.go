// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package roles

import "errors"

// Sentinel errors for the repository layer. They are always wrapped in an
// oops error carrying a code and the key that was addressed; callers branch
// with errors.Is.
var (
	// ErrNotFound is returned when a role, permset, or membership does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a role or permset whose key is present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyMember is returned when adding a membership that already
	// exists. Reassignment goes through UpdateMember instead.
	ErrAlreadyMember = errors.New("already a member")

	// ErrEmptyPermissions is returned when creating or updating a permset
	// with no permissions. The set encoding cannot hold an empty entry, so
	// the repository rejects it up front.
	ErrEmptyPermissions = errors.New("permset needs at least one permission")
)
