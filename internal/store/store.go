// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package store provides the key-value contract the permission engine is
// built on, the key construction scheme, and the Redis implementation.
//
// All values are opaque strings. Permission identities are stored as their
// decimal string form inside unordered sets; memberships are plain string
// values. Whether a key exists is always probed via Exists, never inferred
// from MembersOf returning an empty set.
package store

import "context"

// Store is the minimal key-value contract used by the repositories.
// It is the single external dependency of the permission engine.
//
// Implementations must not retry internally: backend failures are wrapped
// with key and operation context and propagated, and the caller decides
// retry policy. Reads report absence as an explicit false/empty result, not
// an error.
type Store interface {
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the scalar value at key. ok is false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes a scalar value at key.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Absent keys are ignored. A call with
	// no keys is a no-op.
	Delete(ctx context.Context, keys ...string) error

	// AddToSet adds members to the unordered set at key, creating it if
	// needed. A call with no members is a no-op.
	AddToSet(ctx context.Context, key string, members ...string) error

	// RemoveFromSet removes members from the set at key. Absent members
	// are ignored.
	RemoveFromSet(ctx context.Context, key string, members ...string) error

	// MembersOf returns the members of the set at key. An absent key
	// yields an empty slice, which is why existence is probed via Exists.
	MembersOf(ctx context.Context, key string) ([]string, error)

	// IsSetMember reports whether member is in the set at key.
	IsSetMember(ctx context.Context, key string, member string) (bool, error)

	// ScanPrefix returns every key starting with prefix.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}
