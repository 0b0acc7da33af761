// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package store

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Key construction for the persisted namespace. The authoritative layout:
//
//	guild:{G}:role:{R}                existence marker
//	guild:{G}:role:{R}:permset:{N}    set<permission-identity-as-string>
//	guild:{G}:role:{R}:member:{M}     string value = permset name
//
// Name segments must not contain the ':' delimiter; CleanName enforces this
// for user-supplied permset names.

// RoleKey returns the root key for a role identified by (guild, role).
func RoleKey(guildID, roleID string) string {
	return "guild:" + guildID + ":role:" + roleID
}

// PermsetKey addresses a named permset under a role root.
func PermsetKey(roleKey, name string) string {
	return roleKey + ":permset:" + name
}

// MemberKey addresses a membership under a role root.
func MemberKey(roleKey, memberID string) string {
	return roleKey + ":member:" + memberID
}

// PermsetPrefix returns the scan prefix for a role's permsets.
func PermsetPrefix(roleKey string) string {
	return roleKey + ":permset:"
}

// MemberPrefix returns the scan prefix for a role's memberships.
func MemberPrefix(roleKey string) string {
	return roleKey + ":member:"
}

var nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9_ -]`)

// CleanName normalizes a user-supplied permset name into a slug: characters
// outside [A-Za-z0-9_ -] are stripped, then spaces become hyphens. The
// result never contains the key delimiter. Cleaning is idempotent, so the
// slugs produced here can be fed back through any name-taking lookup.
func CleanName(name string) string {
	return strings.ReplaceAll(nonSlugChars.ReplaceAllString(name, ""), " ", "-")
}

// The three legal key shapes under the guild namespace, compiled with ':' as
// the segment separator so '*' matches exactly one segment.
var schemaPatterns = []glob.Glob{
	glob.MustCompile("guild:*:role:*", ':'),
	glob.MustCompile("guild:*:role:*:permset:*", ':'),
	glob.MustCompile("guild:*:role:*:member:*", ':'),
}

// ValidKey reports whether key matches one of the three legal shapes.
// Any other key under guild:* is a schema violation.
func ValidKey(key string) bool {
	for _, p := range schemaPatterns {
		if p.Match(key) {
			return true
		}
	}
	return false
}
