// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"regexp"
	"strings"
)

// Argument patterns shared by the handlers. Command arguments read like
// prose ("mods for Raiders"), so free-text captures are anchored on the
// keywords between them. Name captures are lazy so role names containing
// the keywords stay intact.
var (
	forPattern     = regexp.MustCompile(`for (.+)$`)
	toPattern      = regexp.MustCompile(`to (.+)$`)
	fromPattern    = regexp.MustCompile(`from (.+)$`)
	nameForPattern = regexp.MustCompile(`^(.+?) for (.+)$`)
	grantPattern   = regexp.MustCompile(`^(.+?) for (.+?) to `)
)

// ParseName extracts the bare name from "... named <name>" arguments.
func ParseName(args string) (string, bool) {
	name := strings.TrimSpace(args)
	return name, name != ""
}

// ParseFor extracts the role name from "... for <role>" arguments.
func ParseFor(args string) (string, bool) {
	m := forPattern.FindStringSubmatch(args)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseTo extracts the role name from "<mentions> to <role>" arguments.
func ParseTo(args string) (string, bool) {
	m := toPattern.FindStringSubmatch(args)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseFrom extracts the role name from "<mentions> from <role>" arguments.
func ParseFrom(args string) (string, bool) {
	m := fromPattern.FindStringSubmatch(args)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// ParseNameFor extracts the permset and role names from
// "<name> for <role>" arguments.
func ParseNameFor(args string) (name, role string, ok bool) {
	m := nameForPattern.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// ParseGrant extracts the permset and role names from
// "<name> for <role> to <mentions>" arguments.
func ParseGrant(args string) (name, role string, ok bool) {
	m := grantPattern.FindStringSubmatch(strings.TrimSpace(args) + " ")
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
