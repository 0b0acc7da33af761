// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package access provides the authorization engine.
//
// The engine answers one question: may this member perform an action gated
// by this permission within this role? Deny is the default for every
// unresolved path: no membership, a membership pointing at a permset that
// no longer exists, a permset lacking the permission, or any store failure.
// Authorization never surfaces an error to the gate; ambiguity is a deny
// plus a log line.
package access

import (
	"context"
	"log/slog"

	"github.com/00-00-00-11/gatekeeper-bot/internal/perm"
	"github.com/00-00-00-11/gatekeeper-bot/internal/roles"
	"github.com/00-00-00-11/gatekeeper-bot/pkg/errutil"
)

// MemberChecker resolves a member's permset and probes it for a permission.
// *roles.RoleRepository is the production implementation.
type MemberChecker interface {
	CheckMemberForPermission(ctx context.Context, role *roles.Role, memberID string, p perm.Permission) (bool, error)
}

// Engine decides allow/deny for permission-gated actions.
type Engine struct {
	checker MemberChecker
	logger  *slog.Logger
}

// NewEngine creates an Engine over the given checker. A nil logger falls
// back to slog.Default.
func NewEngine(checker MemberChecker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{checker: checker, logger: logger}
}

// Check returns true only when the member's assigned permset contains the
// permission. Every other outcome, including store failures, is a deny.
func (e *Engine) Check(ctx context.Context, role *roles.Role, memberID string, p perm.Permission) bool {
	allowed, err := e.checker.CheckMemberForPermission(ctx, role, memberID, p)
	if err != nil {
		// Fail closed. The error carries the role key and operation.
		errutil.LogError(e.logger, "permission check failed, denying", err)
		RecordCheck(p, DecisionDeny, ReasonError)
		return false
	}
	if !allowed {
		RecordCheck(p, DecisionDeny, ReasonUnauthorized)
		return false
	}
	RecordCheck(p, DecisionAllow, ReasonGranted)
	return true
}
