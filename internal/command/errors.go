// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"github.com/samber/oops"
)

// Error codes for command dispatch failures.
const (
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeInvalidArgs      = "INVALID_ARGS"
	CodeDomainError      = "DOMAIN_ERROR"
	CodePromptExpired    = "PROMPT_EXPIRED"
)

// ErrUnknownCommand creates an error for an unrecognized command phrase.
func ErrUnknownCommand(content string) error {
	return oops.Code(CodeUnknownCommand).
		With("content", content).
		Errorf("unknown command")
}

// ErrPermissionDenied creates an error for a denied permission check.
func ErrPermissionDenied(cmd string, permission string) error {
	return oops.Code(CodePermissionDenied).
		With("command", cmd).
		With("permission", permission).
		Errorf("permission denied for command %s", cmd)
}

// ErrInvalidArgs creates an error for arguments that fail to parse.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// DomainError creates an error for role or permset state issues with a
// user-facing message. The cause is carried as context rather than wrapped:
// oops resolves Code() to the deepest code in a chain, and a wrapped
// repository error would shadow CodeDomainError, losing the message on the
// way back to chat.
func DomainError(message string, cause error) error {
	builder := oops.Code(CodeDomainError).With("message", message)
	if cause != nil {
		builder = builder.With("cause", cause.Error())
	}
	return builder.Errorf("%s", message)
}

// ErrPromptExpired creates an error for a permission prompt nobody answered.
func ErrPromptExpired(cmd string) error {
	return oops.Code(CodePromptExpired).
		With("command", cmd).
		Errorf("permission selection expired")
}

// UserMessage extracts a channel-safe message from an error. Internal
// detail never reaches chat; unrecognized errors get a generic apology.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong. Try again."
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "Something went wrong. Try again."
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command."
	case CodePermissionDenied:
		return "You don't have permission to do that."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeDomainError:
		if msg, ok := oopsErr.Context()["message"].(string); ok {
			return msg
		}
		return "Something went wrong. Try again."
	case CodePromptExpired:
		return "Permission selection timed out. Run the command again."
	default:
		return "Something went wrong. Try again."
	}
}
