// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

package command

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gatekeeper/command")

// Dispatcher matches inbound messages against the registry and runs the
// matched handler.
type Dispatcher struct {
	prefix   string
	registry *Registry
	services *Services
}

// NewDispatcher creates a command dispatcher. prefix is the bot trigger
// word ("gk"); messages not starting with it are ignored.
func NewDispatcher(prefix string, registry *Registry, services *Services) (*Dispatcher, error) {
	if prefix == "" {
		return nil, oops.Errorf("dispatcher requires a command prefix")
	}
	if registry == nil {
		return nil, oops.Errorf("dispatcher requires a registry")
	}
	if services == nil || services.Responder == nil {
		return nil, oops.Errorf("dispatcher requires services with a responder")
	}
	if services.Logger == nil {
		services.Logger = slog.Default()
	}
	return &Dispatcher{
		prefix:   prefix,
		registry: registry,
		services: services,
	}, nil
}

// Dispatch routes one message. Messages without the bot prefix return nil
// untouched. Handler failures are reported back to the channel with a
// user-safe message and returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) (err error) {
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, d.prefix+" ") {
		return nil
	}
	content = strings.TrimSpace(strings.TrimPrefix(content, d.prefix+" "))

	entry, args, ok := d.registry.Match(content)
	if !ok {
		err = ErrUnknownCommand(content)
		RecordCommandExecution("unknown", StatusNotFound)
		d.reply(ctx, msg, err)
		return err
	}

	exec := &Execution{
		ID:       ulid.Make(),
		Msg:      msg,
		Args:     args,
		Services: d.services,
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.phrase", entry.Phrase),
			attribute.String("execution.id", exec.ID.String()),
			attribute.String("guild.id", msg.GuildID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	err = entry.Handler(ctx, exec)
	RecordCommandDuration(entry.Phrase, time.Since(start))
	RecordCommandExecution(entry.Phrase, statusFor(err))

	if err != nil {
		d.services.Logger.WarnContext(ctx, "command execution failed",
			"command", entry.Phrase,
			"execution_id", exec.ID.String(),
			"guild_id", msg.GuildID,
			"author_id", msg.Author.ID,
			"error", err,
		)
		d.reply(ctx, msg, err)
	}
	return err
}

// reply sends the user-safe rendering of err back to the channel. Reply
// failures are logged and swallowed; the original error matters more.
func (d *Dispatcher) reply(ctx context.Context, msg *Message, err error) {
	if sendErr := d.services.Responder.Reply(ctx, msg, UserMessage(err)); sendErr != nil {
		d.services.Logger.ErrorContext(ctx, "failed to send error reply",
			"guild_id", msg.GuildID,
			"channel_id", msg.ChannelID,
			"error", sendErr,
		)
	}
}

func statusFor(err error) string {
	if err == nil {
		return StatusSuccess
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return StatusError
	}
	switch oopsErr.Code() {
	case CodePermissionDenied:
		return StatusPermissionDenied
	case CodeInvalidArgs:
		return StatusInvalidArgs
	case CodeUnknownCommand:
		return StatusNotFound
	default:
		return StatusError
	}
}
