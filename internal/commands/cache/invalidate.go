// Package cachecmd exposes cache revalidation as go-command handlers.
package cachecmd

import (
	"context"
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-delivery/internal/commands"
	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/pkg/interfaces"
)

const invalidateCacheMessageType = "delivery.cache.invalidate"

var (
	ErrInvalidatorRequired = errors.New("cachecmd: invalidator is nil")

	localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)
)

// Invalidator drops cached content. cachedsource.Source implements it.
type Invalidator interface {
	Invalidate(query source.PageQuery)
	InvalidateAll()
}

// InvalidateCacheCommand drops one cached page, or everything when All is
// set.
type InvalidateCacheCommand struct {
	Slug   string `json:"slug,omitempty"`
	Locale string `json:"locale,omitempty"`
	Type   string `json:"type,omitempty"`
	All    bool   `json:"all,omitempty"`
}

// Type implements command.Message.
func (InvalidateCacheCommand) Type() string { return invalidateCacheMessageType }

// Validate requires a slug and locale unless All is set, and rejects a
// targeted page alongside All.
func (m InvalidateCacheCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Slug,
			validation.When(!m.All, validation.Required.Error("slug is required unless all is set")),
			validation.When(m.All, validation.Empty.Error("slug must be empty when all is set")),
		),
		validation.Field(&m.Locale,
			validation.When(!m.All, validation.Required.Error("locale is required unless all is set")),
			validation.Match(localePattern).Error("locale must be a language code such as en or pt-BR"),
		),
		validation.Field(&m.Type, validation.Length(0, 64)),
	)
}

// Query returns the page the command targets.
func (m InvalidateCacheCommand) Query() source.PageQuery {
	return source.PageQuery{
		Type:   strings.TrimSpace(m.Type),
		Slug:   strings.TrimSpace(m.Slug),
		Locale: strings.TrimSpace(m.Locale),
	}
}

// InvalidateCacheHandler runs InvalidateCacheCommand against an Invalidator.
type InvalidateCacheHandler struct {
	inner *commands.Handler[InvalidateCacheCommand]
}

// NewInvalidateCacheHandler wires the handler to cache.
func NewInvalidateCacheHandler(cache Invalidator, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateCacheCommand]) (*InvalidateCacheHandler, error) {
	if cache == nil {
		return nil, ErrInvalidatorRequired
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg InvalidateCacheCommand) error {
		if msg.All {
			cache.InvalidateAll()
			return nil
		}
		cache.Invalidate(msg.Query())
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateCacheCommand]{
		commands.WithLogger[InvalidateCacheCommand](logger),
		commands.WithOperation[InvalidateCacheCommand]("cache.invalidate"),
		commands.WithMessageFields(func(msg InvalidateCacheCommand) map[string]any {
			if msg.All {
				return map[string]any{"all": true}
			}
			fields := map[string]any{"slug": msg.Slug, "locale": msg.Locale}
			if msg.Type != "" {
				fields["type"] = msg.Type
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[InvalidateCacheCommand](nil)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateCacheHandler{inner: commands.NewHandler(exec, handlerOpts...)}, nil
}

// Execute satisfies command.Commander[InvalidateCacheCommand].
func (h *InvalidateCacheHandler) Execute(ctx context.Context, msg InvalidateCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CommandRegistry is the registration contract of a go-command registry.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Register builds the cache handlers and registers them with reg when it is
// non-nil.
func Register(reg CommandRegistry, cache Invalidator, provider interfaces.LoggerProvider) (*InvalidateCacheHandler, error) {
	handler, err := NewInvalidateCacheHandler(cache, commands.CommandLogger(provider, "cache"))
	if err != nil {
		return nil, err
	}
	if reg != nil {
		if err := reg.RegisterCommand(handler); err != nil {
			return nil, err
		}
	}
	return handler, nil
}
