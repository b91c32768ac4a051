package commands

import (
	"errors"
	"strings"

	cachecmd "github.com/goliatone/go-delivery/internal/commands/cache"
	"github.com/goliatone/go-delivery/internal/di"
	command "github.com/goliatone/go-command"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

type cronCommand interface {
	CronOptions() command.HandlerConfig
	CronHandler() func() error
}

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry      CommandRegistry
	Dispatcher    CommandDispatcher
	CronRegistrar CronRegistrar
	// RefreshCron overrides Cache.RefreshCron from the container config.
	RefreshCron string
}

// RegistrationResult captures the handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// ErrNoHandlers reports a container without any command to expose, which
// happens when the cache is disabled.
var ErrNoHandlers = errors.New("commands: no command handlers registered; enable the cache to expose revalidation")

// RegisterContainerCommands exposes the container's command handlers and
// optionally registers them with registry, dispatcher and cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}
	if container == nil {
		return result, nil
	}

	var errs error
	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
		if opts.CronRegistrar != nil {
			if cron, ok := handler.(cronCommand); ok {
				if err := opts.CronRegistrar(cron.CronOptions(), cron.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	if handler := container.Revalidator(); handler != nil {
		register(handler)

		expression := strings.TrimSpace(opts.RefreshCron)
		if expression == "" {
			expression = strings.TrimSpace(container.Config.Cache.RefreshCron)
		}
		if expression != "" && opts.CronRegistrar != nil {
			job, err := cachecmd.NewRefreshJob(handler, expression)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if err := opts.CronRegistrar(job.CronOptions(), job.CronHandler()); err != nil {
				errs = errors.Join(errs, err)
			} else {
				result.Handlers = append(result.Handlers, job)
			}
		}
	}

	if len(result.Handlers) == 0 {
		return result, errors.Join(ErrNoHandlers, errs)
	}
	return result, errs
}
