package commands

import (
	"errors"
	"testing"

	cachecmd "github.com/goliatone/go-delivery/internal/commands/cache"
	"github.com/goliatone/go-delivery/internal/di"
	"github.com/goliatone/go-delivery/internal/runtimeconfig"
	command "github.com/goliatone/go-command"
)

func memoryContainer(t *testing.T, mutate func(*runtimeconfig.Config)) *di.Container {
	t.Helper()
	cfg := runtimeconfig.DefaultConfig()
	cfg.Source = runtimeconfig.SourceConfig{Provider: runtimeconfig.SourceMemory}
	if mutate != nil {
		mutate(&cfg)
	}
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	return container
}

func TestRegisterContainerCommandsBuildsHandlers(t *testing.T) {
	container := memoryContainer(t, func(cfg *runtimeconfig.Config) {
		cfg.Cache.RefreshCron = "@every 5m"
	})
	registry := &recordingRegistry{}
	dispatcher := &recordingDispatcher{}
	cron := &recordingCron{}

	result, err := RegisterContainerCommands(container, RegistrationOptions{
		Registry:      registry,
		Dispatcher:    dispatcher,
		CronRegistrar: cron.Registrar(),
	})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}

	if len(result.Handlers) != 2 {
		t.Fatalf("expected revalidate handler and refresh job, got %d", len(result.Handlers))
	}
	if len(registry.handlers) != 1 {
		t.Fatalf("expected registry to record the command handler, got %d", len(registry.handlers))
	}
	if _, ok := registry.handlers[0].(*cachecmd.InvalidateCacheHandler); !ok {
		t.Fatalf("unexpected handler %T", registry.handlers[0])
	}
	if len(dispatcher.subscriptions) != 1 || len(result.Subscriptions) != 1 {
		t.Fatal("expected dispatcher subscription when dispatcher provided")
	}
	if len(cron.registrations) != 1 {
		t.Fatalf("expected one cron registration, got %d", len(cron.registrations))
	}
	if got := cron.registrations[0].config.Expression; got != "@every 5m" {
		t.Fatalf("expected refresh cron expression, got %q", got)
	}
}

func TestRegisterContainerCommandsCronOverride(t *testing.T) {
	container := memoryContainer(t, nil)
	cron := &recordingCron{}

	if _, err := RegisterContainerCommands(container, RegistrationOptions{
		CronRegistrar: cron.Registrar(),
		RefreshCron:   "@hourly",
	}); err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(cron.registrations) != 1 || cron.registrations[0].config.Expression != "@hourly" {
		t.Fatalf("expected override expression, got %+v", cron.registrations)
	}
	if err := cron.registrations[0].handler.(func() error)(); err != nil {
		t.Fatalf("run refresh job: %v", err)
	}
}

func TestRegisterContainerCommandsWithoutRegistrars(t *testing.T) {
	result, err := RegisterContainerCommands(memoryContainer(t, nil), RegistrationOptions{})
	if err != nil {
		t.Fatalf("register commands: %v", err)
	}
	if len(result.Handlers) != 1 {
		t.Fatalf("expected handlers to be built even without registrars, got %d", len(result.Handlers))
	}
	if len(result.Subscriptions) != 0 {
		t.Fatalf("expected no dispatcher subscriptions without dispatcher, got %d", len(result.Subscriptions))
	}
}

func TestRegisterContainerCommandsWithoutCache(t *testing.T) {
	container := memoryContainer(t, func(cfg *runtimeconfig.Config) {
		cfg.Cache.Enabled = false
	})
	if _, err := RegisterContainerCommands(container, RegistrationOptions{}); !errors.Is(err, ErrNoHandlers) {
		t.Fatalf("expected no handlers error, got %v", err)
	}
}

func TestRegisterContainerCommandsJoinsRegistryErrors(t *testing.T) {
	registry := &recordingRegistry{err: errors.New("duplicate")}
	result, err := RegisterContainerCommands(memoryContainer(t, nil), RegistrationOptions{Registry: registry})
	if err == nil || len(result.Handlers) != 1 {
		t.Fatalf("expected registry error with handler kept, got %v %d", err, len(result.Handlers))
	}
}

type recordingRegistry struct {
	handlers []any
	err      error
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return r.err
	}
	r.handlers = append(r.handlers, handler)
	return nil
}

type recordingDispatcher struct {
	subscriptions []*recordingSubscription
}

func (r *recordingDispatcher) RegisterCommand(handler any) (CommandSubscription, error) {
	subscription := &recordingSubscription{handler: handler}
	r.subscriptions = append(r.subscriptions, subscription)
	return subscription, nil
}

type recordingSubscription struct {
	handler      any
	unsubscribed bool
}

func (s *recordingSubscription) Unsubscribe() {
	s.unsubscribed = true
}

type cronRegistration struct {
	config  command.HandlerConfig
	handler any
}

type recordingCron struct {
	registrations []cronRegistration
}

func (r *recordingCron) Registrar() CronRegistrar {
	return func(config command.HandlerConfig, handler any) error {
		r.registrations = append(r.registrations, cronRegistration{config: config, handler: handler})
		return nil
	}
}
