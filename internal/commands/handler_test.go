package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-delivery/internal/commands"
	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/logging/console"
	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "delivery.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "delivery.test.invalid" }

func (invalidMessage) Validate() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := commands.NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	var status commands.TelemetryStatus
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	},
		commands.WithTimeout[testMessage](10*time.Millisecond),
		commands.WithTelemetry(func(_ context.Context, _ testMessage, info commands.TelemetryInfo) {
			status = info.Status
		}),
	)

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
	if status != commands.TelemetryStatusContextError {
		t.Fatalf("expected context_error telemetry got %q", status)
	}
}

func TestHandlerTelemetryReceivesMessageFields(t *testing.T) {
	var info commands.TelemetryInfo
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return nil
	},
		commands.WithOperation[testMessage]("test.run"),
		commands.WithMessageFields(func(testMessage) map[string]any {
			return map[string]any{"slug": "about"}
		}),
		commands.WithTelemetry(func(_ context.Context, _ testMessage, got commands.TelemetryInfo) {
			info = got
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if info.Status != commands.TelemetryStatusSuccess || info.Command != "delivery.test.message" || info.Operation != "test.run" {
		t.Fatalf("unexpected telemetry %+v", info)
	}
	if info.Fields["slug"] != "about" {
		t.Fatalf("expected message fields in telemetry got %v", info.Fields)
	}
}

func TestDefaultTelemetryLogsWithRequestFields(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	h := commands.NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return errors.New("boom")
	},
		commands.WithLogger[testMessage](commands.CommandLogger(provider, "cache")),
		commands.WithTelemetry(commands.DefaultTelemetry[testMessage](nil)),
	)

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "r-9"})
	if err := h.Execute(ctx, testMessage{}); err == nil {
		t.Fatal("expected execution error")
	}

	var failed string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "command.execute.failed") {
			failed = line
		}
	}
	for _, want := range []string{"ERROR", "request_id=r-9", "status=failed", "command=delivery.test.message", "module=delivery.commands.cache"} {
		if !strings.Contains(failed, want) {
			t.Fatalf("expected %q in %q", want, failed)
		}
	}
}
