package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-delivery/pkg/interfaces"
)

const (
	rootModule      = "delivery"
	assemblerModule = "delivery.assembler"
	sourceModule    = "delivery.source"
	localeModule    = "delivery.locale"
	httpModule      = "delivery.http"
	commandsModule  = "delivery.commands"
)

const (
	fieldLocale = "locale"
	fieldSlug   = "slug"
	fieldPart   = "part"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// AssemblerLogger returns the logger namespace reserved for page assembly.
func AssemblerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, assemblerModule)
}

// SourceLogger returns the logger namespace reserved for content sources.
func SourceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, sourceModule)
}

// LocaleLogger returns the logger namespace reserved for locale routing.
func LocaleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, localeModule)
}

// HTTPLogger returns the logger namespace reserved for the delivery server.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// CommandsLogger returns the logger for command module name, nested under
// delivery.commands.
func CommandsLogger(provider interfaces.LoggerProvider, name string) interfaces.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+name)
}

// WithPageContext enriches logger with the locale, slug, and part of the page
// being handled. Empty values are ignored.
func WithPageContext(logger interfaces.Logger, locale, slug, part string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	if trimmed := strings.TrimSpace(slug); trimmed != "" {
		fields[fieldSlug] = trimmed
	}
	if trimmed := strings.TrimSpace(part); trimmed != "" {
		fields[fieldPart] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
