package zaplogger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/pkg/interfaces"
)

// Config captures the options exposed by the zap adapter.
type Config struct {
	// Mode selects the zap preset: "production" (JSON) or "development".
	Mode  string
	Level string
}

// Provider hands out sugared zap loggers named after the requested module.
type Provider struct {
	root *zap.SugaredLogger
}

// NewProvider builds a zap logger from cfg.
func NewProvider(cfg Config) (*Provider, error) {
	var zcfg zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "prod", "production":
		zcfg = zap.NewProductionConfig()
	case "dev", "development":
		zcfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: unsupported zap mode %q", cfg.Mode)
	}
	if level := strings.TrimSpace(cfg.Level); level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	built, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return &Provider{root: built.Sugar()}, nil
}

// FromLogger wraps an existing zap logger.
func FromLogger(logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{root: logger.Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	if p == nil || p.root == nil {
		return nil
	}
	return p.root.Sync()
}

// GetLogger satisfies interfaces.LoggerProvider.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	inner := p.root
	if name = strings.TrimSpace(name); name != "" {
		inner = inner.Named(name)
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner *zap.SugaredLogger
	ctx   context.Context
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

// Trace has no zap equivalent and is logged at debug.
func (l *adapter) Trace(msg string, args ...any) { l.inner.Debugw(msg, l.kvs(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debugw(msg, l.kvs(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Infow(msg, l.kvs(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warnw(msg, l.kvs(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Errorw(msg, l.kvs(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatalw(msg, l.kvs(args)...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return &adapter{inner: l.inner.With(logging.Redact(args)...), ctx: l.ctx}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return &adapter{inner: l.inner, ctx: ctx}
}

// kvs merges context fields ahead of the call arguments.
func (l *adapter) kvs(args []any) []any {
	ctxFields := logging.ContextFields(l.ctx)
	if len(ctxFields) == 0 {
		return logging.Redact(args)
	}
	keys := make([]string, 0, len(ctxFields))
	for key := range ctxFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2+len(args))
	for _, key := range keys {
		out = append(out, key, ctxFields[key])
	}
	return logging.Redact(append(out, args...))
}
