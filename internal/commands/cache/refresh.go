package cachecmd

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
)

var ErrCronExpressionRequired = errors.New("cachecmd: cron expression is required")

// RefreshJob drops the whole cache on a cron schedule.
type RefreshJob struct {
	handler *InvalidateCacheHandler
	config  command.HandlerConfig
}

// NewRefreshJob schedules handler with expression, for example "@every 10m".
func NewRefreshJob(handler *InvalidateCacheHandler, expression string) (*RefreshJob, error) {
	if handler == nil {
		return nil, ErrInvalidatorRequired
	}
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrCronExpressionRequired
	}
	return &RefreshJob{
		handler: handler,
		config:  command.HandlerConfig{Expression: expression},
	}, nil
}

// CronHandler binds a full invalidation to the cron runner.
func (j *RefreshJob) CronHandler() func() error {
	return func() error {
		return j.handler.Execute(context.Background(), InvalidateCacheCommand{All: true})
	}
}

// CronOptions returns the schedule metadata.
func (j *RefreshJob) CronOptions() command.HandlerConfig {
	return j.config
}
