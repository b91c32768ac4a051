package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to command errors.
const (
	CodeValidationFailed = "DELIVERY_COMMAND_INVALID"
	CodeCanceled         = "DELIVERY_COMMAND_CANCELED"
	CodeTimeout          = "DELIVERY_COMMAND_TIMEOUT"
	CodeContextError     = "DELIVERY_COMMAND_CONTEXT"
	CodeExecutionFailed  = "DELIVERY_COMMAND_FAILED"
)

// wrapAs leaves errors that already carry a go-errors category untouched.
func wrapAs(err error, wrap func(error) error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return wrap(err)
}

func wrapValidationError(err error) error {
	return wrapAs(err, func(err error) error {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command").WithTextCode(CodeValidationFailed)
	})
}

func wrapContextError(err error) error {
	return wrapAs(err, func(err error) error {
		switch {
		case errors.Is(err, context.Canceled):
			return goerrors.Wrap(err, goerrors.CategoryCommand, "command cancelled").WithTextCode(CodeCanceled)
		case errors.Is(err, context.DeadlineExceeded):
			return goerrors.Wrap(err, goerrors.CategoryCommand, "command deadline exceeded").WithTextCode(CodeTimeout)
		default:
			return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").WithTextCode(CodeContextError)
		}
	})
}

func wrapExecuteError(err error) error {
	return wrapAs(err, func(err error) error {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command failed").WithTextCode(CodeExecutionFailed)
	})
}
