package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-delivery/internal/source"
	goerrors "github.com/goliatone/go-errors"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

// errorRule maps errors matching match onto a status and error code. Rules
// are tried in order.
type errorRule struct {
	match  func(error) bool
	status int
	code   string
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

var errorRules = []errorRule{
	{func(err error) bool { return goerrors.IsCategory(err, goerrors.CategoryValidation) }, http.StatusBadRequest, "validation_failed"},
	{is(source.ErrMissingCredentials), http.StatusServiceUnavailable, "missing_credentials"},
	{is(context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
	{is(ErrCacheDisabled), http.StatusConflict, "cache_disabled"},
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.status, errorResponse{Error: rule.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}
