// Package validation checks block prop values against JSON schema
// constraints declared in block schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrConstraintInvalid = errors.New("validation: constraint is not a valid json schema")
	ErrValueRejected     = errors.New("validation: value rejected by constraint")
)

// Issue is one constraint failure at an instance location such as "#" or
// "#/0".
type Issue struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// RejectedError lists the issues that made a value fail its constraint.
type RejectedError struct {
	Issues []Issue
}

func (e *RejectedError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValueRejected.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Message == "" {
			parts = append(parts, issue.Location)
			continue
		}
		parts = append(parts, issue.Location+": "+issue.Message)
	}
	return ErrValueRejected.Error() + ": " + strings.Join(parts, "; ")
}

func (e *RejectedError) Unwrap() error {
	return ErrValueRejected
}

// Constraint is a compiled JSON schema for a single prop value. A nil
// Constraint accepts everything.
type Constraint struct {
	compiled *jsonschema.Schema
}

// Compile builds a constraint from a JSON schema document. An empty schema
// yields a nil constraint.
func Compile(schema map[string]any) (*Constraint, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstraintInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("prop.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstraintInvalid, err)
	}
	compiled, err := compiler.Compile("prop.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstraintInvalid, err)
	}
	return &Constraint{compiled: compiled}, nil
}

// CheckJSON validates the JSON encoding of value, so typed prop values are
// checked the way an editor would have submitted them.
func (c *Constraint) CheckJSON(value any) error {
	if c == nil || c.compiled == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValueRejected, err)
	}
	var native any
	if err := json.Unmarshal(encoded, &native); err != nil {
		return fmt.Errorf("%w: %v", ErrValueRejected, err)
	}
	if err := c.compiled.Validate(native); err != nil {
		return &RejectedError{Issues: issues(err)}
	}
	return nil
}

func issues(err error) []Issue {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Issue{{Location: "#", Message: err.Error()}}
	}
	var out []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			out = append(out, Issue{
				Location: "#" + strings.TrimPrefix(strings.TrimSpace(node.InstanceLocation), "#"),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return out
}
