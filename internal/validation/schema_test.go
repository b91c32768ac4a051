package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-delivery/internal/validation"
)

func TestCompileEmptySchemaAcceptsEverything(t *testing.T) {
	constraint, err := validation.Compile(nil)
	if err != nil || constraint != nil {
		t.Fatalf("expected nil constraint, got %v %v", constraint, err)
	}
	if err := constraint.CheckJSON(map[string]any{"anything": true}); err != nil {
		t.Fatalf("nil constraint rejected value: %v", err)
	}
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	_, err := validation.Compile(map[string]any{"pattern": "("})
	if !errors.Is(err, validation.ErrConstraintInvalid) {
		t.Fatalf("expected ErrConstraintInvalid, got %v", err)
	}
}

func TestCheckJSONReportsIssues(t *testing.T) {
	constraint, err := validation.Compile(map[string]any{"type": "integer", "minimum": 1, "maximum": 6})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := constraint.CheckJSON(3); err != nil {
		t.Fatalf("expected 3 to pass, got %v", err)
	}

	err = constraint.CheckJSON(9)
	if !errors.Is(err, validation.ErrValueRejected) {
		t.Fatalf("expected ErrValueRejected, got %v", err)
	}
	var rejected *validation.RejectedError
	if !errors.As(err, &rejected) || len(rejected.Issues) == 0 {
		t.Fatalf("expected issues, got %#v", err)
	}
	if rejected.Issues[0].Location != "#" || !strings.Contains(err.Error(), "#:") {
		t.Fatalf("unexpected issue rendering %q", err.Error())
	}
}

func TestCheckJSONUsesEncodedForm(t *testing.T) {
	constraint, err := validation.Compile(map[string]any{"enum": []any{"primary", "ghost"}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	type variant string
	if err := constraint.CheckJSON(variant("ghost")); err != nil {
		t.Fatalf("expected named string type to pass, got %v", err)
	}
	if err := constraint.CheckJSON(variant("loud")); err == nil {
		t.Fatal("expected unknown variant to fail")
	}
}
