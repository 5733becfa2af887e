package domain

import (
	"errors"
	"testing"
)

func TestNotFoundErrorUnwrapsToSentinel(t *testing.T) {
	err := NewNotFound("post", "abc")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Resource != "post" {
		t.Fatalf("expected typed not found error, got %#v", err)
	}
	if got := err.Error(); got != `post "abc" not found` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationErrorAccumulates(t *testing.T) {
	verr := &ValidationError{}
	if verr.OrNil() != nil {
		t.Fatal("expected empty validation error to be nil")
	}
	verr.Add("name", "taken").Add("name", "too short").Add("title", "required")
	err := verr.OrNil()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(verr.Fields["name"]) != 2 {
		t.Fatalf("expected two messages for name, got %v", verr.Fields["name"])
	}
	want := "polyglot: validation failed: name: taken; too short, title: required"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestNextState(t *testing.T) {
	cases := []struct {
		current   State
		remaining int
		want      State
	}{
		{StateActive, 2, StateActive},
		{StateActive, 0, StateSoftDeleted},
		{StateSoftDeleted, 3, StateSoftDeleted},
	}
	for _, tc := range cases {
		if got := NextState(tc.current, tc.remaining); got != tc.want {
			t.Fatalf("NextState(%s, %d) = %s, want %s", tc.current, tc.remaining, got, tc.want)
		}
	}
}
