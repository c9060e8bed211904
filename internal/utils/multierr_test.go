package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestMultiError(t *testing.T) {
	sentinel := errors.New("disk full")

	m := &MultiError{}
	if m.Err() != nil {
		t.Fatal("an empty MultiError must report nil")
	}

	m.Add(nil)
	m.Add(fmt.Errorf("first: %w", sentinel))
	m.Add(errors.New("second"))

	err := m.Err()
	if err == nil {
		t.Fatal("expected a collected error, got nil")
	}
	if len(m.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %d", len(m.Errors))
	}
	if got := err.Error(); got != "first: disk full; second" {
		t.Errorf("unexpected joined message: %q", got)
	}
	if !errors.Is(err, sentinel) {
		t.Error("collected errors must stay visible to errors.Is")
	}
}
