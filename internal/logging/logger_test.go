package logging

import (
	"context"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	if logger := NewLogger(true); logger == nil {
		t.Fatal("logger cannot be nil")
	}
	if logger := NewLogger(false); logger == nil {
		t.Fatal("logger cannot be nil")
	}
}

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	logger1 := DefaultLogger()
	logger2 := DefaultLogger()
	if logger1 == nil || logger2 == nil {
		t.Fatal("logger cannot be nil")
	}
	if logger1 != logger2 {
		t.Errorf("expected %#v got %#v", logger1, logger2)
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if FromContext(ctx) != DefaultLogger() {
		t.Fatal("expected default logger for empty context")
	}

	logger := NewLogger(false).Named("room")
	ctx = WithLogger(ctx, logger)
	if got := FromContext(ctx); got != logger {
		t.Errorf("expected %#v got %#v", logger, got)
	}
}
