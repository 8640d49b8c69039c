package zaploggeradapter

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", "console"); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New("info", "xml"); err == nil {
		t.Error("Expected error for invalid format")
	}
}

func TestNew_Success(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		l, err := New("debug", format)
		if err != nil {
			t.Fatalf("Expected no error for format %q, got: %v", format, err)
		}
		if l == nil {
			t.Fatalf("Expected logger for format %q", format)
		}
	}
}

func TestZapLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Wrap(zap.New(core))

	l.With("invocation", "abc").Info("process started", "pid", 42)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["invocation"] != "abc" {
		t.Errorf("Expected invocation field, got %v", fields)
	}
	if fields["pid"] != int64(42) {
		t.Errorf("Expected pid 42, got %v", fields["pid"])
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("Expected non-nil logger")
	}

	l := NewNop()
	if OrNop(l) != l {
		t.Error("Expected the same logger to be returned")
	}
}
