package logger

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

func TestTraceIDContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("TraceIDFromContext() = %q, want 空", got)
	}

	id := NewTraceID()
	if _, err := ulid.Parse(id); err != nil {
		t.Fatalf("NewTraceID() = %q 不是合法 ULID: %v", id, err)
	}

	ctx := WithTraceIDContext(context.Background(), id)
	if got := TraceIDFromContext(ctx); got != id {
		t.Errorf("TraceIDFromContext() = %q, want %q", got, id)
	}
}

func TestNewTraceIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTraceID()
		if seen[id] {
			t.Fatalf("NewTraceID() 重复: %s", id)
		}
		seen[id] = true
	}
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		SetLevel(tt.level)
		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("SetLevel(%q) => %v, want %v", tt.level, got, tt.want)
		}
	}
}
