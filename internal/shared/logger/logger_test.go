package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("agora-api", "local", "")
	if err != nil {
		t.Fatal(err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("local env should log at debug")
	}

	l, err = New("agora-api", "prod", "warn")
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("warn level should drop info")
	}

	if _, err := New("agora-api", "prod", "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
