package lumen

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerDefaultIsSilent(t *testing.T) {
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLoggerReceivesTransportWarning(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	tr := NewTransport(TransportConfig{})
	tr.Play()
	tr.Seek(9)
	tr.Tick(0, snapsWithRotation(0, 1))

	if !strings.Contains(buf.String(), "transport index out of range") {
		t.Errorf("log output = %q", buf.String())
	}
}
