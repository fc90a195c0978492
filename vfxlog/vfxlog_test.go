package vfxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestNopHandlerEnabled(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("nopHandler.Enabled(%v) = true, want false", level)
		}
	}
}

func TestNopHandlerHandle(t *testing.T) {
	h := nopHandler{}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("nopHandler.Handle() = %v, want nil", err)
	}
}

func TestGetDefaultsToSilentLogger(t *testing.T) {
	Set(nil)
	l := Get()
	if l == nil {
		t.Fatal("Get() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger must be silent even for Error level")
	}
}

func TestSetSwapsLoggerAtomically(t *testing.T) {
	defer Set(nil)

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))
	Set(custom)

	if Get() != custom {
		t.Fatal("Get() did not return the logger passed to Set()")
	}
	Get().Info("hello")
	if buf.Len() == 0 {
		t.Error("expected the custom handler to receive the log record")
	}
}

func TestSetNilRestoresSilentDefault(t *testing.T) {
	var buf bytes.Buffer
	Set(slog.New(slog.NewTextHandler(&buf, nil)))
	Set(nil)

	Get().Error("should not appear")
	if buf.Len() != 0 {
		t.Error("Set(nil) should restore the silent nop logger")
	}
}
