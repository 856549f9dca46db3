package gpurt

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestDiscardHandler(t *testing.T) {
	h := discardHandler{}
	if h.Enabled(context.Background(), slog.LevelError) {
		t.Error("discardHandler must be disabled at every level")
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v", err)
	}
	if _, ok := h.WithGroup("g").WithAttrs(nil).(discardHandler); !ok {
		t.Error("derived handlers must stay discardHandler")
	}
}

func TestDefaultLoggerSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

// captureLogs routes gpurt logging into a buffer for the test's duration.
func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestDeviceLifecycleLogging(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	dev, err := NewDevice(WithBackend(BackendNoop))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.CreateBuffer(Float32, 4); err != nil {
		t.Fatal(err)
	}
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		`msg="gpurt: device opened"`, "backend=noop",
		`msg="gpurt: buffer allocated"`, "len=4",
		`msg="gpurt: device closed"`, "released=1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoLevelHidesBufferDetails(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)

	dev := newNoopDevice(t)
	if _, err := dev.CreateScalarBuffer(Uint32, 1); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "buffer allocated") {
		t.Errorf("debug record logged at info level:\n%s", buf.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("gpurt: dispatch", "grid", 1)
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
