package xscene

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// capture installs a debug text logger for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestLoggerSilentByDefault(t *testing.T) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for _, l := range levels {
		if Logger().Enabled(context.Background(), l) {
			t.Errorf("default logger enabled at %v", l)
		}
	}

	// Derived loggers stay silent.
	derived := Logger().With("file", "scene.xml").WithGroup("interp")
	if derived.Enabled(context.Background(), slog.LevelError) {
		t.Error("derived logger is enabled")
	}
	if err := (discard{}).Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle = %v", err)
	}
}

func TestSetLogger(t *testing.T) {
	buf := capture(t)
	Logger().Info("scene loaded", "file", "solar.xml", "models", 3)

	out := buf.String()
	for _, want := range []string{"scene loaded", "file=solar.xml", "models=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q lacks %q", out, want)
		}
	}

	SetLogger(nil)
	if Logger() != silent {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestLoggerSwapWhileLogging(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("scene changed", "file", "scene.xml")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkSilentDebug(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		Logger().Debug("loading model", "path", "cube.3d")
	}
}
