package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	_ = level.Info(logger).Log("msg", "hidden")
	_ = level.Warn(logger).Log("msg", "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line was not filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "level=warn") {
		t.Fatalf("expected warn line, got: %s", out)
	}
	if !strings.Contains(out, "ts=") || !strings.Contains(out, "caller=") {
		t.Fatalf("expected ts and caller keys, got: %s", out)
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "loud")

	_ = level.Debug(logger).Log("msg", "debug line")
	_ = level.Info(logger).Log("msg", "info line")

	out := buf.String()
	if strings.Contains(out, "debug line") || !strings.Contains(out, "info line") {
		t.Fatalf("unexpected output: %s", out)
	}
}
