package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := map[string]Level{
		"debug":   Debug,
		"INFO":    Info,
		"":        Notice,
		" warn ":  Warning,
		"warning": Warning,
		"error":   Error,
	}

	for name, exp := range specs {
		level, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("unexpected error parsing %q: %v", name, err)
		}
		if level != exp {
			t.Fatalf("expected %q to parse as %d; got %d", name, exp, level)
		}
	}

	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetSink(&buf)
	defer func() {
		SetLevel(Notice)
		SetSink(os.Stdout)
	}()

	logger := New("log test")

	SetLevel(Warning)
	logger.Info("hidden message")
	logger.Warning("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Fatalf("expected info message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "[log test]") {
		t.Fatalf("expected warning message tagged with the module name; got %q", out)
	}

	// Switching sinks keeps the active level
	buf.Reset()
	SetSink(&buf)
	logger.Info("still hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected level to survive a sink change; got %q", buf.String())
	}
}
