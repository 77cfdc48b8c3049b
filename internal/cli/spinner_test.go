package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerFrame(t *testing.T) {
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Analyzing inventory.yaml...")

	first := s.frame(0, 0)
	if !strings.Contains(first, "⠋") || !strings.Contains(first, "Analyzing inventory.yaml...") {
		t.Errorf("frame(0) = %q", first)
	}
	if strings.Contains(first, "(") {
		t.Errorf("short runs should not show elapsed time: %q", first)
	}

	if got := s.frame(len(spinnerFrames), 0); !strings.Contains(got, "⠋") {
		t.Errorf("frames should wrap around, got %q", got)
	}
	if got := s.frame(3, 2500*time.Millisecond); !strings.Contains(got, "(2s)") {
		t.Errorf("frame after 2.5s = %q, want elapsed (2s)", got)
	}
}

func TestSpinnerSilentWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Rendering graph...")
	if s.animate {
		t.Fatal("a buffer is not a terminal")
	}
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("non-terminal output should stay empty, got %q", buf.String())
	}
}

func TestSpinnerAnimatesAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Analyzing...")
	s.animate = true
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Analyzing...") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("Stop should clear the line, output ends with %q", out[max(0, len(out)-8):])
	}
}

func TestSpinnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &bytes.Buffer{}, "Analyzing...")
	s.animate = true
	s.Start()

	if s.Cancelled() {
		t.Fatal("spinner should not start cancelled")
	}
	cancel()
	if !s.Cancelled() {
		t.Error("spinner should report cancellation of its parent context")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Analyzing...")
	s.animate = true
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithError("Analysis failed")
}
