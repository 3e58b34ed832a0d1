package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maribel/hairstudio/internal/image"
)

func TestShow(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	inline := image.Encode("image/png", []byte{0x89, 0x50, 0x4E, 0x47})
	if err := d.Show(inline); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, escapeStart) {
		t.Errorf("output missing graphics escape prefix: %q", out)
	}
	if !strings.Contains(out, "a=T,f=100") {
		t.Errorf("output missing transmit params: %q", out)
	}
}

func TestShowRejectsReference(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	if err := d.Show("some-blob-id"); err == nil {
		t.Error("Show() with non-inline payload should return error")
	}
}

func TestIsTerminalSupported(t *testing.T) {
	for _, env := range []string{"TERM_PROGRAM", "KITTY_WINDOW_ID", "ITERM_SESSION_ID", "TERM"} {
		t.Setenv(env, "")
	}
	if IsTerminalSupported() {
		t.Error("IsTerminalSupported() = true with no graphics terminal env")
	}

	t.Setenv("TERM_PROGRAM", "kitty")
	if !IsTerminalSupported() {
		t.Error("IsTerminalSupported() = false with TERM_PROGRAM=kitty")
	}
}
