// Package display renders generated looks inline in terminals that
// implement the kitty graphics protocol.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maribel/hairstudio/internal/image"
)

type Displayer struct {
	out io.Writer
}

func New(out io.Writer) *Displayer {
	return &Displayer{out: out}
}

// Show decodes an inline payload and draws it in the terminal.
func (d *Displayer) Show(inline string) error {
	_, data, err := image.Decode(inline)
	if err != nil {
		return err
	}

	enc := NewKittyEncoder(d.out)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(d.out)
	return nil
}

// IsTerminalSupported reports whether the current terminal can draw
// kitty graphics.
func IsTerminalSupported() bool {
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	supportedPrograms := []string{"kitty", "ghostty", "iterm.app", "wezterm"}

	for _, prog := range supportedPrograms {
		if termProgram == prog {
			return true
		}
	}

	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}

	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}

	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}
