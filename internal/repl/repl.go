// Package repl is the interactive surface: a command loop gated by the
// flow controller's current step.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/maribel/hairstudio/internal/cost"
	"github.com/maribel/hairstudio/internal/display"
	"github.com/maribel/hairstudio/internal/flow"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/internal/styles"
	"github.com/maribel/hairstudio/pkg/models"
)

type REPL struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	scanner   *bufio.Scanner
	flow      *flow.Controller
	stylist   provider.Stylist
	catalog   *styles.Catalog
	displayer *display.Displayer
	saver     *image.Saver
	tracker   *cost.Tracker
	strictURL bool
	commands  map[string]Command
	running   bool

	// suggestions from the last suggest call, selectable by number
	suggestions []models.StyleOption
	// styleText is the pending style selection for generate
	styleText string

	banner  *color.Color
	errText *color.Color
}

type Config struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Flow      *flow.Controller
	Stylist   provider.Stylist
	Catalog   *styles.Catalog
	Displayer *display.Displayer
	Saver     *image.Saver
	Tracker   *cost.Tracker
	StrictURL bool
}

func New(cfg *Config) *REPL {
	r := &REPL{
		in:        cfg.In,
		out:       cfg.Out,
		errOut:    cfg.Err,
		flow:      cfg.Flow,
		stylist:   cfg.Stylist,
		catalog:   cfg.Catalog,
		displayer: cfg.Displayer,
		saver:     cfg.Saver,
		tracker:   cfg.Tracker,
		strictURL: cfg.StrictURL,
		commands:  make(map[string]Command),
		banner:    color.New(color.FgCyan, color.Bold),
		errText:   color.New(color.FgRed),
	}
	r.registerCommands()
	return r
}

func (r *REPL) Run(ctx context.Context) error {
	r.running = true
	r.scanner = bufio.NewScanner(r.in)
	r.printWelcome()

	for r.running {
		r.printPrompt()
		if !r.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		if err := r.execute(ctx, line); err != nil {
			r.errText.Fprintf(r.errOut, "Error: %v\n", err)
		}
	}

	return r.scanner.Err()
}

func (r *REPL) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := r.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, r, args)
}

func (r *REPL) Stop() {
	r.running = false
}

func (r *REPL) printWelcome() {
	r.banner.Fprintln(r.out, "hairstudio interactive mode")
	fmt.Fprintln(r.out, "Upload photos, pick a style, generate your new look.")
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(r.out)
}

func (r *REPL) printPrompt() {
	step := r.flow.Step()
	if r.flow.Refining() {
		fmt.Fprintf(r.out, "hairstudio [%s:refining]> ", step)
		return
	}
	fmt.Fprintf(r.out, "hairstudio [%s]> ", step)
}

// confirm asks a yes/no question on the REPL's own input stream.
func (r *REPL) confirm(question string) bool {
	fmt.Fprintf(r.out, "%s [y/N]: ", question)
	if r.scanner == nil || !r.scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(r.scanner.Text()))
	return answer == "y" || answer == "yes"
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
