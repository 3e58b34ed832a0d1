// Package lookbook tries a list of hairstyles on the same subject and
// collects the generated looks.
package lookbook

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/maribel/hairstudio/internal/history"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/pkg/models"
)

// Result is the outcome of one lookbook item.
type Result struct {
	Index    int
	Style    string
	Title    string
	Path     string
	Error    error
	Duration time.Duration
}

type Options struct {
	OutputDir   string
	Parallel    int
	StopOnError bool
	DelayMs     int
	// PerImageUSD feeds the summary's spend line.
	PerImageUSD float64
	// Record, when set, appends each successful look to history.
	Record func(ctx context.Context, res history.Result) error
}

type Runner struct {
	stylist provider.Stylist
	saver   *image.Saver
	photos  models.SubjectPhotos
	out     io.Writer
	errOut  io.Writer
	outMu   sync.Mutex
}

func NewRunner(stylist provider.Stylist, saver *image.Saver, photos models.SubjectPhotos, out, errOut io.Writer) *Runner {
	return &Runner{
		stylist: stylist,
		saver:   saver,
		photos:  photos,
		out:     out,
		errOut:  errOut,
	}
}

func (r *Runner) printf(format string, args ...interface{}) {
	r.outMu.Lock()
	fmt.Fprintf(r.out, format, args...)
	r.outMu.Unlock()
}

func (r *Runner) errorf(format string, args ...interface{}) {
	r.outMu.Lock()
	fmt.Fprintf(r.errOut, format, args...)
	r.outMu.Unlock()
}

func (r *Runner) Run(ctx context.Context, items []Item, opts *Options) ([]Result, error) {
	if opts.Parallel <= 1 {
		return r.runSequential(ctx, items, opts)
	}
	return r.runParallel(ctx, items, opts)
}

func (r *Runner) runSequential(ctx context.Context, items []Item, opts *Options) ([]Result, error) {
	results := make([]Result, len(items))
	total := len(items)

	for i, item := range items {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		result := r.runItem(ctx, item, opts, i+1, total)
		results[i] = result

		if result.Error != nil && opts.StopOnError {
			return results, fmt.Errorf("stopped at item %d: %w", i+1, result.Error)
		}

		if opts.DelayMs > 0 && i < len(items)-1 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(time.Duration(opts.DelayMs) * time.Millisecond):
			}
		}
	}

	return results, nil
}

func (r *Runner) runParallel(ctx context.Context, items []Item, opts *Options) ([]Result, error) {
	results := make([]Result, len(items))
	total := len(items)

	type job struct {
		index int
		item  Item
	}

	jobs := make(chan job, len(items))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	workers := opts.Parallel
	if workers > len(items) {
		workers = len(items)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				result := r.runItem(ctx, j.item, opts, j.index+1, total)

				mu.Lock()
				results[j.index] = result
				if result.Error != nil && opts.StopOnError && firstErr == nil {
					firstErr = result.Error
				}
				mu.Unlock()

				if opts.StopOnError && firstErr != nil {
					return
				}
			}
		}()
	}

	for i, item := range items {
		if opts.StopOnError && firstErr != nil {
			break
		}
		jobs <- job{index: i, item: item}
	}
	close(jobs)

	wg.Wait()

	if firstErr != nil {
		return results, fmt.Errorf("lookbook stopped due to error: %w", firstErr)
	}

	return results, nil
}

func (r *Runner) runItem(ctx context.Context, item Item, opts *Options, current, total int) Result {
	start := time.Now()
	result := Result{
		Index: item.Index,
		Style: item.Style,
	}

	r.printf("[%d/%d] Styling: %q...\n", current, total, truncate(item.Style, 50))

	req := &models.GenerateRequest{
		Photos:           r.photos,
		StyleDescription: item.Style,
	}
	inline, err := r.stylist.GenerateStyle(ctx, req, nil)
	if err != nil {
		result.Error = fmt.Errorf("generation failed: %w", err)
		result.Duration = time.Since(start)
		r.errorf("       Error: %v\n", result.Error)
		return result
	}

	title := item.Label
	if title == "" {
		title = r.stylist.DeriveTitle(ctx, item.Style)
	}
	result.Title = title

	// Saver appends the right extension for the payload's media type.
	filename := fmt.Sprintf("%03d-%s", item.Index, sanitizeStyle(title))
	outputPath := filepath.Join(opts.OutputDir, filename)

	saved, err := r.saver.Save(inline, outputPath)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		r.errorf("       Error: %v\n", result.Error)
		return result
	}
	result.Path = saved

	if opts.Record != nil {
		res := history.NewResult(inline, item.Style, title)
		if err := opts.Record(ctx, res); err != nil {
			r.errorf("       Warning: not recorded to history: %v\n", err)
		}
	}

	result.Duration = time.Since(start)
	r.printf("       Saved: %s\n", result.Path)
	return result
}

var nonFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

func sanitizeStyle(style string) string {
	sanitized := nonFilenameChars.ReplaceAllString(style, "")
	sanitized = strings.ToLower(sanitized)
	sanitized = strings.Join(strings.Fields(sanitized), "-")
	sanitized = strings.TrimLeft(sanitized, "-")

	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	sanitized = strings.TrimSuffix(sanitized, "-")

	if sanitized == "" {
		sanitized = "look"
	}
	return sanitized
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// PrintSummary writes the per-run totals after all items finish.
func (r *Runner) PrintSummary(results []Result, perImageUSD float64) {
	var successful, failed int
	var errors []Result

	for _, res := range results {
		if res.Error != nil {
			failed++
			errors = append(errors, res)
		} else {
			successful++
		}
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Summary:")
	fmt.Fprintf(r.out, "  Successful: %d/%d looks\n", successful, len(results))
	if failed > 0 {
		fmt.Fprintf(r.out, "  Failed: %d (see errors below)\n", failed)
	}
	if perImageUSD > 0 {
		fmt.Fprintf(r.out, "  Estimated cost: $%.4f\n", perImageUSD*float64(successful))
	}

	if len(errors) > 0 {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, "Errors:")
		for _, e := range errors {
			fmt.Fprintf(r.out, "  [%d] %q: %v\n", e.Index, truncate(e.Style, 40), e.Error)
		}
	}
}
