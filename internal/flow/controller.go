// Package flow owns the application state machine: photo upload, style
// selection, generation and the result history.
package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maribel/hairstudio/internal/history"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/pkg/models"
)

// Step is the screen the user is on.
type Step int

const (
	StepUpload Step = iota
	StepStyle
	StepGenerating
	StepResult
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepStyle:
		return "style"
	case StepGenerating:
		return "generating"
	case StepResult:
		return "result"
	default:
		return "unknown"
	}
}

const defaultTimeout = 5 * time.Minute

// Controller drives the step state machine. All state mutations go
// through its methods and are serialized by the mutex; persistence runs
// under the same guard so writes land in mutation order.
type Controller struct {
	mu sync.Mutex

	stylist    provider.Stylist
	reconciler *history.Reconciler
	warnf      func(format string, args ...any)
	timeout    time.Duration

	step     Step
	refining bool

	photos      models.SubjectPhotos
	styleRef    string // inline data URL
	styleRefURL string

	results []history.Result // newest first
	current *history.Result
}

type Options struct {
	// Timeout bounds one generate or refine call. Zero means the
	// 5 minute default.
	Timeout time.Duration
	// Warnf receives non-fatal persistence warnings.
	Warnf func(format string, args ...any)
}

func NewController(stylist provider.Stylist, rec *history.Reconciler, opts *Options) *Controller {
	c := &Controller{
		stylist:    stylist,
		reconciler: rec,
		warnf:      func(string, ...any) {},
		timeout:    defaultTimeout,
		step:       StepUpload,
	}
	if opts != nil {
		if opts.Timeout > 0 {
			c.timeout = opts.Timeout
		}
		if opts.Warnf != nil {
			c.warnf = opts.Warnf
		}
	}
	return c
}

// Hydrate loads persisted history. The newest item becomes current but
// the step stays at Upload until photos are provided.
func (c *Controller) Hydrate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = c.reconciler.Hydrate(ctx)
	if len(c.results) > 0 {
		cur := c.results[0]
		c.current = &cur
	}
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Refining reports whether a refine call is in flight.
func (c *Controller) Refining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refining
}

func (c *Controller) Photos() models.SubjectPhotos {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.photos
}

// SetPhoto stores a subject photo in the named slot ("front", "side",
// "back"). Setting the front photo from Upload advances to Style.
func (c *Controller) SetPhoto(slot, inline string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == StepGenerating {
		return fmt.Errorf("cannot change photos while generating")
	}

	switch slot {
	case "front":
		c.photos.Front = inline
	case "side":
		c.photos.Side = inline
	case "back":
		c.photos.Back = inline
	default:
		return fmt.Errorf("unknown photo slot %q", slot)
	}

	if c.step == StepUpload && c.photos.HasFront() {
		c.step = StepStyle
	}
	return nil
}

// SetStyleReference attaches an optional reference image (inline data URL).
func (c *Controller) SetStyleReference(inline string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.styleRef = inline
}

// SetStyleReferenceURL attaches an optional inspiration link.
func (c *Controller) SetStyleReferenceURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.styleRefURL = url
}

// NavigateTo moves between steps by direct user action. Style needs a
// front photo, Result needs a current result, and Generating blocks all
// navigation.
func (c *Controller) NavigateTo(target Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == StepGenerating || c.refining {
		return fmt.Errorf("busy: wait for the current generation to finish")
	}

	switch target {
	case StepUpload:
		c.step = StepUpload
	case StepStyle:
		if !c.photos.HasFront() {
			return fmt.Errorf("upload a front photo first")
		}
		c.step = StepStyle
	case StepResult:
		if c.current == nil {
			return fmt.Errorf("no result to show yet")
		}
		c.step = StepResult
	default:
		return fmt.Errorf("cannot navigate to %s", target)
	}
	return nil
}

// Generate runs a full generation: the image call and the title call run
// concurrently and both are joined before the record is assembled. A
// missing front photo is a silent no-op. On failure the step reverts to
// Style with no history mutation.
func (c *Controller) Generate(ctx context.Context, styleDescription string, onThinking provider.ThinkingFunc) (*history.Result, error) {
	c.mu.Lock()
	if !c.photos.HasFront() {
		c.mu.Unlock()
		return nil, nil
	}
	if c.step == StepGenerating || c.refining {
		c.mu.Unlock()
		return nil, fmt.Errorf("a generation is already running")
	}
	req := &models.GenerateRequest{
		Photos:              c.photos,
		StyleDescription:    styleDescription,
		StyleReferenceImage: c.styleRef,
		StyleReferenceURL:   c.styleRefURL,
	}
	c.step = StepGenerating
	c.mu.Unlock()

	inline, title, err := c.callStylist(ctx, styleDescription, func(jctx context.Context) (string, error) {
		return c.stylist.GenerateStyle(jctx, req, onThinking)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.step = StepStyle
		return nil, err
	}
	res := c.commitResult(ctx, inline, styleDescription, title)
	c.step = StepResult
	return res, nil
}

// Refine edits the current result. The result screen stays active with
// the refining flag set; on failure nothing changes. A missing current
// result is a silent no-op.
func (c *Controller) Refine(ctx context.Context, instruction string, onThinking provider.ThinkingFunc) (*history.Result, error) {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil, nil
	}
	if c.step == StepGenerating || c.refining {
		c.mu.Unlock()
		return nil, fmt.Errorf("a generation is already running")
	}
	if !c.current.Payload.IsInline() {
		c.mu.Unlock()
		return nil, fmt.Errorf("current result's image is unavailable")
	}
	req := &models.RefineRequest{
		BaseImage:           c.current.Payload.Value,
		Instruction:         instruction,
		StyleReferenceImage: c.styleRef,
		StyleReferenceURL:   c.styleRefURL,
	}
	c.refining = true
	c.mu.Unlock()

	inline, title, err := c.callStylist(ctx, instruction, func(jctx context.Context) (string, error) {
		return c.stylist.RefineStyle(jctx, req, onThinking)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	c.refining = false
	if err != nil {
		return nil, err
	}
	res := c.commitResult(ctx, inline, instruction, title)
	c.step = StepResult
	return res, nil
}

// callStylist joins the image call and the title call. The image call
// decides success; the title call never fails (the client falls back).
func (c *Controller) callStylist(ctx context.Context, promptText string, imageCall func(context.Context) (string, error)) (inline, title string, err error) {
	jctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type imageReply struct {
		inline string
		err    error
	}
	imageCh := make(chan imageReply, 1)
	titleCh := make(chan string, 1)

	go func() {
		inline, err := imageCall(jctx)
		imageCh <- imageReply{inline: inline, err: err}
	}()
	go func() {
		titleCh <- c.stylist.DeriveTitle(jctx, promptText)
	}()

	reply := <-imageCh
	title = <-titleCh
	if reply.err != nil {
		return "", "", reply.err
	}
	return reply.inline, title, nil
}

// commitResult creates the record, saves the blob, prepends to history,
// promotes it to current and persists metadata. Persistence problems are
// warnings, not failures: the in-memory result is already live.
// Caller holds the mutex.
func (c *Controller) commitResult(ctx context.Context, inline, prompt, title string) *history.Result {
	res := history.NewResult(inline, prompt, title)

	if err := c.reconciler.SaveBlob(ctx, res); err != nil {
		c.warnf("Warning: image not saved to disk: %v", err)
	}

	c.results = append([]history.Result{res}, c.results...)
	c.current = &res

	if err := c.reconciler.Persist(ctx, c.results); err != nil {
		c.warnf("Warning: history not persisted: %v", err)
	}
	return &res
}

// Record adds an externally generated result (e.g. a lookbook run) to
// history. The first recorded result becomes current when none exists.
func (c *Controller) Record(ctx context.Context, res history.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.reconciler.SaveBlob(ctx, res); err != nil {
		return err
	}
	c.results = append([]history.Result{res}, c.results...)
	if c.current == nil {
		cur := res
		c.current = &cur
	}
	return c.reconciler.Persist(ctx, c.results)
}

// History returns a copy of the results, newest first.
func (c *Controller) History() []history.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]history.Result, len(c.results))
	copy(out, c.results)
	return out
}

// Current returns the current result, or nil.
func (c *Controller) Current() *history.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cur := *c.current
	return &cur
}

// SetCurrent promotes a history item to current and shows the result step.
func (c *Controller) SetCurrent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, res := range c.results {
		if res.ID == id {
			cur := res
			c.current = &cur
			c.step = StepResult
			return nil
		}
	}
	return fmt.Errorf("no history item %s", id)
}

// DeleteHistoryItem removes a record from both storage tiers and the
// in-memory list. Deleting the current item promotes the new head of
// history, or falls back to Upload when history is empty.
func (c *Controller) DeleteHistoryItem(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, res := range c.results {
		if res.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no history item %s", id)
	}

	c.results = append(c.results[:idx], c.results[idx+1:]...)

	if err := c.reconciler.RemoveBlob(ctx, id); err != nil {
		c.warnf("Warning: image not removed from disk: %v", err)
	}
	if err := c.reconciler.Persist(ctx, c.results); err != nil {
		c.warnf("Warning: history not persisted: %v", err)
	}

	if c.current != nil && c.current.ID == id {
		if len(c.results) > 0 {
			cur := c.results[0]
			c.current = &cur
		} else {
			c.current = nil
			c.step = StepUpload
		}
	}
	return nil
}

// ClearHistory wipes both storage tiers and resets to the initial state.
func (c *Controller) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.reconciler.Wipe(ctx); err != nil {
		return err
	}
	c.results = nil
	c.current = nil
	c.step = StepUpload
	return nil
}

// Restart returns to the upload step for a new subject. History is kept.
func (c *Controller) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.photos = models.SubjectPhotos{}
	c.styleRef = ""
	c.styleRefURL = ""
	c.step = StepUpload
}
