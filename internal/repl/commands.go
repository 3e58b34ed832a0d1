package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/maribel/hairstudio/internal/display"
	"github.com/maribel/hairstudio/internal/flow"
	"github.com/maribel/hairstudio/internal/history"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/keys"
	"github.com/maribel/hairstudio/internal/lookbook"
	"github.com/maribel/hairstudio/internal/security"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, r *REPL, args []string) error
}

func allCommands() []Command {
	return []Command{
		&UploadCommand{},
		&SideCommand{},
		&BackCommand{},
		&StylesCommand{},
		&StyleCommand{},
		&RefCommand{},
		&RefURLCommand{},
		&AnalyzeCommand{},
		&SuggestCommand{},
		&GenerateCommand{},
		&RefineCommand{},
		&HistoryCommand{},
		&ShowCommand{},
		&CurrentCommand{},
		&DeleteCommand{},
		&ClearCommand{},
		&SaveCommand{},
		&LookbookCommand{},
		&GotoCommand{},
		&RestartCommand{},
		&KeysCommand{},
		&CostCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}
}

func (r *REPL) registerCommands() {
	for _, cmd := range allCommands() {
		r.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			r.commands[alias] = cmd
		}
	}
}

// loadPhoto reads and validates an image file into an inline payload.
func loadPhoto(path string) (string, error) {
	inline, err := image.LoadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load photo: %w", err)
	}
	return inline, nil
}

// UploadCommand sets the front subject photo.
type UploadCommand struct{}

func (c *UploadCommand) Name() string        { return "upload" }
func (c *UploadCommand) Aliases() []string   { return []string{"front", "u"} }
func (c *UploadCommand) Description() string { return "Upload the front-facing subject photo" }
func (c *UploadCommand) Usage() string       { return "upload <file>" }

func (c *UploadCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	inline, err := loadPhoto(args[0])
	if err != nil {
		return err
	}
	if err := r.flow.SetPhoto("front", inline); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Front photo set.")
	if r.flow.Step() == flow.StepStyle {
		fmt.Fprintln(r.out, "Pick a style: 'styles' to browse, 'suggest' for ideas, or 'style <text>'.")
	}
	return nil
}

// SideCommand sets the optional side-profile photo.
type SideCommand struct{}

func (c *SideCommand) Name() string        { return "side" }
func (c *SideCommand) Aliases() []string   { return nil }
func (c *SideCommand) Description() string { return "Upload the optional side-profile photo" }
func (c *SideCommand) Usage() string       { return "side <file>" }

func (c *SideCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	inline, err := loadPhoto(args[0])
	if err != nil {
		return err
	}
	if err := r.flow.SetPhoto("side", inline); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Side photo set.")
	return nil
}

// BackCommand sets the optional back-view photo.
type BackCommand struct{}

func (c *BackCommand) Name() string        { return "back" }
func (c *BackCommand) Aliases() []string   { return nil }
func (c *BackCommand) Description() string { return "Upload the optional back-view photo" }
func (c *BackCommand) Usage() string       { return "back <file>" }

func (c *BackCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	inline, err := loadPhoto(args[0])
	if err != nil {
		return err
	}
	if err := r.flow.SetPhoto("back", inline); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Back photo set.")
	return nil
}

// StylesCommand lists the preset catalog.
type StylesCommand struct{}

func (c *StylesCommand) Name() string        { return "styles" }
func (c *StylesCommand) Aliases() []string   { return []string{"catalog"} }
func (c *StylesCommand) Description() string { return "Browse the preset style catalog" }
func (c *StylesCommand) Usage() string       { return "styles" }

func (c *StylesCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintf(r.out, "%-16s  %-8s  %s\n", "ID", "For", "Style")
	fmt.Fprintln(r.out, strings.Repeat("-", 70))
	for _, preset := range r.catalog.Presets {
		fmt.Fprintf(r.out, "%-16s  %-8s  %s - %s\n",
			preset.ID, preset.Audience, preset.Label, truncate(preset.Description, 40))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Use 'style <id>' to pick one, 'style lucky' for a surprise, or 'style <free text>'.")
	return nil
}

// StyleCommand selects the style to generate.
type StyleCommand struct{}

func (c *StyleCommand) Name() string        { return "style" }
func (c *StyleCommand) Aliases() []string   { return []string{"st"} }
func (c *StyleCommand) Description() string { return "Choose a style: preset id, suggestion number, 'lucky', or free text" }
func (c *StyleCommand) Usage() string       { return "style <id|number|lucky|text>" }

func (c *StyleCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		if r.styleText == "" {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		fmt.Fprintf(r.out, "Current style: %q\n", r.styleText)
		return nil
	}

	text := strings.Join(args, " ")

	if text == "lucky" {
		r.styleText = r.catalog.LuckyPrompt()
		fmt.Fprintf(r.out, "Feeling lucky: %q\n", r.styleText)
		return nil
	}

	if preset, ok := r.catalog.Preset(args[0]); ok && len(args) == 1 {
		r.styleText = preset.Prompt()
		fmt.Fprintf(r.out, "Style set: %s - %s\n", preset.Label, preset.Description)
		return nil
	}

	if n, err := strconv.Atoi(text); err == nil {
		if n < 1 || n > len(r.suggestions) {
			return fmt.Errorf("no suggestion %d (run 'suggest' first)", n)
		}
		opt := r.suggestions[n-1]
		r.styleText = opt.Prompt()
		fmt.Fprintf(r.out, "Style set: %s - %s\n", opt.Label, opt.Description)
		return nil
	}

	r.styleText = text
	fmt.Fprintf(r.out, "Style set: %q\n", text)
	return nil
}

// RefCommand attaches a style reference image.
type RefCommand struct{}

func (c *RefCommand) Name() string        { return "ref" }
func (c *RefCommand) Aliases() []string   { return nil }
func (c *RefCommand) Description() string { return "Attach a style reference image" }
func (c *RefCommand) Usage() string       { return "ref <file>" }

func (c *RefCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	inline, err := loadPhoto(args[0])
	if err != nil {
		return err
	}
	r.flow.SetStyleReference(inline)
	fmt.Fprintln(r.out, "Style reference image attached.")
	return nil
}

// RefURLCommand attaches a style inspiration link.
type RefURLCommand struct{}

func (c *RefURLCommand) Name() string        { return "refurl" }
func (c *RefURLCommand) Aliases() []string   { return nil }
func (c *RefURLCommand) Description() string { return "Attach a style inspiration URL (e.g. a YouTube or TikTok link)" }
func (c *RefURLCommand) Usage() string       { return "refurl <url>" }

func (c *RefURLCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	url := args[0]
	if err := security.ValidateStyleURL(url, r.strictURL); err != nil {
		return fmt.Errorf("invalid style URL: %w", err)
	}
	r.flow.SetStyleReferenceURL(url)
	fmt.Fprintln(r.out, "Style inspiration URL attached.")
	return nil
}

// AnalyzeCommand runs best-effort subject analysis on the front photo.
type AnalyzeCommand struct{}

func (c *AnalyzeCommand) Name() string        { return "analyze" }
func (c *AnalyzeCommand) Aliases() []string   { return nil }
func (c *AnalyzeCommand) Description() string { return "Analyze the front photo for a recommended starting style" }
func (c *AnalyzeCommand) Usage() string       { return "analyze" }

func (c *AnalyzeCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	photos := r.flow.Photos()
	if !photos.HasFront() {
		return fmt.Errorf("upload a front photo first")
	}

	fmt.Fprintln(r.out, "Analyzing photo...")
	profile := r.stylist.AnalyzeSubject(ctx, photos.Front)

	fmt.Fprintf(r.out, "Styles curated for: %s\n", profile.Audience)
	if profile.RecommendedStyleID != "" {
		if preset, ok := r.catalog.Preset(profile.RecommendedStyleID); ok {
			fmt.Fprintf(r.out, "Recommended: %s - %s (use 'style %s')\n",
				preset.Label, preset.Description, preset.ID)
		}
	}
	return nil
}

// SuggestCommand fetches trending style ideas.
type SuggestCommand struct{}

func (c *SuggestCommand) Name() string        { return "suggest" }
func (c *SuggestCommand) Aliases() []string   { return []string{"ideas"} }
func (c *SuggestCommand) Description() string { return "Get trending style suggestions" }
func (c *SuggestCommand) Usage() string       { return "suggest [context]" }

func (c *SuggestCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	baseContext := strings.Join(args, " ")
	if baseContext == "" {
		baseContext = "a versatile makeover candidate"
	}

	fmt.Fprintln(r.out, "Fetching suggestions...")
	r.suggestions = r.stylist.SuggestStyles(ctx, baseContext)

	for i, opt := range r.suggestions {
		fmt.Fprintf(r.out, "  [%d] %s (%s): %s\n", i+1, opt.Label, opt.Category, opt.Description)
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Use 'style <number>' to pick one.")
	return nil
}

// GenerateCommand generates the styled look.
type GenerateCommand struct{}

func (c *GenerateCommand) Name() string        { return "generate" }
func (c *GenerateCommand) Aliases() []string   { return []string{"gen", "g"} }
func (c *GenerateCommand) Description() string { return "Generate the new look from your photos and chosen style" }
func (c *GenerateCommand) Usage() string       { return "generate [style text]" }

func (c *GenerateCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	style := r.styleText
	if len(args) > 0 {
		style = strings.Join(args, " ")
	}
	if style == "" {
		return fmt.Errorf("no style chosen: use 'style <...>' or 'generate <style text>'")
	}
	if !r.flow.Photos().HasFront() {
		return fmt.Errorf("upload a front photo first")
	}

	fmt.Fprintf(r.out, "Generating %q...\n", truncate(style, 60))
	res, err := r.flow.Generate(ctx, style, r.thinkingFunc())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if res == nil {
		return nil
	}

	r.showResult(ctx, res)
	return nil
}

// RefineCommand edits the current look.
type RefineCommand struct{}

func (c *RefineCommand) Name() string        { return "refine" }
func (c *RefineCommand) Aliases() []string   { return []string{"edit", "r"} }
func (c *RefineCommand) Description() string { return "Refine the current look with an instruction" }
func (c *RefineCommand) Usage() string       { return "refine <instruction>" }

func (c *RefineCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	if r.flow.Current() == nil {
		return fmt.Errorf("no current look - use 'generate' first")
	}

	instruction := strings.Join(args, " ")
	fmt.Fprintf(r.out, "Refining: %q...\n", truncate(instruction, 60))
	res, err := r.flow.Refine(ctx, instruction, r.thinkingFunc())
	if err != nil {
		return fmt.Errorf("refine failed: %w", err)
	}
	if res == nil {
		return nil
	}

	r.showResult(ctx, res)
	return nil
}

func (r *REPL) thinkingFunc() func(string) {
	return func(thought string) {
		fmt.Fprintf(r.out, "  · %s\n", truncate(strings.TrimSpace(thought), 100))
	}
}

// showResult prints, displays and bills a fresh result.
func (r *REPL) showResult(ctx context.Context, res *history.Result) {
	fmt.Fprintf(r.out, "Done: %s (%s)\n", res.Title, res.ID[:8])

	if r.tracker != nil {
		usage, err := r.tracker.RecordImage(ctx)
		if err != nil {
			fmt.Fprintf(r.errOut, "Warning: cost not recorded: %v\n", err)
		} else {
			fmt.Fprintf(r.out, "Spend so far: $%.2f (%d images)\n", usage.SpentUSD, usage.Images)
		}
	}

	if display.IsTerminalSupported() {
		if err := r.displayer.Show(res.Payload.Value); err != nil {
			fmt.Fprintf(r.errOut, "Warning: failed to display: %v\n", err)
		}
	} else {
		fmt.Fprintln(r.out, "Use 'save' to export the image (terminal can't display graphics).")
	}
}

// HistoryCommand lists generated looks.
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "hist"} }
func (c *HistoryCommand) Description() string { return "List generated looks" }
func (c *HistoryCommand) Usage() string       { return "history" }

func (c *HistoryCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	results := r.flow.History()
	if len(results) == 0 {
		fmt.Fprintln(r.out, "No looks yet")
		return nil
	}

	currentID := ""
	if cur := r.flow.Current(); cur != nil {
		currentID = cur.ID
	}

	for i, res := range results {
		marker := "  "
		if res.ID == currentID {
			marker = "> "
		}
		missing := ""
		if !res.Payload.IsInline() {
			missing = " [image missing]"
		}
		fmt.Fprintf(r.out, "%s[%d] %s  %s  %s: %q%s\n",
			marker, i+1, res.ID[:8], humanize.Time(res.CreatedAt()),
			res.Title, truncate(res.Prompt, 40), missing)
	}
	return nil
}

// ShowCommand displays the current look.
type ShowCommand struct{}

func (c *ShowCommand) Name() string        { return "show" }
func (c *ShowCommand) Aliases() []string   { return []string{"display", "view"} }
func (c *ShowCommand) Description() string { return "Display the current look" }
func (c *ShowCommand) Usage() string       { return "show [number]" }

func (c *ShowCommand) Execute(_ context.Context, r *REPL, args []string) error {
	res := r.flow.Current()

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		results := r.flow.History()
		if n < 1 || n > len(results) {
			return fmt.Errorf("no look %d", n)
		}
		picked := results[n-1]
		if err := r.flow.SetCurrent(picked.ID); err != nil {
			return err
		}
		res = &picked
	}

	if res == nil {
		return fmt.Errorf("no current look to display")
	}
	if !res.Payload.IsInline() {
		return fmt.Errorf("image for %s is missing from disk", res.ID[:8])
	}
	if !display.IsTerminalSupported() {
		return fmt.Errorf("terminal can't display graphics; use 'save' to export")
	}
	return r.displayer.Show(res.Payload.Value)
}

// CurrentCommand prints the current look's details.
type CurrentCommand struct{}

func (c *CurrentCommand) Name() string        { return "current" }
func (c *CurrentCommand) Aliases() []string   { return []string{"cur"} }
func (c *CurrentCommand) Description() string { return "Show details of the current look" }
func (c *CurrentCommand) Usage() string       { return "current" }

func (c *CurrentCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	res := r.flow.Current()
	if res == nil {
		fmt.Fprintln(r.out, "No current look")
		return nil
	}
	fmt.Fprintf(r.out, "Current: %s (%s)\n", res.Title, res.ID[:8])
	fmt.Fprintf(r.out, "  Prompt: %q\n", res.Prompt)
	fmt.Fprintf(r.out, "  Created: %s\n", humanize.Time(res.CreatedAt()))
	if !res.Payload.IsInline() {
		fmt.Fprintln(r.out, "  Image: missing from disk")
	}
	return nil
}

// resolveHistoryID matches a full id, an id prefix, or a list number.
func resolveHistoryID(r *REPL, arg string) (string, error) {
	results := r.flow.History()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(results) {
			return "", fmt.Errorf("no look %d", n)
		}
		return results[n-1].ID, nil
	}

	var match string
	for _, res := range results {
		if res.ID == arg {
			return res.ID, nil
		}
		if strings.HasPrefix(res.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("ambiguous id %s", arg)
			}
			match = res.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no look %s", arg)
	}
	return match, nil
}

// DeleteCommand removes one look from history.
type DeleteCommand struct{}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Aliases() []string   { return []string{"del", "rm"} }
func (c *DeleteCommand) Description() string { return "Delete a look from history" }
func (c *DeleteCommand) Usage() string       { return "delete <id|number>" }

func (c *DeleteCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	id, err := resolveHistoryID(r, args[0])
	if err != nil {
		return err
	}

	if !r.confirm(fmt.Sprintf("Delete look %s?", id[:8])) {
		fmt.Fprintln(r.out, "Cancelled.")
		return nil
	}

	if err := r.flow.DeleteHistoryItem(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted %s\n", id[:8])
	return nil
}

// ClearCommand wipes all history.
type ClearCommand struct{}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Aliases() []string   { return nil }
func (c *ClearCommand) Description() string { return "Delete all looks and start over" }
func (c *ClearCommand) Usage() string       { return "clear" }

func (c *ClearCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	n := len(r.flow.History())
	if n == 0 {
		fmt.Fprintln(r.out, "History is already empty")
		return nil
	}

	if !r.confirm(fmt.Sprintf("Delete all %d looks?", n)) {
		fmt.Fprintln(r.out, "Cancelled.")
		return nil
	}

	if err := r.flow.ClearHistory(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(r.out, "History cleared.")
	return nil
}

// SaveCommand exports the current look to a file.
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"export", "s"} }
func (c *SaveCommand) Description() string { return "Save the current look to an image file" }
func (c *SaveCommand) Usage() string       { return "save [filename]" }

func (c *SaveCommand) Execute(_ context.Context, r *REPL, args []string) error {
	res := r.flow.Current()
	if res == nil {
		return fmt.Errorf("no current look to save")
	}
	if !res.Payload.IsInline() {
		return fmt.Errorf("image for %s is missing from disk", res.ID[:8])
	}

	var destPath string
	if len(args) > 0 {
		destPath = args[0]
		if err := security.ValidateSavePath(destPath); err != nil {
			return fmt.Errorf("invalid save path: %w", err)
		}
	} else {
		destPath = security.SanitizeFilename(
			strings.ToLower(strings.Join(strings.Fields(res.Title), "-")))
	}

	saved, err := r.saver.Save(res.Payload.Value, destPath)
	if err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Fprintf(r.out, "Saved: %s\n", saved)
	return nil
}

// LookbookCommand tries a file of styles against the current photos.
type LookbookCommand struct{}

func (c *LookbookCommand) Name() string        { return "lookbook" }
func (c *LookbookCommand) Aliases() []string   { return []string{"lb"} }
func (c *LookbookCommand) Description() string { return "Generate one look per style listed in a file" }
func (c *LookbookCommand) Usage() string       { return "lookbook <file> [output-dir]" }

func (c *LookbookCommand) Execute(ctx context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}
	photos := r.flow.Photos()
	if !photos.HasFront() {
		return fmt.Errorf("upload a front photo first")
	}

	items, err := lookbook.ParseFile(args[0])
	if err != nil {
		return err
	}

	outDir := "lookbook"
	if len(args) > 1 {
		outDir = args[1]
		if err := security.ValidateSavePath(outDir); err != nil {
			return fmt.Errorf("invalid output dir: %w", err)
		}
	}

	runner := lookbook.NewRunner(r.stylist, r.saver, photos, r.out, r.errOut)
	results, err := runner.Run(ctx, items, &lookbook.Options{
		OutputDir: outDir,
		Record:    r.flow.Record,
	})
	if err != nil {
		return err
	}

	if r.tracker != nil {
		for _, res := range results {
			if res.Error == nil {
				if _, err := r.tracker.RecordImage(ctx); err != nil {
					fmt.Fprintf(r.errOut, "Warning: cost not recorded: %v\n", err)
					break
				}
			}
		}
	}

	runner.PrintSummary(results, 0)
	return nil
}

// GotoCommand navigates between steps.
type GotoCommand struct{}

func (c *GotoCommand) Name() string        { return "goto" }
func (c *GotoCommand) Aliases() []string   { return nil }
func (c *GotoCommand) Description() string { return "Go to a step (upload, style, result)" }
func (c *GotoCommand) Usage() string       { return "goto <upload|style|result>" }

func (c *GotoCommand) Execute(_ context.Context, r *REPL, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	var target flow.Step
	switch strings.ToLower(args[0]) {
	case "upload":
		target = flow.StepUpload
	case "style":
		target = flow.StepStyle
	case "result":
		target = flow.StepResult
	default:
		return fmt.Errorf("unknown step %q", args[0])
	}

	if err := r.flow.NavigateTo(target); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Now at: %s\n", target)
	return nil
}

// RestartCommand starts over with a new subject.
type RestartCommand struct{}

func (c *RestartCommand) Name() string        { return "restart" }
func (c *RestartCommand) Aliases() []string   { return nil }
func (c *RestartCommand) Description() string { return "Start over with new photos (history is kept)" }
func (c *RestartCommand) Usage() string       { return "restart" }

func (c *RestartCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	r.flow.Restart()
	r.styleText = ""
	r.suggestions = nil
	fmt.Fprintln(r.out, "Starting over. Upload a front photo to begin.")
	return nil
}

// KeysCommand shows credential status.
type KeysCommand struct{}

func (c *KeysCommand) Name() string        { return "keys" }
func (c *KeysCommand) Aliases() []string   { return nil }
func (c *KeysCommand) Description() string { return "Show API key status" }
func (c *KeysCommand) Usage() string       { return "keys" }

func (c *KeysCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	key, source, err := keys.GetAPIKey("")
	if err != nil {
		fmt.Fprintln(r.out, "No API key configured. Run 'hairstudio keys set'.")
		return nil
	}
	fmt.Fprintf(r.out, "Gemini key: %s (from %s)\n", keys.MaskKey(key), source)
	return nil
}

// CostCommand shows cumulative spend.
type CostCommand struct{}

func (c *CostCommand) Name() string        { return "cost" }
func (c *CostCommand) Aliases() []string   { return []string{"$"} }
func (c *CostCommand) Description() string { return "Show cumulative generation spend" }
func (c *CostCommand) Usage() string       { return "cost" }

func (c *CostCommand) Execute(ctx context.Context, r *REPL, _ []string) error {
	if r.tracker == nil {
		fmt.Fprintln(r.out, "Cost tracking is not available.")
		return nil
	}
	usage, err := r.tracker.Usage(ctx)
	if err != nil {
		return err
	}
	if usage.Images == 0 {
		fmt.Fprintln(r.out, "No spend recorded yet.")
		return nil
	}
	fmt.Fprintf(r.out, "Total spend: $%.2f across %d image(s)\n", usage.SpentUSD, usage.Images)
	return nil
}

// HelpCommand shows available commands.
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show available commands" }
func (c *HelpCommand) Usage() string       { return "help" }

func (c *HelpCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Available commands:")
	fmt.Fprintln(r.out)

	for _, cmd := range allCommands() {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = fmt.Sprintf(" (%s)", strings.Join(cmd.Aliases(), ", "))
		}
		fmt.Fprintf(r.out, "  %-14s%s\n", cmd.Name()+aliases, cmd.Description())
		fmt.Fprintf(r.out, "                 Usage: %s\n", cmd.Usage())
	}
	return nil
}

// QuitCommand exits the REPL.
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit interactive mode" }
func (c *QuitCommand) Usage() string       { return "quit" }

func (c *QuitCommand) Execute(_ context.Context, r *REPL, _ []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	r.Stop()
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
