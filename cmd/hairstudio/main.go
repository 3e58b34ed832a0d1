package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maribel/hairstudio/internal/config"
	"github.com/maribel/hairstudio/internal/cost"
	"github.com/maribel/hairstudio/internal/display"
	"github.com/maribel/hairstudio/internal/flow"
	"github.com/maribel/hairstudio/internal/history"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/keys"
	"github.com/maribel/hairstudio/internal/lookbook"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/internal/provider/gemini"
	"github.com/maribel/hairstudio/internal/repl"
	"github.com/maribel/hairstudio/internal/security"
	"github.com/maribel/hairstudio/internal/store/blobstore"
	"github.com/maribel/hairstudio/internal/store/metastore"
	"github.com/maribel/hairstudio/internal/styles"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagAPIKey   string
	flagFront    string
	flagSide     string
	flagBack     string
	flagStyle    string
	flagStyleRef string
	flagStyleURL string
	flagOutput   string
	flagOutDir   string
	flagParallel int
	flagStopErr  bool
)

// App carries the process dependencies so tests can substitute them.
type App struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	GetEnv func(string) string
	// NewStylist builds the generation client; swapped out in tests.
	NewStylist func(ctx context.Context, cfg *config.Config, apiKey string) (provider.Stylist, error)
}

func DefaultApp() *App {
	return &App{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		GetEnv: os.Getenv,
		NewStylist: func(ctx context.Context, cfg *config.Config, apiKey string) (provider.Stylist, error) {
			return gemini.New(ctx, &gemini.Config{
				APIKey:      apiKey,
				ImageModel:  cfg.ImageModel,
				TextModel:   cfg.TextModel,
				AspectRatio: cfg.AspectRatio,
				ImageSize:   cfg.ImageSize,
			})
		},
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	return newRootCmd(app).Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hairstudio",
		Short: "Try new hairstyles on your own photos with AI",
		Long: `hairstudio renders you with a new hairstyle from your own photos.

Upload a front photo (side and back optional), pick a style from the
catalog or describe one, and get a front/side/back composite. Results
are kept in a local history you can refine, browse and export.

Run without arguments for interactive mode.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd.Context(), app)
		},
	}

	cmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Gemini API key (defaults to stored key or GEMINI_API_KEY)")

	cmd.AddCommand(newGenerateCmd(app))
	cmd.AddCommand(newLookbookCmd(app))
	cmd.AddCommand(newKeysCmd(app))
	cmd.AddCommand(newHistoryCmd(app))

	return cmd
}

// studio bundles the wired-up application core.
type studio struct {
	cfg     *config.Config
	meta    *metastore.Store
	blobs   *blobstore.Store
	flow    *flow.Controller
	stylist provider.Stylist
	tracker *cost.Tracker
	catalog *styles.Catalog
}

func (s *studio) Close() {
	s.meta.Close()
}

// openStudio resolves the credential, opens both storage tiers and
// hydrates history.
func openStudio(ctx context.Context, app *App) (*studio, error) {
	apiKey, _, err := keys.GetAPIKey(flagAPIKey)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	meta, err := metastore.NewWithPath(cfg.MetaPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	blobs, err := blobstore.New(cfg.BlobsPath())
	if err != nil {
		meta.Close()
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	stylist, err := app.NewStylist(ctx, cfg, apiKey)
	if err != nil {
		meta.Close()
		return nil, err
	}

	catalog, err := styles.Default()
	if err != nil {
		meta.Close()
		return nil, err
	}

	warnf := func(format string, args ...any) {
		fmt.Fprintf(app.Err, format+"\n", args...)
	}
	rec := history.NewReconciler(meta, blobs, warnf)
	ctrl := flow.NewController(stylist, rec, &flow.Options{
		Timeout: cfg.Timeout(),
		Warnf:   warnf,
	})
	ctrl.Hydrate(ctx)

	return &studio{
		cfg:     cfg,
		meta:    meta,
		blobs:   blobs,
		flow:    ctrl,
		stylist: stylist,
		tracker: cost.NewTracker(meta, cfg.ImageModel, cfg.ImageSize),
		catalog: catalog,
	}, nil
}

func runREPL(ctx context.Context, app *App) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openStudio(ctx, app)
	if err != nil {
		return err
	}
	defer s.Close()

	r := repl.New(&repl.Config{
		In:        app.In,
		Out:       app.Out,
		Err:       app.Err,
		Flow:      s.flow,
		Stylist:   s.stylist,
		Catalog:   s.catalog,
		Displayer: display.New(app.Out),
		Saver:     image.NewSaver(),
		Tracker:   s.tracker,
		StrictURL: s.cfg.StrictStyleURLs,
	})
	return r.Run(ctx)
}

func newGenerateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one look and exit",
		Example: `  hairstudio generate --front me.jpg --style "wolf cut with copper highlights"
  hairstudio generate --front me.jpg --side side.jpg --style wolf-cut -o look.png`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), app)
		},
	}

	cmd.Flags().StringVar(&flagFront, "front", "", "front-facing subject photo (required)")
	cmd.Flags().StringVar(&flagSide, "side", "", "side-profile photo")
	cmd.Flags().StringVar(&flagBack, "back", "", "back-view photo")
	cmd.Flags().StringVar(&flagStyle, "style", "", "style: preset id or free text (required)")
	cmd.Flags().StringVar(&flagStyleRef, "style-ref", "", "style reference image file")
	cmd.Flags().StringVar(&flagStyleURL, "style-url", "", "style inspiration URL")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output filename")
	cmd.MarkFlagRequired("front")
	cmd.MarkFlagRequired("style")

	return cmd
}

func runGenerate(ctx context.Context, app *App) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openStudio(ctx, app)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := loadPhotos(s.flow); err != nil {
		return err
	}
	if flagStyleRef != "" {
		inline, err := image.LoadFile(flagStyleRef)
		if err != nil {
			return fmt.Errorf("failed to load style reference: %w", err)
		}
		s.flow.SetStyleReference(inline)
	}
	if flagStyleURL != "" {
		if err := security.ValidateStyleURL(flagStyleURL, s.cfg.StrictStyleURLs); err != nil {
			return fmt.Errorf("invalid style URL: %w", err)
		}
		s.flow.SetStyleReferenceURL(flagStyleURL)
	}

	style := flagStyle
	if preset, ok := s.catalog.Preset(style); ok {
		style = preset.Prompt()
	}

	fmt.Fprintf(app.Out, "Generating %q...\n", style)
	res, err := s.flow.Generate(ctx, style, nil)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if res == nil {
		return fmt.Errorf("a front photo is required")
	}

	if _, err := s.tracker.RecordImage(ctx); err != nil {
		fmt.Fprintf(app.Err, "Warning: cost not recorded: %v\n", err)
	}

	saved, err := image.NewSaver().Save(res.Payload.Value, flagOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Saved: %s (%s)\n", saved, res.Title)
	return nil
}

func loadPhotos(ctrl *flow.Controller) error {
	slots := []struct {
		name string
		path string
	}{
		{"front", flagFront},
		{"side", flagSide},
		{"back", flagBack},
	}
	for _, slot := range slots {
		if slot.path == "" {
			continue
		}
		inline, err := image.LoadFile(slot.path)
		if err != nil {
			return fmt.Errorf("failed to load %s photo: %w", slot.name, err)
		}
		if err := ctrl.SetPhoto(slot.name, inline); err != nil {
			return err
		}
	}
	return nil
}

func newLookbookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookbook <file>",
		Short: "Generate one look per style listed in a file",
		Long: `Reads styles from a file (one per line in .txt, or a JSON list of
{style, label} objects) and generates each against the same photos.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookbook(cmd.Context(), app, args[0])
		},
	}

	cmd.Flags().StringVar(&flagFront, "front", "", "front-facing subject photo (required)")
	cmd.Flags().StringVar(&flagSide, "side", "", "side-profile photo")
	cmd.Flags().StringVar(&flagBack, "back", "", "back-view photo")
	cmd.Flags().StringVarP(&flagOutDir, "output-dir", "o", "lookbook", "directory for generated images")
	cmd.Flags().IntVarP(&flagParallel, "parallel", "p", 1, "number of concurrent generations")
	cmd.Flags().BoolVar(&flagStopErr, "stop-on-error", false, "stop at the first failure")
	cmd.MarkFlagRequired("front")

	return cmd
}

func runLookbook(ctx context.Context, app *App, file string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := openStudio(ctx, app)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := loadPhotos(s.flow); err != nil {
		return err
	}

	items, err := lookbook.ParseFile(file)
	if err != nil {
		return err
	}

	runner := lookbook.NewRunner(s.stylist, image.NewSaver(), s.flow.Photos(), app.Out, app.Err)
	results, err := runner.Run(ctx, items, &lookbook.Options{
		OutputDir:   flagOutDir,
		Parallel:    flagParallel,
		StopOnError: flagStopErr,
		PerImageUSD: cost.PerImage(s.cfg.ImageModel, s.cfg.ImageSize),
		Record:      s.flow.Record,
	})
	if results != nil {
		for _, res := range results {
			if res.Error == nil {
				if _, terr := s.tracker.RecordImage(ctx); terr != nil {
					fmt.Fprintf(app.Err, "Warning: cost not recorded: %v\n", terr)
					break
				}
			}
		}
		runner.PrintSummary(results, cost.PerImage(s.cfg.ImageModel, s.cfg.ImageSize))
	}
	return err
}

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored Gemini API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store the Gemini API key",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runKeysSet(app)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored key (masked)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runKeysShow(app)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the stored key",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runKeysDelete(app)
		},
	})

	return cmd
}

func runKeysSet(app *App) error {
	fmt.Fprint(app.Out, "Enter Gemini API key: ")

	key, err := readSecret(app.In)
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	fmt.Fprintln(app.Out)

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	store, err := keys.NewStore()
	if err != nil {
		return err
	}
	if err := store.Set(key); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "Key stored in %s\n", store.Path())
	return nil
}

// readSecret reads without echo on a real terminal, falling back to a
// plain line read for pipes.
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runKeysShow(app *App) error {
	store, err := keys.NewStore()
	if err != nil {
		return err
	}
	key, err := store.Get()
	if err != nil {
		return err
	}
	if key == "" {
		fmt.Fprintln(app.Out, "No key stored. Run 'hairstudio keys set'.")
		return nil
	}
	fmt.Fprintf(app.Out, "Gemini key: %s\n", keys.MaskKey(key))
	return nil
}

func runKeysDelete(app *App) error {
	store, err := keys.NewStore()
	if err != nil {
		return err
	}
	if err := store.Delete(); err != nil {
		return err
	}
	fmt.Fprintln(app.Out, "Key deleted.")
	return nil
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the look history without starting a session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved looks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd.Context(), app)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all saved looks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryClear(cmd.Context(), app)
		},
	})

	return cmd
}

// openStores opens only the persistence tiers; history subcommands do
// not need a credential.
func openStores() (*config.Config, *metastore.Store, *blobstore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := metastore.NewWithPath(cfg.MetaPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	blobs, err := blobstore.New(cfg.BlobsPath())
	if err != nil {
		meta.Close()
		return nil, nil, nil, fmt.Errorf("failed to open image store: %w", err)
	}
	return cfg, meta, blobs, nil
}

func runHistoryList(ctx context.Context, app *App) error {
	_, meta, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer meta.Close()

	rec := history.NewReconciler(meta, blobs, nil)
	results := rec.Hydrate(ctx)
	if len(results) == 0 {
		fmt.Fprintln(app.Out, "No looks saved")
		return nil
	}

	size, _ := blobs.TotalSize(ctx)
	for i, res := range results {
		missing := ""
		if !res.Payload.IsInline() {
			missing = " [image missing]"
		}
		fmt.Fprintf(app.Out, "[%d] %s  %s  %s: %q%s\n",
			i+1, res.ID[:8], res.CreatedAt().Format("2006-01-02 15:04"),
			res.Title, prompt40(res.Prompt), missing)
	}
	fmt.Fprintf(app.Out, "\n%d look(s), %s on disk\n", len(results), humanize.Bytes(uint64(size)))
	return nil
}

func prompt40(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:37] + "..."
}

func runHistoryClear(ctx context.Context, app *App) error {
	_, meta, blobs, err := openStores()
	if err != nil {
		return err
	}
	defer meta.Close()

	rec := history.NewReconciler(meta, blobs, nil)
	if err := rec.Wipe(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	fmt.Fprintln(app.Out, "History cleared.")
	return nil
}
