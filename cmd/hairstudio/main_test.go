package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maribel/hairstudio/internal/config"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/pkg/models"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

type fakeStylist struct {
	generated int
}

func (f *fakeStylist) GenerateStyle(_ context.Context, req *models.GenerateRequest, _ provider.ThinkingFunc) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	f.generated++
	return image.Encode("image/png", pngBytes), nil
}

func (f *fakeStylist) RefineStyle(_ context.Context, req *models.RefineRequest, _ provider.ThinkingFunc) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return image.Encode("image/png", pngBytes), nil
}

func (f *fakeStylist) DeriveTitle(_ context.Context, _ string) string {
	return "Test Look"
}

func (f *fakeStylist) AnalyzeSubject(_ context.Context, _ string) models.SubjectProfile {
	return models.SubjectProfile{Audience: models.AudienceAll}
}

func (f *fakeStylist) SuggestStyles(_ context.Context, _ string) []models.StyleOption {
	return nil
}

// testApp isolates the data root and config dir and swaps in a fake
// generation client.
func testApp(t *testing.T) (*App, *fakeStylist, *bytes.Buffer) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HAIRSTUDIO_HOME", home)
	t.Setenv("HAIRSTUDIO_CONFIG_DIR", filepath.Join(home, "config"))
	t.Setenv("GEMINI_API_KEY", "test-key")

	fake := &fakeStylist{}
	out := &bytes.Buffer{}
	app := &App{
		In:     strings.NewReader(""),
		Out:    out,
		Err:    out,
		GetEnv: os.Getenv,
		NewStylist: func(_ context.Context, _ *config.Config, _ string) (provider.Stylist, error) {
			return fake, nil
		},
	}
	return app, fake, out
}

func resetFlags() {
	flagAPIKey = ""
	flagFront = ""
	flagSide = ""
	flagBack = ""
	flagStyle = ""
	flagStyleRef = ""
	flagStyleURL = ""
	flagOutput = ""
	flagOutDir = ""
	flagParallel = 1
	flagStopErr = false
}

func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	resetFlags()
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)
	return cmd.Execute()
}

func writePhoto(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pngBytes, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateCommand(t *testing.T) {
	app, fake, out := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")
	output := filepath.Join(dir, "result.png")

	err := execute(t, app, "generate", "--front", front, "--style", "wolf cut", "-o", output)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if fake.generated != 1 {
		t.Errorf("generated = %d, want 1", fake.generated)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if !strings.Contains(out.String(), "Saved:") {
		t.Errorf("output missing Saved line: %q", out.String())
	}
}

func TestGenerateCommandPresetID(t *testing.T) {
	app, _, out := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	err := execute(t, app, "generate",
		"--front", front, "--style", "wolf-cut",
		"-o", filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out.String(), "Wolf Cut") {
		t.Errorf("preset id not expanded to catalog prompt: %q", out.String())
	}
}

func TestGenerateCommandMissingFront(t *testing.T) {
	app, _, _ := testApp(t)
	err := execute(t, app, "generate", "--style", "bob")
	if err == nil {
		t.Fatal("expected error for missing --front")
	}
}

func TestGenerateCommandRejectsBadStyleURL(t *testing.T) {
	app, _, _ := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	err := execute(t, app, "generate",
		"--front", front, "--style", "bob",
		"--style-url", "http://localhost/x")
	if err == nil {
		t.Fatal("expected error for private style URL")
	}
}

func TestGenerateThenHistoryList(t *testing.T) {
	app, _, out := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	err := execute(t, app, "generate",
		"--front", front, "--style", "pixie cut",
		"-o", filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	out.Reset()
	if err := execute(t, app, "history", "list"); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), "Test Look") {
		t.Errorf("history list missing generated look: %q", out.String())
	}
}

func TestHistoryListEmpty(t *testing.T) {
	app, _, out := testApp(t)
	if err := execute(t, app, "history", "list"); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), "No looks saved") {
		t.Errorf("got %q, want empty-history message", out.String())
	}
}

func TestHistoryClear(t *testing.T) {
	app, _, out := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	err := execute(t, app, "generate",
		"--front", front, "--style", "bob",
		"-o", filepath.Join(dir, "out.png"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := execute(t, app, "history", "clear"); err != nil {
		t.Fatalf("history clear: %v", err)
	}

	out.Reset()
	if err := execute(t, app, "history", "list"); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out.String(), "No looks saved") {
		t.Errorf("history not cleared: %q", out.String())
	}
}

func TestKeysSetShowDelete(t *testing.T) {
	app, _, out := testApp(t)
	app.In = strings.NewReader("AIza1234567890abcdef\n")

	if err := execute(t, app, "keys", "set"); err != nil {
		t.Fatalf("keys set: %v", err)
	}
	if !strings.Contains(out.String(), "Key stored") {
		t.Errorf("got %q, want stored confirmation", out.String())
	}

	out.Reset()
	if err := execute(t, app, "keys", "show"); err != nil {
		t.Fatalf("keys show: %v", err)
	}
	if !strings.Contains(out.String(), "AIza************cdef") {
		t.Errorf("got %q, want masked key", out.String())
	}

	if err := execute(t, app, "keys", "delete"); err != nil {
		t.Fatalf("keys delete: %v", err)
	}

	out.Reset()
	if err := execute(t, app, "keys", "show"); err != nil {
		t.Fatalf("keys show after delete: %v", err)
	}
	if !strings.Contains(out.String(), "No key stored") {
		t.Errorf("got %q, want no-key message", out.String())
	}
}

func TestKeysSetEmptyRejected(t *testing.T) {
	app, _, _ := testApp(t)
	app.In = strings.NewReader("\n")
	if err := execute(t, app, "keys", "set"); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestLookbookCommand(t *testing.T) {
	app, fake, out := testApp(t)
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	listPath := filepath.Join(dir, "styles.txt")
	list := "wolf cut\npixie cut\n"
	if err := os.WriteFile(listPath, []byte(list), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "book")
	err := execute(t, app, "lookbook", listPath,
		"--front", front, "--output-dir", outDir)
	if err != nil {
		t.Fatalf("lookbook: %v", err)
	}
	if fake.generated != 2 {
		t.Errorf("generated = %d, want 2", fake.generated)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("output files = %d, want 2", len(entries))
	}
	if !strings.Contains(out.String(), "Successful: 2/2") {
		t.Errorf("summary missing: %q", out.String())
	}
}

func TestMissingAPIKey(t *testing.T) {
	app, _, _ := testApp(t)
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()
	front := writePhoto(t, dir, "front.jpg")

	err := execute(t, app, "generate", "--front", front, "--style", "bob")
	if err == nil {
		t.Fatal("expected error without an API key")
	}
}

func TestReadSecretPiped(t *testing.T) {
	got, err := readSecret(strings.NewReader("secret-key\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "secret-key" {
		t.Errorf("got %q, want %q", got, "secret-key")
	}
}
