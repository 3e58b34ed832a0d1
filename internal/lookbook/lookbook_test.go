package lookbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maribel/hairstudio/internal/history"
	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/pkg/models"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

type fakeStylist struct {
	failOn  string
	titles  map[string]string
	calls   int
}

func (f *fakeStylist) GenerateStyle(ctx context.Context, req *models.GenerateRequest, _ provider.ThinkingFunc) (string, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(req.StyleDescription, f.failOn) {
		return "", errors.New("model refused")
	}
	return image.Encode("image/png", pngBytes), nil
}

func (f *fakeStylist) RefineStyle(ctx context.Context, req *models.RefineRequest, _ provider.ThinkingFunc) (string, error) {
	return image.Encode("image/png", pngBytes), nil
}

func (f *fakeStylist) DeriveTitle(ctx context.Context, promptText string) string {
	if t, ok := f.titles[promptText]; ok {
		return t
	}
	return "New Hairstyle"
}

func (f *fakeStylist) AnalyzeSubject(ctx context.Context, photo string) models.SubjectProfile {
	return models.SubjectProfile{Audience: models.AudienceAll}
}

func (f *fakeStylist) SuggestStyles(ctx context.Context, baseContext string) []models.StyleOption {
	return nil
}

func subjectPhotos() models.SubjectPhotos {
	return models.SubjectPhotos{Front: image.Encode("image/png", pngBytes)}
}

func TestParseText(t *testing.T) {
	input := `# my looks
wolf cut with curtain bangs

copper shag
`
	items, err := ParseText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Style != "wolf cut with curtain bangs" || items[0].Index != 1 {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Style != "copper shag" || items[1].Index != 2 {
		t.Errorf("items[1] = %+v", items[1])
	}
}

func TestParseTextEmpty(t *testing.T) {
	if _, err := ParseText(strings.NewReader("# only comments\n")); err == nil {
		t.Error("ParseText() with no styles should return error")
	}
}

func TestParseJSON(t *testing.T) {
	input := `[
		{"style": "glass bob", "label": "Glass Bob"},
		{"style": "modern mullet"}
	]`
	items, err := ParseJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Label != "Glass Bob" {
		t.Errorf("Label = %q, want Glass Bob", items[0].Label)
	}
	if items[1].Label != "" {
		t.Errorf("Label = %q, want empty", items[1].Label)
	}
}

func TestParseJSONEmptyStyle(t *testing.T) {
	if _, err := ParseJSON(strings.NewReader(`[{"style": "  "}]`)); err == nil {
		t.Error("ParseJSON() with empty style should return error")
	}
}

func TestParseFileUnsupportedExt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "looks.yaml")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(path); err == nil {
		t.Error("ParseFile() with .yaml should return error")
	}
}

func TestRunnerSequential(t *testing.T) {
	outDir := t.TempDir()
	var out, errOut bytes.Buffer
	stylist := &fakeStylist{titles: map[string]string{"glass bob": "Glass Bob"}}
	runner := NewRunner(stylist, image.NewSaver(), subjectPhotos(), &out, &errOut)

	items := []Item{
		{Index: 1, Style: "glass bob"},
		{Index: 2, Style: "modern mullet", Label: "Modern Mullet"},
	}

	var recorded []history.Result
	opts := &Options{
		OutputDir: outDir,
		Record: func(ctx context.Context, res history.Result) error {
			recorded = append(recorded, res)
			return nil
		},
	}

	results, err := runner.Run(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	for _, r := range results {
		if r.Error != nil {
			t.Errorf("item %d error = %v", r.Index, r.Error)
		}
		if _, err := os.Stat(r.Path); err != nil {
			t.Errorf("item %d output missing: %v", r.Index, err)
		}
	}

	// Explicit labels skip the title call
	if results[0].Title != "Glass Bob" {
		t.Errorf("Title = %q, want Glass Bob", results[0].Title)
	}
	if results[1].Title != "Modern Mullet" {
		t.Errorf("Title = %q, want Modern Mullet", results[1].Title)
	}

	if len(recorded) != 2 {
		t.Errorf("recorded %d looks, want 2", len(recorded))
	}
	for _, res := range recorded {
		if !res.Payload.IsInline() {
			t.Errorf("recorded payload should be inline, got %+v", res.Payload)
		}
	}
}

func TestRunnerToleratesFailures(t *testing.T) {
	outDir := t.TempDir()
	var out, errOut bytes.Buffer
	stylist := &fakeStylist{failOn: "mullet"}
	runner := NewRunner(stylist, image.NewSaver(), subjectPhotos(), &out, &errOut)

	items := []Item{
		{Index: 1, Style: "glass bob"},
		{Index: 2, Style: "modern mullet"},
		{Index: 3, Style: "copper shag"},
	}

	results, err := runner.Run(context.Background(), items, &Options{OutputDir: outDir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if results[0].Error != nil || results[2].Error != nil {
		t.Error("healthy items should succeed around a failure")
	}
	if results[1].Error == nil {
		t.Error("failing item should carry its error")
	}
	if !strings.Contains(errOut.String(), "Error:") {
		t.Errorf("error output missing: %q", errOut.String())
	}
}

func TestRunnerStopOnError(t *testing.T) {
	var out, errOut bytes.Buffer
	stylist := &fakeStylist{failOn: "glass"}
	runner := NewRunner(stylist, image.NewSaver(), subjectPhotos(), &out, &errOut)

	items := []Item{
		{Index: 1, Style: "glass bob"},
		{Index: 2, Style: "copper shag"},
	}

	_, err := runner.Run(context.Background(), items, &Options{OutputDir: t.TempDir(), StopOnError: true})
	if err == nil {
		t.Fatal("Run() with StopOnError should return error")
	}
	if stylist.calls != 1 {
		t.Errorf("calls = %d, want 1", stylist.calls)
	}
}

func TestSanitizeStyle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Glass Bob!", "glass-bob"},
		{"  spaced   out  ", "spaced-out"},
		{"???", "look"},
	}
	for _, tt := range tests {
		if got := sanitizeStyle(tt.input); got != tt.want {
			t.Errorf("sanitizeStyle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
