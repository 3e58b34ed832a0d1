package cost

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/maribel/hairstudio/internal/store/metastore"
)

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestPerImage(t *testing.T) {
	tests := []struct {
		model    string
		size     string
		expected float64
	}{
		{"gemini-3-pro-image-preview", "1K", 0.134},
		{"gemini-3-pro-image-preview", "4K", 0.24},
		{"gemini-2.5-flash-image", "1K", 0.039},
		{"unknown-model", "1K", defaultPerImage},
		{"gemini-3-pro-image-preview", "8K", defaultPerImage},
	}

	for _, tt := range tests {
		got := PerImage(tt.model, tt.size)
		if !floatEquals(got, tt.expected) {
			t.Errorf("PerImage(%q, %q) = %v, want %v", tt.model, tt.size, got, tt.expected)
		}
	}
}

func TestTracker_RecordImage(t *testing.T) {
	meta, err := metastore.NewWithPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewWithPath() error = %v", err)
	}
	defer meta.Close()

	ctx := context.Background()
	tracker := NewTracker(meta, "gemini-3-pro-image-preview", "1K")

	usage, err := tracker.RecordImage(ctx)
	if err != nil {
		t.Fatalf("RecordImage() error = %v", err)
	}
	if usage.Images != 1 {
		t.Errorf("Images = %d, want 1", usage.Images)
	}
	if !floatEquals(usage.SpentUSD, 0.134) {
		t.Errorf("SpentUSD = %v, want 0.134", usage.SpentUSD)
	}

	// Totals accumulate and survive a reload
	if _, err := tracker.RecordImage(ctx); err != nil {
		t.Fatalf("RecordImage() error = %v", err)
	}
	usage, err = tracker.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if usage.Images != 2 {
		t.Errorf("Images = %d, want 2", usage.Images)
	}
	if !floatEquals(usage.SpentUSD, 0.268) {
		t.Errorf("SpentUSD = %v, want 0.268", usage.SpentUSD)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{0.268, "$0.27"},
		{12.5, "$12.50"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.amount); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
