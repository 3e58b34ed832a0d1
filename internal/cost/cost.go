// Package cost estimates Gemini image spend and tracks cumulative usage.
package cost

import (
	"context"
	"fmt"

	"github.com/maribel/hairstudio/internal/store/metastore"
)

const CurrencyUSD = "USD"

// Gemini image generation pricing (USD per image).
// Source: https://ai.google.dev/pricing
type pricingKey struct {
	Model string
	Size  string
}

var geminiPricing = map[pricingKey]float64{
	{Model: "gemini-3-pro-image-preview", Size: "1K"}: 0.134,
	{Model: "gemini-3-pro-image-preview", Size: "2K"}: 0.134,
	{Model: "gemini-3-pro-image-preview", Size: "4K"}: 0.24,
	{Model: "gemini-2.5-flash-image", Size: "1K"}:     0.039,
	{Model: "gemini-2.5-flash-image", Size: "2K"}:     0.039,
}

const defaultPerImage = 0.134

// PerImage returns the USD price of one generated image.
func PerImage(model, size string) float64 {
	if price, ok := geminiPricing[pricingKey{Model: model, Size: size}]; ok {
		return price
	}
	return defaultPerImage
}

// Tracker accumulates spend across sessions in the metadata store.
type Tracker struct {
	meta  *metastore.Store
	model string
	size  string
}

func NewTracker(meta *metastore.Store, model, size string) *Tracker {
	return &Tracker{meta: meta, model: model, size: size}
}

// RecordImage adds one generated image to the running total and returns
// the updated usage.
func (t *Tracker) RecordImage(ctx context.Context) (metastore.Usage, error) {
	usage, err := t.meta.LoadUsage(ctx)
	if err != nil {
		return metastore.Usage{}, err
	}
	usage.Images++
	usage.SpentUSD += PerImage(t.model, t.size)
	if err := t.meta.SaveUsage(ctx, usage); err != nil {
		return metastore.Usage{}, err
	}
	return usage, nil
}

// Usage returns the cumulative spend.
func (t *Tracker) Usage(ctx context.Context) (metastore.Usage, error) {
	return t.meta.LoadUsage(ctx)
}

// FormatUSD renders an amount for display, e.g. "$0.27".
func FormatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
