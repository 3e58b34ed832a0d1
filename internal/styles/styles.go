// Package styles carries the curated hairstyle catalog: preset looks, the
// building-block token groups shown on the style screen, and a handful of
// "feeling lucky" prompts.
package styles

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"

	"github.com/maribel/hairstudio/pkg/models"
)

//go:embed catalog.json
var rawCatalog []byte

// Principle is a group of composable style tokens (cut, color, texture,
// aesthetic) the user can mix into a custom prompt.
type Principle struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// Preset is a curated, ready-to-use look.
type Preset struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Audience    models.Audience `json:"audience"`
}

// Prompt composes the preset into the instruction sent to the model.
func (p Preset) Prompt() string {
	return fmt.Sprintf("%s - %s", p.Label, p.Description)
}

type Catalog struct {
	Principles   []Principle `json:"principles"`
	Presets      []Preset    `json:"presets"`
	LuckyPrompts []string    `json:"lucky_prompts"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = parse(rawCatalog)
	})
	return defaultCatalog, defaultErr
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse style catalog: %w", err)
	}
	if len(c.Presets) == 0 {
		return nil, fmt.Errorf("style catalog has no presets")
	}
	return &c, nil
}

// Preset looks up a preset by id.
func (c *Catalog) Preset(id string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ForAudience returns presets curated for the given audience. AudienceAll
// returns everything.
func (c *Catalog) ForAudience(a models.Audience) []Preset {
	if a == models.AudienceAll || a == "" {
		return c.Presets
	}
	var out []Preset
	for _, p := range c.Presets {
		if p.Audience == a || p.Audience == models.AudienceAll {
			out = append(out, p)
		}
	}
	return out
}

// Options flattens the presets into the shared StyleOption shape used in
// model prompts.
func (c *Catalog) Options() []models.StyleOption {
	opts := make([]models.StyleOption, 0, len(c.Presets))
	for _, p := range c.Presets {
		opts = append(opts, models.StyleOption{
			ID:          p.ID,
			Label:       p.Label,
			Description: p.Description,
			Category:    models.CategoryStyle,
		})
	}
	return opts
}

// LuckyPrompt returns a random prompt from the lucky list.
func (c *Catalog) LuckyPrompt() string {
	if len(c.LuckyPrompts) == 0 {
		return ""
	}
	return c.LuckyPrompts[rand.Intn(len(c.LuckyPrompts))]
}
