// Package provider defines the boundary to the hosted generation model.
package provider

import (
	"context"
	"errors"

	"github.com/maribel/hairstudio/pkg/models"
)

var (
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrGenerationFailed = errors.New("image generation failed")
	// ErrNoImage means the call succeeded but the response carried no image
	// payload.
	ErrNoImage = errors.New("no image generated")
)

// FallbackTitle is used whenever title derivation fails. Titles are
// cosmetic; their failure never blocks a result.
const FallbackTitle = "New Hairstyle"

// ThinkingFunc receives the model's streamed commentary while an image is
// being generated. May be nil.
type ThinkingFunc func(thought string)

// Stylist is the generation client consumed by the flow controller.
//
// GenerateStyle and RefineStyle return the composite as an inline data URL
// and are the only fallible operations. DeriveTitle, AnalyzeSubject and
// SuggestStyles are best-effort: on any failure they return a usable
// default instead of an error.
type Stylist interface {
	GenerateStyle(ctx context.Context, req *models.GenerateRequest, onThinking ThinkingFunc) (string, error)
	RefineStyle(ctx context.Context, req *models.RefineRequest, onThinking ThinkingFunc) (string, error)
	DeriveTitle(ctx context.Context, promptText string) string
	AnalyzeSubject(ctx context.Context, photo string) models.SubjectProfile
	SuggestStyles(ctx context.Context, baseContext string) []models.StyleOption
}
