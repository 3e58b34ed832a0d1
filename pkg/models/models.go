package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoFrontPhoto     = errors.New("a front-facing subject photo is required")
	ErrEmptyStyle       = errors.New("style description cannot be empty")
	ErrNoBaseImage      = errors.New("base image is required for refinement")
	ErrEmptyInstruction = errors.New("refinement instruction cannot be empty")
)

// Audience groups preset styles by who they are curated for.
type Audience string

const (
	AudienceMen   Audience = "Men"
	AudienceWomen Audience = "Women"
	AudienceAll   Audience = "All"
)

// NormalizeAudience maps loose model output ("Male", "female", ...) onto a
// known Audience, defaulting to AudienceAll.
func NormalizeAudience(s string) Audience {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "men", "male":
		return AudienceMen
	case "women", "female":
		return AudienceWomen
	default:
		return AudienceAll
	}
}

type StyleCategory string

const (
	CategoryLength  StyleCategory = "length"
	CategoryTexture StyleCategory = "texture"
	CategoryColor   StyleCategory = "color"
	CategoryStyle   StyleCategory = "style"
)

func ValidCategories() []StyleCategory {
	return []StyleCategory{CategoryLength, CategoryTexture, CategoryColor, CategoryStyle}
}

func (c StyleCategory) IsValid() bool {
	for _, v := range ValidCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// StyleOption is a selectable hairstyle preset.
type StyleOption struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Category    StyleCategory `json:"category"`
}

// Prompt composes the label and description into the instruction sent to the
// model, e.g. "Platinum Bob - Sleek bob in platinum blonde".
func (o StyleOption) Prompt() string {
	if o.Description == "" {
		return o.Label
	}
	return fmt.Sprintf("%s - %s", o.Label, o.Description)
}

// SubjectPhotos holds the user's photos as inline data URLs. Only the front
// view is mandatory; side and back improve the composite.
type SubjectPhotos struct {
	Front string
	Side  string
	Back  string
}

func (p SubjectPhotos) HasFront() bool {
	return p.Front != ""
}

// Views returns the present photos in front, side, back order.
func (p SubjectPhotos) Views() []string {
	var views []string
	for _, v := range []string{p.Front, p.Side, p.Back} {
		if v != "" {
			views = append(views, v)
		}
	}
	return views
}

func (p SubjectPhotos) Count() int {
	return len(p.Views())
}

// GenerateRequest describes one styled-composite generation.
type GenerateRequest struct {
	Photos           SubjectPhotos
	StyleDescription string
	// StyleReferenceImage is an optional inline data URL supplying a target look.
	StyleReferenceImage string
	// StyleReferenceURL is an optional video/social link named in the prompt.
	StyleReferenceURL string
}

func (r *GenerateRequest) Validate() error {
	if !r.Photos.HasFront() {
		return ErrNoFrontPhoto
	}
	if strings.TrimSpace(r.StyleDescription) == "" {
		return ErrEmptyStyle
	}
	return nil
}

// RefineRequest describes an edit of an existing composite.
type RefineRequest struct {
	// BaseImage is the current result as an inline data URL.
	BaseImage           string
	Instruction         string
	StyleReferenceImage string
	StyleReferenceURL   string
}

func (r *RefineRequest) Validate() error {
	if r.BaseImage == "" {
		return ErrNoBaseImage
	}
	if strings.TrimSpace(r.Instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// SubjectProfile is the best-effort output of subject analysis.
type SubjectProfile struct {
	Audience           Audience
	RecommendedStyleID string
}
