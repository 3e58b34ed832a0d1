// Package gemini implements the Stylist boundary on top of the hosted
// Gemini API via google.golang.org/genai.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/maribel/hairstudio/internal/image"
	"github.com/maribel/hairstudio/internal/provider"
	"github.com/maribel/hairstudio/internal/styles"
	"github.com/maribel/hairstudio/pkg/models"
)

const (
	// DefaultImageModel produces the styled 1x3 composite.
	DefaultImageModel = "gemini-3-pro-image-preview"
	// DefaultTextModel handles titles, subject analysis and suggestions.
	DefaultTextModel = "gemini-flash-lite-latest"

	defaultAspectRatio = "16:9"
	defaultImageSize   = "1K"
)

// fallbackSuggestions are served when the suggestion call fails.
var fallbackSuggestions = []models.StyleOption{
	{ID: "1", Label: "Textured Bob", Description: "Chin-length bob with choppy layers and beachy waves.", Category: models.CategoryStyle},
	{ID: "2", Label: "Platinum Pixie", Description: "Ultra-short pixie cut in icy platinum blonde.", Category: models.CategoryColor},
	{ID: "3", Label: "Silk Press", Description: "Long, bone-straight hair with high shine.", Category: models.CategoryTexture},
}

type Config struct {
	APIKey      string
	ImageModel  string
	TextModel   string
	AspectRatio string
	ImageSize   string
}

type Client struct {
	client      *genai.Client
	imageModel  string
	textModel   string
	aspectRatio string
	imageSize   string
}

var _ provider.Stylist = (*Client)(nil)

func New(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, provider.ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	c := &Client{
		client:      client,
		imageModel:  cfg.ImageModel,
		textModel:   cfg.TextModel,
		aspectRatio: cfg.AspectRatio,
		imageSize:   cfg.ImageSize,
	}
	if c.imageModel == "" {
		c.imageModel = DefaultImageModel
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.aspectRatio == "" {
		c.aspectRatio = defaultAspectRatio
	}
	if c.imageSize == "" {
		c.imageSize = defaultImageSize
	}
	return c, nil
}

// GenerateStyle renders the styled composite from the subject photos. The
// part order matters: subject photos first, then the optional style
// reference image, then the instruction text.
func (c *Client) GenerateStyle(ctx context.Context, req *models.GenerateRequest, onThinking provider.ThinkingFunc) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var parts []*genai.Part
	for _, view := range req.Photos.Views() {
		part, err := inlinePart(view)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if req.StyleReferenceImage != "" {
		part, err := inlinePart(req.StyleReferenceImage)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	prompt := buildGeneratePrompt(req.StyleDescription, req.StyleReferenceImage != "", req.StyleReferenceURL)
	parts = append(parts, &genai.Part{Text: prompt})

	return c.generateImage(ctx, parts, onThinking)
}

// RefineStyle edits the current composite: the base image leads the part
// sequence, followed by the optional style reference.
func (c *Client) RefineStyle(ctx context.Context, req *models.RefineRequest, onThinking provider.ThinkingFunc) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	base, err := inlinePart(req.BaseImage)
	if err != nil {
		return "", err
	}
	parts := []*genai.Part{base}

	if req.StyleReferenceImage != "" {
		ref, err := inlinePart(req.StyleReferenceImage)
		if err != nil {
			return "", err
		}
		parts = append(parts, ref)
	}

	prompt := buildRefinePrompt(req.Instruction, req.StyleReferenceImage != "", req.StyleReferenceURL)
	parts = append(parts, &genai.Part{Text: prompt})

	return c.generateImage(ctx, parts, onThinking)
}

// generateImage streams the image call, forwarding thought chunks and
// keeping the last inline payload as the result.
func (c *Client) generateImage(ctx context.Context, parts []*genai.Part, onThinking provider.ThinkingFunc) (string, error) {
	contents := []*genai.Content{{Parts: parts, Role: genai.RoleUser}}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: c.aspectRatio,
			ImageSize:   c.imageSize,
		},
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
		},
	}

	var resultMIME string
	var resultData []byte

	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.imageModel, contents, config) {
		if err != nil {
			return "", fmt.Errorf("%w: %v", provider.ErrGenerationFailed, err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Thought {
					if onThinking != nil && part.Text != "" {
						onThinking(part.Text)
					}
					continue
				}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					resultMIME = part.InlineData.MIMEType
					resultData = part.InlineData.Data
				}
			}
		}
	}

	if len(resultData) == 0 {
		return "", provider.ErrNoImage
	}
	return image.Encode(resultMIME, resultData), nil
}

// DeriveTitle asks the text model for a short caption. Best-effort: any
// failure yields the fallback title.
func (c *Client) DeriveTitle(ctx context.Context, promptText string) string {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: buildTitlePrompt(promptText)}},
		Role:  genai.RoleUser,
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return provider.FallbackTitle
	}
	title := strings.Trim(strings.TrimSpace(resp.Text()), `"`)
	if title == "" {
		return provider.FallbackTitle
	}
	return title
}

// AnalyzeSubject determines the subject's presentation and a recommended
// starting preset. Best-effort: failures return a neutral profile.
func (c *Client) AnalyzeSubject(ctx context.Context, photo string) models.SubjectProfile {
	neutral := models.SubjectProfile{Audience: models.AudienceAll}

	catalog, err := styles.Default()
	if err != nil {
		return neutral
	}

	part, err := inlinePart(photo)
	if err != nil {
		return neutral
	}
	contents := []*genai.Content{{
		Parts: []*genai.Part{part, {Text: buildAnalysisPrompt(catalog.Options())}},
		Role:  genai.RoleUser,
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return neutral
	}

	var parsed struct {
		Gender             string `json:"gender"`
		RecommendedStyleID string `json:"recommendedStyleId"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return neutral
	}

	profile := models.SubjectProfile{Audience: models.NormalizeAudience(parsed.Gender)}
	if _, ok := catalog.Preset(parsed.RecommendedStyleID); ok {
		profile.RecommendedStyleID = parsed.RecommendedStyleID
	}
	return profile
}

// SuggestStyles asks the text model for trending looks. Best-effort: any
// failure returns the static fallback list.
func (c *Client) SuggestStyles(ctx context.Context, baseContext string) []models.StyleOption {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: buildSuggestPrompt(baseContext)}},
		Role:  genai.RoleUser,
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":          {Type: genai.TypeString},
					"label":       {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"category":    {Type: genai.TypeString},
				},
				Required: []string{"id", "label", "description", "category"},
			},
		},
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return fallbackSuggestions
	}
	return parseSuggestions(resp.Text())
}

// parseSuggestions decodes and sanitizes the suggestion payload.
func parseSuggestions(raw string) []models.StyleOption {
	var options []models.StyleOption
	if err := json.Unmarshal([]byte(raw), &options); err != nil || len(options) == 0 {
		return fallbackSuggestions
	}
	for i := range options {
		c := models.StyleCategory(strings.ToLower(string(options[i].Category)))
		if !c.IsValid() {
			c = models.CategoryStyle
		}
		options[i].Category = c
	}
	return options
}

// inlinePart converts an inline data URL into a genai inline-data part.
func inlinePart(inline string) (*genai.Part, error) {
	mimeType, data, err := image.Decode(inline)
	if err != nil {
		return nil, fmt.Errorf("prepare image part: %w", err)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}
