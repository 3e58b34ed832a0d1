package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maribel/hairstudio/pkg/models"
)

// buildGeneratePrompt writes the instruction block for a fresh styling pass.
// The subject photos come first in the part sequence; when a style reference
// image is attached it is placed last so the prompt can point at it.
func buildGeneratePrompt(styleDescription string, hasStyleRef bool, styleRefURL string) string {
	var b strings.Builder

	b.WriteString("You are a professional hair stylist and visual artist.\n\n")
	b.WriteString("TASK: Apply a new hairstyle to the SUBJECT (the person in the first 1-3 images).\n\n")
	fmt.Fprintf(&b, "STYLE INSTRUCTION: %q\n", styleDescription)
	if styleRefURL != "" {
		fmt.Fprintf(&b, "STYLE INSPIRATION URL: %s (Incorporate the vibe/style from this video/link if known).\n", styleRefURL)
	}

	if hasStyleRef {
		b.WriteString("\nCRITICAL: The FINAL image provided in the input sequence is a REFERENCE IMAGE for the hairstyle.\n")
		b.WriteString("- Extract the hairstyle (cut, texture, color) from that Reference Image.\n")
		b.WriteString("- Apply it seamlessly to the Subject in the first images.\n")
	}

	b.WriteString(`
Output Requirement:
- Generate a single high-resolution image with an aspect ratio of 16:9.
- The image MUST be a composite matrix (1x3 grid) showing the Subject with the new hairstyle from three angles:
  1. Left Panel: Front View
  2. Center Panel: Side View (Profile)
  3. Right Panel: Back View
- Maintain the Subject's facial identity, features, and expression EXACTLY as in the original images. Do not alter the face.
- Only change the hair. Keep lighting and background professional and clean (studio style).
- If side or back views were not provided for the subject, infer them realistically while keeping the face consistent with the front view.
`)

	return b.String()
}

// buildRefinePrompt writes the instruction block for editing an existing
// composite. The current result is always the first image part.
func buildRefinePrompt(instruction string, hasStyleRef bool, styleRefURL string) string {
	var b strings.Builder

	b.WriteString("You are a professional hair stylist editing a photo.\n\n")
	b.WriteString("IMAGE CONTEXT:\n")
	b.WriteString("- The FIRST image provided is the \"Current Result\" (a 1x3 matrix of Front, Side, Back views).\n")
	if hasStyleRef {
		b.WriteString("- The SECOND image provided is a \"Style Reference\".\n")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "INSTRUCTION: %q\n", instruction)
	if styleRefURL != "" {
		fmt.Fprintf(&b, "STYLE INSPIRATION URL: %s\n", styleRefURL)
	}

	b.WriteString("\nRULES:\n")
	b.WriteString("1. MODIFY ONLY the hair of the subject in the first image according to the instruction.\n")
	if hasStyleRef {
		b.WriteString("2. USE the style/texture/color from the second image as the source of truth for the change.\n")
	}
	b.WriteString("3. STRICTLY MAINTAIN the 1x3 matrix layout. Do not merge the panels.\n")
	b.WriteString("4. PRESERVE the person's identity, face, and expression exactly. Do not alter facial features.\n")
	b.WriteString("5. If the instruction is about length, color, or style, apply it consistently across all 3 views.\n")

	return b.String()
}

func buildTitlePrompt(promptText string) string {
	return fmt.Sprintf("Summarize this hairstyle description into a catchy, specific title of 4 words or less. Description: %q", promptText)
}

// buildAnalysisPrompt asks for the subject's presentation and one catalog
// recommendation, as strict JSON.
func buildAnalysisPrompt(options []models.StyleOption) string {
	catalog, _ := json.MarshalIndent(options, "", "  ")

	var b strings.Builder
	b.WriteString("Analyze the person in this photo.\n\n")
	b.WriteString("1. Determine their gender presentation ('Men' or 'Women').\n")
	b.WriteString("2. Recommend the ONE best matching hairstyle from the list below to start with.\n")
	b.WriteString("   - Choose a style that would suit their face shape and current hair length, or offer a stylish upgrade.\n")
	b.WriteString("   - Don't go too crazy immediately; pick a solid, attractive option.\n\n")
	b.WriteString("Available Styles:\n")
	b.Write(catalog)
	b.WriteString("\n\nReturn STRICT JSON:\n")
	b.WriteString(`{"gender": "Men" | "Women", "recommendedStyleId": "string (must match one of the IDs above)"}`)
	return b.String()
}

func buildSuggestPrompt(baseContext string) string {
	var b strings.Builder
	b.WriteString("Suggest 6 trending, distinct, and highly visual hairstyles for a makeover app.\n")
	fmt.Fprintf(&b, "Context: %s.\n\n", baseContext)
	b.WriteString("Return a JSON list. Each item should have:\n")
	b.WriteString("- id: unique string\n")
	b.WriteString("- label: short, punchy name (e.g. \"Pixie Cut\")\n")
	b.WriteString("- description: A clear, visual description of the cut, texture, and length.\n")
	b.WriteString(`- category: one of ["style", "color", "texture", "length"] (lowercase)` + "\n")
	return b.String()
}
