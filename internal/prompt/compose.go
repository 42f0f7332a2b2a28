// Package prompt assembles the final text sent to the image provider from
// the project's style and tone plus a scene description.
package prompt

import "strings"

// DefaultStyle is used when a project carries a style outside the table.
const DefaultStyle = "western"

const prefix = "Comic book panel illustration, "
const suffix = "professional comic art, high quality, detailed"

var stylePrompts = map[string]string{
	"western":    "western comic book style, bold ink lines, dynamic shading, superhero comic aesthetic, vibrant colors",
	"manga":      "manga style, clean linework, expressive anime eyes, Japanese comic aesthetic, screentones",
	"cinematic":  "cinematic comic style, dramatic lighting, film noir influences, detailed backgrounds, moody atmosphere",
	"watercolor": "watercolor comic style, soft edges, painterly textures, artistic brush strokes, delicate colors",
}

var tonePrompts = map[string]string{
	"romantic": "warm colors, soft lighting, intimate atmosphere, tender mood",
	"funny":    "exaggerated expressions, vibrant colors, comedic timing, playful",
	"dramatic": "high contrast, intense shadows, emotional depth, serious",
	"kids":     "bright cheerful colors, simple friendly shapes, cute characters, wholesome",
}

// Compose builds a generation prompt in fixed order: domain prefix, style
// description, tone description, scene text, extra modifiers, quality
// suffix. An unknown style falls back to the western description and an
// unknown tone contributes nothing; neither is an error.
func Compose(style, tone, scene string, extra ...string) string {
	styleDesc, ok := stylePrompts[style]
	if !ok {
		styleDesc = stylePrompts[DefaultStyle]
	}

	parts := []string{strings.TrimSuffix(prefix, ", "), styleDesc}
	if toneDesc, ok := tonePrompts[tone]; ok {
		parts = append(parts, toneDesc)
	}
	if scene != "" {
		parts = append(parts, scene)
	}
	for _, e := range extra {
		if e != "" {
			parts = append(parts, e)
		}
	}
	parts = append(parts, suffix)
	return strings.Join(parts, ", ")
}

// Styles and Tones list the recognized enumeration values, for validation
// and API docs.
func Styles() []string { return []string{"western", "manga", "cinematic", "watercolor"} }
func Tones() []string  { return []string{"romantic", "funny", "dramatic", "kids"} }
