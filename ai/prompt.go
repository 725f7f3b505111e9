package ai

import (
	"Curator/storage"
)

// DescriptionPrompt builds the instruction for a gallery description.
// The model is asked to embed its own creative title between double
// asterisks; the hint is optional inspiration only.
func DescriptionPrompt(titleHint string, style *storage.StylePreferences) string {
	p := "Look at the attached image. "
	p = p + "Invent a concise creative title for it and wrap the title in **double asterisks**. "
	p = p + "After the title, write a description suitable for a photo gallery. "
	p = p + "Cover the visual elements, the style, the mood and the theme of the image. "
	if titleHint != "" {
		p = p + "The image was named \"" + titleHint + "\"; treat that name as optional inspiration only. "
	}
	if style != nil {
		if style.Language != "" {
			p = p + "Write in " + style.Language + ". "
		}
		if style.Tone != "" {
			p = p + "Keep the tone " + style.Tone + ". "
		}
		if style.Detail != "" {
			p = p + "Detail level: " + style.Detail + ". "
		}
	}
	return p
}
