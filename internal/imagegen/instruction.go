package imagegen

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
)

var titleCaser = cases.Title(language.English)

// preservedAttributes enumerates what a single-view edit must leave untouched.
// An attribute is dropped from the preservation clause when the edit
// instruction itself targets it.
var preservedAttributes = []struct {
	label    string
	keywords []string
}{
	{"the product's shape and proportions", []string{"shape", "proportion", "resize", "size"}},
	{"the lighting and shadows", []string{"lighting", "light", "shadow", "brightness"}},
	{"the camera angle and framing", []string{"angle", "camera", "rotate", "perspective", "framing"}},
	{"the background", []string{"background", "backdrop", "scene"}},
	{"all existing branding and labels", []string{"logo", "brand", "label", "emblem", "mark"}},
}

// BuildEditInstruction composes the generation instruction for exactly one
// view. It anchors on the reference image, applies only the literal edit, and
// spells out everything that must stay identical. An empty edit instruction is
// a caller error.
func BuildEditInstruction(view domain.ViewType, editText string, logo *domain.Logo) (string, error) {
	editText = strings.TrimSpace(editText)
	if editText == "" {
		return "", fmt.Errorf("edit instruction is empty: %w", domain.ErrInvalidPrompt)
	}

	label := titleCaser.String(string(view))
	lowered := strings.ToLower(editText)

	parts := []string{
		fmt.Sprintf("You are given the reference image of the product's %s view.", label),
		fmt.Sprintf("Regenerate this %s view applying exactly the following edit: %q.", string(view), editText),
		"Apply only this edit. Do not introduce any change that was not explicitly requested.",
	}

	var preserved []string
	for _, attr := range preservedAttributes {
		targeted := false
		for _, kw := range attr.keywords {
			if strings.Contains(lowered, kw) {
				targeted = true
				break
			}
		}
		if !targeted {
			preserved = append(preserved, attr.label)
		}
	}
	if len(preserved) > 0 {
		parts = append(parts, "Keep identical: "+strings.Join(preserved, "; ")+".")
	}

	if logo != nil {
		parts = append(parts, "A brand logo image is provided. Apply it where the edit instruction asks for it, keeping its colors and aspect ratio intact.")
	}

	parts = append(parts, "Output only the image.")
	return strings.Join(parts, " "), nil
}
