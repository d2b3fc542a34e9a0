package imagegen

import (
	"strings"

	"server/internal/domain"
)

// logoMentionTerms gate logo forwarding: the user must have asked for a
// logo-related change before a resolved logo is sent to generation.
var logoMentionTerms = []string{"logo", "brand", "emblem", "mark"}

// ResolveLogo picks the single effective logo from the candidate sources.
// Priority is fixed, first present wins: chat upload tagged as a logo tool,
// then the product's default logo, then the applied brand profile's logo.
// Sources are never merged.
func ResolveLogo(c domain.LogoCandidates) *domain.Logo {
	if c.ChatUploaded != nil &&
		strings.TrimSpace(c.ChatUploaded.URL) != "" &&
		strings.EqualFold(strings.TrimSpace(c.ChatUploaded.ToolType), domain.LogoToolType) {
		return &domain.Logo{URL: c.ChatUploaded.URL, Source: domain.LogoSourceChat}
	}
	if url := strings.TrimSpace(c.ProductLogo); url != "" {
		return &domain.Logo{URL: url, Source: domain.LogoSourceProduct}
	}
	if url := strings.TrimSpace(c.BrandLogo); url != "" {
		return &domain.Logo{URL: url, Source: domain.LogoSourceBrandProfile}
	}
	return nil
}

// MentionsLogo reports whether the edit instruction asks for a logo or
// branding change (case-insensitive substring match).
func MentionsLogo(editText string) bool {
	lowered := strings.ToLower(editText)
	for _, term := range logoMentionTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// EffectiveLogo resolves the candidates and withholds the result unless the
// edit instruction actually references logo or branding work.
func EffectiveLogo(c domain.LogoCandidates, editText string) *domain.Logo {
	if !MentionsLogo(editText) {
		return nil
	}
	return ResolveLogo(c)
}
