package domain

// LogoSource identifies where an effective logo came from.
type LogoSource string

const (
	LogoSourceChat         LogoSource = "chat_upload"
	LogoSourceProduct      LogoSource = "product"
	LogoSourceBrandProfile LogoSource = "brand_profile"
)

// LogoToolType is the attachment tool tag that marks a chat upload as a logo.
const LogoToolType = "logo"

// ChatAttachment is a file uploaded in the current chat turn, with the tool
// tag the editor assigned to it.
type ChatAttachment struct {
	URL      string
	ToolType string
}

// LogoCandidates collects the possible logo sources for one regeneration,
// in no particular order; resolution priority is fixed by the resolver.
type LogoCandidates struct {
	ChatUploaded *ChatAttachment
	ProductLogo  string
	BrandLogo    string
}

// Logo is the single effective logo chosen for a generation call.
type Logo struct {
	URL    string
	Source LogoSource
}
