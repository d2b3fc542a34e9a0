package domain

import (
	"strings"
	"time"
)

// ViewType enumerates the camera angles tracked for a product.
type ViewType string

const (
	ViewFront  ViewType = "front"
	ViewBack   ViewType = "back"
	ViewSide   ViewType = "side"
	ViewTop    ViewType = "top"
	ViewBottom ViewType = "bottom"
)

// AllViews lists every supported view in canonical order.
func AllViews() []ViewType {
	return []ViewType{ViewFront, ViewBack, ViewSide, ViewTop, ViewBottom}
}

// ParseViewType sanitizes free-form input into a supported view type.
func ParseViewType(s string) (ViewType, bool) {
	switch v := ViewType(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewFront, ViewBack, ViewSide, ViewTop, ViewBottom:
		return v, true
	default:
		return "", false
	}
}

// ViewRecord is one view row within a revision batch.
type ViewRecord struct {
	ID             string
	BatchID        string
	ProductID      string
	UserID         string
	ViewType       ViewType
	ImageURL       string
	ThumbnailURL   string
	EditPrompt     string
	EditType       string
	ModelUsed      string
	RevisionNumber int
	IsActive       bool
	Metadata       map[string]any
	CreatedAt      time.Time
}

// RevisionBatch groups the view records written together by one commit. All
// records in a batch share the batch ID, revision number and active flag.
type RevisionBatch struct {
	BatchID        string
	ProductID      string
	UserID         string
	RevisionNumber int
	IsActive       bool
	CreatedAt      time.Time
	Views          []ViewRecord
}

// View returns the record for the given view type, or nil when absent.
func (b *RevisionBatch) View(vt ViewType) *ViewRecord {
	for i := range b.Views {
		if b.Views[i].ViewType == vt {
			return &b.Views[i]
		}
	}
	return nil
}

// RevisionCommit carries the inputs for writing a new revision batch that
// replaces a single view and clones every other view from the active batch.
type RevisionCommit struct {
	ProductID    string
	UserID       string
	TargetView   ViewType
	NewImageURL  string
	ThumbnailURL string
	EditPrompt   string
	EditType     string
	ModelUsed    string
}
