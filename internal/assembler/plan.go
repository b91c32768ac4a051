package assembler

import "github.com/goliatone/go-delivery/internal/tree"

// Part names one independently fetched piece of a plan.
type Part string

const (
	PartHeader  Part = "header"
	PartMain    Part = "main"
	PartFooter  Part = "footer"
	PartListing Part = "listing"
	PartTags    Part = "tags"
)

// ErrorKind classifies a plan error.
type ErrorKind string

const (
	// MissingCredentials means the content source has no access key; no
	// fetch was attempted.
	MissingCredentials ErrorKind = "missing_credentials"
	// SourceUnavailable means the fetch of one part failed.
	SourceUnavailable ErrorKind = "source_unavailable"
)

// PlanError records why a part is absent. Part is empty for
// MissingCredentials.
type PlanError struct {
	Kind ErrorKind `json:"kind"`
	Part Part      `json:"part,omitempty"`
	Err  error     `json:"-"`
}

// RenderPlan is the per-request bundle of sanitized trees. A nil part is
// absent; Errors says whether that is because the fetch failed.
type RenderPlan struct {
	ID     string      `json:"id"`
	Locale string      `json:"locale"`
	Slug   string      `json:"slug"`
	Header *tree.Page  `json:"header"`
	Main   *tree.Page  `json:"main"`
	Footer *tree.Page  `json:"footer"`
	Errors []PlanError `json:"errors"`
}

// Has reports whether the plan carries an error of kind for part. Pass an
// empty part to match any part.
func (p *RenderPlan) Has(kind ErrorKind, part Part) bool {
	if p == nil {
		return false
	}
	return hasError(p.Errors, kind, part)
}

// MissingCredentials reports whether the plan was cut short for lack of
// credentials.
func (p *RenderPlan) MissingCredentials() bool {
	return p.Has(MissingCredentials, "")
}

// Page returns the tree assembled for part.
func (p *RenderPlan) Page(part Part) *tree.Page {
	if p == nil {
		return nil
	}
	switch part {
	case PartHeader:
		return p.Header
	case PartMain:
		return p.Main
	case PartFooter:
		return p.Footer
	default:
		return nil
	}
}

// Absent reports whether part carries no tree.
func (p *RenderPlan) Absent(part Part) bool {
	return p.Page(part) == nil
}

func (p *RenderPlan) set(part Part, page *tree.Page) {
	switch part {
	case PartHeader:
		p.Header = page
	case PartMain:
		p.Main = page
	case PartFooter:
		p.Footer = page
	}
}

// ListingRequest selects a listing page.
type ListingRequest struct {
	Locale   string
	Type     string
	Tag      string
	PageSize int
}

// ListingItem is one page of a listing. Metadata is passed through as
// fetched; Content holds the sanitized tree and is nil when the item carried
// none or nothing survived.
type ListingItem struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Slug    string      `json:"slug"`
	Locale  string      `json:"locale"`
	Meta    tree.Meta   `json:"meta"`
	Content []tree.Node `json:"content,omitempty"`
}

// ListingPlan is the assembled listing: items sorted newest first and the
// tag vocabulary sorted ascending.
type ListingPlan struct {
	Locale string        `json:"locale"`
	Type   string        `json:"type,omitempty"`
	Tag    string        `json:"tag,omitempty"`
	Items  []ListingItem `json:"items"`
	Tags   []string      `json:"tags"`
	Errors []PlanError   `json:"errors"`
}

// Has reports whether the listing carries an error of kind for part.
func (p *ListingPlan) Has(kind ErrorKind, part Part) bool {
	if p == nil {
		return false
	}
	return hasError(p.Errors, kind, part)
}

func hasError(errs []PlanError, kind ErrorKind, part Part) bool {
	for _, planErr := range errs {
		if planErr.Kind == kind && (part == "" || planErr.Part == part) {
			return true
		}
	}
	return false
}
