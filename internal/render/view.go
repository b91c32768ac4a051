// Package render turns assembled plans into views for the render layer and
// ships the default JSON renderer.
package render

import (
	"net/http"

	"github.com/goliatone/go-delivery/internal/assembler"
	"github.com/goliatone/go-delivery/internal/tree"
)

// NoticeKind names a user-visible degraded state.
type NoticeKind string

const (
	// NoticeStructuralFallback stands in for a missing header or footer.
	NoticeStructuralFallback NoticeKind = "structural_fallback"
	// NoticeNotFound stands in for missing main content.
	NoticeNotFound NoticeKind = "not_found"
	// NoticeConfiguration replaces the whole page when the content source
	// has no credentials.
	NoticeConfiguration NoticeKind = "configuration"
	// NoticeListingUnavailable marks a listing or tag list that failed.
	NoticeListingUnavailable NoticeKind = "listing_unavailable"
)

var defaultMessages = map[NoticeKind]string{
	NoticeStructuralFallback: "This section is temporarily unavailable.",
	NoticeNotFound:           "The page you are looking for could not be found.",
	NoticeConfiguration:      "The content source is not configured. Set an access key to deliver pages.",
	NoticeListingUnavailable: "Posts could not be loaded right now.",
}

// Message returns the default text for kind.
func Message(kind NoticeKind) string {
	return defaultMessages[kind]
}

// Notice is a placeholder rendered instead of a tree.
type Notice struct {
	Kind    NoticeKind          `json:"kind"`
	Message string              `json:"message"`
	Reason  assembler.ErrorKind `json:"reason,omitempty"`
}

// Section is one part of a page: either a tree or a notice.
type Section struct {
	Part   assembler.Part `json:"part"`
	Blocks []tree.Node    `json:"blocks,omitempty"`
	Notice *Notice        `json:"notice,omitempty"`
}

// Edit is the editing affordance attached in preview mode.
type Edit struct {
	PageID string `json:"pageId"`
	Locale string `json:"locale"`
	Model  string `json:"model"`
	URL    string `json:"url,omitempty"`
}

// View is a composed page ready for a Renderer.
type View struct {
	Status   int        `json:"status"`
	PlanID   string     `json:"planId,omitempty"`
	Locale   string     `json:"locale"`
	Slug     string     `json:"slug"`
	Meta     *tree.Meta `json:"meta,omitempty"`
	Sections []Section  `json:"sections"`
	Edit     *Edit      `json:"edit,omitempty"`
}

// Section returns the section for part, if any.
func (v View) Section(part assembler.Part) (Section, bool) {
	for _, section := range v.Sections {
		if section.Part == part {
			return section, true
		}
	}
	return Section{}, false
}

// Compose maps plan onto sections. A missing header or footer becomes a
// structural fallback notice, missing main content a not-found notice with
// status 404, and missing credentials a single configuration notice with
// status 503.
func Compose(plan *assembler.RenderPlan) View {
	if plan == nil {
		return View{
			Status:   http.StatusNotFound,
			Sections: []Section{noticeSection(assembler.PartMain, NoticeNotFound, "")},
		}
	}
	view := View{
		Status: http.StatusOK,
		PlanID: plan.ID,
		Locale: plan.Locale,
		Slug:   plan.Slug,
	}
	if plan.MissingCredentials() {
		view.Status = http.StatusServiceUnavailable
		view.Sections = []Section{noticeSection(assembler.PartMain, NoticeConfiguration, assembler.MissingCredentials)}
		return view
	}

	view.Sections = []Section{
		structural(plan, assembler.PartHeader),
		mainSection(plan, &view),
		structural(plan, assembler.PartFooter),
	}
	return view
}

func structural(plan *assembler.RenderPlan, part assembler.Part) Section {
	page := plan.Page(part)
	if page == nil {
		return noticeSection(part, NoticeStructuralFallback, reason(plan, part))
	}
	return Section{Part: part, Blocks: page.Root}
}

func mainSection(plan *assembler.RenderPlan, view *View) Section {
	if plan.Main == nil {
		view.Status = http.StatusNotFound
		return noticeSection(assembler.PartMain, NoticeNotFound, reason(plan, assembler.PartMain))
	}
	meta := plan.Main.Meta
	view.Meta = &meta
	return Section{Part: assembler.PartMain, Blocks: plan.Main.Root}
}

func reason(plan *assembler.RenderPlan, part assembler.Part) assembler.ErrorKind {
	if plan.Has(assembler.SourceUnavailable, part) {
		return assembler.SourceUnavailable
	}
	return ""
}

func noticeSection(part assembler.Part, kind NoticeKind, why assembler.ErrorKind) Section {
	return Section{Part: part, Notice: &Notice{Kind: kind, Message: Message(kind), Reason: why}}
}

// ListingView is a composed listing page.
type ListingView struct {
	Status  int                     `json:"status"`
	Locale  string                  `json:"locale"`
	Tag     string                  `json:"tag,omitempty"`
	Items   []assembler.ListingItem `json:"items"`
	Tags    []string                `json:"tags"`
	Notices []Notice                `json:"notices,omitempty"`
}

// ComposeListing maps a listing plan onto a view. Failed listings and tag
// lists keep the page up with a notice.
func ComposeListing(plan *assembler.ListingPlan) ListingView {
	if plan == nil {
		return ListingView{Status: http.StatusNotFound, Items: []assembler.ListingItem{}, Tags: []string{}}
	}
	view := ListingView{
		Status: http.StatusOK,
		Locale: plan.Locale,
		Tag:    plan.Tag,
		Items:  plan.Items,
		Tags:   plan.Tags,
	}
	if view.Items == nil {
		view.Items = []assembler.ListingItem{}
	}
	if view.Tags == nil {
		view.Tags = []string{}
	}
	if plan.Has(assembler.MissingCredentials, "") {
		view.Status = http.StatusServiceUnavailable
		view.Notices = []Notice{{Kind: NoticeConfiguration, Message: Message(NoticeConfiguration), Reason: assembler.MissingCredentials}}
		return view
	}
	for _, part := range []assembler.Part{assembler.PartListing, assembler.PartTags} {
		if plan.Has(assembler.SourceUnavailable, part) {
			view.Notices = append(view.Notices, Notice{
				Kind:    NoticeListingUnavailable,
				Message: Message(NoticeListingUnavailable),
				Reason:  assembler.SourceUnavailable,
			})
		}
	}
	return view
}
