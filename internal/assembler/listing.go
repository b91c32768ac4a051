package assembler

import (
	"context"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/sanitize"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/tree"
)

// AssembleListing fetches the candidate pages and the tag vocabulary
// concurrently. Only embedded content trees are sanitized; metadata is
// passed through. As with Assemble, the only error is ctx's.
func (a *Assembler) AssembleListing(ctx context.Context, req ListingRequest) (*ListingPlan, error) {
	tag := NormalizeTag(req.Tag)
	ctx, span := a.tracer.Start(ctx, "assembler.assemble_listing", trace.WithAttributes(
		attribute.String("delivery.locale", req.Locale),
		attribute.String("delivery.type", req.Type),
		attribute.String("delivery.tag", tag),
	))
	defer span.End()

	plan := &ListingPlan{
		Locale: req.Locale,
		Type:   req.Type,
		Tag:    tag,
		Items:  []ListingItem{},
		Tags:   []string{},
		Errors: []PlanError{},
	}
	logger := logging.WithPageContext(a.logger.WithContext(ctx), req.Locale, "", string(PartListing))

	if !source.HasCredentials(a.src) {
		logger.Warn("assembler.credentials.missing")
		plan.Errors = append(plan.Errors, PlanError{Kind: MissingCredentials, Err: source.ErrMissingCredentials})
		return plan, nil
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = a.pageSize
	}
	query := source.ListQuery{
		Type:     req.Type,
		Tag:      tag,
		Locale:   req.Locale,
		PageSize: pageSize,
		Sort:     source.SortPublishedDesc,
	}

	var (
		pages    []*tree.Page
		pagesErr error
		tags     []string
		tagsErr  error
		group    errgroup.Group
	)
	group.Go(func() error {
		pages, pagesErr = a.src.FetchPages(ctx, query)
		return nil
	})
	group.Go(func() error {
		tags, tagsErr = a.src.FetchTags(ctx)
		return nil
	})
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pagesErr != nil {
		logger.Warn("assembler.fetch.failed", "error", pagesErr)
		span.RecordError(pagesErr)
		plan.Errors = append(plan.Errors, PlanError{Kind: SourceUnavailable, Part: PartListing, Err: pagesErr})
	} else {
		plan.Items = a.listingItems(pages)
	}
	if tagsErr != nil {
		logger.Warn("assembler.fetch.failed", "error", tagsErr, "part", string(PartTags))
		span.RecordError(tagsErr)
		plan.Errors = append(plan.Errors, PlanError{Kind: SourceUnavailable, Part: PartTags, Err: tagsErr})
	} else {
		plan.Tags = SortTags(tags)
	}
	return plan, nil
}

func (a *Assembler) listingItems(pages []*tree.Page) []ListingItem {
	items := make([]ListingItem, 0, len(pages))
	for _, page := range pages {
		if page == nil {
			continue
		}
		item := ListingItem{
			ID:     page.ID,
			Type:   page.Type,
			Slug:   page.Slug,
			Locale: page.Locale,
			Meta:   page.Meta.Clone(),
		}
		if len(page.Root) > 0 {
			if cleaned := sanitize.Clean(page, a.reg, a.mainTypes); !cleaned.Empty() {
				item.Content = cleaned.Root
			}
		}
		items = append(items, item)
	}
	SortItems(items)
	return items
}

// SortItems orders items by publish time descending, ties broken by id
// ascending.
func SortItems(items []ListingItem) {
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i].Meta.PublishedAt, items[j].Meta.PublishedAt
		if !left.Equal(right) {
			return left.After(right)
		}
		return items[i].ID < items[j].ID
	})
}

// SortTags returns the tag vocabulary trimmed, de-duplicated, and sorted
// ascending.
func SortTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// NormalizeTag turns a tag filter into its slug form. Filters that do not
// normalise are passed through trimmed.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	normalized, err := slug.Default().Normalize(tag)
	if err != nil || normalized == "" {
		return tag
	}
	return normalized
}
