// Package assembler builds render plans: it fetches the header, footer, and
// main page of a request concurrently, sanitizes whatever arrived, and
// records which parts are absent and why.
package assembler

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-delivery/internal/blocks"
	"github.com/goliatone/go-delivery/internal/identity"
	"github.com/goliatone/go-delivery/internal/logging"
	"github.com/goliatone/go-delivery/internal/sanitize"
	"github.com/goliatone/go-delivery/internal/source"
	"github.com/goliatone/go-delivery/internal/tree"
	"github.com/goliatone/go-delivery/pkg/interfaces"
)

const tracerName = "github.com/goliatone/go-delivery/internal/assembler"

const (
	defaultHeaderSlug = "header"
	defaultFooterSlug = "footer"
	defaultPageSize   = 20
)

// Assembler turns (locale, slug) requests into render plans. It holds no
// per-request state and is safe for concurrent use.
type Assembler struct {
	src         source.Source
	reg         *blocks.Registry
	logger      interfaces.Logger
	tracer      trace.Tracer
	headerSlug  string
	footerSlug  string
	mainTypes   []string
	headerTypes []string
	footerTypes []string
	pageSize    int
}

// New builds an Assembler over src and reg.
func New(src source.Source, reg *blocks.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		src:         src,
		reg:         reg,
		logger:      logging.NoOp(),
		tracer:      otel.Tracer(tracerName),
		headerSlug:  defaultHeaderSlug,
		footerSlug:  defaultFooterSlug,
		mainTypes:   []string{blocks.PageTypePage, blocks.PageTypeBlogPost},
		headerTypes: []string{blocks.PageTypeHeader},
		footerTypes: []string{blocks.PageTypeFooter},
		pageSize:    defaultPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Registry returns the registry trees are sanitized against.
func (a *Assembler) Registry() *blocks.Registry {
	return a.reg
}

type target struct {
	part    Part
	query   source.PageQuery
	allowed []string
}

type outcome struct {
	part Part
	page *tree.Page
	err  error
}

// Assemble builds the plan for slug in locale. Fetch failures never surface
// as errors; the only error is ctx's, returned without a plan when the
// request is cancelled.
func (a *Assembler) Assemble(ctx context.Context, locale, slug string) (*RenderPlan, error) {
	ctx, span := a.tracer.Start(ctx, "assembler.assemble", trace.WithAttributes(
		attribute.String("delivery.locale", locale),
		attribute.String("delivery.slug", slug),
	))
	defer span.End()

	plan := &RenderPlan{
		ID:     identity.RenderPlanID(locale, slug),
		Locale: locale,
		Slug:   slug,
		Errors: []PlanError{},
	}
	logger := logging.WithPageContext(a.logger.WithContext(ctx), locale, slug, "")

	if !source.HasCredentials(a.src) {
		logger.Warn("assembler.credentials.missing")
		span.SetAttributes(attribute.Bool("delivery.credentials_missing", true))
		plan.Errors = append(plan.Errors, PlanError{Kind: MissingCredentials, Err: source.ErrMissingCredentials})
		return plan, nil
	}

	outcomes := a.fetchAll(ctx, a.structural(locale), target{
		part:    PartMain,
		query:   source.PageQuery{Slug: slug, Locale: locale},
		allowed: a.mainTypes,
	})
	if err := ctx.Err(); err != nil {
		logger.Debug("assembler.cancelled", "error", err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, err
	}

	for _, result := range outcomes {
		a.place(logger, plan, result)
	}
	span.SetAttributes(attribute.Int("delivery.errors", len(plan.Errors)))
	return plan, nil
}

// AssemblePreview builds a plan around the draft page behind token. Header
// and footer are fetched for the draft's locale once the draft is known.
func (a *Assembler) AssemblePreview(ctx context.Context, token string) (*RenderPlan, error) {
	ctx, span := a.tracer.Start(ctx, "assembler.assemble_preview")
	defer span.End()

	plan := &RenderPlan{Errors: []PlanError{}}
	logger := a.logger.WithContext(ctx)

	if !source.HasCredentials(a.src) {
		logger.Warn("assembler.credentials.missing", "preview", true)
		plan.Errors = append(plan.Errors, PlanError{Kind: MissingCredentials, Err: source.ErrMissingCredentials})
		return plan, nil
	}

	draft, err := a.src.FetchPagePreview(ctx, token)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		logger.Warn("assembler.preview.failed", "error", err)
		span.RecordError(err)
		plan.Errors = append(plan.Errors, PlanError{Kind: SourceUnavailable, Part: PartMain, Err: err})
		return plan, nil
	}

	plan.Locale = draft.Locale
	plan.Slug = draft.Slug
	plan.ID = identity.RenderPlanID(draft.Locale, draft.Slug)
	logger = logging.WithPageContext(logger, draft.Locale, draft.Slug, "")

	outcomes := a.fetchAll(ctx, a.structural(draft.Locale))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	outcomes = orderParts(append(outcomes, fetched{
		outcome: outcome{part: PartMain, page: draft},
		allowed: a.mainTypes,
	}))
	for _, result := range outcomes {
		a.place(logger, plan, result)
	}
	return plan, nil
}

func (a *Assembler) structural(locale string) []target {
	return []target{
		{
			part:    PartHeader,
			query:   source.PageQuery{Type: blocks.PageTypeHeader, Slug: a.headerSlug, Locale: locale},
			allowed: a.headerTypes,
		},
		{
			part:    PartFooter,
			query:   source.PageQuery{Type: blocks.PageTypeFooter, Slug: a.footerSlug, Locale: locale},
			allowed: a.footerTypes,
		},
	}
}

type fetched struct {
	outcome
	allowed []string
}

// fetchAll runs every target concurrently and waits for all of them. No
// failure cancels its siblings; only ctx does.
func (a *Assembler) fetchAll(ctx context.Context, targets []target, extra ...target) []fetched {
	targets = append(targets, extra...)
	results := make([]fetched, len(targets))
	var group errgroup.Group
	for i, t := range targets {
		group.Go(func() error {
			results[i] = fetched{outcome: a.fetch(ctx, t), allowed: t.allowed}
			return nil
		})
	}
	_ = group.Wait()
	return orderParts(results)
}

func (a *Assembler) fetch(ctx context.Context, t target) outcome {
	ctx, span := a.tracer.Start(ctx, "assembler.fetch", trace.WithAttributes(
		attribute.String("delivery.part", string(t.part)),
		attribute.String("delivery.slug", t.query.Slug),
	))
	defer span.End()

	page, err := a.src.FetchPage(ctx, t.query)
	if err == nil && page == nil {
		err = source.Fail(source.OpFetchPage, source.ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
	}
	return outcome{part: t.part, page: page, err: err}
}

// place sanitizes one fetched part into plan. A failed fetch is recorded as
// SourceUnavailable; a tree that sanitizes to nothing is absent without an
// error.
func (a *Assembler) place(logger interfaces.Logger, plan *RenderPlan, result fetched) {
	partLogger := logging.WithPageContext(logger, "", "", string(result.part))
	if result.err != nil {
		partLogger.Warn("assembler.fetch.failed", "error", result.err, "not_found", errors.Is(result.err, source.ErrNotFound))
		plan.Errors = append(plan.Errors, PlanError{Kind: SourceUnavailable, Part: result.part, Err: result.err})
		return
	}
	cleaned, report := sanitize.CleanWithReport(result.page, a.reg, result.allowed)
	if report.Changed() {
		partLogger.Debug("assembler.sanitize.pruned",
			"dropped_nodes", report.DroppedNodes,
			"dropped_props", report.DroppedProps,
			"defaulted_props", report.DefaultedProps,
			"filled_props", report.FilledProps,
			"assigned_ids", report.AssignedIDs,
		)
	}
	if cleaned.Empty() {
		partLogger.Info("assembler.part.empty", "page_type", result.page.Type)
		return
	}
	plan.set(result.part, cleaned)
}

// orderParts puts results in header, main, footer order so plan errors are
// deterministic.
func orderParts(results []fetched) []fetched {
	rank := map[Part]int{PartHeader: 0, PartMain: 1, PartFooter: 2}
	sort.SliceStable(results, func(i, j int) bool {
		return rank[results[i].part] < rank[results[j].part]
	})
	return results
}
