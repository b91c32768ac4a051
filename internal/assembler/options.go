package assembler

import (
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-delivery/pkg/interfaces"
)

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for fetch and pruning diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStructuralSlugs overrides the slugs of the header and footer pages.
// Empty values keep the current slug.
func WithStructuralSlugs(header, footer string) Option {
	return func(a *Assembler) {
		if trimmed := strings.TrimSpace(header); trimmed != "" {
			a.headerSlug = trimmed
		}
		if trimmed := strings.TrimSpace(footer); trimmed != "" {
			a.footerSlug = trimmed
		}
	}
}

// WithPageTypes overrides the page types accepted for each part. A nil slice
// keeps the current list.
func WithPageTypes(main, header, footer []string) Option {
	return func(a *Assembler) {
		if main != nil {
			a.mainTypes = append([]string(nil), main...)
		}
		if header != nil {
			a.headerTypes = append([]string(nil), header...)
		}
		if footer != nil {
			a.footerTypes = append([]string(nil), footer...)
		}
	}
}

// WithTracer sets the tracer used for assembly and fetch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Assembler) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithListingPageSize sets the page size used when a listing request does
// not carry one.
func WithListingPageSize(size int) Option {
	return func(a *Assembler) {
		if size > 0 {
			a.pageSize = size
		}
	}
}
