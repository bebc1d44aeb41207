package redaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/metrics"
	"github.com/JaimeStill/shroud/pkg/document"
)

// System defines the public contract for redaction domain operations.
// Every call opens its own copy of the document; no state is kept between
// calls.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Detect(ctx context.Context, cmd DetectCommand) (*Detection, error)
	Redact(ctx context.Context, cmd RedactCommand) (*Outcome, error)
	AutoRedact(ctx context.Context, cmd AutoRedactCommand) (*Outcome, error)
	Catalog() Catalog
}

type pipeline struct {
	opener     *document.Opener
	aggregator *detection.Aggregator
	workers    int
	logger     *slog.Logger
}

// New creates the redaction pipeline implementing the System interface.
// workers caps per-document page concurrency for commits.
func New(
	opener *document.Opener,
	aggregator *detection.Aggregator,
	workers int,
	logger *slog.Logger,
) System {
	return &pipeline{
		opener:     opener,
		aggregator: aggregator,
		workers:    workers,
		logger:     logger.With("system", "redaction"),
	}
}

func (p *pipeline) Handler(maxUploadSize int64) *Handler {
	return NewHandler(p, p.logger, maxUploadSize)
}

func (p *pipeline) Catalog() Catalog {
	reg := p.aggregator.Registry()
	return Catalog{
		Primary:     reg.Primary(),
		Languages:   reg.Languages(),
		Diagnostics: reg.Diagnostics(),
	}
}

func (p *pipeline) Detect(ctx context.Context, cmd DetectCommand) (*Detection, error) {
	doc, err := p.open(cmd.Data, cmd.Filename)
	if err != nil {
		return nil, err
	}

	lang, findings, err := p.findings(ctx, doc, cmd.Language)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(
		ctx, "document scanned",
		"filename", cmd.Filename,
		"language", lang,
		"pages", len(doc.Pages()),
		"findings", len(findings),
	)

	return &Detection{
		Filename:    cmd.Filename,
		Language:    lang,
		PageCount:   len(doc.Pages()),
		Findings:    findings,
		Diagnostics: p.aggregator.Registry().Diagnostics(),
	}, nil
}

func (p *pipeline) Redact(ctx context.Context, cmd RedactCommand) (*Outcome, error) {
	doc, err := p.open(cmd.Data, cmd.Filename)
	if err != nil {
		return nil, err
	}
	return p.apply(ctx, doc, cmd.Filename, cmd.Zones)
}

func (p *pipeline) AutoRedact(ctx context.Context, cmd AutoRedactCommand) (*Outcome, error) {
	doc, err := p.open(cmd.Data, cmd.Filename)
	if err != nil {
		return nil, err
	}

	_, findings, err := p.findings(ctx, doc, cmd.Language)
	if err != nil {
		return nil, err
	}

	return p.apply(ctx, doc, cmd.Filename, Zones(findings))
}

func (p *pipeline) open(data []byte, filename string) (document.Document, error) {
	if len(data) == 0 {
		return nil, ErrMissingDocument
	}
	if strings.TrimSpace(filename) == "" {
		return nil, ErrEmptyFilename
	}

	start := time.Now()
	doc, err := p.opener.Open(data)
	if err != nil {
		if errors.Is(err, document.ErrUnsupported) {
			return nil, ErrUnsupportedDocument
		}
		return nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}
	metrics.StageDuration.WithLabelValues("open").Observe(time.Since(start).Seconds())

	return doc, nil
}

// findings runs detection over every page and resolves the results to
// geometry, in page order.
func (p *pipeline) findings(ctx context.Context, doc document.Document, language string) (string, []Finding, error) {
	pages := doc.Pages()

	lang, byPage, err := p.aggregator.Aggregate(ctx, pages, language)
	if err != nil {
		return lang, nil, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	start := time.Now()
	findings := []Finding{}
	for _, page := range pages {
		findings = append(findings, Resolve(page, byPage[page.Index()])...)
	}
	metrics.StageDuration.WithLabelValues("resolve").Observe(time.Since(start).Seconds())
	metrics.FindingsTotal.WithLabelValues(lang).Add(float64(len(findings)))

	return lang, findings, nil
}

func (p *pipeline) apply(ctx context.Context, doc document.Document, filename string, zones []Zone) (*Outcome, error) {
	report, err := Apply(ctx, doc, zones, p.workers, p.logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrProcessing, err)
	}
	metrics.StageDuration.WithLabelValues("serialize").Observe(time.Since(start).Seconds())

	return &Outcome{
		Data:        data,
		Filename:    OutputFilename(filename),
		ContentType: doc.ContentType(),
		Report:      report,
	}, nil
}

// OutputFilename returns the download name for a redacted document.
func OutputFilename(filename string) string {
	return "redacted_" + filepath.Base(filename)
}
