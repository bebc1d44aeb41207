package redaction

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/shroud/internal/metrics"
	"github.com/JaimeStill/shroud/pkg/document"
)

// Apply marks every valid zone on doc and commits each marked page exactly
// once. Invalid zones are skipped with a diagnostic and never affect other
// zones. A commit failure fails the whole call; the caller must then discard
// doc. workers caps page concurrency; zero or negative means the number of
// CPUs.
func Apply(ctx context.Context, doc document.Document, zones []Zone, workers int, logger *slog.Logger) (Report, error) {
	start := time.Now()
	pages := doc.Pages()
	report := Report{Diagnostics: []ZoneDiagnostic{}, Residual: []ZoneDiagnostic{}}

	marked := make(map[int]bool)
	for i, z := range zones {
		page, rect, diag := validateZone(i, z, pages)
		if diag != nil {
			report.Skipped++
			report.Diagnostics = append(report.Diagnostics, *diag)
			metrics.ZonesTotal.WithLabelValues("skipped").Inc()
			logger.WarnContext(
				ctx, "zone skipped",
				"zone", i,
				"page", z.Page,
				"reason", diag.Reason,
			)
			continue
		}

		page.MarkRegion(rect)
		marked[page.Index()] = true
		report.Applied++
		metrics.ZonesTotal.WithLabelValues("applied").Inc()

		if diag := residualZone(i, z, page, rect); diag != nil {
			report.Residual = append(report.Residual, *diag)
			logger.WarnContext(
				ctx, "zone covers content that cannot be removed",
				"zone", i,
				"page", z.Page,
				"detail", diag.Error,
			)
		}
	}

	var targets []document.Page
	for _, p := range pages {
		if marked[p.Index()] {
			targets = append(targets, p)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(workers, len(targets)))

	for _, p := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := p.CommitMarks(); err != nil {
				return fmt.Errorf("commit page %d: %w", p.Index()+1, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrProcessing, err)
	}

	metrics.StageDuration.WithLabelValues("apply").Observe(time.Since(start).Seconds())
	logger.InfoContext(
		ctx, "zones applied",
		"applied", report.Applied,
		"skipped", report.Skipped,
		"residual", len(report.Residual),
		"pages", len(targets),
	)
	return report, nil
}

func validateZone(i int, z Zone, pages []document.Page) (document.Page, document.Rect, *ZoneDiagnostic) {
	if z.Page < 1 || z.Page > len(pages) {
		return nil, document.Rect{}, &ZoneDiagnostic{
			Index:  i,
			Page:   z.Page,
			Reason: ReasonPageOutOfRange,
			Error:  fmt.Sprintf("page %d not in 1..%d", z.Page, len(pages)),
		}
	}

	rect := z.Rect()
	if !rect.Finite() {
		return nil, document.Rect{}, &ZoneDiagnostic{
			Index:  i,
			Page:   z.Page,
			Reason: ReasonNonFinite,
			Error:  ErrGeometry.Error(),
		}
	}

	page := pages[z.Page-1]
	w, h := page.Size()
	clipped := rect.Normalize().Intersect(document.Rect{X1: w, Y1: h})
	if clipped.Empty() {
		return nil, document.Rect{}, &ZoneDiagnostic{
			Index:  i,
			Page:   z.Page,
			Reason: ReasonOutsidePage,
			Error:  ErrGeometry.Error(),
		}
	}

	return page, clipped, nil
}

func residualZone(i int, z Zone, page document.Page, rect document.Rect) *ZoneDiagnostic {
	reporter, ok := page.(document.ResidualReporter)
	if !ok {
		return nil
	}
	regions := reporter.Residual(rect)
	if len(regions) == 0 {
		return nil
	}
	return &ZoneDiagnostic{
		Index:  i,
		Page:   z.Page,
		Reason: ReasonContentNotRemoved,
		Error:  fmt.Sprintf("%d embedded form region(s) painted over but not removed", len(regions)),
	}
}

func workerCount(workers, pageCount int) int {
	n := min(runtime.NumCPU(), pageCount)
	if workers > 0 {
		n = min(n, workers)
	}
	return max(n, 1)
}
