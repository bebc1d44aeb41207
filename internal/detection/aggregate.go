package detection

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

// Aggregator runs a language's detector set over every page of a document.
type Aggregator struct {
	registry *Registry
	workers  int
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator. workers caps page concurrency; zero
// or negative means the number of CPUs.
func NewAggregator(registry *Registry, workers int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		registry: registry,
		workers:  workers,
		logger:   logger.With("component", "aggregator"),
	}
}

// Registry returns the registry the aggregator dispatches to.
func (a *Aggregator) Registry() *Registry { return a.registry }

// Aggregate returns the adapted results for each page index along with the
// language whose set served the request. Results keep detector order and are
// not deduplicated. A detector error on a page is logged and contributes no
// results; only cancellation of ctx fails the call.
func (a *Aggregator) Aggregate(ctx context.Context, pages []document.Page, language string) (string, map[int][]Result, error) {
	start := time.Now()
	lang, detectors := a.registry.Resolve(language)
	results := make([][]Result, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workerCount(len(pages)))

	for i, page := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = a.detectPage(gctx, page, lang, detectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return lang, nil, fmt.Errorf("aggregate: %w", err)
	}

	byPage := make(map[int][]Result, len(pages))
	for i, page := range pages {
		if len(results[i]) > 0 {
			byPage[page.Index()] = results[i]
		}
	}

	metrics.StageDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	return lang, byPage, nil
}

func (a *Aggregator) detectPage(ctx context.Context, page document.Page, lang string, detectors []Detector) []Result {
	text := page.Text()
	if text == "" {
		return nil
	}

	var out []Result
	for _, d := range detectors {
		raws, err := d.Detect(ctx, text, lang)
		if err != nil {
			metrics.DetectorErrorsTotal.WithLabelValues(d.Name()).Inc()
			a.logger.WarnContext(
				ctx, "detector failed, page continues without its results",
				"detector", d.Name(),
				"page", page.Index()+1,
				"error", err,
			)
			continue
		}

		src := Source{Name: d.Name(), Kind: d.Kind()}
		for _, raw := range raws {
			res, ok := Adapt(raw, src, text, a.registry.Floor())
			if !ok {
				continue
			}
			metrics.DetectionsTotal.WithLabelValues(lang, res.EntityType, res.Source).Inc()
			out = append(out, res)
		}
	}
	return out
}

func (a *Aggregator) workerCount(pageCount int) int {
	n := min(runtime.NumCPU(), pageCount)
	if a.workers > 0 {
		n = min(n, a.workers)
	}
	return max(n, 1)
}
