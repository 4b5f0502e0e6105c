// Package batch anchors every trace store below a directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/matching"
	"github.com/elasticpathing/traceprep/internal/metrics"
	"github.com/elasticpathing/traceprep/internal/repository"
	"github.com/elasticpathing/traceprep/internal/trace"
	"github.com/elasticpathing/traceprep/internal/walk"
)

type outcome int

const (
	outcomeAnchored outcome = iota
	outcomeFallback
	outcomeSkipped
	outcomeEmpty
)

// Driver runs the matcher over a tree of trace stores.
type Driver struct {
	matcher  *matching.Matcher
	suffix   string
	metrics  *metrics.Collector
	log      *zap.Logger
	progress io.Writer
}

// NewDriver creates a driver visiting files ending in suffix. A nil collector
// gets a private one.
func NewDriver(m *matching.Matcher, suffix string, collector *metrics.Collector, logger *zap.Logger) *Driver {
	if suffix == "" {
		suffix = trace.DefaultStoreSuffix
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		matcher: m,
		suffix:  suffix,
		metrics: collector,
		log:     logger.Named("batch"),
	}
}

// WithProgress makes Run print a running count line to w after each store.
func (d *Driver) WithProgress(w io.Writer) *Driver {
	d.progress = w
	return d
}

// Run anchors every unanchored store under root. Stores that already carry
// an anchor are left untouched, so running twice is safe. The first storage
// error stops the run; the summary returned alongside it covers the stores
// handled before the failure.
func (d *Driver) Run(ctx context.Context, root string) (*Summary, error) {
	paths, err := walk.Files(root, d.suffix)
	if err != nil {
		return nil, err
	}

	sum := &Summary{RunID: uuid.NewString(), Stores: len(paths)}
	log := d.log.With(zap.String("run_id", sum.RunID))
	log.Info("Starting batch", zap.String("root", root), zap.Int("stores", sum.Stores))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := d.processStore(ctx, path, log)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", path, err)
		}

		switch res {
		case outcomeAnchored:
			sum.Total++
			d.metrics.TracesProcessed.Inc()
		case outcomeFallback:
			sum.Total++
			sum.Fallback++
			d.metrics.TracesProcessed.Inc()
			d.metrics.TracesFallback.Inc()
		case outcomeSkipped:
			sum.Skipped++
			d.metrics.TracesSkipped.Inc()
		case outcomeEmpty:
			sum.Empty++
			d.metrics.TracesEmpty.Inc()
		}

		log.Debug("Progress",
			zap.Int("total", sum.Total),
			zap.Int("fallback", sum.Fallback),
			zap.Float64("percent", sum.Percent()))
		if d.progress != nil {
			fmt.Fprintln(d.progress, sum.Running())
		}
	}

	log.Info("Batch finished",
		zap.Int("total", sum.Total),
		zap.Int("fallback", sum.Fallback),
		zap.Int("skipped", sum.Skipped),
		zap.Int("empty", sum.Empty))
	return sum, nil
}

func (d *Driver) processStore(ctx context.Context, path string, log *zap.Logger) (outcome, error) {
	db, err := database.Open(ctx, database.Config{Path: path})
	if err != nil {
		return 0, err
	}
	defer db.Close()

	repo := repository.NewTraceRepository(db)

	anchored, err := repo.HasAnchor(ctx)
	if err != nil {
		return 0, err
	}
	if anchored {
		log.Debug("Store already anchored", zap.String("path", path))
		return outcomeSkipped, nil
	}

	samples, err := repo.SamplesBySecond(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	m, err := d.matcher.Match(ctx, samples)
	if errors.Is(err, matching.ErrEmptyTrace) {
		log.Warn("Store has no samples", zap.String("path", path))
		return outcomeEmpty, nil
	}
	if err != nil {
		return 0, err
	}
	if err := matching.Record(ctx, repo, m); err != nil {
		return 0, err
	}
	d.metrics.MatchDuration.Observe(time.Since(start).Seconds())

	log.Info("Anchored store",
		zap.String("path", path),
		zap.Int("index", m.Index),
		zap.Int64("node", m.Anchor.NodeID()),
		zap.Float64("distance", m.Distance),
		zap.Bool("fallback", m.Fallback))

	if m.Fallback {
		return outcomeFallback, nil
	}
	return outcomeAnchored, nil
}
