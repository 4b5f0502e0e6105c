// Package matching anchors trace stores to road-network nodes.
//
// The heuristic walks a trace's samples in time order, takes the nearest map
// node inside a small box around each sample and accepts the first one that
// lies on a named road within the distance threshold. When no sample
// qualifies the closest named candidate seen during the scan is used instead,
// so every trace receives exactly one anchor.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/spatial"
)

// Defaults calibrated against the law-of-cosines distance.
const (
	DefaultSearchRadius = 0.005 // degrees
	DefaultThreshold    = 0.01  // miles
)

// ErrEmptyTrace is returned when a trace store holds no samples.
var ErrEmptyTrace = errors.New("trace has no samples")

// NodeSource gives access to the road-network nodes of a map dataset.
type NodeSource interface {
	// NodesWithin returns the nodes inside box in dataset order.
	NodesWithin(ctx context.Context, box spatial.Box) ([]models.MapNode, error)
	// HasKnownName reports whether a named way references the node.
	HasKnownName(ctx context.Context, nodeID int64) (bool, error)
}

// Options configures a Matcher. Zero values take the defaults.
type Options struct {
	SearchRadius float64
	Threshold    float64
	Formula      spatial.Formula
}

// Match is the anchor chosen for one trace.
type Match struct {
	Anchor   models.Anchor
	Sample   models.TraceSample
	Index    int     // position of Sample in the scanned samples
	Distance float64 // miles between Sample and the node; NaN without a node
	Fallback bool    // true when no sample passed both filters
}

// Matcher finds the road node where a trace starts.
type Matcher struct {
	nodes    NodeSource
	radius   float64
	thresh   float64
	distance spatial.DistanceFunc
	log      *zap.Logger
}

// NewMatcher creates a matcher reading nodes from src.
func NewMatcher(src NodeSource, opts Options, logger *zap.Logger) *Matcher {
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = DefaultSearchRadius
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Formula == "" {
		opts.Formula = spatial.FormulaCosines
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		nodes:    src,
		radius:   opts.SearchRadius,
		thresh:   opts.Threshold,
		distance: opts.Formula.Func(),
		log:      logger.Named("matcher"),
	}
}

// Nearest returns the node closest to (lat, lon) inside the search box. ok is
// false when the box holds no node. Ties keep the first node in dataset order.
func (m *Matcher) Nearest(ctx context.Context, lat, lon float64) (node models.MapNode, dist float64, ok bool, err error) {
	candidates, err := m.nodes.NodesWithin(ctx, spatial.BoxAround(lat, lon, m.radius))
	if err != nil {
		return models.MapNode{}, 0, false, err
	}

	dist = math.Inf(1)
	for _, c := range candidates {
		if d := m.distance(lat, lon, c.Lat, c.Lon); d < dist {
			node, dist, ok = c, d, true
		}
	}
	return node, dist, ok, nil
}

// Match picks the anchor for samples, which must be in time order.
func (m *Matcher) Match(ctx context.Context, samples []models.TraceSample) (*Match, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyTrace
	}

	best := 0
	bestDist := math.Inf(1)
	for i, s := range samples {
		node, dist, ok, err := m.Nearest(ctx, s.Lat, s.Lon)
		if err != nil {
			return nil, fmt.Errorf("failed to find node near sample %d: %w", i, err)
		}
		if !ok {
			continue
		}

		named, err := m.nodes.HasKnownName(ctx, node.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check name of node %d: %w", node.ID, err)
		}
		if !named {
			continue
		}

		if dist < m.thresh {
			return &Match{
				Anchor:   models.Anchor{Time: s.Time, Node: &node},
				Sample:   s,
				Index:    i,
				Distance: dist,
			}, nil
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}

	s := samples[best]
	match := &Match{
		Anchor:   models.Anchor{Time: s.Time},
		Sample:   s,
		Index:    best,
		Distance: math.NaN(),
		Fallback: true,
	}

	node, dist, ok, err := m.Nearest(ctx, s.Lat, s.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed to find fallback node: %w", err)
	}
	if ok {
		match.Anchor.Node = &node
		match.Distance = dist
	}

	m.log.Debug("no sample within threshold",
		zap.Int("samples", len(samples)),
		zap.Int("index", best),
		zap.Bool("node_found", ok))
	return match, nil
}
