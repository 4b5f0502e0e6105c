package matching

import (
	"context"
)

// AnchorWriter persists the anchor row of a trace store.
type AnchorWriter interface {
	SaveAnchor(ctx context.Context, time, nodeID int64) error
}

// Record writes m as the store's only anchor. A match without a node is
// stored with node id -1.
func Record(ctx context.Context, w AnchorWriter, m *Match) error {
	return w.SaveAnchor(ctx, m.Anchor.Time, m.Anchor.NodeID())
}
