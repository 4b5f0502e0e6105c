package matching

import (
	"context"
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/spatial"
)

// pointTolerance is the half-width of the rectangle stored for each node.
const pointTolerance = 1e-9

// NodeDataset is the map dataset an index is built from.
type NodeDataset interface {
	AllNodes(ctx context.Context) ([]models.MapNode, error)
	NamedNodeIDs(ctx context.Context) (map[int64]struct{}, error)
}

type indexedNode struct {
	node models.MapNode
	seq  int // dataset order
}

func (n *indexedNode) Bounds() rtreego.Rect {
	return rtreego.Point{n.node.Lat, n.node.Lon}.ToRect(pointTolerance)
}

// NodeIndex holds a whole map dataset in memory behind an R-tree, so a batch
// run queries the map file once instead of once per sample.
type NodeIndex struct {
	tree  *rtreego.Rtree
	named map[int64]struct{}
	size  int
}

// LoadNodeIndex reads every node and named-way reference from ds.
func LoadNodeIndex(ctx context.Context, ds NodeDataset) (*NodeIndex, error) {
	nodes, err := ds.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	named, err := ds.NamedNodeIDs(ctx)
	if err != nil {
		return nil, err
	}

	objs := make([]rtreego.Spatial, len(nodes))
	for i, n := range nodes {
		objs[i] = &indexedNode{node: n, seq: i}
	}

	return &NodeIndex{
		tree:  rtreego.NewTree(2, 25, 50, objs...),
		named: named,
		size:  len(nodes),
	}, nil
}

// Size returns the number of indexed nodes.
func (x *NodeIndex) Size() int {
	return x.size
}

// NodesWithin returns the nodes inside box in dataset order.
func (x *NodeIndex) NodesWithin(_ context.Context, box spatial.Box) ([]models.MapNode, error) {
	rect, err := rtreego.NewRect(
		rtreego.Point{box.MinLat, box.MinLon},
		[]float64{box.MaxLat - box.MinLat, box.MaxLon - box.MinLon},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid search box %+v: %w", box, err)
	}

	var hits []*indexedNode
	for _, obj := range x.tree.SearchIntersect(rect) {
		n := obj.(*indexedNode)
		if box.Contains(n.node.Lat, n.node.Lon) {
			hits = append(hits, n)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	var nodes []models.MapNode
	for _, h := range hits {
		nodes = append(nodes, h.node)
	}
	return nodes, nil
}

// HasKnownName reports whether a named way references the node.
func (x *NodeIndex) HasKnownName(_ context.Context, nodeID int64) (bool, error) {
	_, ok := x.named[nodeID]
	return ok, nil
}
