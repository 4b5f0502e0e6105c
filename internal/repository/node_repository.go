package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/spatial"
)

// NodeRepository reads road nodes and way names from a map dataset.
type NodeRepository struct {
	db *sql.DB
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(db *sql.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// NodesWithin returns the nodes inside box in dataset order.
func (r *NodeRepository) NodesWithin(ctx context.Context, box spatial.Box) ([]models.MapNode, error) {
	query := `SELECT id, latitude, longitude FROM nodes
		WHERE latitude BETWEEN ? AND ?
		AND longitude BETWEEN ? AND ?`

	rows, err := r.db.QueryContext(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// AllNodes returns every node of the dataset in dataset order.
func (r *NodeRepository) AllNodes(ctx context.Context) ([]models.MapNode, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, latitude, longitude FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// HasKnownName reports whether any way with a real name references the node.
func (r *NodeRepository) HasKnownName(ctx context.Context, nodeID int64) (bool, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT name FROM ways WHERE name != ? AND nid = ? LIMIT 1`,
		models.UnknownRoadName, nodeID).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up way name for node %d: %w", nodeID, err)
	}
	return true, nil
}

// NamedNodeIDs returns the ids of all nodes referenced by a named way.
func (r *NodeRepository) NamedNodeIDs(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT nid FROM ways WHERE name != ?`, models.UnknownRoadName)
	if err != nil {
		return nil, fmt.Errorf("failed to query named nodes: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan node id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read named nodes: %w", err)
	}

	return ids, nil
}

func scanNodes(rows *sql.Rows) ([]models.MapNode, error) {
	var nodes []models.MapNode
	for rows.Next() {
		var n models.MapNode
		if err := rows.Scan(&n.ID, &n.Lat, &n.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read nodes: %w", err)
	}
	return nodes, nil
}
