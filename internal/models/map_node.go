package models

// UnknownRoadName marks an unnamed way in the map dataset.
const UnknownRoadName = "unknown"

// NoNodeID is persisted in the anchor table when no map node could be found.
const NoNodeID int64 = -1

// MapNode is a road-network node from the map dataset.
type MapNode struct {
	ID  int64
	Lat float64
	Lon float64
}

// Anchor ties a trace store to the road node where the trace starts.
type Anchor struct {
	Time int64    // sample time, milliseconds since midnight
	Node *MapNode // nil when no node was found near the trace
}

// NodeID returns the id persisted for the anchor.
func (a Anchor) NodeID() int64 {
	if a.Node == nil {
		return NoNodeID
	}
	return a.Node.ID
}
