// Package costmap defines the occupancy source the local planner reads from, an in-memory grid
// implementation of it, and the footprint evaluation built on top of cell costs.
package costmap

// Reserved cell cost values.
const (
	FreeSpace                 uint8 = 0
	InscribedInflatedObstacle uint8 = 253
	LethalObstacle            uint8 = 254
	NoInformation             uint8 = 255
)

// Costmap is a 2D occupancy source. Cell coordinates run from (0, 0) to
// (SizeInCellsX()-1, SizeInCellsY()-1). Implementations must answer every call in bounded time
// without blocking.
type Costmap interface {
	// Cost returns the cost of the cell at the given map coordinates.
	Cost(mx, my int) uint8
	// WorldToMap converts world coordinates to map coordinates. ok is false if the point is off the map.
	WorldToMap(wx, wy float64) (mx, my int, ok bool)
	// MapToWorld returns the world coordinates of the centre of a cell.
	MapToWorld(mx, my int) (wx, wy float64)
	SizeInCellsX() int
	SizeInCellsY() int
	// Resolution is the side length of a cell in meters.
	Resolution() float64
}

// Cell is a pair of map coordinates.
type Cell struct {
	X, Y int
}

// IsImpassable returns whether a cost is lethal, inscribed in an inflated obstacle, or unknown.
func IsImpassable(cost uint8) bool {
	return cost == LethalObstacle || cost == InscribedInflatedObstacle || cost == NoInformation
}
