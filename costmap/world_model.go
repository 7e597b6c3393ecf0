package costmap

import (
	"github.com/golang/geo/r3"

	"go.viam.com/localplanner/spatialmath"
)

// WorldModel evaluates a robot footprint against the world.
type WorldModel interface {
	// FootprintCost returns the cost of placing the robot-frame footprint at the pose. A negative
	// result means the footprint is in collision, off the map, or over unknown space.
	FootprintCost(pose spatialmath.Pose2D, footprint []r3.Vector, inscribedRadius, circumscribedRadius float64) float64
}

// CostmapModel is a WorldModel that rasterizes footprint edges over a Costmap.
type CostmapModel struct {
	costmap Costmap
}

// NewCostmapModel returns a WorldModel backed by the given costmap.
func NewCostmapModel(cm Costmap) *CostmapModel {
	return &CostmapModel{costmap: cm}
}

// FootprintCost returns the maximum cell cost under the footprint edges. Point and line footprints
// are checked by the cell under the pose alone.
func (m *CostmapModel) FootprintCost(
	pose spatialmath.Pose2D,
	footprint []r3.Vector,
	inscribedRadius, circumscribedRadius float64,
) float64 {
	cellX, cellY, ok := m.costmap.WorldToMap(pose.X, pose.Y)
	if !ok {
		return -1
	}

	if len(footprint) < 3 {
		cost := m.costmap.Cost(cellX, cellY)
		switch cost {
		case NoInformation:
			return -2
		case LethalObstacle, InscribedInflatedObstacle:
			return -1
		default:
			return float64(cost)
		}
	}

	oriented := OrientedFootprint(pose, footprint)
	footprintCost := 0.0
	for i := range oriented {
		next := oriented[(i+1)%len(oriented)]
		x0, y0, ok := m.costmap.WorldToMap(oriented[i].X, oriented[i].Y)
		if !ok {
			return -1
		}
		x1, y1, ok := m.costmap.WorldToMap(next.X, next.Y)
		if !ok {
			return -1
		}
		lineCost := LineCost(m.costmap, x0, y0, x1, y1)
		if lineCost < 0 {
			return -1
		}
		footprintCost = max(footprintCost, lineCost)
	}
	return footprintCost
}
