package mapgrid

import (
	"math"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/spatialmath"
)

// AdjustPlanResolution densifies a plan so that consecutive poses are at most resolution apart.
// Inserted poses are linearly interpolated and carry the heading of the pose that follows them.
func AdjustPlanResolution(plan []spatialmath.Pose2D, resolution float64) []spatialmath.Pose2D {
	if len(plan) == 0 {
		return nil
	}
	out := make([]spatialmath.Pose2D, 0, len(plan))
	out = append(out, plan[0])
	for i := 1; i < len(plan); i++ {
		last := plan[i-1]
		next := plan[i]
		dist := last.DistanceTo(next)
		if resolution > 0 && dist > resolution {
			steps := int(math.Ceil(dist / resolution))
			dx := (next.X - last.X) / float64(steps)
			dy := (next.Y - last.Y) / float64(steps)
			for j := 1; j < steps; j++ {
				out = append(out, spatialmath.NewPose2D(last.X+float64(j)*dx, last.Y+float64(j)*dy, next.Theta))
			}
		}
		out = append(out, next)
	}
	return out
}

// leadingInMapCells returns the cells of the first contiguous run of plan poses that are on the
// map and not over unknown space.
func leadingInMapCells(cm costmap.Costmap, plan []spatialmath.Pose2D) []costmap.Cell {
	var cells []costmap.Cell
	for _, pose := range plan {
		mx, my, ok := cm.WorldToMap(pose.X, pose.Y)
		if ok && cm.Cost(mx, my) != costmap.NoInformation {
			cells = append(cells, costmap.Cell{X: mx, Y: my})
			continue
		}
		if len(cells) > 0 {
			break
		}
	}
	return cells
}

// SetTargetCells seeds the grid from every pose of the plan that lies in the local map, then
// propagates. It returns false, leaving the grid untouched, if no pose of the plan is in the map.
func (g *DistanceGrid) SetTargetCells(cm costmap.Costmap, plan []spatialmath.Pose2D) bool {
	g.SizeCheck(cm.SizeInCellsX(), cm.SizeInCellsY())
	seeds := leadingInMapCells(cm, AdjustPlanResolution(plan, cm.Resolution()))
	if len(seeds) == 0 {
		return false
	}
	g.PropagateFrom(cm, seeds)
	return true
}

// SetLocalGoal seeds the grid from the last in-map pose of the plan, then propagates. It returns
// false, leaving the grid untouched, if no pose of the plan is in the map.
func (g *DistanceGrid) SetLocalGoal(cm costmap.Costmap, plan []spatialmath.Pose2D) bool {
	g.SizeCheck(cm.SizeInCellsX(), cm.SizeInCellsY())
	cells := leadingInMapCells(cm, AdjustPlanResolution(plan, cm.Resolution()))
	if len(cells) == 0 {
		return false
	}
	goal := cells[len(cells)-1]
	g.goalX, g.goalY = cm.MapToWorld(goal.X, goal.Y)
	g.goalValid = true
	g.PropagateFrom(cm, []costmap.Cell{goal})
	return true
}
