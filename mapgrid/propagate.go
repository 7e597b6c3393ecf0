package mapgrid

import (
	"go.viam.com/localplanner/costmap"
)

// PropagateFrom runs a multi-source breadth first wavefront from the seed cells. Seeds get distance
// zero; every other reachable cell gets one more than the cell it was discovered from. Cells that
// are impassable in the costmap, and not under the robot, get ObstacleCosts and stop the wave.
// Seeds outside the grid or on impassable cells are ignored, so with no free seed every cell stays
// unreachable.
func (g *DistanceGrid) PropagateFrom(cm costmap.Costmap, seeds []costmap.Cell) {
	g.queue = g.queue[:0]
	for _, s := range seeds {
		if s.X < 0 || s.Y < 0 || s.X >= g.sizeX || s.Y >= g.sizeY {
			continue
		}
		idx := g.index(s.X, s.Y)
		cell := &g.cells[idx]
		if !cell.WithinRobot && costmap.IsImpassable(cm.Cost(s.X, s.Y)) {
			continue
		}
		cell.TargetDist = 0
		if cell.TargetMark {
			continue
		}
		cell.TargetMark = true
		g.queue = append(g.queue, idx)
	}
	g.computeTargetDistance(cm)
}

func (g *DistanceGrid) computeTargetDistance(cm costmap.Costmap) {
	lastCol := g.sizeX - 1
	lastRow := g.sizeY - 1

	// The queue only ever grows at the tail; head walks forward instead of re-slicing so the
	// backing array is reused across cycles.
	for head := 0; head < len(g.queue); head++ {
		current := &g.cells[g.queue[head]]
		if current.CX > 0 {
			g.visit(cm, current, current.CX-1, current.CY)
		}
		if current.CX < lastCol {
			g.visit(cm, current, current.CX+1, current.CY)
		}
		if current.CY > 0 {
			g.visit(cm, current, current.CX, current.CY-1)
		}
		if current.CY < lastRow {
			g.visit(cm, current, current.CX, current.CY+1)
		}
	}
	g.queue = g.queue[:0]
}

func (g *DistanceGrid) visit(cm costmap.Costmap, current *MapCell, x, y int) {
	idx := g.index(x, y)
	check := &g.cells[idx]
	if check.TargetMark {
		return
	}
	check.TargetMark = true
	if g.updatePathCell(cm, current, check) {
		g.queue = append(g.queue, idx)
	}
}

// updatePathCell relaxes check from current and reports whether the wave may continue through it.
func (g *DistanceGrid) updatePathCell(cm costmap.Costmap, current, check *MapCell) bool {
	if !check.WithinRobot && costmap.IsImpassable(cm.Cost(check.CX, check.CY)) {
		check.TargetDist = g.ObstacleCosts()
		return false
	}
	if newDist := current.TargetDist + 1; newDist < check.TargetDist {
		check.TargetDist = newDist
	}
	return true
}
