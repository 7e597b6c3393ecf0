// Package mapgrid implements the distance grids the local planner scores trajectories against: a
// wavefront distance to every pose of the reference path and a wavefront distance to the local goal.
package mapgrid

import (
	"go.viam.com/localplanner/costmap"
)

// MapCell is one cell of a DistanceGrid.
type MapCell struct {
	CX, CY int

	// TargetDist is the number of 4-connected steps from the nearest seed cell, or one of the
	// grid's obstacle / unreachable sentinels.
	TargetDist float64
	// TargetMark is set once the wavefront has visited the cell.
	TargetMark bool
	// WithinRobot is set for cells under the robot footprint. They are never treated as obstacles.
	WithinRobot bool
}

// DistanceGrid is a dense grid of MapCells laid over a costmap.
type DistanceGrid struct {
	sizeX, sizeY int
	cells        []MapCell

	goalX, goalY float64
	goalValid    bool

	queue []int
}

// NewDistanceGrid returns a grid of the given dimensions with every cell unreachable.
func NewDistanceGrid(sizeX, sizeY int) *DistanceGrid {
	g := &DistanceGrid{}
	g.SizeCheck(sizeX, sizeY)
	return g
}

// SizeCheck reallocates the grid if its dimensions differ from the given ones. Every cell is reset
// when that happens.
func (g *DistanceGrid) SizeCheck(sizeX, sizeY int) {
	if g.sizeX == sizeX && g.sizeY == sizeY && g.cells != nil {
		return
	}
	g.sizeX, g.sizeY = sizeX, sizeY
	g.cells = make([]MapCell, sizeX*sizeY)
	g.queue = make([]int, 0, sizeX+sizeY)
	for y := 0; y < sizeY; y++ {
		for x := 0; x < sizeX; x++ {
			cell := &g.cells[g.index(x, y)]
			cell.CX, cell.CY = x, y
		}
	}
	g.ResetAll()
}

// SizeX returns the width of the grid in cells.
func (g *DistanceGrid) SizeX() int {
	return g.sizeX
}

// SizeY returns the height of the grid in cells.
func (g *DistanceGrid) SizeY() int {
	return g.sizeY
}

// ObstacleCosts is the distance assigned to cells that block the wavefront. Any distance at or
// above it is impossible to reach.
func (g *DistanceGrid) ObstacleCosts() float64 {
	return float64(g.sizeX * g.sizeY)
}

// UnreachableCellCosts is the distance of cells the wavefront never reached.
func (g *DistanceGrid) UnreachableCellCosts() float64 {
	return float64(g.sizeX*g.sizeY + 1)
}

// Cell returns the cell at the given coordinates. The coordinates must be inside the grid.
func (g *DistanceGrid) Cell(x, y int) *MapCell {
	return &g.cells[g.index(x, y)]
}

// TargetDist returns the propagated distance of a cell, or UnreachableCellCosts for coordinates
// outside the grid.
func (g *DistanceGrid) TargetDist(x, y int) float64 {
	if x < 0 || y < 0 || x >= g.sizeX || y >= g.sizeY {
		return g.UnreachableCellCosts()
	}
	return g.cells[g.index(x, y)].TargetDist
}

// ResetAll marks every cell unreachable and unvisited, and clears the within-robot flags.
func (g *DistanceGrid) ResetAll() {
	unreachable := g.UnreachableCellCosts()
	for i := range g.cells {
		g.cells[i].TargetDist = unreachable
		g.cells[i].TargetMark = false
		g.cells[i].WithinRobot = false
	}
	g.goalValid = false
}

// MarkWithinRobot flags the given cells as covered by the robot. Cells outside the grid are ignored.
func (g *DistanceGrid) MarkWithinRobot(cells []costmap.Cell) {
	for _, c := range cells {
		if c.X < 0 || c.Y < 0 || c.X >= g.sizeX || c.Y >= g.sizeY {
			continue
		}
		g.cells[g.index(c.X, c.Y)].WithinRobot = true
	}
}

// LocalGoal returns the world coordinates of the cell the grid was last seeded from by SetLocalGoal.
func (g *DistanceGrid) LocalGoal() (float64, float64, bool) {
	return g.goalX, g.goalY, g.goalValid
}

func (g *DistanceGrid) index(x, y int) int {
	return y*g.sizeX + x
}
