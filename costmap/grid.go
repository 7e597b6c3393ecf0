package costmap

import (
	"math"

	"github.com/pkg/errors"
)

// Grid is a dense in-memory Costmap. It is not safe for concurrent mutation while a planning cycle
// reads from it.
type Grid struct {
	sizeX, sizeY     int
	resolution       float64
	originX, originY float64
	costs            []uint8
}

// NewGrid returns a grid of free cells whose lower-left corner sits at (originX, originY).
func NewGrid(sizeX, sizeY int, resolution, originX, originY float64) (*Grid, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return nil, errors.Errorf("grid dimensions must be positive, got %dx%d", sizeX, sizeY)
	}
	if resolution <= 0 || math.IsNaN(resolution) || math.IsInf(resolution, 0) {
		return nil, errors.Errorf("grid resolution must be a positive number, got %f", resolution)
	}
	return &Grid{
		sizeX:      sizeX,
		sizeY:      sizeY,
		resolution: resolution,
		originX:    originX,
		originY:    originY,
		costs:      make([]uint8, sizeX*sizeY),
	}, nil
}

// Cost returns the cost of a cell. Out of bounds cells are unknown.
func (g *Grid) Cost(mx, my int) uint8 {
	if !g.inBounds(mx, my) {
		return NoInformation
	}
	return g.costs[my*g.sizeX+mx]
}

// SetCost sets the cost of a cell. Out of bounds writes are ignored.
func (g *Grid) SetCost(mx, my int, cost uint8) {
	if !g.inBounds(mx, my) {
		return
	}
	g.costs[my*g.sizeX+mx] = cost
}

// SetWorldCost sets the cost of the cell containing a world point, returning false if it is off the map.
func (g *Grid) SetWorldCost(wx, wy float64, cost uint8) bool {
	mx, my, ok := g.WorldToMap(wx, wy)
	if !ok {
		return false
	}
	g.SetCost(mx, my, cost)
	return true
}

// Fill sets every cell to the given cost.
func (g *Grid) Fill(cost uint8) {
	for i := range g.costs {
		g.costs[i] = cost
	}
}

// WorldToMap converts world coordinates to map coordinates.
func (g *Grid) WorldToMap(wx, wy float64) (int, int, bool) {
	if wx < g.originX || wy < g.originY {
		return 0, 0, false
	}
	mx := int((wx - g.originX) / g.resolution)
	my := int((wy - g.originY) / g.resolution)
	if mx < g.sizeX && my < g.sizeY {
		return mx, my, true
	}
	return 0, 0, false
}

// MapToWorld returns the world coordinates of the centre of a cell.
func (g *Grid) MapToWorld(mx, my int) (float64, float64) {
	return g.originX + (float64(mx)+0.5)*g.resolution, g.originY + (float64(my)+0.5)*g.resolution
}

// SizeInCellsX returns the width of the grid.
func (g *Grid) SizeInCellsX() int {
	return g.sizeX
}

// SizeInCellsY returns the height of the grid.
func (g *Grid) SizeInCellsY() int {
	return g.sizeY
}

// Resolution returns the cell side length in meters.
func (g *Grid) Resolution() float64 {
	return g.resolution
}

func (g *Grid) inBounds(mx, my int) bool {
	return mx >= 0 && my >= 0 && mx < g.sizeX && my < g.sizeY
}
