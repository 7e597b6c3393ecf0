package costmap

import "go.viam.com/localplanner/utils"

// RayTrace visits every cell on the Bresenham line from (x0, y0) to (x1, y1), endpoints included.
// Tracing stops early if visit returns false.
func RayTrace(x0, y0, x1, y1 int, visit func(x, y int) bool) {
	deltaX := utils.AbsInt(x1 - x0)
	deltaY := utils.AbsInt(y1 - y0)
	x, y := x0, y0

	xInc1, xInc2 := 1, 1
	if x1 < x0 {
		xInc1, xInc2 = -1, -1
	}
	yInc1, yInc2 := 1, 1
	if y1 < y0 {
		yInc1, yInc2 = -1, -1
	}

	var den, num, numAdd, numPixels int
	if deltaX >= deltaY {
		// at least one x-value for every y-value
		xInc1 = 0
		yInc2 = 0
		den = deltaX
		num = deltaX / 2
		numAdd = deltaY
		numPixels = deltaX
	} else {
		xInc2 = 0
		yInc1 = 0
		den = deltaY
		num = deltaY / 2
		numAdd = deltaX
		numPixels = deltaY
	}

	for curPixel := 0; curPixel <= numPixels; curPixel++ {
		if !visit(x, y) {
			return
		}
		num += numAdd
		if num >= den {
			num -= den
			x += xInc1
			y += yInc1
		}
		x += xInc2
		y += yInc2
	}
}

// LineCells returns the cells on the Bresenham line between two cells.
func LineCells(x0, y0, x1, y1 int) []Cell {
	cells := make([]Cell, 0, utils.MaxInt(utils.AbsInt(x1-x0), utils.AbsInt(y1-y0))+1)
	RayTrace(x0, y0, x1, y1, func(x, y int) bool {
		cells = append(cells, Cell{x, y})
		return true
	})
	return cells
}

// PointCost returns the cost of a single cell, or -1 if the cell is impassable.
func PointCost(cm Costmap, x, y int) float64 {
	cost := cm.Cost(x, y)
	if IsImpassable(cost) {
		return -1
	}
	return float64(cost)
}

// LineCost returns the maximum cost of the cells on the line between two cells, or -1 as soon as
// any of them is impassable.
func LineCost(cm Costmap, x0, y0, x1, y1 int) float64 {
	lineCost := 0.0
	blocked := false
	RayTrace(x0, y0, x1, y1, func(x, y int) bool {
		pointCost := PointCost(cm, x, y)
		if pointCost < 0 {
			blocked = true
			return false
		}
		if lineCost < pointCost {
			lineCost = pointCost
		}
		return true
	})
	if blocked {
		return -1
	}
	return lineCost
}
