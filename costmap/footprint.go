package costmap

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/localplanner/spatialmath"
)

// OrientedFootprint places a robot-frame footprint polygon at a pose.
func OrientedFootprint(pose spatialmath.Pose2D, footprint []r3.Vector) []r3.Vector {
	return lo.Map(footprint, func(pt r3.Vector, _ int) r3.Vector {
		return pose.Transform(pt)
	})
}

// FootprintRadii returns the inscribed radius (distance from the origin to the nearest polygon edge)
// and the circumscribed radius (distance from the origin to the farthest vertex) of a robot-frame footprint.
func FootprintRadii(footprint []r3.Vector) (inscribed, circumscribed float64) {
	if len(footprint) == 0 {
		return 0, 0
	}
	circumscribed = lo.Max(lo.Map(footprint, func(pt r3.Vector, _ int) float64 {
		return math.Hypot(pt.X, pt.Y)
	}))
	if len(footprint) == 1 {
		return circumscribed, circumscribed
	}
	inscribed = math.Inf(1)
	for i := range footprint {
		next := footprint[(i+1)%len(footprint)]
		inscribed = math.Min(inscribed, distanceToSegment(r3.Vector{}, footprint[i], next))
	}
	return inscribed, circumscribed
}

func distanceToSegment(pt, a, b r3.Vector) float64 {
	a.Z, b.Z, pt.Z = 0, 0, 0
	ab := b.Sub(a)
	lenSq := ab.Norm2()
	if lenSq == 0 {
		return pt.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/lenSq))
	return pt.Sub(a.Add(ab.Mul(t))).Norm()
}

// FootprintCells returns the cells covered by a footprint placed at a pose. Footprints with fewer
// than two vertices cover only the cell under the pose. If any vertex falls off the map the cells
// found so far are returned. With fill set, the interior of the polygon is included as well.
func FootprintCells(cm Costmap, pose spatialmath.Pose2D, footprint []r3.Vector, fill bool) []Cell {
	if len(footprint) <= 1 {
		mx, my, ok := cm.WorldToMap(pose.X, pose.Y)
		if !ok {
			return nil
		}
		return []Cell{{mx, my}}
	}

	oriented := OrientedFootprint(pose, footprint)
	vertexCells := make([]Cell, 0, len(oriented))
	for _, pt := range oriented {
		mx, my, ok := cm.WorldToMap(pt.X, pt.Y)
		if !ok {
			break
		}
		vertexCells = append(vertexCells, Cell{mx, my})
	}

	var cells []Cell
	for i := 0; i+1 < len(vertexCells); i++ {
		cells = append(cells, LineCells(vertexCells[i].X, vertexCells[i].Y, vertexCells[i+1].X, vertexCells[i+1].Y)...)
	}
	if len(vertexCells) != len(oriented) {
		return cells
	}
	last := vertexCells[len(vertexCells)-1]
	cells = append(cells, LineCells(last.X, last.Y, vertexCells[0].X, vertexCells[0].Y)...)

	if fill {
		cells = fillCells(cells)
	}
	return cells
}

// fillCells returns the boundary plus every cell between the lowest and highest boundary cell of
// each column, without duplicates, ordered by column then row.
func fillCells(boundary []Cell) []Cell {
	type span struct{ lo, hi int }
	columns := map[int]span{}
	for _, c := range boundary {
		s, ok := columns[c.X]
		if !ok {
			columns[c.X] = span{c.Y, c.Y}
			continue
		}
		columns[c.X] = span{min(s.lo, c.Y), max(s.hi, c.Y)}
	}

	xs := lo.Keys(columns)
	sort.Ints(xs)
	filled := make([]Cell, 0, len(boundary))
	for _, x := range xs {
		s := columns[x]
		for y := s.lo; y <= s.hi; y++ {
			filled = append(filled, Cell{x, y})
		}
	}
	return filled
}
