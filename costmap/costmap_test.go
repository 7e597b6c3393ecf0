package costmap

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/localplanner/spatialmath"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	grid, err := NewGrid(20, 10, 0.1, -1, -0.5)
	test.That(t, err, test.ShouldBeNil)
	return grid
}

func TestNewGridValidation(t *testing.T) {
	_, err := NewGrid(0, 10, 0.1, 0, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGrid(10, 10, 0, 0, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewGrid(10, 10, math.NaN(), 0, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWorldToMap(t *testing.T) {
	grid := newTestGrid(t)

	mx, my, ok := grid.WorldToMap(-1, -0.5)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mx, test.ShouldEqual, 0)
	test.That(t, my, test.ShouldEqual, 0)

	mx, my, ok = grid.WorldToMap(0.05, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mx, test.ShouldEqual, 10)
	test.That(t, my, test.ShouldEqual, 5)

	_, _, ok = grid.WorldToMap(-1.01, 0)
	test.That(t, ok, test.ShouldBeFalse)
	_, _, ok = grid.WorldToMap(1.0, 0)
	test.That(t, ok, test.ShouldBeFalse)

	wx, wy := grid.MapToWorld(10, 5)
	test.That(t, wx, test.ShouldAlmostEqual, 0.05)
	test.That(t, wy, test.ShouldAlmostEqual, 0.05)
}

func TestCostAccess(t *testing.T) {
	grid := newTestGrid(t)
	grid.SetCost(3, 4, LethalObstacle)
	test.That(t, grid.Cost(3, 4), test.ShouldEqual, LethalObstacle)
	test.That(t, grid.Cost(-1, 4), test.ShouldEqual, NoInformation)
	test.That(t, grid.Cost(20, 0), test.ShouldEqual, NoInformation)

	test.That(t, grid.SetWorldCost(0.05, 0.05, 100), test.ShouldBeTrue)
	test.That(t, grid.Cost(10, 5), test.ShouldEqual, 100)
	test.That(t, grid.SetWorldCost(50, 50, 100), test.ShouldBeFalse)
}

func TestLineCells(t *testing.T) {
	cells := LineCells(0, 0, 4, 2)
	test.That(t, len(cells), test.ShouldEqual, 5)
	test.That(t, cells[0], test.ShouldResemble, Cell{0, 0})
	test.That(t, cells[4], test.ShouldResemble, Cell{4, 2})

	cells = LineCells(3, 5, 3, 1)
	test.That(t, cells, test.ShouldResemble, []Cell{{3, 5}, {3, 4}, {3, 3}, {3, 2}, {3, 1}})

	cells = LineCells(2, 2, 2, 2)
	test.That(t, cells, test.ShouldResemble, []Cell{{2, 2}})
}

func TestLineCost(t *testing.T) {
	grid := newTestGrid(t)
	grid.SetCost(2, 0, 40)
	grid.SetCost(4, 0, 90)
	test.That(t, LineCost(grid, 0, 0, 5, 0), test.ShouldEqual, 90)
	test.That(t, LineCost(grid, 0, 0, 3, 0), test.ShouldEqual, 40)

	grid.SetCost(5, 0, InscribedInflatedObstacle)
	test.That(t, LineCost(grid, 0, 0, 6, 0), test.ShouldEqual, -1)
	test.That(t, PointCost(grid, 5, 0), test.ShouldEqual, -1)
	test.That(t, PointCost(grid, 4, 0), test.ShouldEqual, 90)
}

func TestFootprintRadii(t *testing.T) {
	square := []r3.Vector{{X: 0.2, Y: 0.2}, {X: 0.2, Y: -0.2}, {X: -0.2, Y: -0.2}, {X: -0.2, Y: 0.2}}
	inscribed, circumscribed := FootprintRadii(square)
	test.That(t, inscribed, test.ShouldAlmostEqual, 0.2)
	test.That(t, circumscribed, test.ShouldAlmostEqual, math.Hypot(0.2, 0.2))

	inscribed, circumscribed = FootprintRadii(nil)
	test.That(t, inscribed, test.ShouldEqual, 0)
	test.That(t, circumscribed, test.ShouldEqual, 0)
}

func TestFootprintCells(t *testing.T) {
	grid := newTestGrid(t)
	square := []r3.Vector{{X: 0.1, Y: 0.1}, {X: 0.1, Y: -0.1}, {X: -0.1, Y: -0.1}, {X: -0.1, Y: 0.1}}

	cells := FootprintCells(grid, spatialmath.NewPose2D(0.05, 0.05, 0), square, true)
	// vertices land on cells 9..11 in both axes, so the filled square is 3x3
	test.That(t, len(cells), test.ShouldEqual, 9)
	test.That(t, cells, test.ShouldContain, Cell{10, 5})

	outline := FootprintCells(grid, spatialmath.NewPose2D(0.05, 0.05, 0), square, false)
	test.That(t, outline, test.ShouldNotContain, Cell{10, 5})

	single := FootprintCells(grid, spatialmath.NewPose2D(0.05, 0.05, 0), nil, true)
	test.That(t, single, test.ShouldResemble, []Cell{{10, 5}})

	test.That(t, FootprintCells(grid, spatialmath.NewPose2D(50, 50, 0), nil, true), test.ShouldBeEmpty)
}

func TestCostmapModel(t *testing.T) {
	grid := newTestGrid(t)
	model := NewCostmapModel(grid)
	square := []r3.Vector{{X: 0.1, Y: 0.1}, {X: 0.1, Y: -0.1}, {X: -0.1, Y: -0.1}, {X: -0.1, Y: 0.1}}
	pose := spatialmath.NewPose2D(0.05, 0.05, 0)

	test.That(t, model.FootprintCost(pose, square, 0.1, 0.14), test.ShouldEqual, 0)

	grid.SetCost(11, 6, 50)
	test.That(t, model.FootprintCost(pose, square, 0.1, 0.14), test.ShouldEqual, 50)

	grid.SetCost(11, 5, LethalObstacle)
	test.That(t, model.FootprintCost(pose, square, 0.1, 0.14), test.ShouldEqual, -1)

	// point footprints look at the centre cell only
	test.That(t, model.FootprintCost(pose, nil, 0, 0), test.ShouldEqual, 0)
	grid.SetCost(10, 5, NoInformation)
	test.That(t, model.FootprintCost(pose, nil, 0, 0), test.ShouldEqual, -2)
	grid.SetCost(10, 5, LethalObstacle)
	test.That(t, model.FootprintCost(pose, nil, 0, 0), test.ShouldEqual, -1)

	test.That(t, model.FootprintCost(spatialmath.NewPose2D(-5, 0, 0), nil, 0, 0), test.ShouldEqual, -1)
}
