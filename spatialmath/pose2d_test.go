package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPoseDistances(t *testing.T) {
	a := NewPose2D(0, 0, 0)
	b := NewPose2D(3, 4, math.Pi)
	test.That(t, a.DistanceTo(b), test.ShouldAlmostEqual, 5)
	test.That(t, a.SquaredDistanceTo(b), test.ShouldAlmostEqual, 25)
	test.That(t, a.HeadingDifference(b), test.ShouldAlmostEqual, math.Pi)
	test.That(t, b.Point(), test.ShouldResemble, r3.Vector{X: 3, Y: 4})
}

func TestTransform(t *testing.T) {
	p := NewPose2D(1, 2, math.Pi/2)
	out := p.Transform(r3.Vector{X: 1, Y: 0})
	test.That(t, out.X, test.ShouldAlmostEqual, 1)
	test.That(t, out.Y, test.ShouldAlmostEqual, 3)

	out = p.Transform(r3.Vector{X: 0, Y: 1})
	test.That(t, out.X, test.ShouldAlmostEqual, 0)
	test.That(t, out.Y, test.ShouldAlmostEqual, 2)
}

func TestPoseAlmostEqual(t *testing.T) {
	test.That(t, PoseAlmostEqual(NewPose2D(0, 0, 0.001), NewPose2D(0.001, 0, 0), 0.01), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(NewPose2D(0, 0, 0), NewPose2D(0, 0, 0.5), 0.01), test.ShouldBeFalse)
}
