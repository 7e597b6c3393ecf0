// Package spatialmath defines the planar pose and velocity types the local planner reasons about.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/localplanner/utils"
)

// Pose2D is a position in the world frame plus a heading in radians, counter-clockwise from +X.
type Pose2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose2D constructs a Pose2D.
func NewPose2D(x, y, theta float64) Pose2D {
	return Pose2D{X: x, Y: y, Theta: theta}
}

// NewPose2DFromPoint returns a pose at the given point with the given heading. The z component is ignored.
func NewPose2DFromPoint(pt r3.Vector, theta float64) Pose2D {
	return Pose2D{X: pt.X, Y: pt.Y, Theta: theta}
}

// Point returns the position of the pose as an r3 vector on the z=0 plane.
func (p Pose2D) Point() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y}
}

// DistanceTo returns the euclidean distance between the positions of two poses.
func (p Pose2D) DistanceTo(other Pose2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// SquaredDistanceTo returns the squared euclidean distance between the positions of two poses.
func (p Pose2D) SquaredDistanceTo(other Pose2D) float64 {
	return utils.Square(p.X-other.X) + utils.Square(p.Y-other.Y)
}

// HeadingDifference returns the absolute shortest angle between the headings of two poses.
func (p Pose2D) HeadingDifference(other Pose2D) float64 {
	return math.Abs(utils.ShortestAngularDistance(p.Theta, other.Theta))
}

// Transform maps a point expressed in this pose's frame into the world frame.
func (p Pose2D) Transform(local r3.Vector) r3.Vector {
	cosTh, sinTh := math.Cos(p.Theta), math.Sin(p.Theta)
	return r3.Vector{
		X: p.X + local.X*cosTh - local.Y*sinTh,
		Y: p.Y + local.X*sinTh + local.Y*cosTh,
	}
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.X, p.Y, p.Theta)
}

// PoseAlmostEqual returns whether two poses are within epsilon of each other in position and heading.
func PoseAlmostEqual(a, b Pose2D, epsilon float64) bool {
	return a.DistanceTo(b) <= epsilon && a.HeadingDifference(b) <= epsilon
}
