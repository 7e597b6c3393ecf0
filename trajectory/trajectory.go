// Package trajectory defines the simulated trajectories the local planner scores.
package trajectory

import (
	"fmt"

	"go.viam.com/localplanner/spatialmath"
)

// Status tags a trajectory as scored or names why it could not be.
type Status int

const (
	// Unset is the status of a trajectory nothing has been simulated into.
	Unset Status = iota
	// Admissible trajectories carry a valid non-negative cost.
	Admissible
	// NoPath means some simulated point had no path or goal distance.
	NoPath
	// Infeasible is a generic failure, also used for trajectories cut short.
	Infeasible
	// OffMap means the simulation left the local map.
	OffMap
	// Collision means the footprint hit a lethal, inscribed or unknown cell.
	Collision
)

func (s Status) String() string {
	switch s {
	case Unset:
		return "unset"
	case Admissible:
		return "admissible"
	case NoPath:
		return "no_path"
	case Infeasible:
		return "infeasible"
	case OffMap:
		return "off_map"
	case Collision:
		return "collision"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terms are the decomposed inputs and weighted outputs of a trajectory's cost.
type Terms struct {
	PathDist    float64 `json:"path_dist"`
	GoalDist    float64 `json:"goal_dist"`
	OccDist     float64 `json:"occ_dist"`
	HeadingDiff float64 `json:"heading_diff"`

	PathCost    float64 `json:"path_cost"`
	GoalCost    float64 `json:"goal_cost"`
	OccCost     float64 `json:"occ_cost"`
	HeadingCost float64 `json:"heading_cost"`
}

// Trajectory is a sequence of simulated poses together with the sampled velocity that produced them.
type Trajectory struct {
	XV, YV, ThetaV float64

	Status Status
	// Cost is the weighted total. Only meaningful when Status is Admissible.
	Cost float64
	// GoalCost is the weighted goal term, the value progress is measured by.
	GoalCost float64
	// PathDistTraj is the unweighted path distance last read during simulation, before any cap.
	PathDistTraj float64
	Terms        Terms

	points []spatialmath.Pose2D
}

// New returns an unset trajectory with room for n points.
func New(n int) *Trajectory {
	return &Trajectory{points: make([]spatialmath.Pose2D, 0, n)}
}

// Reset clears the points and costs and records a new sampled velocity. The point buffer is kept.
func (t *Trajectory) Reset(vx, vy, vtheta float64) {
	t.XV, t.YV, t.ThetaV = vx, vy, vtheta
	t.Status = Unset
	t.Cost = 0
	t.GoalCost = 0
	t.PathDistTraj = 0
	t.Terms = Terms{}
	t.points = t.points[:0]
}

// Fail marks the trajectory as rejected for the given reason.
func (t *Trajectory) Fail(status Status) {
	t.Status = status
	t.Cost = 0
	t.GoalCost = 0
}

// Admissible returns whether the trajectory was scored.
func (t *Trajectory) Admissible() bool {
	return t.Status == Admissible
}

// Velocity returns the sampled velocity of the trajectory.
func (t *Trajectory) Velocity() spatialmath.Velocity2D {
	return spatialmath.NewVelocity2D(t.XV, t.YV, t.ThetaV)
}

// AddPoint appends a pose.
func (t *Trajectory) AddPoint(p spatialmath.Pose2D) {
	t.points = append(t.points, p)
}

// NumPoints returns the number of poses.
func (t *Trajectory) NumPoints() int {
	return len(t.points)
}

// Point returns the i-th pose.
func (t *Trajectory) Point(i int) spatialmath.Pose2D {
	return t.points[i]
}

// Points returns a copy of the poses.
func (t *Trajectory) Points() []spatialmath.Pose2D {
	return append([]spatialmath.Pose2D(nil), t.points...)
}

// Endpoint returns the last pose, or false if the trajectory is empty.
func (t *Trajectory) Endpoint() (spatialmath.Pose2D, bool) {
	if len(t.points) == 0 {
		return spatialmath.Pose2D{}, false
	}
	return t.points[len(t.points)-1], true
}

// CopyFrom makes t a deep copy of other, reusing t's point buffer.
func (t *Trajectory) CopyFrom(other *Trajectory) {
	points := append(t.points[:0], other.points...)
	*t = *other
	t.points = points
}

// Clone returns a deep copy.
func (t *Trajectory) Clone() *Trajectory {
	c := &Trajectory{}
	c.CopyFrom(t)
	return c
}

func (t *Trajectory) String() string {
	if !t.Admissible() {
		return fmt.Sprintf("v=(%.3f, %.3f, %.3f) %s", t.XV, t.YV, t.ThetaV, t.Status)
	}
	return fmt.Sprintf("v=(%.3f, %.3f, %.3f) cost=%.4f goal=%.4f points=%d",
		t.XV, t.YV, t.ThetaV, t.Cost, t.GoalCost, len(t.points))
}
