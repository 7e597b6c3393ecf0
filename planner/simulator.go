package planner

import (
	"math"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/mapgrid"
	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/trajectory"
)

// Heading differences smaller than this are not penalised.
const headingDeadBand = 0.2

// rollout is everything one planning cycle simulates candidates against. Nothing in it is written
// while candidates are being simulated, so simulate may run on many goroutines at once.
type rollout struct {
	snap    *snapshot
	costmap costmap.Costmap
	world   costmap.WorldModel
	pathMap *mapgrid.DistanceGrid
	goalMap *mapgrid.DistanceGrid
	plan    []spatialmath.Pose2D

	// any distance at or above this is treated as having no path to the goal
	impossible float64
}

// numSteps returns how many poses a candidate is simulated for. It is always at least one, so the
// starting pose is scored even when the sample does not move.
func (r *rollout) numSteps(sample spatialmath.Velocity2D) int {
	cfg := r.snap
	var steps int
	if cfg.HeadingScoring {
		steps = int(cfg.SimTime/cfg.SimGranularity + 0.5)
	} else {
		linear := math.Hypot(sample.X, sample.Y) * cfg.SimTime / cfg.SimGranularity
		angular := math.Abs(sample.Theta) * cfg.SimTime / cfg.AngularSimGranularity
		steps = int(math.Max(linear, angular) + 0.5)
	}
	if steps < 1 {
		steps = 1
	}
	return steps
}

// simulate forward integrates the robot from pose at velocity vel while it accelerates toward
// sample, and scores the result into traj.
func (r *rollout) simulate(
	traj *trajectory.Trajectory,
	pose spatialmath.Pose2D,
	vel, sample spatialmath.Velocity2D,
) {
	cfg := r.snap
	traj.Reset(sample.X, sample.Y, sample.Theta)

	steps := r.numSteps(sample)
	dt := cfg.SimTime / float64(steps)

	current := pose
	vx, vy, vtheta := vel.X, vel.Y, vel.Theta

	var pathDist, goalDist, occCost, headingDiff float64
	for i := 0; i < steps; i++ {
		cx, cy, ok := r.costmap.WorldToMap(current.X, current.Y)
		if !ok {
			traj.Fail(trajectory.OffMap)
			return
		}

		footprintCost := r.world.FootprintCost(current, cfg.footprint, cfg.inscribed, cfg.circumscribed)
		if footprintCost < 0 {
			traj.Fail(trajectory.Collision)
			return
		}
		occCost = math.Max(math.Max(occCost, footprintCost), float64(r.costmap.Cost(cx, cy)))

		if cfg.SimpleAttractor {
			if len(r.plan) == 0 {
				traj.Fail(trajectory.NoPath)
				return
			}
			goalDist = current.SquaredDistanceTo(r.plan[len(r.plan)-1])
		} else {
			scored := false
			switch {
			case !cfg.HeadingScoring:
				pathDist = r.pathMap.TargetDist(cx, cy)
				goalDist = r.goalMap.TargetDist(cx, cy)
				scored = true
			case i == steps-1:
				if len(r.plan) == 0 {
					traj.Fail(trajectory.NoPath)
					return
				}
				headingDiff, goalDist, pathDist = headingDifference(r.plan, current)
				scored = true
			}

			if scored {
				if r.impossible <= goalDist || r.impossible <= pathDist {
					traj.Fail(trajectory.NoPath)
					return
				}
				traj.PathDistTraj = pathDist
				// close enough to the path counts as on it
				if cfg.PathDistanceMax > 0 && pathDist <= cfg.PathDistanceMax {
					pathDist = 0
				}
				if math.Abs(headingDiff) < headingDeadBand {
					headingDiff = 0
				}
			}
		}

		traj.AddPoint(current)

		vx = computeNewVelocity(sample.X, vx, cfg.AccLimX, dt)
		vy = computeNewVelocity(sample.Y, vy, cfg.AccLimY, dt)
		vtheta = computeNewVelocity(sample.Theta, vtheta, cfg.AccLimTheta, dt)
		current = computeNewPose(current, vx, vy, vtheta, dt)
	}

	terms := trajectory.Terms{
		PathDist: pathDist,
		GoalDist: goalDist,
		OccDist:  occCost,
		PathCost: cfg.PDistScale * pathDist,
		GoalCost: cfg.GDistScale * goalDist,
		OccCost:  cfg.OccDistScale * occCost,
	}
	if cfg.HeadingScoring {
		terms.HeadingDiff = headingDiff
		terms.HeadingCost = cfg.HDiffScale * headingDiff
	}

	traj.Terms = terms
	traj.Cost = terms.PathCost + terms.GoalCost + terms.OccCost + terms.HeadingCost
	traj.GoalCost = terms.GoalCost
	traj.Status = trajectory.Admissible
}

// computeNewVelocity moves vi toward vg by at most accel*dt.
func computeNewVelocity(vg, vi, accel, dt float64) float64 {
	if vg >= vi {
		return math.Min(vg, vi+accel*dt)
	}
	return math.Max(vg, vi-accel*dt)
}

// computeNewPose integrates a robot-frame velocity for dt starting at pose.
func computeNewPose(pose spatialmath.Pose2D, vx, vy, vtheta, dt float64) spatialmath.Pose2D {
	sin, cos := math.Sincos(pose.Theta)
	return spatialmath.Pose2D{
		X:     pose.X + (vx*cos-vy*sin)*dt,
		Y:     pose.Y + (vx*sin+vy*cos)*dt,
		Theta: pose.Theta + vtheta*dt,
	}
}
