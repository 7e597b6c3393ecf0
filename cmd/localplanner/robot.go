package main

import (
	"context"
	"sync"

	"github.com/golang/geo/r3"

	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/utils"
)

// simulatedRobot executes every command perfectly for one control period.
type simulatedRobot struct {
	mu     sync.Mutex
	pose   spatialmath.Pose2D
	vel    spatialmath.Velocity2D
	period float64
}

func newSimulatedRobot(start spatialmath.Pose2D, period float64) *simulatedRobot {
	return &simulatedRobot{pose: start, period: period}
}

func (r *simulatedRobot) Pose(ctx context.Context) (spatialmath.Pose2D, spatialmath.Velocity2D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose, r.vel, nil
}

func (r *simulatedRobot) SetVelocity(ctx context.Context, vel spatialmath.Velocity2D) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vel = vel
	moved := r.pose.Transform(r3.Vector{X: vel.X * r.period, Y: vel.Y * r.period})
	r.pose = spatialmath.NewPose2DFromPoint(moved, utils.NormalizeAngle(r.pose.Theta+vel.Theta*r.period))
	return nil
}
