// Package localnav drives the local planner at a fixed control rate, feeding it the robot's pose
// and forwarding its commands to the robot.
package localnav

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/trajectory"
	"go.viam.com/localplanner/utils"
)

// PoseSource reports where the robot is and how fast it is moving in its own frame.
type PoseSource interface {
	Pose(ctx context.Context) (spatialmath.Pose2D, spatialmath.Velocity2D, error)
}

// VelocitySink accepts robot-frame velocity commands.
type VelocitySink interface {
	SetVelocity(ctx context.Context, vel spatialmath.Velocity2D) error
}

// Planner picks the velocity to command for one cycle.
type Planner interface {
	FindBestVelocity(pose spatialmath.Pose2D, vel spatialmath.Velocity2D) (spatialmath.Velocity2D, *trajectory.Trajectory)
}

// Runner calls the planner once per control period and sends the result to the sink. Any
// cycle that cannot produce an admissible command stops the robot.
type Runner struct {
	planner Planner
	source  PoseSource
	sink    VelocitySink
	clock   clock.Clock
	period  time.Duration
	logger  logging.Logger

	startMu sync.Mutex
	workers *utils.StoppableWorkers

	running  atomic.Bool
	cycles   atomic.Int64
	failures atomic.Int64
	stops    atomic.Int64

	latencies *latencyWindow
}

// NewRunner returns a Runner ticking at frequencyHz on clk. A nil clk uses the wall clock.
func NewRunner(
	planner Planner,
	source PoseSource,
	sink VelocitySink,
	frequencyHz float64,
	clk clock.Clock,
	logger logging.Logger,
) (*Runner, error) {
	if planner == nil || source == nil || sink == nil {
		return nil, errors.New("a planner, pose source and velocity sink are all required")
	}
	if frequencyHz <= 0 {
		return nil, errors.Errorf("frequency_hz must be positive, got %v", frequencyHz)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		planner:   planner,
		source:    source,
		sink:      sink,
		clock:     clk,
		period:    time.Duration(float64(time.Second) / frequencyHz),
		logger:    logger,
		latencies: newLatencyWindow(defaultLatencyWindow),
	}, nil
}

// Period is the time between cycles.
func (r *Runner) Period() time.Duration {
	return r.period
}

// Start begins running cycles in the background. Calling it while running does nothing.
func (r *Runner) Start() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.running.Load() {
		return
	}

	// the ticker exists before Start returns so clock advances made right after are not missed
	ticker := r.clock.Ticker(r.period)
	r.running.Store(true)
	r.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			if err := ctx.Err(); err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Step(ctx); err != nil && ctx.Err() == nil {
					r.failures.Inc()
					r.logger.Errorw("control cycle failed", "error", err)
				}
			}
		}
	})
	r.logger.Infof("local planner running at %v per cycle", r.period)
}

// Step runs a single control cycle: read the pose, plan, and command the result. If the pose cannot
// be read the robot is stopped.
func (r *Runner) Step(ctx context.Context) error {
	start := r.clock.Now()

	pose, vel, err := r.source.Pose(ctx)
	if err != nil {
		r.stops.Inc()
		return multierr.Combine(
			errors.Wrap(err, "failed to get robot pose"),
			r.stop(ctx),
		)
	}

	cmd, traj := r.planner.FindBestVelocity(pose, vel)
	if !traj.Admissible() {
		r.stops.Inc()
		r.logger.Debugw("no admissible trajectory, stopping", "status", traj.Status.String())
		cmd = spatialmath.Velocity2D{}
	}
	if err := r.sink.SetVelocity(ctx, cmd); err != nil {
		return errors.Wrap(err, "failed to send velocity command")
	}

	r.cycles.Inc()
	r.latencies.add(r.clock.Since(start))
	return nil
}

func (r *Runner) stop(ctx context.Context) error {
	if err := r.sink.SetVelocity(ctx, spatialmath.Velocity2D{}); err != nil {
		return errors.Wrap(err, "failed to stop robot")
	}
	return nil
}

// Running reports whether background cycles are being run.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Cycles is how many cycles have completed and sent a command.
func (r *Runner) Cycles() int64 {
	return r.cycles.Load()
}

// Failures is how many background cycles returned an error.
func (r *Runner) Failures() int64 {
	return r.failures.Load()
}

// Stops is how many cycles commanded a stop because nothing else was possible.
func (r *Runner) Stops() int64 {
	return r.stops.Load()
}

// LatencyStats summarises the time recent cycles took.
func (r *Runner) LatencyStats() (LatencyStats, error) {
	return r.latencies.summary()
}

// Close stops background cycles, commands the robot to stop and closes the source and sink if
// they can be closed.
func (r *Runner) Close(ctx context.Context) error {
	r.startMu.Lock()
	if r.workers != nil {
		r.workers.Stop()
		r.workers = nil
	}
	r.running.Store(false)
	r.startMu.Unlock()

	return multierr.Combine(
		r.stop(ctx),
		goutils.TryClose(ctx, r.source),
		goutils.TryClose(ctx, r.sink),
	)
}
