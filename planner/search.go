package planner

import (
	"math"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/trajectory"
	"go.viam.com/localplanner/utils"
)

const (
	// lateral samples slower than this are skipped, they barely move the robot
	minStrafeVel = 0.01
	// a robot this close to the final goal is considered to be on it
	atGoalTolerance = 1e-6
	// cost given to a backup trajectory whose only fault is a collision
	backupCollisionCost = 1.0
)

// Tier names which stage of the search produced a trajectory.
type Tier string

// The search tiers, in the order they are tried.
const (
	TierNone      Tier = ""
	TierAtGoal    Tier = "at_goal"
	TierTranslate Tier = "translate"
	TierStrafe    Tier = "strafe"
	TierRotate    Tier = "rotate"
	TierBackup    Tier = "backup"
)

// window bounds the velocities sampled in one cycle.
type window struct {
	minVX, maxVX         float64
	minVY, maxVY         float64
	minVTheta, maxVTheta float64
}

// dynamicWindow intersects the configured limits with what is reachable from vel. In dynamic window
// mode reachability is over one control period, otherwise over the whole simulation horizon. With a
// known goal, linear speed is capped so the horizon cannot overshoot it.
func dynamicWindow(cfg *snapshot, pose spatialmath.Pose2D, vel spatialmath.Velocity2D, goal *spatialmath.Pose2D) window {
	w := window{
		minVX: cfg.MinVelX,
		maxVX: cfg.MaxVelX,
		minVY: cfg.MinVelY,
		maxVY: cfg.MaxVelY,
	}
	if goal != nil {
		reachable := pose.DistanceTo(*goal) / cfg.SimTime
		w.maxVX = math.Min(w.maxVX, reachable)
		w.minVX = math.Min(cfg.MinVelX, w.maxVX)
		w.maxVY = math.Min(w.maxVY, reachable)
		w.minVY = -w.maxVY
	}

	horizon := cfg.SimTime
	if cfg.DWA {
		horizon = cfg.SimPeriod
	}
	w.maxVX = math.Max(math.Min(w.maxVX, vel.X+cfg.AccLimX*horizon), cfg.MinVelX)
	if cfg.DWA {
		w.minVX = math.Max(w.minVX, vel.X-cfg.AccLimX*horizon)
		w.maxVY = math.Min(w.maxVY, vel.Y+cfg.AccLimY*horizon)
		w.minVY = math.Max(w.minVY, vel.Y-cfg.AccLimY*horizon)
	}
	w.maxVTheta = math.Min(cfg.MaxVelTheta, vel.Theta+cfg.AccLimTheta*horizon)
	w.minVTheta = math.Max(cfg.MinVelTheta, vel.Theta-cfg.AccLimTheta*horizon)
	return w
}

// translateSamples sweeps forward speed; each speed is tried straight first and then with every
// rotational sample but the last.
func translateSamples(cfg *snapshot, w window) []spatialmath.Velocity2D {
	vxs, _ := utils.Linspace(w.minVX, w.maxVX, cfg.VXSamples)
	thetas, _ := utils.Linspace(w.minVTheta, w.maxVTheta, cfg.VThetaSamples)
	thetas = thetas[:len(thetas)-1]

	samples := make([]spatialmath.Velocity2D, 0, len(vxs)*(len(thetas)+1))
	for _, vx := range vxs {
		samples = append(samples, spatialmath.NewVelocity2D(vx, 0, 0))
		for _, vtheta := range thetas {
			samples = append(samples, spatialmath.NewVelocity2D(vx, 0, vtheta))
		}
	}
	return samples
}

// strafeSamples sweeps lateral speed alone, then again combined with a slow forward speed that
// starts at half the window minimum and covers half as many samples.
func strafeSamples(cfg *snapshot, w window) []spatialmath.Velocity2D {
	vys, _ := utils.Linspace(w.minVY, w.maxVY, cfg.VYSamples)
	lateral := lo.Filter(vys[:len(vys)-1], func(vy float64, _ int) bool {
		return math.Abs(vy) >= minStrafeVel
	})
	_, dvx := utils.Linspace(w.minVX, w.maxVX, cfg.VXSamples)

	samples := make([]spatialmath.Velocity2D, 0, len(lateral)*(1+cfg.VXSamples/2))
	for _, vy := range lateral {
		samples = append(samples, spatialmath.NewVelocity2D(0, vy, 0))
	}
	for i := 0; i < cfg.VXSamples/2; i++ {
		vx := w.minVX/2 + float64(i)*dvx
		for _, vy := range lateral {
			samples = append(samples, spatialmath.NewVelocity2D(vx, vy, 0))
		}
	}
	return samples
}

// rotateSamples returns in-place rotations for every rotational sample faster than the sample
// spacing, raised to at least the minimum in-place speed. A single rotational sample has no spacing
// and yields no rotations.
func rotateSamples(cfg *snapshot, w window) []spatialmath.Velocity2D {
	if cfg.VThetaSamples < 2 {
		return nil
	}
	thetas, dvtheta := utils.Linspace(w.minVTheta, w.maxVTheta, cfg.VThetaSamples)

	samples := make([]spatialmath.Velocity2D, 0, len(thetas))
	for _, vtheta := range thetas {
		if math.Abs(vtheta) <= dvtheta {
			continue
		}
		limited := math.Min(vtheta, -cfg.MinInPlaceVelTheta)
		if vtheta > 0 {
			limited = math.Max(vtheta, cfg.MinInPlaceVelTheta)
		}
		samples = append(samples, spatialmath.NewVelocity2D(0, 0, limited))
	}
	return samples
}

// searchBuffers are the trajectories one planner reuses from cycle to cycle.
type searchBuffers struct {
	best      *trajectory.Trajectory
	reference *trajectory.Trajectory
	scratch   []*trajectory.Trajectory

	tier       Tier
	candidates int
}

func newSearchBuffers() searchBuffers {
	return searchBuffers{
		best:      trajectory.New(0),
		reference: trajectory.New(0),
	}
}

func (b *searchBuffers) ensure(n int) []*trajectory.Trajectory {
	for len(b.scratch) < n {
		b.scratch = append(b.scratch, trajectory.New(0))
	}
	return b.scratch[:n]
}

// simulateAll scores every sample. With more than one thread the samples are fanned out, but each
// result lands in the slot of its sample so the caller can reduce them in sample order.
func (b *searchBuffers) simulateAll(
	r *rollout,
	pose spatialmath.Pose2D,
	vel spatialmath.Velocity2D,
	samples []spatialmath.Velocity2D,
) []*trajectory.Trajectory {
	trajs := b.ensure(len(samples))
	if r.snap.NumThreads <= 1 || len(samples) < 2 {
		for i, sample := range samples {
			r.simulate(trajs[i], pose, vel, sample)
		}
		return trajs
	}

	var group errgroup.Group
	group.SetLimit(r.snap.NumThreads)
	for i, sample := range samples {
		i, sample := i, sample
		group.Go(func() error {
			r.simulate(trajs[i], pose, vel, sample)
			return nil
		})
	}
	// simulate reports failures on the trajectory, never as an error
	_ = group.Wait()
	return trajs
}

// runTier simulates a tier's samples and folds them into the best trajectory in sample order.
// It returns whether any sample of the tier was accepted.
func (b *searchBuffers) runTier(
	r *rollout,
	pose spatialmath.Pose2D,
	vel spatialmath.Velocity2D,
	tier Tier,
	samples []spatialmath.Velocity2D,
	rule Rule,
) bool {
	if len(samples) == 0 {
		return false
	}
	b.candidates += len(samples)
	trajs := b.simulateAll(r, pose, vel, samples)

	accepted := false
	for i := range trajs {
		if Rank(trajs[i], b.best, b.reference, rule) != Accept {
			continue
		}
		// the old best becomes scratch space for the next cycle
		b.best, b.scratch[i] = trajs[i], b.best
		accepted = true
	}
	if accepted {
		b.tier = tier
	}
	return accepted
}

// createTrajectories runs the tiered search from pose and returns the chosen trajectory, which is
// owned by the buffers and only valid until the next search. The oscillation state is advanced for
// whichever tier decided.
func (p *Planner) createTrajectories(r *rollout, pose spatialmath.Pose2D, vel spatialmath.Velocity2D) *trajectory.Trajectory {
	cfg := r.snap
	b := &p.buffers
	b.tier = TierNone
	b.candidates = 0

	r.simulate(b.reference, pose, vel, spatialmath.Velocity2D{})
	b.best.Reset(0, 0, 0)

	var goal *spatialmath.Pose2D
	if p.finalGoalValid {
		goal = &p.finalGoal
		if pose.DistanceTo(p.finalGoal) < atGoalTolerance {
			b.best.CopyFrom(b.reference)
			b.tier = TierAtGoal
			p.setOscillation(p.osc.afterSelection(b.best.Velocity(), pose, cfg))
			return b.best
		}
	}

	w := dynamicWindow(cfg, pose, vel, goal)
	b.runTier(r, pose, vel, TierTranslate, translateSamples(cfg, w), CostRule)
	if cfg.HolonomicRobot {
		b.runTier(r, pose, vel, TierStrafe, strafeSamples(cfg, w), CostRule)
	}
	b.runTier(r, pose, vel, TierRotate, rotateSamples(cfg, w), RotationRule)

	if b.best.Admissible() {
		p.setOscillation(p.osc.afterSelection(b.best.Velocity(), pose, cfg))
		return b.best
	}

	// nothing else worked, so back up slowly even if the static map says it is blocked
	b.candidates++
	b.tier = TierBackup
	r.simulate(b.best, pose, vel, spatialmath.NewVelocity2D(cfg.EscapeVel, 0, 0))
	if b.best.Status == trajectory.Collision {
		b.best.Status = trajectory.Admissible
		b.best.Cost = backupCollisionCost
	}
	p.setOscillation(p.osc.afterBackup(b.best.Admissible(), pose, cfg))
	return b.best
}

// setOscillation stores the next oscillation state, logging when the robot becomes stuck.
func (p *Planner) setOscillation(next OscillationState) {
	if next.Stuck() && !p.osc.Stuck() {
		p.logger.Infow("stuck",
			"left", next.StuckLeft, "right", next.StuckRight,
			"left_strafe", next.StuckLeftStrafe, "right_strafe", next.StuckRightStrafe)
	}
	p.osc = next
}
