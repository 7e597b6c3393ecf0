// Package planner implements a local trajectory planner: each cycle it samples velocities the robot
// can reach, forward simulates each one over a short horizon, scores the result against distance
// fields built from the reference path, and commands the best.
package planner

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/mapgrid"
	"go.viam.com/localplanner/spatialmath"
	"go.viam.com/localplanner/trajectory"
)

// Diagnostics describes the trajectory chosen by the most recent planning cycle.
type Diagnostics struct {
	Tier       Tier                   `json:"tier"`
	Candidates int                    `json:"candidates"`
	Status     trajectory.Status      `json:"status"`
	Velocity   spatialmath.Velocity2D `json:"velocity"`
	Cost       float64                `json:"cost"`
	Terms      trajectory.Terms       `json:"terms"`

	// ReferenceGoalCost is the goal cost of standing still, which every candidate had to beat.
	ReferenceGoalCost float64 `json:"reference_goal_cost"`
}

// CellCost is the cost breakdown of a single costmap cell.
type CellCost struct {
	Path      float64 `json:"path"`
	Goal      float64 `json:"goal"`
	Occupancy float64 `json:"occupancy"`
	Total     float64 `json:"total"`
}

// Planner is a trajectory rollout / dynamic window local planner.
type Planner struct {
	logger  logging.Logger
	costmap costmap.Costmap
	world   costmap.WorldModel

	configMu sync.RWMutex
	snap     *snapshot

	// mu guards everything below. It is held for a whole planning cycle.
	mu             sync.Mutex
	plan           []spatialmath.Pose2D
	finalGoal      spatialmath.Pose2D
	finalGoalValid bool
	pathMap        *mapgrid.DistanceGrid
	goalMap        *mapgrid.DistanceGrid
	osc            OscillationState
	buffers        searchBuffers
	diagnostics    Diagnostics
}

// New returns a planner over the given costmap. If world is nil the footprint is checked directly
// against the costmap.
func New(cm costmap.Costmap, world costmap.WorldModel, cfg Config, logger logging.Logger) (*Planner, error) {
	if cm == nil {
		return nil, errors.New("planner requires a costmap")
	}
	if world == nil {
		world = costmap.NewCostmapModel(cm)
	}
	p := &Planner{
		logger:  logger,
		costmap: cm,
		world:   world,
		pathMap: mapgrid.NewDistanceGrid(cm.SizeInCellsX(), cm.SizeInCellsY()),
		goalMap: mapgrid.NewDistanceGrid(cm.SizeInCellsX(), cm.SizeInCellsY()),
		buffers: newSearchBuffers(),
	}
	if err := p.Reconfigure(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Reconfigure validates cfg and swaps it in. A cycle already running finishes with the
// configuration it started with.
func (p *Planner) Reconfigure(cfg Config) error {
	if err := cfg.Validate("planner"); err != nil {
		return errors.Wrap(err, "invalid planner configuration")
	}
	snap := newSnapshot(cfg, p.costmap.Resolution(), p.logger)

	p.configMu.Lock()
	p.snap = snap
	p.configMu.Unlock()

	p.logger.Debugf("planner reconfigured: %s", snap)
	return nil
}

// Config returns the configuration in effect, with sample counts corrected and meter scoring
// applied to the weights.
func (p *Planner) Config() Config {
	snap := p.snapshot()
	cfg := snap.Config
	cfg.Footprint = append([][2]float64(nil), snap.Footprint...)
	return cfg
}

func (p *Planner) snapshot() *snapshot {
	p.configMu.RLock()
	defer p.configMu.RUnlock()
	return p.snap
}

// UpdatePlan replaces the reference path. The last pose becomes the final goal. If computeDists is
// set the distance fields are rebuilt immediately, otherwise on the next cycle.
func (p *Planner) UpdatePlan(plan []spatialmath.Pose2D, computeDists bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.plan = append(p.plan[:0], plan...)
	p.finalGoalValid = len(p.plan) > 0
	if p.finalGoalValid {
		p.finalGoal = p.plan[len(p.plan)-1]
	}
	if computeDists {
		p.refreshGrids(nil)
	}
}

// refreshGrids rebuilds both distance fields from the plan. Cells under the robot never block
// either wavefront.
func (p *Planner) refreshGrids(robotCells []costmap.Cell) {
	sizeX, sizeY := p.costmap.SizeInCellsX(), p.costmap.SizeInCellsY()
	for _, grid := range []*mapgrid.DistanceGrid{p.pathMap, p.goalMap} {
		grid.SizeCheck(sizeX, sizeY)
		grid.ResetAll()
		grid.MarkWithinRobot(robotCells)
	}

	if !p.pathMap.SetTargetCells(p.costmap, p.plan) {
		p.logger.Debugw("no pose of the plan lies in the local map", "plan_length", len(p.plan))
		return
	}
	p.goalMap.SetLocalGoal(p.costmap, p.plan)
}

func (p *Planner) newRollout(snap *snapshot) *rollout {
	return &rollout{
		snap:       snap,
		costmap:    p.costmap,
		world:      p.world,
		pathMap:    p.pathMap,
		goalMap:    p.goalMap,
		plan:       p.plan,
		impossible: p.pathMap.ObstacleCosts(),
	}
}

// FindBestVelocity runs one planning cycle from the robot's pose and velocity. It returns the
// velocity to command and a copy of the chosen trajectory. When nothing admissible was found the
// velocity is zero and the robot should stop.
func (p *Planner) FindBestVelocity(
	pose spatialmath.Pose2D,
	vel spatialmath.Velocity2D,
) (spatialmath.Velocity2D, *trajectory.Trajectory) {
	snap := p.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.refreshGrids(costmap.FootprintCells(p.costmap, pose, snap.footprint, true))
	best := p.createTrajectories(p.newRollout(snap), pose, vel)

	p.diagnostics = Diagnostics{
		Tier:              p.buffers.tier,
		Candidates:        p.buffers.candidates,
		Status:            best.Status,
		Velocity:          best.Velocity(),
		Cost:              best.Cost,
		Terms:             best.Terms,
		ReferenceGoalCost: p.buffers.reference.GoalCost,
	}
	p.logger.Debugw("planning cycle",
		"pose", pose.String(),
		"tier", string(p.buffers.tier),
		"chosen", best.String(),
		"candidates", p.buffers.candidates)

	chosen := best.Clone()
	if !chosen.Admissible() {
		p.logger.Debugw("no admissible trajectory, stopping", "status", chosen.Status.String())
		return spatialmath.Velocity2D{}, chosen
	}
	return chosen.Velocity(), chosen
}

// LocalGoal returns the world position the goal distance field was last seeded from.
func (p *Planner) LocalGoal() (float64, float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.goalMap.LocalGoal()
}

// CellCosts scores a single cell with the current distance fields. It returns false for cells under
// the robot, cells the path field marks as blocked or unreachable, and cells at or above the
// inscribed cost.
func (p *Planner) CellCosts(cx, cy int) (CellCost, bool) {
	snap := p.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	if cx < 0 || cy < 0 || cx >= p.pathMap.SizeX() || cy >= p.pathMap.SizeY() {
		return CellCost{}, false
	}
	cell := p.pathMap.Cell(cx, cy)
	if cell.WithinRobot {
		return CellCost{}, false
	}
	occ := p.costmap.Cost(cx, cy)
	if cell.TargetDist >= p.pathMap.ObstacleCosts() || occ >= costmap.InscribedInflatedObstacle {
		return CellCost{}, false
	}

	cost := CellCost{
		Path:      cell.TargetDist,
		Goal:      p.goalMap.TargetDist(cx, cy),
		Occupancy: float64(occ),
	}
	cost.Total = snap.PDistScale*cost.Path + snap.GDistScale*cost.Goal + snap.OccDistScale*cost.Occupancy
	return cost, true
}

// ScoreTrajectory simulates a single sampled velocity from pose against the current distance
// fields and returns the scored trajectory.
func (p *Planner) ScoreTrajectory(
	pose spatialmath.Pose2D,
	vel, sample spatialmath.Velocity2D,
) *trajectory.Trajectory {
	snap := p.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	traj := trajectory.New(0)
	p.newRollout(snap).simulate(traj, pose, vel, sample)
	return traj
}

// CheckTrajectory reports whether a sampled velocity is admissible from pose.
func (p *Planner) CheckTrajectory(pose spatialmath.Pose2D, vel, sample spatialmath.Velocity2D) bool {
	traj := p.ScoreTrajectory(pose, vel, sample)
	if traj.Admissible() {
		return true
	}
	p.logger.Warnw("invalid trajectory", "velocity", sample.String(), "status", traj.Status.String())
	return false
}

// Diagnostics returns the breakdown of the most recent planning cycle.
func (p *Planner) Diagnostics() Diagnostics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.diagnostics
}

// OscillationState returns the oscillation and escape state carried between cycles.
func (p *Planner) OscillationState() OscillationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.osc
}
