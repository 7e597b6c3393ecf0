package main

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/spatialmath"
)

const defaultGoalTolerance = 0.1

// scenario is a closed-loop simulation setup: a static map, where the robot starts and the path it
// should follow.
type scenario struct {
	Map           scenarioMap        `json:"map"`
	Start         spatialmath.Pose2D `json:"start"`
	Plan          [][3]float64       `json:"plan"`
	GoalTolerance float64            `json:"goal_tolerance"`
}

type scenarioMap struct {
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Resolution float64            `json:"resolution"`
	Origin     [2]float64         `json:"origin"`
	Obstacles  []scenarioObstacle `json:"obstacles"`
}

// scenarioObstacle marks every cell whose centre lies in the rectangle. Cost defaults to lethal.
type scenarioObstacle struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	Cost *uint8  `json:"cost,omitempty"`
}

func readScenario(path string) (*scenario, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenario
	if err := json.NewDecoder(bytes.NewReader(buf)).Decode(&sc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode scenario %q", path)
	}
	if sc.GoalTolerance == 0 {
		sc.GoalTolerance = defaultGoalTolerance
	}
	if err := sc.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario %q", path)
	}
	return &sc, nil
}

func (sc *scenario) validate() error {
	var errs error
	if sc.Map.Width <= 0 || sc.Map.Height <= 0 {
		errs = multierr.Append(errs, errors.Errorf("map size must be positive, got %dx%d", sc.Map.Width, sc.Map.Height))
	}
	if sc.Map.Resolution <= 0 || math.IsNaN(sc.Map.Resolution) {
		errs = multierr.Append(errs, errors.Errorf("map resolution must be positive, got %v", sc.Map.Resolution))
	}
	if len(sc.Plan) == 0 {
		errs = multierr.Append(errs, errors.New("plan must have at least one pose"))
	}
	if sc.GoalTolerance < 0 {
		errs = multierr.Append(errs, errors.Errorf("goal_tolerance must not be negative, got %v", sc.GoalTolerance))
	}
	for i, obstacle := range sc.Map.Obstacles {
		if obstacle.MinX > obstacle.MaxX || obstacle.MinY > obstacle.MaxY {
			errs = multierr.Append(errs, errors.Errorf("obstacle %d has its corners swapped", i))
		}
	}
	return errs
}

// poses returns the plan as poses.
func (sc *scenario) poses() []spatialmath.Pose2D {
	return lo.Map(sc.Plan, func(p [3]float64, _ int) spatialmath.Pose2D {
		return spatialmath.NewPose2D(p[0], p[1], p[2])
	})
}

// goal is the last pose of the plan.
func (sc *scenario) goal() spatialmath.Pose2D {
	last := sc.Plan[len(sc.Plan)-1]
	return spatialmath.NewPose2D(last[0], last[1], last[2])
}

// buildGrid rasterises the scenario map.
func (sc *scenario) buildGrid() (*costmap.Grid, error) {
	m := sc.Map
	grid, err := costmap.NewGrid(m.Width, m.Height, m.Resolution, m.Origin[0], m.Origin[1])
	if err != nil {
		return nil, err
	}
	for _, obstacle := range m.Obstacles {
		cost := costmap.LethalObstacle
		if obstacle.Cost != nil {
			cost = *obstacle.Cost
		}
		for my := 0; my < m.Height; my++ {
			for mx := 0; mx < m.Width; mx++ {
				wx, wy := grid.MapToWorld(mx, my)
				if wx >= obstacle.MinX && wx <= obstacle.MaxX && wy >= obstacle.MinY && wy <= obstacle.MaxY {
					grid.SetCost(mx, my, cost)
				}
			}
		}
	}
	return grid, nil
}

// startOnMap reports whether the start pose lies on the map.
func (sc *scenario) startOnMap(grid costmap.Costmap) bool {
	_, _, ok := grid.WorldToMap(sc.Start.X, sc.Start.Y)
	return ok
}
