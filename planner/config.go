package planner

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/logging"
)

// Config holds every tunable of the trajectory planner.
type Config struct {
	AccLimX     float64 `json:"acc_lim_x"`
	AccLimY     float64 `json:"acc_lim_y"`
	AccLimTheta float64 `json:"acc_lim_theta"`

	MaxVelX            float64 `json:"max_vel_x"`
	MinVelX            float64 `json:"min_vel_x"`
	MaxVelY            float64 `json:"max_vel_y"`
	MinVelY            float64 `json:"min_vel_y"`
	MaxVelTheta        float64 `json:"max_vel_theta"`
	MinVelTheta        float64 `json:"min_vel_theta"`
	MinInPlaceVelTheta float64 `json:"min_in_place_vel_theta"`
	EscapeVel          float64 `json:"escape_vel"`

	SimTime               float64 `json:"sim_time"`
	SimGranularity        float64 `json:"sim_granularity"`
	AngularSimGranularity float64 `json:"angular_sim_granularity"`
	SimPeriod             float64 `json:"sim_period"`

	VXSamples     int `json:"vx_samples"`
	VYSamples     int `json:"vy_samples"`
	VThetaSamples int `json:"vtheta_samples"`

	PDistScale      float64 `json:"pdist_scale"`
	GDistScale      float64 `json:"gdist_scale"`
	OccDistScale    float64 `json:"occdist_scale"`
	HDiffScale      float64 `json:"hdiff_scale"`
	PathDistanceMax float64 `json:"path_distance_max"`

	OscillationResetDist float64 `json:"oscillation_reset_dist"`
	EscapeResetDist      float64 `json:"escape_reset_dist"`
	EscapeResetTheta     float64 `json:"escape_reset_theta"`

	HolonomicRobot  bool `json:"holonomic_robot"`
	DWA             bool `json:"dwa"`
	HeadingScoring  bool `json:"heading_scoring"`
	SimpleAttractor bool `json:"simple_attractor"`
	MeterScoring    bool `json:"meter_scoring"`

	// Footprint is the robot outline in the robot frame, one [x, y] pair per vertex.
	Footprint [][2]float64 `json:"footprint"`

	// NumThreads bounds how many candidate trajectories are simulated at once. Values below 2 simulate
	// serially.
	NumThreads int `json:"num_threads"`
}

type namedValue struct {
	name  string
	value float64
}

// DefaultConfig returns the stock planner tuning.
func DefaultConfig() Config {
	return Config{
		AccLimX:     2.5,
		AccLimY:     2.5,
		AccLimTheta: 3.2,

		MaxVelX:            0.5,
		MinVelX:            0.1,
		MaxVelY:            0.1,
		MinVelY:            -0.1,
		MaxVelTheta:        1.0,
		MinVelTheta:        -1.0,
		MinInPlaceVelTheta: 0.4,
		EscapeVel:          -0.1,

		SimTime:               1.0,
		SimGranularity:        0.025,
		AngularSimGranularity: 0.1,
		SimPeriod:             0.1,

		VXSamples:     3,
		VYSamples:     5,
		VThetaSamples: 20,

		PDistScale:   0.6,
		GDistScale:   0.8,
		OccDistScale: 0.01,
		HDiffScale:   1.0,

		OscillationResetDist: 0.05,
		EscapeResetDist:      0.10,
		EscapeResetTheta:     math.Pi / 2,

		HolonomicRobot: true,
		DWA:            true,

		Footprint: [][2]float64{{0.2, 0.2}, {0.2, -0.2}, {-0.2, -0.2}, {-0.2, 0.2}},

		NumThreads: 1,
	}
}

// Validate ensures all parts of the config are valid. Sample counts below one are not an error; they
// are raised to one when the config is applied.
func (cfg *Config) Validate(path string) error {
	var errs error
	fail := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path, errors.Errorf(format, args...)))
	}

	for _, f := range []namedValue{
		{"acc_lim_x", cfg.AccLimX},
		{"acc_lim_y", cfg.AccLimY},
		{"acc_lim_theta", cfg.AccLimTheta},
		{"max_vel_x", cfg.MaxVelX},
		{"min_vel_x", cfg.MinVelX},
		{"max_vel_y", cfg.MaxVelY},
		{"min_vel_y", cfg.MinVelY},
		{"max_vel_theta", cfg.MaxVelTheta},
		{"min_vel_theta", cfg.MinVelTheta},
		{"min_in_place_vel_theta", cfg.MinInPlaceVelTheta},
		{"escape_vel", cfg.EscapeVel},
		{"sim_time", cfg.SimTime},
		{"sim_granularity", cfg.SimGranularity},
		{"angular_sim_granularity", cfg.AngularSimGranularity},
		{"sim_period", cfg.SimPeriod},
		{"pdist_scale", cfg.PDistScale},
		{"gdist_scale", cfg.GDistScale},
		{"occdist_scale", cfg.OccDistScale},
		{"hdiff_scale", cfg.HDiffScale},
		{"path_distance_max", cfg.PathDistanceMax},
		{"oscillation_reset_dist", cfg.OscillationResetDist},
		{"escape_reset_dist", cfg.EscapeResetDist},
		{"escape_reset_theta", cfg.EscapeResetTheta},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			fail("%s must be a finite number, got %f", f.name, f.value)
		}
	}
	if errs != nil {
		return errs
	}

	for _, f := range []namedValue{
		{"acc_lim_x", cfg.AccLimX},
		{"acc_lim_y", cfg.AccLimY},
		{"acc_lim_theta", cfg.AccLimTheta},
	} {
		if f.value < 0 {
			fail("%s cannot be negative, got %f", f.name, f.value)
		}
	}
	for _, f := range []namedValue{
		{"sim_time", cfg.SimTime},
		{"sim_granularity", cfg.SimGranularity},
		{"angular_sim_granularity", cfg.AngularSimGranularity},
		{"sim_period", cfg.SimPeriod},
	} {
		if f.value <= 0 {
			fail("%s must be positive, got %f", f.name, f.value)
		}
	}
	if cfg.MinVelX > cfg.MaxVelX {
		fail("min_vel_x (%f) cannot exceed max_vel_x (%f)", cfg.MinVelX, cfg.MaxVelX)
	}
	if cfg.MinVelY > cfg.MaxVelY {
		fail("min_vel_y (%f) cannot exceed max_vel_y (%f)", cfg.MinVelY, cfg.MaxVelY)
	}
	if cfg.MinVelTheta > cfg.MaxVelTheta {
		fail("min_vel_theta (%f) cannot exceed max_vel_theta (%f)", cfg.MinVelTheta, cfg.MaxVelTheta)
	}
	if cfg.MinInPlaceVelTheta < 0 {
		fail("min_in_place_vel_theta cannot be negative, got %f", cfg.MinInPlaceVelTheta)
	}
	if cfg.EscapeVel > 0 {
		fail("escape_vel must move the robot backwards, got %f", cfg.EscapeVel)
	}
	if cfg.NumThreads < 0 {
		fail("num_threads cannot be negative, got %d", cfg.NumThreads)
	}
	for i, vertex := range cfg.Footprint {
		if math.IsNaN(vertex[0]) || math.IsNaN(vertex[1]) || math.IsInf(vertex[0], 0) || math.IsInf(vertex[1], 0) {
			fail("footprint vertex %d is not finite", i)
		}
	}
	if len(cfg.Footprint) == 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "footprint"))
	}
	return errs
}

// FootprintVectors returns the footprint as robot-frame points.
func (cfg *Config) FootprintVectors() []r3.Vector {
	return lo.Map(cfg.Footprint, func(v [2]float64, _ int) r3.Vector {
		return r3.Vector{X: v[0], Y: v[1]}
	})
}

// snapshot is an immutable, corrected copy of a Config together with the values derived from it.
// A planning cycle takes one snapshot at entry and never observes a later reconfiguration.
type snapshot struct {
	Config

	footprint                []r3.Vector
	inscribed, circumscribed float64
}

// newSnapshot corrects sample counts, applies meter scoring at the given costmap resolution and
// precomputes footprint radii.
func newSnapshot(cfg Config, resolution float64, logger logging.Logger) *snapshot {
	for _, sample := range []struct {
		name  string
		value *int
	}{
		{"vx_samples", &cfg.VXSamples},
		{"vy_samples", &cfg.VYSamples},
		{"vtheta_samples", &cfg.VThetaSamples},
	} {
		if *sample.value <= 0 {
			logger.Warnf("%s is %d; at least one sample is needed so it is being set to 1", sample.name, *sample.value)
			*sample.value = 1
		}
	}
	if cfg.MeterScoring {
		cfg.PDistScale *= resolution
		cfg.GDistScale *= resolution
		cfg.OccDistScale *= resolution
	}
	cfg.Footprint = append([][2]float64(nil), cfg.Footprint...)

	snap := &snapshot{Config: cfg, footprint: cfg.FootprintVectors()}
	snap.inscribed, snap.circumscribed = costmap.FootprintRadii(snap.footprint)
	return snap
}

func (s *snapshot) String() string {
	return fmt.Sprintf("vx[%.3f, %.3f] vy[%.3f, %.3f] vtheta[%.3f, %.3f] samples=%d/%d/%d dwa=%t holonomic=%t",
		s.MinVelX, s.MaxVelX, s.MinVelY, s.MaxVelY, s.MinVelTheta, s.MaxVelTheta,
		s.VXSamples, s.VYSamples, s.VThetaSamples, s.DWA, s.HolonomicRobot)
}
