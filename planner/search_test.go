package planner

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/localplanner/spatialmath"
)

func TestDynamicWindow(t *testing.T) {
	origin := spatialmath.NewPose2D(0, 0, 0)

	t.Run("one control period", func(t *testing.T) {
		cfg := newSnapshot(testConfig(), 0.1, nil)
		w := dynamicWindow(cfg, origin, spatialmath.NewVelocity2D(0.2, 0, 0), nil)
		test.That(t, w.maxVX, test.ShouldAlmostEqual, 0.45)
		test.That(t, w.minVX, test.ShouldAlmostEqual, 0.1)
		test.That(t, w.maxVY, test.ShouldAlmostEqual, 0.1)
		test.That(t, w.minVY, test.ShouldAlmostEqual, -0.1)
		test.That(t, w.maxVTheta, test.ShouldAlmostEqual, 0.32)
		test.That(t, w.minVTheta, test.ShouldAlmostEqual, -0.32)
	})

	t.Run("lateral window follows lateral speed", func(t *testing.T) {
		c := testConfig()
		c.MaxVelY, c.MinVelY = 1, -1
		cfg := newSnapshot(c, 0.1, nil)
		w := dynamicWindow(cfg, origin, spatialmath.NewVelocity2D(0.2, 0.5, 0), nil)
		test.That(t, w.maxVY, test.ShouldAlmostEqual, 0.75)
		test.That(t, w.minVY, test.ShouldAlmostEqual, 0.25)
	})

	t.Run("whole horizon", func(t *testing.T) {
		c := testConfig()
		c.DWA = false
		cfg := newSnapshot(c, 0.1, nil)
		w := dynamicWindow(cfg, origin, spatialmath.NewVelocity2D(0.2, 0, 0), nil)
		test.That(t, w.maxVX, test.ShouldAlmostEqual, 0.5)
		test.That(t, w.minVX, test.ShouldAlmostEqual, 0.1)
		test.That(t, w.maxVTheta, test.ShouldAlmostEqual, 1.0)
		test.That(t, w.minVTheta, test.ShouldAlmostEqual, -1.0)
	})

	t.Run("goal caps speed", func(t *testing.T) {
		c := testConfig()
		c.DWA = false
		cfg := newSnapshot(c, 0.1, nil)
		goal := spatialmath.NewPose2D(0.2, 0, 0)
		w := dynamicWindow(cfg, origin, spatialmath.Velocity2D{}, &goal)
		test.That(t, w.maxVX, test.ShouldAlmostEqual, 0.2)
		test.That(t, w.minVX, test.ShouldAlmostEqual, 0.1)

		goal = spatialmath.NewPose2D(0.05, 0, 0)
		w = dynamicWindow(cfg, origin, spatialmath.Velocity2D{}, &goal)
		// the minimum forward speed still wins over the goal cap
		test.That(t, w.maxVX, test.ShouldAlmostEqual, 0.1)
		test.That(t, w.minVX, test.ShouldAlmostEqual, 0.05)
		test.That(t, w.maxVY, test.ShouldAlmostEqual, 0.05)
		test.That(t, w.minVY, test.ShouldAlmostEqual, -0.05)
	})
}

func TestTranslateSamples(t *testing.T) {
	c := testConfig()
	c.VThetaSamples = 3
	cfg := newSnapshot(c, 0.1, nil)
	w := window{minVX: 0.1, maxVX: 0.5, minVTheta: -1, maxVTheta: 1}

	samples := translateSamples(cfg, w)
	test.That(t, len(samples), test.ShouldEqual, 9)
	for i, vx := range []float64{0.1, 0.3, 0.5} {
		straight, turning, last := samples[3*i], samples[3*i+1], samples[3*i+2]
		test.That(t, straight.X, test.ShouldAlmostEqual, vx)
		test.That(t, straight.Theta, test.ShouldEqual, 0.0)
		test.That(t, turning.Theta, test.ShouldAlmostEqual, -1.0)
		test.That(t, last.Theta, test.ShouldAlmostEqual, 0.0)
		test.That(t, straight.Y, test.ShouldEqual, 0.0)
	}
}

func TestStrafeSamples(t *testing.T) {
	cfg := newSnapshot(testConfig(), 0.1, nil)
	w := window{minVX: 0.1, maxVX: 0.5, minVY: -0.1, maxVY: 0.1}

	samples := strafeSamples(cfg, w)
	test.That(t, len(samples), test.ShouldEqual, 6)
	for i, vy := range []float64{-0.1, -0.05, 0.05} {
		test.That(t, samples[i].X, test.ShouldEqual, 0.0)
		test.That(t, samples[i].Y, test.ShouldAlmostEqual, vy)
		test.That(t, samples[i+3].X, test.ShouldAlmostEqual, 0.05)
		test.That(t, samples[i+3].Y, test.ShouldAlmostEqual, vy)
	}
}

func TestRotateSamples(t *testing.T) {
	c := testConfig()
	c.VThetaSamples = 4
	cfg := newSnapshot(c, 0.1, nil)
	w := window{minVTheta: -0.3, maxVTheta: 0.3}

	samples := rotateSamples(cfg, w)
	test.That(t, samples, test.ShouldResemble, []spatialmath.Velocity2D{
		spatialmath.NewVelocity2D(0, 0, -0.4),
		spatialmath.NewVelocity2D(0, 0, 0.4),
	})

	c.VThetaSamples = 1
	test.That(t, rotateSamples(newSnapshot(c, 0.1, nil), w), test.ShouldBeNil)
}
