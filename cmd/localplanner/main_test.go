package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/localplanner/costmap"
	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/spatialmath"
)

const (
	testConfigJSON = `{"name": "test", "frequency_hz": 10, "attributes": {"max_vel_x": 0.5}}`

	testScenarioJSON = `{
	"map": {
		"width": 100, "height": 40, "resolution": 0.1, "origin": [-1, -2],
		"obstacles": [{"min_x": 5, "min_y": 1, "max_x": 6, "max_y": 1.5}]
	},
	"start": {"x": 0, "y": 0, "theta": 0},
	"plan": [[0, 0, 0], [0.5, 0, 0], [1, 0, 0], [1.5, 0, 0], [2, 0, 0], [2.5, 0, 0], [3, 0, 0]],
	"goal_tolerance": 0.2
}`
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp(logging.NewTestLogger(t))
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"localplanner"}, args...))
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	cfgPath := writeFile(t, "planner.json", testConfigJSON)
	scenarioPath := writeFile(t, "scenario.json", testScenarioJSON)

	out, err := runApp(t, "validate", "--config", cfgPath, "--scenario", scenarioPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, cfgPath+": valid, 10 Hz")
	test.That(t, out, test.ShouldContainSubstring, "7 plan poses, 1 obstacles")

	out, err = runApp(t, "validate", "--config", cfgPath, "--params")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "PARAMETER")
	test.That(t, out, test.ShouldContainSubstring, "| max_vel_x ")
	test.That(t, out, test.ShouldContainSubstring, "| 0.5 ")

	badPath := writeFile(t, "bad.json", `{"attributes": {"min_vel_x": 2, "max_vel_x": 1}}`)
	_, err = runApp(t, "validate", "--config", badPath)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "min_vel_x")

	offMap := writeFile(t, "offmap.json", `{
		"map": {"width": 10, "height": 10, "resolution": 0.1},
		"start": {"x": 5, "y": 5},
		"plan": [[0, 0, 0]]
	}`)
	_, err = runApp(t, "validate", "--config", cfgPath, "--scenario", offMap)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "off the map")
}

func TestSimulateReachesGoal(t *testing.T) {
	cfgPath := writeFile(t, "planner.json", testConfigJSON)
	scenarioPath := writeFile(t, "scenario.json", testScenarioJSON)

	out, err := runApp(t, "simulate", "--config", cfgPath, "--scenario", scenarioPath, "--cycles", "300")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "   1 pose=")
	test.That(t, out, test.ShouldContainSubstring, "tier=translate")
	test.That(t, out, test.ShouldContainSubstring, "goal reached after")
	test.That(t, out, test.ShouldContainSubstring, "cycle latency")
}

func TestLogFile(t *testing.T) {
	cfgPath := writeFile(t, "planner.json", testConfigJSON)
	logPath := filepath.Join(t.TempDir(), "localplanner.log")

	_, err := runApp(t, "--debug", "--log-file", logPath, "validate", "--config", cfgPath)
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(logPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "read config")
}

func TestSimulateCycleLimit(t *testing.T) {
	cfgPath := writeFile(t, "planner.json", testConfigJSON)
	scenarioPath := writeFile(t, "scenario.json", testScenarioJSON)

	out, err := runApp(t, "simulate", "--config", cfgPath, "--scenario", scenarioPath, "--cycles", "2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "   2 pose=")
	test.That(t, out, test.ShouldNotContainSubstring, "   3 pose=")
	test.That(t, out, test.ShouldNotContainSubstring, "goal reached")
}

func TestScenarioValidation(t *testing.T) {
	_, err := readScenario(writeFile(t, "empty.json", `{"map": {"width": 0, "height": 5, "resolution": 0}}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "map size must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "map resolution must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "plan must have at least one pose")

	sc, err := readScenario(writeFile(t, "default.json", `{"map": {"width": 5, "height": 5, "resolution": 1}, "plan": [[1, 2, 3]]}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.GoalTolerance, test.ShouldEqual, defaultGoalTolerance)
	test.That(t, sc.goal().Theta, test.ShouldEqual, 3.0)
}

func TestBuildGrid(t *testing.T) {
	sc, err := readScenario(writeFile(t, "scenario.json", testScenarioJSON))
	test.That(t, err, test.ShouldBeNil)
	grid, err := sc.buildGrid()
	test.That(t, err, test.ShouldBeNil)

	mx, my, ok := grid.WorldToMap(5.55, 1.25)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, grid.Cost(mx, my), test.ShouldEqual, costmap.LethalObstacle)
	mx, my, ok = grid.WorldToMap(0.05, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, grid.Cost(mx, my), test.ShouldEqual, costmap.FreeSpace)

	poses := sc.poses()
	test.That(t, len(poses), test.ShouldEqual, 7)
	test.That(t, poses[6].X, test.ShouldEqual, 3.0)
}

func TestSimulatedRobotIntegrates(t *testing.T) {
	robot := newSimulatedRobot(spatialmath.NewPose2D(0, 0, 0), 0.5)
	test.That(t, robot.SetVelocity(context.Background(), spatialmath.NewVelocity2D(1, 0, 1)), test.ShouldBeNil)
	pose, vel, err := robot.Pose(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vel.X, test.ShouldEqual, 1.0)
	test.That(t, pose.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, pose.Theta, test.ShouldAlmostEqual, 0.5)
}
