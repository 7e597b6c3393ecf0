// Package main is the local planner command line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/localplanner/config"
	"go.viam.com/localplanner/localnav"
	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/planner"
	"go.viam.com/localplanner/utils"
)

const (
	// Flags.
	flagConfig   = "config"
	flagScenario = "scenario"
	flagCycles   = "cycles"
	flagWatch    = "watch"
	flagDebug    = "debug"
	flagLogFile  = "log-file"
	flagParams   = "params"

	defaultCycles = 200
)

func main() {
	logger := logging.NewLogger("localplanner")
	if err := newApp(logger).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(logger logging.Logger) *cli.App {
	var fileAppender *logging.FileAppender
	return &cli.App{
		Name:  "localplanner",
		Usage: "validate and exercise trajectory rollout local planner configurations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotating it as it grows",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			if path := c.String(flagLogFile); path != "" {
				fileAppender = logging.NewFileAppender(path)
				logger.AddAppender(fileAppender)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if fileAppender == nil {
				return nil
			}
			return fileAppender.Close()
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "check a planner configuration file",
				UsageText: "localplanner validate --config <FILE> [--scenario <FILE>] [--params]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagScenario,
						Usage: "also check the scenario in `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagParams,
						Usage: "print every effective planner parameter",
					},
				},
				Action: func(c *cli.Context) error {
					return validateAction(c, logger)
				},
			},
			{
				Name:      "simulate",
				Usage:     "drive a simulated robot along a scenario's plan",
				UsageText: "localplanner simulate --config <FILE> --scenario <FILE> [--cycles N] [--watch]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Usage:    "load configuration from `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagScenario,
						Usage:    "load the scenario from `FILE`",
						Required: true,
					},
					&cli.IntFlag{
						Name:  flagCycles,
						Usage: "stop after `N` control cycles",
						Value: defaultCycles,
					},
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "run in real time and apply edits to the config file as they are saved",
					},
				},
				Action: func(c *cli.Context) error {
					return simulateAction(c, logger)
				},
			},
		},
	}
}

func printf(w io.Writer, format string, a ...interface{}) {
	_, _ = fmt.Fprintf(w, format+"\n", a...)
}

func validateAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s: valid, %v Hz, planner %s", cfg.ConfigFilePath, cfg.FrequencyHz, summarize(cfg.Planner))
	if c.Bool(flagParams) {
		params, err := parameterTable(cfg.Planner)
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", params)
	}

	if path := c.String(flagScenario); path != "" {
		sc, err := readScenario(path)
		if err != nil {
			return err
		}
		grid, err := sc.buildGrid()
		if err != nil {
			return err
		}
		if !sc.startOnMap(grid) {
			return errors.Errorf("scenario %q starts off the map at %s", path, sc.Start)
		}
		printf(c.App.Writer, "%s: valid, %d plan poses, %d obstacles", path, len(sc.Plan), len(sc.Map.Obstacles))
	}
	return nil
}

func summarize(cfg planner.Config) string {
	return fmt.Sprintf("vx[%.2f, %.2f] vtheta[%.2f, %.2f] samples=%d/%d/%d dwa=%t",
		cfg.MinVelX, cfg.MaxVelX, cfg.MinVelTheta, cfg.MaxVelTheta,
		cfg.VXSamples, cfg.VYSamples, cfg.VThetaSamples, cfg.DWA)
}

func simulateAction(c *cli.Context, logger logging.Logger) (err error) {
	cfg, err := config.Read(c.String(flagConfig), logger)
	if err != nil {
		return err
	}
	sc, err := readScenario(c.String(flagScenario))
	if err != nil {
		return err
	}
	grid, err := sc.buildGrid()
	if err != nil {
		return err
	}
	if !sc.startOnMap(grid) {
		return errors.Errorf("scenario starts off the map at %s", sc.Start)
	}

	p, err := planner.New(grid, nil, cfg.Planner, logger.Sublogger("planner"))
	if err != nil {
		return err
	}
	p.UpdatePlan(sc.poses(), true)

	robot := newSimulatedRobot(sc.Start, 1/cfg.FrequencyHz)
	clk := clock.New()
	runner, err := localnav.NewRunner(p, robot, robot, cfg.FrequencyHz, clk, logger.Sublogger("localnav"))
	if err != nil {
		return err
	}
	ctx := c.Context
	defer func() {
		err = multierr.Combine(err, runner.Close(ctx))
	}()

	var ticker *clock.Ticker
	if c.Bool(flagWatch) {
		watcher, watchErr := config.NewWatcher(cfg.ConfigFilePath, logger)
		if watchErr != nil {
			return watchErr
		}
		workers := utils.NewStoppableWorkers(func(ctx context.Context) {
			config.ApplyUpdates(ctx, watcher, p, logger)
		})
		defer func() {
			workers.Stop()
			err = multierr.Combine(err, watcher.Close())
		}()
		ticker = clk.Ticker(runner.Period())
		defer ticker.Stop()
	}

	out := c.App.Writer
	goal := sc.goal()
	cycles := c.Int(flagCycles)
	for i := 1; i <= cycles; i++ {
		if err := runner.Step(ctx); err != nil {
			return errors.Wrapf(err, "cycle %d", i)
		}
		pose, _, err := robot.Pose(ctx)
		if err != nil {
			return err
		}
		diag := p.Diagnostics()
		printf(out, "%4d pose=%s cmd=%s tier=%s status=%s cost=%.3f",
			i, pose, diag.Velocity, diag.Tier, diag.Status, diag.Cost)

		if pose.DistanceTo(goal) <= sc.GoalTolerance {
			printf(out, "goal reached after %d cycles", i)
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}

	if latency, err := runner.LatencyStats(); err == nil {
		printf(out, "cycle latency: mean=%.3fms p50=%.3fms p99=%.3fms max=%.3fms over %d cycles",
			latency.Mean, latency.P50, latency.P99, latency.Max, latency.Count)
	}
	return nil
}
