package config

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/planner"
	"go.viam.com/localplanner/utils"
)

// A Watcher is responsible for delivering updated configs of a file as it changes.
type Watcher interface {
	Config() <-chan *Config
	Close() error
}

// NewWatcher returns a Watcher that re-reads filePath every time it is written or replaced. Configs
// that fail to read are logged and skipped, as are rewrites that change nothing.
func NewWatcher(filePath string, logger logging.Logger) (Watcher, error) {
	filePath = filepath.Clean(filePath)
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// editors often replace the file rather than write it, so watch its directory
	if err := fsWatcher.Add(filepath.Dir(filePath)); err != nil {
		return nil, errors.Wrapf(multierr.Combine(err, fsWatcher.Close()), "failed to watch %q", filePath)
	}

	pathLogger := logger.WithFields("path", filePath)
	current, err := Read(filePath, logger)
	if err != nil {
		pathLogger.Warnw("initial config could not be read, waiting for a valid write", "error", err)
	}

	configCh := make(chan *Config)
	w := &fsConfigWatcher{fsWatcher: fsWatcher, configCh: configCh}
	w.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				pathLogger.Errorw("error watching config", "error", err)
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filePath || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				newConfig, err := Read(filePath, logger)
				if err != nil {
					pathLogger.Errorw("error reading config after write", "error", err)
					continue
				}
				if current != nil && reflect.DeepEqual(current.Planner, newConfig.Planner) &&
					current.FrequencyHz == newConfig.FrequencyHz && current.Name == newConfig.Name {
					continue
				}
				current = newConfig
				select {
				case <-ctx.Done():
					return
				case configCh <- newConfig:
				}
			}
		}
	})
	return w, nil
}

type fsConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	configCh  chan *Config
	workers   *utils.StoppableWorkers
	closeOnce sync.Once
	closeErr  error
}

func (w *fsConfigWatcher) Config() <-chan *Config {
	return w.configCh
}

// Close stops watching and closes the Config channel once no more configs can be sent on it.
func (w *fsConfigWatcher) Close() error {
	w.closeOnce.Do(func() {
		w.workers.Stop()
		close(w.configCh)
		w.closeErr = w.fsWatcher.Close()
	})
	return w.closeErr
}

// Reconfigurable is anything that accepts a new planner configuration atomically.
type Reconfigurable interface {
	Reconfigure(cfg planner.Config) error
}

// ApplyUpdates reconfigures target with every config delivered by w until ctx is done or w stops
// delivering. Rejected configs are logged and the previous one stays in effect.
func ApplyUpdates(ctx context.Context, w Watcher, target Reconfigurable, logger logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-w.Config():
			if !ok {
				return
			}
			if err := target.Reconfigure(cfg.Planner); err != nil {
				logger.Errorw("error reconfiguring planner", "path", cfg.ConfigFilePath, "error", err)
				continue
			}
			logger.Infow("planner reconfigured", "path", cfg.ConfigFilePath)
		}
	}
}
