package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/localplanner/logging"
	"go.viam.com/localplanner/planner"
)

func TestWatcherDeliversChanges(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := writeConfig(t, t.TempDir(), `{"attributes": {"max_vel_x": 0.4}}`)

	watcher, err := NewWatcher(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, watcher.Close(), test.ShouldBeNil)
	}()

	test.That(t, os.WriteFile(path, []byte(`{"attributes": {"max_vel_x": 0.6}}`), 0o600), test.ShouldBeNil)

	select {
	case cfg := <-watcher.Config():
		test.That(t, cfg.Planner.MaxVelX, test.ShouldEqual, 0.6)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a config after the file was rewritten")
	}
}

func TestWatcherSkipsInvalidWrites(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := writeConfig(t, t.TempDir(), `{"attributes": {"max_vel_x": 0.4}}`)

	watcher, err := NewWatcher(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, watcher.Close(), test.ShouldBeNil)
	}()

	test.That(t, os.WriteFile(path, []byte(`{"attributes": {"sim_time": -1}}`), 0o600), test.ShouldBeNil)
	test.That(t, os.WriteFile(path, []byte(`{"attributes": {"max_vel_x": 0.8}}`), 0o600), test.ShouldBeNil)

	select {
	case cfg := <-watcher.Config():
		test.That(t, cfg.Planner.MaxVelX, test.ShouldEqual, 0.8)
	case <-time.After(5 * time.Second):
		t.Fatal("expected the valid config to be delivered")
	}
}

func TestWatcherWaitsForFirstConfig(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	path := filepath.Join(t.TempDir(), "planner.json")

	watcher, err := NewWatcher(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, watcher.Close(), test.ShouldBeNil)
	}()

	warnings := logs.FilterMessageSnippet("initial config could not be read").All()
	test.That(t, len(warnings), test.ShouldEqual, 1)
	test.That(t, warnings[0].ContextMap()["path"], test.ShouldEqual, path)

	test.That(t, os.WriteFile(path, []byte(`{"attributes": {"max_vel_x": 0.3}}`), 0o600), test.ShouldBeNil)
	select {
	case cfg := <-watcher.Config():
		test.That(t, cfg.Planner.MaxVelX, test.ShouldEqual, 0.3)
	case <-time.After(5 * time.Second):
		t.Fatal("expected the first valid config to be delivered")
	}
}

func TestNewWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher("/does/not/exist/planner.json", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

type fakeWatcher struct {
	ch chan *Config
}

func (w *fakeWatcher) Config() <-chan *Config { return w.ch }

func (w *fakeWatcher) Close() error { return nil }

type recordingTarget struct {
	mu      sync.Mutex
	applied []planner.Config
}

func (r *recordingTarget) Reconfigure(cfg planner.Config) error {
	if err := cfg.Validate("planner"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, cfg)
	return nil
}

func TestApplyUpdates(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	w := &fakeWatcher{ch: make(chan *Config)}
	target := &recordingTarget{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ApplyUpdates(context.Background(), w, target, logger)
	}()

	good := planner.DefaultConfig()
	good.MaxVelX = 0.9
	bad := planner.DefaultConfig()
	bad.SimTime = 0

	w.ch <- &Config{Planner: bad}
	w.ch <- &Config{Planner: good}
	close(w.ch)
	<-done

	test.That(t, target.applied, test.ShouldResemble, []planner.Config{good})
	test.That(t, logs.FilterMessage("error reconfiguring planner").Len(), test.ShouldEqual, 1)
}

func TestApplyUpdatesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ApplyUpdates(ctx, &fakeWatcher{ch: make(chan *Config)}, &recordingTarget{}, logging.NewTestLogger(t))
}

func TestApplyUpdatesEndsWhenWatcherCloses(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := writeConfig(t, t.TempDir(), `{"attributes": {"max_vel_x": 0.4}}`)
	watcher, err := NewWatcher(path, logger)
	test.That(t, err, test.ShouldBeNil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ApplyUpdates(context.Background(), watcher, &recordingTarget{}, logger)
	}()

	test.That(t, watcher.Close(), test.ShouldBeNil)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected ApplyUpdates to return once the watcher closed")
	}
	_, ok := <-watcher.Config()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, watcher.Close(), test.ShouldBeNil)
}
