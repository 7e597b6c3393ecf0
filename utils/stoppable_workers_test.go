package utils

import (
	"context"
	"testing"
	"time"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	started := make(chan struct{}, 2)
	exited := atomic.NewInt32(0)
	loop := func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		exited.Inc()
	}

	sw := NewStoppableWorkers(loop)
	sw.Add(loop)
	<-started
	<-started
	test.That(t, sw.Stopped(), test.ShouldBeFalse)

	sw.Stop()
	test.That(t, exited.Load(), test.ShouldEqual, int32(2))
	test.That(t, sw.Stopped(), test.ShouldBeTrue)
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// adding after stop runs nothing, and stopping again is harmless
	sw.Add(func(ctx context.Context) { t.Error("worker started after stop") })
	sw.Stop()
}

func TestStoppableWorkersSurvivePanics(t *testing.T) {
	sw := NewStoppableWorkers(func(ctx context.Context) {
		panic("boom")
	})
	sw.Stop()
	test.That(t, sw.Stopped(), test.ShouldBeTrue)
}

func TestStopWhileWorkerAdds(t *testing.T) {
	added := atomic.NewBool(false)
	sw := NewStoppableWorkers()
	sw.Add(func(ctx context.Context) {
		<-ctx.Done()
		sw.Add(func(context.Context) {
			added.Store(true)
		})
	})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sw.Stop()
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a worker was adding another")
	}
	test.That(t, added.Load(), test.ShouldBeFalse)
}
