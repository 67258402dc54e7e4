package status

import (
	"context"
	"testing"
	"time"

	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/supervisor"
)

func TestRunReturnsImmediatelyWhenDisabled(t *testing.T) {
	rt := runtime.New()
	sup := supervisor.New(1, 80)
	done := make(chan struct{})
	go func() {
		Run(context.Background(), rt, sup, 0, false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() with intervalSeconds <= 0 did not return promptly")
	}
}

func TestRunExitsWhenNoTargetsActive(t *testing.T) {
	rt := runtime.New()
	sup := supervisor.New(1, 80)
	done := make(chan struct{})
	go func() {
		Run(context.Background(), rt, sup, 1, false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit once no targets were active")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	rt := runtime.New()
	rt.Admit("10.0.0.1")
	sup := supervisor.New(1, 80)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, rt, sup, 3600, false)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}
