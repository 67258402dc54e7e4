// Package status runs the periodic aggregate progress reporter described
// in §4.5 of SPEC_FULL.md, supervised the way internal/runner/web.go
// supervises its background web-dashboard goroutine via
// cirello.io/oversight/easy.
package status

import (
	"context"
	"fmt"
	"time"

	oversight "cirello.io/oversight/easy"

	"github.com/welchbj/bscan/internal/console"
	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/supervisor"
)

const wakeInterval = 500 * time.Millisecond

// Run blocks, waking every 500ms and emitting one status line each time
// accumulated elapsed time reaches intervalSeconds. It returns once no
// targets remain active. A non-positive intervalSeconds disables reporting
// entirely (Run returns immediately).
func Run(ctx context.Context, rt *runtime.Runtime, sup *supervisor.Supervisor, intervalSeconds int, verbose bool) {
	if intervalSeconds <= 0 {
		return
	}
	interval := time.Duration(intervalSeconds) * time.Second

	var elapsed time.Duration
	ticker := time.NewTicker(wakeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rt.ActiveCount() == 0 {
				return
			}
			elapsed += wakeInterval
			if elapsed < interval {
				continue
			}
			elapsed = 0
			report(rt, sup, verbose)
		}
	}
}

func report(rt *runtime.Runtime, sup *supervisor.Supervisor, verbose bool) {
	active := rt.ActiveCount()
	running := sup.RunningCount()
	console.Info(1, "", fmt.Sprintf("Scan status: %d spawned subprocess(es) currently running across %d target(s)", running, active))
	if verbose {
		for _, cmd := range sup.RunningCommands() {
			console.Info(2, "", cmd)
		}
	}
}

// Supervise launches Run as an oversight-managed, temporary one-shot task:
// it is expected to exit on its own once scanning finishes, so it is never
// restarted (mirroring web.go's serveWeb, the teacher's only other
// long-lived background task).
func Supervise(ctx context.Context, rt *runtime.Runtime, sup *supervisor.Supervisor, intervalSeconds int, verbose bool) {
	ovCtx := oversight.WithContext(ctx)
	oversight.Add(ovCtx, func(taskCtx context.Context) error {
		Run(taskCtx, rt, sup, intervalSeconds, verbose)
		return nil
	})
}
