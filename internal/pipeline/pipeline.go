// Package pipeline runs the full per-target scan sequence described in
// §4.4 of SPEC_FULL.md: quick scan, service fanout, thorough scan, a second
// fanout over newly discovered services, a UDP pass, and recommendations.txt
// generation. It is the Go-native generalization of the original project's
// scan_target coroutine, rebuilt on goroutines instead of asyncio tasks.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/welchbj/bscan/internal/bscanerr"
	"github.com/welchbj/bscan/internal/config"
	"github.com/welchbj/bscan/internal/console"
	"github.com/welchbj/bscan/internal/highlight"
	"github.com/welchbj/bscan/internal/portscan"
	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/snapshot"
	"github.com/welchbj/bscan/internal/structure"
	"github.com/welchbj/bscan/internal/supervisor"
	"github.com/welchbj/bscan/internal/taxonomy"
)

// Deps bundles everything a target's pipeline needs, resolved once at
// startup and shared (read-only, except for Runtime and Supervisor's own
// internal locking) across every concurrently-scanned target.
type Deps struct {
	Config      *config.Config
	Supervisor  *supervisor.Supervisor
	Runtime     *runtime.Runtime
	Highlighter *highlight.Highlighter
}

// RunTarget admits target into the active set, builds its directory
// skeleton, and runs the quick/thorough/service-scan sequence to
// completion, retiring the target when done. A *bscanerr.SkipTargetError
// returned here means the caller should move on to the next target without
// treating the run as failed.
func RunTarget(ctx context.Context, deps Deps, target string) error {
	if !deps.Runtime.Admit(target) {
		return bscanerr.NewInternalError("target %s is already active", target)
	}
	return RunAdmittedTarget(ctx, deps, target)
}

// RunAdmittedTarget runs the same sequence as RunTarget for a target the
// caller has already admitted into deps.Runtime (via a synchronous
// deps.Runtime.Admit call), retiring it when done. Use this when the caller
// needs the admission to happen before it starts anything that depends on
// a target being active, such as the §4.5 status reporter (see
// cmd/bscan/main.go), rather than racing admission against a goroutine.
func RunAdmittedTarget(ctx context.Context, deps Deps, target string) error {
	defer deps.Runtime.Retire(target)

	paths := structure.New(deps.Config.OutputDir, target)
	if err := structure.CreateSkeleton(paths, deps.Config.Hard); err != nil {
		return err
	}

	if deps.Config.GitSnapshot {
		if err := snapshot.Init(paths.Base()); err != nil {
			console.Warn(1, target, "git-snapshot: ", err.Error())
		}
	}

	sp := spawner{sup: deps.Supervisor}
	tctx := taxonomy.TemplateContext{
		WordList: deps.Config.WebWordList,
		UserList: deps.Config.BruteUserList,
		PassList: deps.Config.BrutePassList,
		Exists:   paths.Exists,
	}

	console.Info(1, target, "beginning scan")

	qsServices, err := portscan.Run(ctx, sp, deps.Highlighter, target,
		paths.ScanFile(fmt.Sprintf("services/%s.%s", portscan.StageQuick, deps.Config.QuickScan.Name)),
		deps.Config.QuickScan)
	if err != nil {
		return err
	}

	qsResidual, qsDetected := taxonomy.Join(target, setToSlice(qsServices), deps.Config.Services)
	printMatched(target, qsDetected)
	printUnmatched(target, qsResidual)

	var wg sync.WaitGroup
	spawnServiceScans(ctx, sp, deps.Highlighter, &wg, qsDetected, tctx)

	var tsServices map[taxonomy.ParsedService]struct{}
	doThorough := !deps.Config.QuickOnly
	if doThorough {
		tsServices, err = portscan.Run(ctx, sp, deps.Highlighter, target,
			paths.ScanFile(fmt.Sprintf("services/%s.%s", portscan.StageThorough, deps.Config.ThoroughScan.Name)),
			deps.Config.ThoroughScan)
		if err != nil {
			return err
		}
	} else {
		console.Info(2, target, ": skipping thorough scan")
	}

	newServices := setDiff(tsServices, qsServices)
	var tsDetected []taxonomy.DetectedService
	if len(newServices) > 0 {
		var tsResidual []taxonomy.ParsedService
		tsResidual, tsDetected = taxonomy.Join(target, newServices, deps.Config.Services)
		printMatched(target, tsDetected)
		printUnmatched(target, tsResidual)
		spawnServiceScans(ctx, sp, deps.Highlighter, &wg, tsDetected, tctx)
	} else if doThorough {
		console.Info(2, target, ": thorough scan discovered no additional services")
	}

	if deps.Config.UDP {
		udpServices, err := portscan.Run(ctx, sp, deps.Highlighter, target,
			paths.ScanFile(fmt.Sprintf("services/%s.%s", portscan.StageUDP, deps.Config.UDPScan.Name)),
			deps.Config.UDPScan)
		if err != nil {
			return err
		}
		for _, ps := range setToSlice(udpServices) {
			console.Info(2, target, fmt.Sprintf(": udp scan parsed %s on port %d", ps.Name, ps.Port))
		}
	}

	allDetected := append(append([]taxonomy.DetectedService{}, qsDetected...), tsDetected...)
	if err := writeRecommendations(paths, allDetected, tctx); err != nil {
		return err
	}

	wg.Wait()

	if deps.Config.GitSnapshot {
		if err := snapshot.Commit(paths.Base(), "scan snapshot for "+target); err != nil {
			console.Warn(1, target, "git-snapshot: ", err.Error())
		}
	}

	console.Info(1, target, "finished scan")
	return nil
}

// spawner adapts *supervisor.Supervisor to portscan.LineSpawner, since the
// supervisor's Spawn returns the concrete *supervisor.Handle rather than the
// portscan.Lines interface.
type spawner struct {
	sup *supervisor.Supervisor
}

func (s spawner) Spawn(ctx context.Context, cmd string) (portscan.Lines, error) {
	h, err := s.sup.Spawn(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// spawnServiceScans launches one goroutine per command plan a batch of
// detected services produces, draining its output through the highlighter.
// Each goroutine's completion is tracked on wg so the caller can block on
// the whole batch before retiring the target (mirroring scan_target's
// trailing `await gather(...)`).
func spawnServiceScans(ctx context.Context, sp spawner, hl *highlight.Highlighter, wg *sync.WaitGroup, detected []taxonomy.DetectedService, tctx taxonomy.TemplateContext) {
	for _, ds := range detected {
		target := ds.Target
		for _, plan := range ds.BuildScans(tctx) {
			wg.Add(1)
			go func(cmd string) {
				defer wg.Done()
				runServiceScan(ctx, sp, hl, target, cmd)
			}(plan.Cmd)
		}
	}
}

func runServiceScan(ctx context.Context, sp spawner, hl *highlight.Highlighter, target, cmd string) {
	lines, err := sp.Spawn(ctx, cmd)
	if err != nil {
		console.Err(1, target, "failed to spawn service scan: ", err.Error())
		return
	}
	for {
		line, ok := lines.Next()
		if !ok {
			return
		}
		if hl != nil {
			hl.Highlight(target, line)
		}
	}
}

func writeRecommendations(paths structure.Paths, detected []taxonomy.DetectedService, tctx taxonomy.TemplateContext) error {
	for _, ds := range detected {
		recs := ds.BuildRecommendations(tctx)
		if len(recs) == 0 {
			continue
		}
		header := fmt.Sprintf("The following commands are recommended for service %s running on port(s) %s:",
			ds.Protocol, ds.PortStr())
		var b strings.Builder
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", len(header)))
		b.WriteString("\n")
		for _, rec := range recs {
			b.WriteString(rec)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if err := structure.AppendLine(paths.RecommendationsTxt(), b.String()); err != nil {
			return err
		}
	}
	return nil
}

func printMatched(target string, detected []taxonomy.DetectedService) {
	for _, ds := range detected {
		console.Info(3, target, ": matched service(s) on port(s) ", ds.PortStr(), " to ", ds.Protocol, " protocol")
	}
}

func printUnmatched(target string, residual []taxonomy.ParsedService) {
	for _, ps := range residual {
		console.Warn(3, target, fmt.Sprintf(": unable to match reported %s on port %d to a configured service", ps.Name, ps.Port))
	}
}

// setToSlice renders a parsed-service set into a deterministically ordered
// slice (by name, then port), so Join's residual ordering is stable across
// runs even though Go maps have no iteration order.
func setToSlice(set map[taxonomy.ParsedService]struct{}) []taxonomy.ParsedService {
	out := make([]taxonomy.ParsedService, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// setDiff returns every element of b not present in a, mirroring the
// original's `ts_parsed_services - qs_parsed_services`, as a deterministically
// ordered slice.
func setDiff(b, a map[taxonomy.ParsedService]struct{}) []taxonomy.ParsedService {
	var diff []taxonomy.ParsedService
	for s := range b {
		if _, ok := a[s]; !ok {
			diff = append(diff, s)
		}
	}
	sort.Slice(diff, func(i, j int) bool {
		if diff[i].Name != diff[j].Name {
			return diff[i].Name < diff[j].Name
		}
		return diff[i].Port < diff[j].Port
	})
	return diff
}
