// Command bscan orchestrates nmap/unicornscan/gobuster/nikto/enum4linux/
// hydra (and friends) against one or more targets, fanning out service scans
// as each stage discovers open ports. See SPEC_FULL.md for the full design.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"

	cli "github.com/urfave/cli/v2"

	"github.com/welchbj/bscan/internal/bscanerr"
	"github.com/welchbj/bscan/internal/config"
	"github.com/welchbj/bscan/internal/console"
	"github.com/welchbj/bscan/internal/dashboard"
	"github.com/welchbj/bscan/internal/highlight"
	"github.com/welchbj/bscan/internal/logbus"
	"github.com/welchbj/bscan/internal/netaddr"
	"github.com/welchbj/bscan/internal/pipeline"
	"github.com/welchbj/bscan/internal/runtime"
	"github.com/welchbj/bscan/internal/status"
	"github.com/welchbj/bscan/internal/supervisor"
	"github.com/welchbj/bscan/internal/version"
)

func main() {
	app := &cli.App{
		Name:      "bscan",
		Usage:     "network reconnaissance orchestration",
		UsageText: "bscan [options] target [target ...]",
		Version:   version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "brute-pass-list", Usage: "password list for brute-force recommendations"},
			&cli.StringFlag{Name: "brute-user-list", Usage: "username list for brute-force recommendations"},
			&cli.IntFlag{Name: "cmd-print-width", Usage: "truncation width for displayed commands (>= 5)"},
			&cli.StringFlag{Name: "config-dir", Usage: "directory of override configuration files"},
			&cli.BoolFlag{Name: "hard", Usage: "overwrite an existing target output directory"},
			&cli.IntFlag{Name: "max-concurrency", Value: 20, Usage: "maximum concurrently running subprocesses"},
			&cli.StringFlag{Name: "output-dir", Usage: "root directory for target output (default: cwd)"},
			&cli.StringSliceFlag{Name: "patterns", Usage: "additional regex pattern(s) to highlight"},
			&cli.BoolFlag{Name: "ping-sweep", Usage: "reserved; always a configuration error"},
			&cli.BoolFlag{Name: "quick-only", Usage: "skip the thorough scan stage"},
			&cli.StringFlag{Name: "qs-method", Usage: "quick-scan method name"},
			&cli.IntFlag{Name: "status-interval", Value: 30, Usage: "seconds between status reports (<=0 disables)"},
			&cli.StringFlag{Name: "ts-method", Usage: "thorough-scan method name"},
			&cli.BoolFlag{Name: "udp", Usage: "enable the UDP scan stage"},
			&cli.StringFlag{Name: "udp-method", Usage: "UDP-scan method name"},
			&cli.BoolFlag{Name: "verbose-status", Usage: "include running commands in status reports"},
			&cli.StringFlag{Name: "web-word-list", Usage: "wordlist used for HTTP directory brute-forcing"},
			&cli.BoolFlag{Name: "no-file-check", Usage: "skip existence checks on wordlist files"},
			&cli.BoolFlag{Name: "no-program-check", Usage: "skip the required-programs PATH preflight"},
			&cli.BoolFlag{Name: "git-snapshot", Usage: "commit each target's output directory to its own git history"},
			&cli.StringFlag{Name: "dashboard-addr", Usage: "bind address for the optional live HTTP dashboard (e.g. :8420)"},
		},
		Action: runApp,
	}

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runApp(c *cli.Context) error {
	targets := c.Args().Slice()
	if len(targets) == 0 {
		return bscanerr.NewConfigError("at least one target is required")
	}
	for _, t := range targets {
		if netaddr.IsValidNetAddr(t) {
			return bscanerr.NewConfigError("network scanning is not supported; specify individual hosts instead of %s", t)
		}
		if !netaddr.IsValidHostAddr(t) && !netaddr.IsValidHostname(t) {
			return bscanerr.NewConfigError("invalid target specified: %s", t)
		}
	}

	flags := config.Flags{
		BrutePassList:  c.String("brute-pass-list"),
		BruteUserList:  c.String("brute-user-list"),
		CmdPrintWidth:  c.Int("cmd-print-width"),
		ConfigDir:      c.String("config-dir"),
		Hard:           c.Bool("hard"),
		MaxConcurrency: c.Int("max-concurrency"),
		OutputDir:      c.String("output-dir"),
		Patterns:       c.StringSlice("patterns"),
		PingSweep:      c.Bool("ping-sweep"),
		QuickOnly:      c.Bool("quick-only"),
		QSMethod:       c.String("qs-method"),
		StatusInterval: c.Int("status-interval"),
		TSMethod:       c.String("ts-method"),
		UDP:            c.Bool("udp"),
		UDPMethod:      c.String("udp-method"),
		VerboseStatus:  c.Bool("verbose-status"),
		WebWordList:    c.String("web-word-list"),
		NoFileCheck:    c.Bool("no-file-check"),
		GitSnapshot:    c.Bool("git-snapshot"),
		DashboardAddr:  c.String("dashboard-addr"),
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}

	if !c.Bool("no-program-check") {
		missing, err := preflightPrograms(c.String("config-dir"))
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return bscanerr.NewConfigError("required programs %v could not be found on this system", missing)
		}
	}

	console.Legend()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		console.Warn(1, "", "received interrupt; waiting for in-flight subprocesses to exit")
		cancel()
	}()

	sup := supervisor.New(cfg.MaxConcurrency, cfg.CmdPrintWidth)
	rt := runtime.New()
	hl := highlight.New(cfg.Patterns)

	if cfg.DashboardAddr != "" {
		hub := logbus.NewHub()
		console.SetHub(hub)
		dash := &dashboard.Dashboard{Addr: cfg.DashboardAddr, Runtime: rt, Supervisor: sup, Hub: hub}
		dash.Supervise(ctx)
	}

	deps := pipeline.Deps{Config: cfg, Supervisor: sup, Runtime: rt, Highlighter: hl}

	// Admission happens synchronously, target by target, before the status
	// reporter is started: it depends on at least one target already being
	// active (§4.5), so it must never race the goroutines below for the
	// first Admit call.
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for _, target := range targets {
		if !rt.Admit(target) {
			console.Warn(1, target, "target is already active, skipping duplicate")
			continue
		}
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			if err := pipeline.RunAdmittedTarget(ctx, deps, target); err != nil {
				if _, ok := err.(*bscanerr.SkipTargetError); ok {
					console.Warn(1, target, err.Error())
					return
				}
				console.Err(1, target, err.Error())
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(target)
	}

	status.Supervise(ctx, rt, sup, cfg.StatusInterval, cfg.VerboseStatus)

	wg.Wait()
	sup.Shutdown()

	if firstErr != nil {
		return cli.Exit(firstErr.Error(), 1)
	}
	return nil
}

func preflightPrograms(configDir string) ([]string, error) {
	required, err := config.RequiredPrograms(configDir)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, prog := range required {
		if _, err := exec.LookPath(prog); err != nil {
			missing = append(missing, prog)
		}
	}
	return missing, nil
}
