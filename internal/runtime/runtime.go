// Package runtime holds the small amount of process-wide mutable state a
// bscan run shares across concurrently-scanned targets: the active-targets
// set described in §5 of SPEC_FULL.md. Everything else is handed to each
// pipeline explicitly rather than reached for through a global: Config is
// an immutable value and the Supervisor guards its own running set, per the
// Design Notes' resolution of the original's single ad hoc db map.
package runtime

import "sync"

// Runtime is the one shared, mutex-guarded record a run's concurrently
// executing target pipelines touch. It is safe for concurrent use.
type Runtime struct {
	mu            sync.Mutex
	activeTargets map[string]struct{}
}

// New returns an empty Runtime.
func New() *Runtime {
	return &Runtime{activeTargets: make(map[string]struct{})}
}

// Admit records target as actively scanning. It returns false if target is
// already active, which callers treat as a programming error (§8: "a target
// string is never concurrently active under itself twice").
func (r *Runtime) Admit(target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activeTargets[target]; ok {
		return false
	}
	r.activeTargets[target] = struct{}{}
	return true
}

// Retire removes target from the active set once its pipeline reaches Done.
func (r *Runtime) Retire(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeTargets, target)
}

// ActiveTargets returns a snapshot of the currently active target names, for
// the status reporter.
func (r *Runtime) ActiveTargets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.activeTargets))
	for t := range r.activeTargets {
		out = append(out, t)
	}
	return out
}

// ActiveCount reports how many targets are currently being scanned.
func (r *Runtime) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activeTargets)
}
