package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Paintersrp/relaunch/internal/metrics"
)

// Terminate stops every tracked process for the named environments, or for
// all environments when none are named. Processes within an environment are
// stopped concurrently, and environments are processed concurrently with
// each other. Each handle receives the graceful signal first and is force
// killed if it has not exited within the grace period; Terminate resolves
// once every targeted process is confirmed gone. An environment with no
// tracked processes is a no-op.
func (r *Registry) Terminate(ctx context.Context, environments ...string) error {
	targets := r.snapshot(environments)
	if len(targets) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.ObserveTerminateDuration(time.Since(start))
	}()

	type stopResult struct {
		key string
		err error
	}

	var wg sync.WaitGroup
	results := make(chan stopResult, totalHandles(targets))
	for environment, handles := range targets {
		for key, h := range handles {
			wg.Add(1)
			go func(environment, key string, h Handle) {
				defer wg.Done()
				err := h.Stop(ctx)
				r.UntrackIf(environment, key, h)
				if err != nil {
					results <- stopResult{key: key, err: err}
				}
			}(environment, key, h)
		}
	}
	wg.Wait()
	close(results)

	var errs []error
	for res := range results {
		errs = append(errs, fmt.Errorf("stop %s: %w", res.key, res.err))
	}
	return errors.Join(errs...)
}

func (r *Registry) snapshot(environments []string) map[string]map[string]Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(environments) == 0 {
		environments = make([]string, 0, len(r.procs))
		for name := range r.procs {
			environments = append(environments, name)
		}
	}

	targets := make(map[string]map[string]Handle)
	for _, name := range environments {
		env := r.procs[name]
		if len(env) == 0 {
			continue
		}
		dup := make(map[string]Handle, len(env))
		for k, h := range env {
			dup[k] = h
		}
		targets[name] = dup
	}
	return targets
}

func totalHandles(targets map[string]map[string]Handle) int {
	n := 0
	for _, handles := range targets {
		n += len(handles)
	}
	return n
}
