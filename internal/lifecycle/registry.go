package lifecycle

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
)

// Handle is the registry's view of a running child process. Stop performs
// the graceful-then-forceful protocol and resolves once the process is
// confirmed gone. Err reports the wait outcome after Done is closed.
// StopRequested distinguishes intentional termination from a crash.
type Handle interface {
	Stop(ctx context.Context) error
	Done() <-chan struct{}
	Err() error
	StopRequested() bool
}

// Key builds the composite process key tracking exactly one logical process
// per environment and name.
func Key(environment, name string) string {
	return environment + ":" + name
}

// Registry is the authoritative live view of all spawned child processes,
// keyed by environment and process key. One registry exists per host
// process and survives repeated manager construction.
type Registry struct {
	mu    sync.Mutex
	procs map[string]map[string]Handle

	shutdown atomic.Bool
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry constructs an empty registry. Production code shares Default;
// tests construct their own.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]map[string]Handle)}
}

// Track records a running process under its key.
func (r *Registry) Track(environment, key string, h Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	env := r.procs[environment]
	if env == nil {
		env = make(map[string]Handle)
		r.procs[environment] = env
	}
	env[key] = h
}

// Untrack removes a process key unconditionally, reporting whether an entry
// was removed.
func (r *Registry) Untrack(environment, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	env := r.procs[environment]
	if env == nil {
		return false
	}
	if _, ok := env[key]; !ok {
		return false
	}
	delete(env, key)
	return true
}

// UntrackIf removes the key only while it still maps to h, so the exit
// watcher and an explicit kill remove each entry exactly once.
func (r *Registry) UntrackIf(environment, key string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	env := r.procs[environment]
	if env == nil || env[key] != h {
		return false
	}
	delete(env, key)
	return true
}

// Lookup returns the tracked handle for a key, if any.
func (r *Registry) Lookup(environment, key string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env := r.procs[environment]
	if env == nil {
		return nil, false
	}
	h, ok := env[key]
	return h, ok
}

// Tracked returns a copy of the processes tracked for one environment.
func (r *Registry) Tracked(environment string) map[string]Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	env := r.procs[environment]
	if len(env) == 0 {
		return nil
	}
	dup := make(map[string]Handle, len(env))
	for k, h := range env {
		dup[k] = h
	}
	return dup
}

// Environments lists environments with at least one tracked process.
func (r *Registry) Environments() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.procs))
	for name, env := range r.procs {
		if len(env) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of tracked processes.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, env := range r.procs {
		n += len(env)
	}
	return n
}

// BeginShutdown marks a termination sweep as in progress. It reports false
// when a sweep is already underway.
func (r *Registry) BeginShutdown() bool {
	return r.shutdown.CompareAndSwap(false, true)
}

// EndShutdown clears the shutdown flag.
func (r *Registry) EndShutdown() {
	r.shutdown.Store(false)
}

// ShuttingDown reports whether a termination sweep is in progress.
func (r *Registry) ShuttingDown() bool {
	return r.shutdown.Load()
}
