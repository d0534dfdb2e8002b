package lifecycle

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Paintersrp/relaunch/internal/host"
	"github.com/Paintersrp/relaunch/internal/logfmt"
	"github.com/Paintersrp/relaunch/internal/metrics"
	"github.com/Paintersrp/relaunch/internal/proc"
)

// Environment variables injected into every spawned process. User-supplied
// variables with the same names win.
const (
	bundlerEnvVar     = "NODE_ENV"
	environmentEnvVar = "RSBUILD_ENV"
)

// CommandSpec is the per-compile-event command configuration a resolver
// produces. It is ephemeral; nothing is persisted between events.
type CommandSpec struct {
	Command string
	Args    []string
	// Name is the display name used in the process key. Defaults to
	// Command.
	Name string
	// Env holds extra variables merged over the host environment and the
	// injected bundler variables.
	Env          map[string]string
	RestartDelay time.Duration

	OnlyOnFirstCompile bool
	OnlyOnWatch        bool
}

// Resolver produces the command configuration for one compile event, or nil
// when nothing should run.
type Resolver func(ev host.CompileEvent) *CommandSpec

// Starter launches child processes for the manager.
type Starter interface {
	Start(ctx context.Context, spec proc.Spec) (Handle, error)
}

// StarterFunc adapts a function to the Starter interface.
type StarterFunc func(ctx context.Context, spec proc.Spec) (Handle, error)

func (f StarterFunc) Start(ctx context.Context, spec proc.Spec) (Handle, error) {
	return f(ctx, spec)
}

// RuntimeStarter adapts the process runtime to the Starter interface.
func RuntimeStarter(rt *proc.Runtime) Starter {
	return StarterFunc(func(ctx context.Context, spec proc.Spec) (Handle, error) {
		return rt.Start(ctx, spec)
	})
}

// Manager reacts to the host build tool's compile notifications: it resolves
// the command for the compiled environment, debounces rapid successive
// events, kills any previous instance and spawns a replacement.
type Manager struct {
	registry *Registry
	starter  Starter
	info     host.Info
	log      *logfmt.Logger

	startDelay      time.Duration
	defaultResolver Resolver
	resolvers       map[string]Resolver

	sleep func(context.Context, time.Duration) error

	timerMu sync.Mutex
	timers  map[string]*time.Timer

	// envMu guards envLocks; each environment's lock serializes the
	// terminate-then-spawn section so overlapping debounce fires cannot
	// interleave and orphan a process.
	envMu    sync.Mutex
	envLocks map[string]*sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry overrides the process registry; production code shares
// Default.
func WithRegistry(r *Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithLogger sets the logger used for warnings and spawn failures.
func WithLogger(log *logfmt.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithStartDelay sets the debounce window applied before starting any
// process after a qualifying compile.
func WithStartDelay(d time.Duration) Option {
	return func(m *Manager) { m.startDelay = d }
}

// WithDefaultResolver sets the resolver used for environments without their
// own entry.
func WithDefaultResolver(r Resolver) Option {
	return func(m *Manager) { m.defaultResolver = r }
}

// WithResolver registers a resolver for one environment.
func WithResolver(environment string, r Resolver) Option {
	return func(m *Manager) { m.resolvers[environment] = r }
}

// NewManager constructs a Manager spawning through starter and forwarding
// child output to the host streams.
func NewManager(starter Starter, info host.Info, opts ...Option) *Manager {
	m := &Manager{
		registry:  Default(),
		starter:   starter,
		info:      info,
		resolvers: make(map[string]Resolver),
		sleep:     sleepContext,
		timers:    make(map[string]*time.Timer),
		envLocks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry exposes the registry the manager tracks processes in.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// OnBeforeCompile handles the host's "before creating a new compiler"
// notification: pending starts are cancelled and every tracked process is
// terminated, so nothing stale survives a full rebuild restart.
func (m *Manager) OnBeforeCompile(ctx context.Context) {
	m.cancelTimers()
	if err := m.registry.Terminate(ctx); err != nil {
		m.log.Warnf("terminate before rebuild: %v", err)
	}
}

// OnCompileDone handles the host's "environment finished compiling"
// notification.
func (m *Manager) OnCompileDone(ctx context.Context, ev host.CompileEvent) {
	if m.registry.ShuttingDown() {
		return
	}
	if ev.Stats.HasErrors() {
		m.log.Warnf("environment %s compiled with errors, keeping previous process", ev.Environment)
		for _, msg := range ev.Stats.Errors {
			m.log.Warnf("  %s", msg)
		}
		return
	}

	spec := m.resolve(ev)
	if spec != nil {
		if spec.OnlyOnFirstCompile && !ev.FirstCompile {
			return
		}
		if spec.OnlyOnWatch && !ev.Watch {
			return
		}
	}

	// A nil spec still supersedes a pending start for the environment:
	// only the most recent event within the window takes effect.
	m.arm(ev.Environment, spec)
}

func (m *Manager) resolve(ev host.CompileEvent) *CommandSpec {
	if r, ok := m.resolvers[ev.Environment]; ok && r != nil {
		return r(ev)
	}
	if m.defaultResolver != nil {
		return m.defaultResolver(ev)
	}
	return nil
}

func (m *Manager) arm(environment string, spec *CommandSpec) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if prev := m.timers[environment]; prev != nil {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(m.startDelay, func() {
		m.fire(environment, spec, t)
	})
	m.timers[environment] = t
}

func (m *Manager) cancelTimers() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	for environment, t := range m.timers {
		t.Stop()
		delete(m.timers, environment)
	}
}

// fire runs when an environment's debounce timer expires. A timer that was
// superseded or cancelled after already firing detects the mismatch and
// does nothing.
func (m *Manager) fire(environment string, spec *CommandSpec, t *time.Timer) {
	m.timerMu.Lock()
	if m.timers[environment] != t {
		m.timerMu.Unlock()
		return
	}
	delete(m.timers, environment)
	m.timerMu.Unlock()

	if spec == nil {
		return
	}

	// A fire that started during another fire's restart delay must wait
	// for that spawn to land, then terminate it, so no two processes ever
	// coexist under one key.
	lock := m.environmentLock(environment)
	lock.Lock()
	defer lock.Unlock()

	ctx := context.Background()
	replaced := len(m.registry.Tracked(environment)) > 0
	if err := m.registry.Terminate(ctx, environment); err != nil {
		m.log.Warnf("terminate %s before restart: %v", environment, err)
	}
	if err := m.sleep(ctx, spec.RestartDelay); err != nil {
		return
	}
	m.spawn(ctx, environment, spec, replaced)
}

func (m *Manager) environmentLock(environment string) *sync.Mutex {
	m.envMu.Lock()
	defer m.envMu.Unlock()
	lock := m.envLocks[environment]
	if lock == nil {
		lock = &sync.Mutex{}
		m.envLocks[environment] = lock
	}
	return lock
}

func (m *Manager) spawn(ctx context.Context, environment string, spec *CommandSpec, replaced bool) {
	name := spec.Name
	if name == "" {
		name = spec.Command
	}
	key := Key(environment, name)

	h, err := m.starter.Start(ctx, proc.Spec{
		Name:    name,
		Command: spec.Command,
		Args:    spec.Args,
		Env:     m.mergedEnv(environment, spec.Env),
		Stdout:  m.info.Stdout,
		Stderr:  m.info.Stderr,
	})
	if err != nil {
		m.log.Errorf("start %s: %v", key, err)
		return
	}

	m.registry.Track(environment, key, h)
	metrics.IncProcessSpawn(environment)
	if replaced {
		metrics.IncProcessRestart(environment)
	}
	go m.watch(environment, key, h)
}

// mergedEnv builds the child environment: host environment first, then the
// injected bundler variables, then user extras. Later entries win, so user
// variables override the injected ones on collision.
func (m *Manager) mergedEnv(environment string, extra map[string]string) []string {
	merged := append(os.Environ(),
		bundlerEnvVar+"="+m.info.BundlerType,
		environmentEnvVar+"="+environment,
	)
	if len(extra) == 0 {
		return merged
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+extra[k])
	}
	return merged
}

func (m *Manager) watch(environment, key string, h Handle) {
	<-h.Done()
	if !m.registry.UntrackIf(environment, key, h) {
		return
	}
	if h.StopRequested() {
		return
	}
	if err := h.Err(); err != nil {
		m.log.Warnf("%s exited: %v", key, err)
		metrics.IncAbnormalExit(environment)
	}
}
