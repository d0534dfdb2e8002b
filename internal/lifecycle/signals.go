package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Paintersrp/relaunch/internal/logfmt"
)

// sweepTimeout caps the cross-environment sweep triggered by a termination
// signal. The per-process grace period already bounds each stop, so this
// only guards against a wedged wait.
const sweepTimeout = 30 * time.Second

// SignalHandler installs process-wide listeners for interrupt and terminate
// signals. A caught signal triggers a full termination sweep across every
// environment and then exits the host process with status 0, so no child
// outlives its parent.
type SignalHandler struct {
	registry *Registry
	log      *logfmt.Logger
	exit     func(int)

	mu        sync.Mutex
	installed *installation
}

type installation struct {
	ch   chan os.Signal
	done chan struct{}
}

// NewSignalHandler constructs a handler sweeping the provided registry.
func NewSignalHandler(registry *Registry, log *logfmt.Logger) *SignalHandler {
	return &SignalHandler{
		registry: registry,
		log:      log,
		exit:     os.Exit,
	}
}

// Install registers the signal listeners. A second call while already
// installed is a no-op.
func (s *SignalHandler) Install() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed != nil {
		return
	}
	inst := &installation{
		ch:   make(chan os.Signal, 2),
		done: make(chan struct{}),
	}
	signal.Notify(inst.ch, os.Interrupt, syscall.SIGTERM)
	s.installed = inst
	go s.listen(inst)
}

// Uninstall removes exactly the listeners Install registered and clears the
// installed marker. Repeated install/uninstall cycles are safe.
func (s *SignalHandler) Uninstall() {
	s.mu.Lock()
	inst := s.installed
	s.installed = nil
	s.mu.Unlock()
	if inst == nil {
		return
	}
	signal.Stop(inst.ch)
	close(inst.ch)
	<-inst.done
}

func (s *SignalHandler) listen(inst *installation) {
	defer close(inst.done)
	for sig := range inst.ch {
		s.handle(sig)
	}
}

func (s *SignalHandler) handle(sig os.Signal) {
	// A sweep already underway owns shutdown; ignore repeated signals.
	if !s.registry.BeginShutdown() {
		return
	}
	func() {
		defer s.registry.EndShutdown()
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if err := s.registry.Terminate(ctx); err != nil {
			s.log.Warnf("terminate on %s: %v", sig, err)
		}
	}()
	s.exit(0)
}
