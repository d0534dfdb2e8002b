package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTerminateUnknownEnvironmentIsNoOp(t *testing.T) {
	r := NewRegistry()
	start := time.Now()
	if err := r.Terminate(context.Background(), "ghost"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("no-op terminate took %v", elapsed)
	}
}

func TestTerminateStopsAllAndClearsEntries(t *testing.T) {
	r := NewRegistry()
	handles := []*fakeHandle{newFakeHandle(), newFakeHandle(), newFakeHandle()}
	r.Track("backend", Key("backend", "node"), handles[0])
	r.Track("backend", Key("backend", "worker"), handles[1])
	r.Track("web", Key("web", "vite"), handles[2])

	if err := r.Terminate(context.Background()); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	for i, h := range handles {
		if h.stopCalls.Load() != 1 {
			t.Fatalf("handle %d: expected exactly one Stop call, got %d", i, h.stopCalls.Load())
		}
	}
	if r.Count() != 0 {
		t.Fatalf("expected registry cleared, %d entries remain", r.Count())
	}
}

func TestTerminateRunsHandlesConcurrently(t *testing.T) {
	r := NewRegistry()
	const delay = 100 * time.Millisecond
	for _, name := range []string{"a", "b", "c"} {
		h := newFakeHandle()
		h.stopDelay = delay
		r.Track("backend", Key("backend", name), h)
	}

	start := time.Now()
	if err := r.Terminate(context.Background(), "backend"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 3*delay {
		t.Fatalf("terminate took %v, expected concurrent stops", elapsed)
	}
}

func TestTerminateScopedToNamedEnvironment(t *testing.T) {
	r := NewRegistry()
	backend := newFakeHandle()
	web := newFakeHandle()
	r.Track("backend", Key("backend", "node"), backend)
	r.Track("web", Key("web", "vite"), web)

	if err := r.Terminate(context.Background(), "backend"); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if backend.stopCalls.Load() != 1 {
		t.Fatal("expected backend process stopped")
	}
	if web.stopCalls.Load() != 0 {
		t.Fatal("expected web process untouched")
	}
	if _, ok := r.Lookup("web", Key("web", "vite")); !ok {
		t.Fatal("expected web entry to remain tracked")
	}
}

func TestTerminateCollectsStopErrors(t *testing.T) {
	r := NewRegistry()
	bad := newFakeHandle()
	bad.stopErr = errors.New("refused")
	r.Track("backend", Key("backend", "node"), bad)
	r.Track("backend", Key("backend", "worker"), newFakeHandle())

	err := r.Terminate(context.Background(), "backend")
	if err == nil {
		t.Fatal("expected stop error to surface")
	}
	if !strings.Contains(err.Error(), "backend:node") {
		t.Fatalf("expected failing key in error, got %v", err)
	}
	if r.Count() != 0 {
		t.Fatalf("expected entries cleared even on error, %d remain", r.Count())
	}
}
