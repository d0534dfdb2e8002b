package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Paintersrp/relaunch/internal/proc"
)

type fakeHandle struct {
	stopErr   error
	stopDelay time.Duration

	stopCalls     atomic.Int32
	stopRequested atomic.Bool

	exitOnce sync.Once
	exitErr  error
	done     chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Stop(ctx context.Context) error {
	h.stopRequested.Store(true)
	h.stopCalls.Add(1)
	if h.stopDelay > 0 {
		select {
		case <-time.After(h.stopDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.exit(nil)
	return h.stopErr
}

// exit simulates the process terminating on its own.
func (h *fakeHandle) exit(err error) {
	h.exitOnce.Do(func() {
		h.exitErr = err
		close(h.done)
	})
}

func (h *fakeHandle) Done() <-chan struct{} {
	return h.done
}

func (h *fakeHandle) Err() error {
	select {
	case <-h.done:
		return h.exitErr
	default:
		return nil
	}
}

func (h *fakeHandle) StopRequested() bool {
	return h.stopRequested.Load()
}

func (h *fakeHandle) isDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

type startRecord struct {
	spec   proc.Spec
	handle *fakeHandle
}

type fakeStarter struct {
	mu       sync.Mutex
	startErr error
	records  []startRecord
	// overlapped is set when a start arrives while the previous handle is
	// still alive.
	overlapped bool
	started    chan startRecord
}

func newFakeStarter() *fakeStarter {
	return &fakeStarter{started: make(chan startRecord, 16)}
}

func (s *fakeStarter) Start(ctx context.Context, spec proc.Spec) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	if n := len(s.records); n > 0 && !s.records[n-1].handle.isDone() {
		s.overlapped = true
	}
	h := newFakeHandle()
	rec := startRecord{spec: spec, handle: h}
	s.records = append(s.records, rec)
	s.started <- rec
	return h, nil
}

func (s *fakeStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *fakeStarter) record(i int) startRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[i]
}
