//go:build windows

package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// Stop requests a graceful shutdown and escalates to a hard kill if the
// process has not exited within the grace period.
func (p *Process) Stop(ctx context.Context) error {
	p.stopRequested.Store(true)
	if p.cmd.Process == nil {
		return nil
	}
	// Attempt a graceful shutdown first.
	_ = p.cmd.Process.Signal(os.Interrupt)

	select {
	case <-p.done:
		return nil
	case <-time.After(gracePeriod):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", p.name, err)
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill forcefully terminates the process.
func (p *Process) Kill(ctx context.Context) error {
	p.stopRequested.Store(true)
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", p.name, err)
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
