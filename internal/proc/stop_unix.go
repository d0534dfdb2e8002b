//go:build !windows

package proc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Stop requests a graceful shutdown and escalates to SIGKILL if the process
// has not exited within the grace period. It resolves once the process is
// confirmed gone.
func (p *Process) Stop(ctx context.Context) error {
	return p.terminate(ctx, false)
}

// Kill forcefully terminates the process group.
func (p *Process) Kill(ctx context.Context) error {
	return p.terminate(ctx, true)
}

func (p *Process) terminate(ctx context.Context, force bool) error {
	p.stopRequested.Store(true)
	if p.cmd.Process == nil {
		return nil
	}

	if !force {
		// Attempt a graceful shutdown first.
		if err := unix.Kill(-p.cmd.Process.Pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
			return fmt.Errorf("signal process group %s: %w", p.name, err)
		}

		select {
		case <-p.done:
			return nil
		case <-time.After(gracePeriod):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := unix.Kill(-p.cmd.Process.Pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill process group %s: %w", p.name, err)
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
