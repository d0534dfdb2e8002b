package proc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

// gracePeriod is how long a process is given to honor the graceful
// termination signal before it is forcefully killed.
const gracePeriod = 2 * time.Second

// Spec describes a single child process to launch.
type Spec struct {
	// Name is the display name used in keys and log lines. Defaults to
	// Command when empty.
	Name    string
	Command string
	Args    []string
	Dir     string
	// Env is the complete environment for the child. When nil the child
	// inherits the host environment unchanged.
	Env []string
	// Stdin defaults to the host's stdin so interactive children keep
	// working.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DisplayName returns the name used for the process key.
func (s Spec) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Command
}

// Runtime launches local child processes.
type Runtime struct{}

// New constructs a runtime that executes commands as local processes.
func New() *Runtime {
	return &Runtime{}
}

// Start launches the process described by spec. Output is forwarded to the
// spec writers as it arrives; the returned Process reports exit through
// Done.
func (r *Runtime) Start(ctx context.Context, spec Spec) (*Process, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("process %s requires a command", spec.DisplayName())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin
	} else {
		cmd.Stdin = os.Stdin
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("process %s stdout: %w", spec.DisplayName(), err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("process %s stderr: %w", spec.DisplayName(), err)
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process %s: %w", spec.DisplayName(), err)
	}

	p := &Process{
		name: spec.DisplayName(),
		cmd:  cmd,
		done: make(chan struct{}),
	}

	outW := spec.Stdout
	if outW == nil {
		outW = io.Discard
	}
	errW := spec.Stderr
	if errW == nil {
		errW = io.Discard
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go p.forward(outW, stdout, &wg)
	go p.forward(errW, stderr, &wg)

	go func() {
		wg.Wait()
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Process is a handle to a running child process.
type Process struct {
	name string
	cmd  *exec.Cmd

	done    chan struct{}
	waitErr error

	stopRequested atomic.Bool
}

// Pid returns the operating system process id, or 0 before start.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and its output has been
// drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the wait error after Done is closed. A nil error means the
// process exited with status zero.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// StopRequested reports whether Stop or Kill has been called, letting
// callers distinguish intentional termination from a crash.
func (p *Process) StopRequested() bool {
	return p.stopRequested.Load()
}

func (p *Process) forward(dst io.Writer, src io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	// Direct passthrough: the writer applies its own backpressure.
	_, _ = io.Copy(dst, src)
}
