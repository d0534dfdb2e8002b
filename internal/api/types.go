package api

import (
	stdcontext "context"
	"errors"
	"time"
)

var (
	ErrInvalidEvent = errors.New("invalid compile event")
	ErrShuttingDown = errors.New("shutdown in progress")
)

// CompileDoneRequest is the payload the build tool posts after an
// environment finishes compiling. A non-empty Errors slice marks the
// compilation as failed.
type CompileDoneRequest struct {
	Environment  string   `json:"environment"`
	FirstCompile bool     `json:"firstCompile"`
	Watch        bool     `json:"watch"`
	Errors       []string `json:"errors,omitempty"`
}

// ProcessReport describes one tracked child process.
type ProcessReport struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
	Pid         int    `json:"pid,omitempty"`
}

// StatusReport aggregates the registry's live view.
type StatusReport struct {
	GeneratedAt  time.Time                  `json:"generated_at"`
	ShuttingDown bool                       `json:"shutting_down"`
	Environments map[string][]ProcessReport `json:"environments"`
}

// Controller is the surface the HTTP ingress drives. It mirrors the event
// contract the build tool holds against the lifecycle manager.
type Controller interface {
	// BeforeCompile handles the "before creating a new compiler"
	// notification.
	BeforeCompile(ctx stdcontext.Context) error
	// CompileDone handles the "environment finished compiling"
	// notification.
	CompileDone(ctx stdcontext.Context, req CompileDoneRequest) error
	// Status reports the currently tracked processes.
	Status(ctx stdcontext.Context) (*StatusReport, error)
}
