package cli

import (
	stdcontext "context"
	"sort"
	"time"

	"github.com/Paintersrp/relaunch/internal/api"
	"github.com/Paintersrp/relaunch/internal/host"
	"github.com/Paintersrp/relaunch/internal/lifecycle"
)

// controlAPI bridges the HTTP ingress onto the lifecycle manager.
type controlAPI struct {
	manager *lifecycle.Manager
}

func newControlAPI(manager *lifecycle.Manager) *controlAPI {
	return &controlAPI{manager: manager}
}

func (c *controlAPI) BeforeCompile(ctx stdcontext.Context) error {
	if c.manager.Registry().ShuttingDown() {
		return api.ErrShuttingDown
	}
	c.manager.OnBeforeCompile(ctx)
	return nil
}

func (c *controlAPI) CompileDone(ctx stdcontext.Context, req api.CompileDoneRequest) error {
	if c.manager.Registry().ShuttingDown() {
		return api.ErrShuttingDown
	}
	c.manager.OnCompileDone(ctx, host.CompileEvent{
		Environment:  req.Environment,
		FirstCompile: req.FirstCompile,
		Watch:        req.Watch,
		Stats:        host.Stats{Errors: req.Errors},
	})
	return nil
}

func (c *controlAPI) Status(stdcontext.Context) (*api.StatusReport, error) {
	registry := c.manager.Registry()
	report := &api.StatusReport{
		GeneratedAt:  time.Now(),
		ShuttingDown: registry.ShuttingDown(),
		Environments: make(map[string][]api.ProcessReport),
	}
	for _, environment := range registry.Environments() {
		tracked := registry.Tracked(environment)
		reports := make([]api.ProcessReport, 0, len(tracked))
		for key, h := range tracked {
			rep := api.ProcessReport{Key: key, Environment: environment}
			if p, ok := h.(interface{ Pid() int }); ok {
				rep.Pid = p.Pid()
			}
			reports = append(reports, rep)
		}
		sort.Slice(reports, func(i, j int) bool { return reports[i].Key < reports[j].Key })
		report.Environments[environment] = reports
	}
	return report, nil
}
