package cli

import (
	"github.com/spf13/cobra"

	httpapi "github.com/Paintersrp/relaunch/internal/api/http"
	"github.com/Paintersrp/relaunch/internal/config"
	"github.com/Paintersrp/relaunch/internal/host"
	"github.com/Paintersrp/relaunch/internal/lifecycle"
	"github.com/Paintersrp/relaunch/internal/logfmt"
	"github.com/Paintersrp/relaunch/internal/proc"
)

func newServeCmd(ctx *context) *cobra.Command {
	var apiAddr string
	var bundlerType string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compile-event ingress and manage processes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(*ctx.configFile)
			if err != nil {
				return err
			}

			log := logfmt.New(cmd.ErrOrStderr())
			registry := lifecycle.Default()
			info := host.Info{
				BundlerType: bundlerType,
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
			}
			manager := lifecycle.NewManager(
				lifecycle.RuntimeStarter(proc.New()),
				info,
				managerOptions(doc, registry, log)...,
			)

			signals := lifecycle.NewSignalHandler(registry, log)
			signals.Install()
			defer signals.Uninstall()

			server, err := httpapi.NewServer(httpapi.Config{
				Addr:       apiAddr,
				Controller: newControlAPI(manager),
			})
			if err != nil {
				return err
			}

			log.Infof("compile-event ingress listening on %s", server.Addr())
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&apiAddr, "api", "", "address for the compile-event ingress (default 127.0.0.1:7691)")
	cmd.Flags().StringVar(&bundlerType, "bundler", "rspack", "bundler identifier injected into child environments")
	return cmd
}

func managerOptions(doc *config.File, registry *lifecycle.Registry, log *logfmt.Logger) []lifecycle.Option {
	opts := []lifecycle.Option{
		lifecycle.WithRegistry(registry),
		lifecycle.WithLogger(log),
		lifecycle.WithStartDelay(doc.StartDelay.Duration),
	}
	if doc.Defaults != nil {
		opts = append(opts, lifecycle.WithDefaultResolver(resolverFromCommand(doc.Defaults)))
	}
	for name, cmd := range doc.Environments {
		if cmd == nil {
			continue
		}
		opts = append(opts, lifecycle.WithResolver(name, resolverFromCommand(cmd)))
	}
	return opts
}

// resolverFromCommand adapts a static configuration entry into a resolver
// returning a fresh copy per event.
func resolverFromCommand(c *config.Command) lifecycle.Resolver {
	spec := lifecycle.CommandSpec{
		Command:            c.Command,
		Args:               append([]string(nil), c.Args...),
		Name:               c.Name,
		Env:                cloneStringMap(c.Env),
		RestartDelay:       c.RestartDelay.Duration,
		OnlyOnFirstCompile: c.OnlyOnFirstCompile,
		OnlyOnWatch:        c.OnlyOnWatch,
	}
	return func(host.CompileEvent) *lifecycle.CommandSpec {
		dup := spec
		return &dup
	}
}

func cloneStringMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	dup := make(map[string]string, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}
