package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the relaunch command tree.
func NewRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "relaunch",
		Short: "Keep development processes in step with your bundler's rebuilds",
	}

	root.PersistentFlags().
		StringVarP(&configFile, "file", "f", "relaunch.yaml", "Path to relaunch configuration")

	ctx := &context{configFile: &configFile}
	root.AddCommand(newServeCmd(ctx))
	root.AddCommand(newConfigCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root
}

// Execute runs the CLI entrypoint. Interrupt and terminate signals are
// owned by the lifecycle signal handler installed by serve: the process
// only exits once every child is confirmed terminated.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configFile *string
}
