package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/relaunch/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with relaunch configuration files",
	}
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a relaunch configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "relaunch.yaml"
			if flag := cmd.Flag("file"); flag != nil && flag.Value.String() != "" {
				path = flag.Value.String()
			}

			doc, err := config.Load(path)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d environment(s) configured\n", path, len(doc.Environments))
			return nil
		},
	}
	return cmd
}
