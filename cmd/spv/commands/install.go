package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/spv/internal/config"
)

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve, build and cache the backend for a shader crate without compiling it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := config.Args{
				Build:   config.DefaultArgs().Build,
				Install: installArgsFromFlags(cmd),
			}
			tree, err := config.ToTree(args)
			if err != nil {
				return err
			}
			return c.app.Install(cmd.Context(), args.Install.ShaderCrate, tree)
		},
	}
	registerInstallFlags(cmd)
	return cmd
}
