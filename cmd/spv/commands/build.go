package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/spv/internal/config"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile a shader crate to SPIR-V and write the shader manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := config.Args{
				Build:   buildArgsFromFlags(cmd),
				Install: installArgsFromFlags(cmd),
			}
			tree, err := config.ToTree(args)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), args.Install.ShaderCrate, tree)
		},
	}
	registerBuildFlags(cmd)
	registerInstallFlags(cmd)
	return cmd
}
