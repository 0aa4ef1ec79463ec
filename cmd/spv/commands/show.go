package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/spv/internal/config"
)

func (c *CLI) newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show tool state",
	}
	cmd.AddCommand(c.newShowCacheDirCmd())
	cmd.AddCommand(c.newShowSourceCmd())
	return cmd
}

func (c *CLI) newShowCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cache-dir",
		Short: "Print the root of the toolchain cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c.app.CacheDir())
			return err
		},
	}
}

func (c *CLI) newShowSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Print the backend source and toolchain resolved for a shader crate",
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
			tc, err := c.app.ResolveSource(cmd.Context(), args.Install.ShaderCrate, tree)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tc.String())
			return err
		},
	}
	registerInstallFlags(cmd)
	return cmd
}
