package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/forge/pkg/datactx"
	"github.com/arthur-debert/forge/pkg/filesystem"
	"github.com/arthur-debert/forge/pkg/scaffold"
	"github.com/arthur-debert/forge/pkg/ui/report"
)

func newExpandCmd() *cobra.Command {
	var (
		dataFiles []string
		overrides []string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "expand <scaffold-dir> <destination>",
		Short: "Expand a scaffold directory into a concrete project",
		Long: `Expand walks the scaffold directory, renders every templated file
name, directory name and file content against the data context, and
writes the resulting tree under the destination. Files without template
syntax are copied verbatim.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := datactx.Load(dataFiles, overrides)
			if err != nil {
				return err
			}

			expander := scaffold.NewExpander(filesystem.NewOS())
			rep, err := expander.ExpandPath(args[0], ctx, args[1], scaffold.Options{DryRun: dryRun})
			if err != nil {
				return err
			}

			styled := isatty.IsTerminal(os.Stdout.Fd())
			fmt.Print(report.Format(rep, styled))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&dataFiles, "data", "d", nil, "Data file (yaml, toml or json); may be repeated, later files override earlier ones")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "Inline override key=value; applied after all data files")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the expansion and report without writing")

	return cmd
}
