package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/forge/pkg/datactx"
	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/template"
)

func newRenderCmd() *cobra.Command {
	var (
		dataFiles []string
		overrides []string
		outPath   string
		pretty    bool
	)

	cmd := &cobra.Command{
		Use:   "render <template-file>",
		Short: "Render a single template against a data context",
		Long: `Render parses the given template file and renders it against the
context assembled from --data files and --set overrides, writing the
result to stdout or to --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := datactx.Load(dataFiles, overrides)
			if err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				if os.IsNotExist(err) {
					return errors.Wrapf(err, errors.ErrSourceNotFound,
						"template file %q does not exist", args[0])
				}
				return errors.Wrapf(err, errors.ErrFileAccess, "reading %q", args[0])
			}

			tmpl, err := template.ParseNamed(args[0], string(source))
			if err != nil {
				return err
			}
			out, err := tmpl.Render(ctx)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
					return errors.Wrapf(err, errors.ErrFileWrite, "writing %q", outPath)
				}
				return nil
			}

			if pretty && isatty.IsTerminal(os.Stdout.Fd()) {
				rendered, err := glamour.Render(out, "auto")
				if err == nil {
					fmt.Print(rendered)
					return nil
				}
				// Fall through to plain output if markdown styling fails
			}
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&dataFiles, "data", "d", nil, "Data file (yaml, toml or json); may be repeated, later files override earlier ones")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "Inline override key=value; applied after all data files")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write output to file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render markdown output with terminal styling")

	return cmd
}
