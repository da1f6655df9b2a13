package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/shade/internal/app"
)

func (c *CLI) newExpandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <shader> <stage>",
		Short: "Print a shader stage with its includes resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, _ := cmd.Flags().GetString("program")
			preamble, _ := cmd.Flags().GetBool("preamble")

			lines, err := c.app.Expand(cmd.Context(), args[0], args[1], app.ExpandOptions{
				ConfigPath: configPath(cmd),
				Program:    program,
				Preamble:   preamble,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, line := range lines {
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringP("program", "p", "", "Expand under the context of this program")
	cmd.Flags().Bool("preamble", false, "Prepend the directives generated from the context")
	return cmd
}
