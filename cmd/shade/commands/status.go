package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorded builds of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := c.app.Status(configPath(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, "no builds recorded")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tKIND\tDIGEST\tBUILT")
			for _, r := range records {
				digest := r.Digest
				if len(digest) > 12 {
					digest = digest[:12]
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Identifier, r.Kind, digest, r.BuiltAt.Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}
