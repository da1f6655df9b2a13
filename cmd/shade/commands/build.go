package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/shade/internal/app"
)

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "Number of programs to build in parallel (default: number of CPUs)")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print per-program progress")
	cmd.Flags().String("metrics", "", "Write cache metrics in Prometheus text format to this file")
}

func buildOptions(cmd *cobra.Command) app.BuildOptions {
	jobs, _ := cmd.Flags().GetInt("jobs")
	quiet, _ := cmd.Flags().GetBool("quiet")
	metrics, _ := cmd.Flags().GetString("metrics")
	return app.BuildOptions{
		ConfigPath:  configPath(cmd),
		Parallelism: jobs,
		Quiet:       quiet,
		MetricsPath: metrics,
	}
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [programs...]",
		Short: "Build the given programs, or all programs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [programs...]",
		Short: "Build programs and rebuild them when sources change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args, buildOptions(cmd))
		},
	}
	addBuildFlags(cmd)
	return cmd
}
