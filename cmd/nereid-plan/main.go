// nereid-plan explains query plans and maintains the statistics store
// they are costed against.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	StatsPath string
	Config    string
	Verbose   bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nereid-plan",
		Short: "Cost-based query planning for graph patterns",
		Long: `nereid-plan plans declarative graph pattern queries against a
statistics store and prints the resulting operator tree. Queries are
described in YAML; see the explain command for the format.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.StatsPath, "stats", "", "path to the statistics store (empty for in-memory)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "planner options YAML file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newExplainCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))

	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	if o.Verbose {
		cfg := zap.NewDevelopmentConfig()
		return cfg.Build()
	}
	return zap.NewNop(), nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
