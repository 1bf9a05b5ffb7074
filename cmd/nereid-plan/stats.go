package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nereiddb/nereid/gql/stats"
)

func newStatsCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Maintain the statistics store",
	}
	cmd.AddCommand(newStatsShowCommand(rootOpts))
	cmd.AddCommand(newStatsSetCommand(rootOpts))
	cmd.AddCommand(newStatsIndexCommand(rootOpts))
	return cmd
}

func openStore(rootOpts *rootOptions) (*stats.BadgerStore, error) {
	if rootOpts.StatsPath == "" {
		return nil, errors.New("stats commands need --stats pointing at a store path")
	}
	return stats.OpenBadgerStore(rootOpts.StatsPath)
}

func newStatsShowCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the stored statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "snapshot: %s\n", store.SnapshotID())
			fmt.Fprintf(out, "nodes:    %.0f\n\n", store.NodeCount())

			labels := store.Labels()
			if len(labels) == 0 {
				fmt.Fprintln(out, "no label statistics recorded")
				return nil
			}
			names := make([]string, 0, len(labels))
			for name := range labels {
				names = append(names, name)
			}
			sort.Strings(names)

			sb := &strings.Builder{}
			table := tablewriter.NewTable(sb,
				tablewriter.WithRenderer(renderer.NewMarkdown()),
				tablewriter.WithHeaderAutoFormat(tw.Off),
			)
			table.Header([]string{"Label", "Nodes"})
			for _, name := range names {
				table.Append([]string{name, fmt.Sprintf("%.0f", labels[name])})
			}
			table.Render()
			fmt.Fprint(out, sb.String())
			return nil
		},
	}
}

func newStatsSetCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <kind> <args...>",
		Short: "Record a count",
		Long: `Record a statistic:

  set nodes <count>
  set label <label> <count>
  set rel <type> <count>`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			switch args[0] {
			case "nodes":
				n, err := parseCount(args[1])
				if err != nil {
					return err
				}
				return store.SetNodeCount(n)
			case "label":
				if len(args) != 3 {
					return errors.New("set label needs <label> <count>")
				}
				n, err := parseCount(args[2])
				if err != nil {
					return err
				}
				return store.SetLabelCount(args[1], n)
			case "rel":
				if len(args) != 3 {
					return errors.New("set rel needs <type> <count>")
				}
				n, err := parseCount(args[2])
				if err != nil {
					return err
				}
				return store.SetRelationshipCount(args[1], n)
			default:
				return errors.Errorf("unknown statistic kind %q", args[0])
			}
		},
	}
}

func newStatsIndexCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "index <label> <property> <selectivity>",
		Short:         "Register an index and its selectivity",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer store.Close()

			sel, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrapf(err, "parsing selectivity %q", args[2])
			}
			if sel <= 0 || sel > 1 {
				return errors.Errorf("selectivity must be in (0, 1], got %v", sel)
			}
			return store.SetIndex(args[0], args[1], sel)
		},
	}
}

func parseCount(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing count %q", s)
	}
	return n, nil
}
