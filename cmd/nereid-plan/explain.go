package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/nereiddb/nereid/gql/plan"
	"github.com/nereiddb/nereid/gql/planner"
	"github.com/nereiddb/nereid/gql/stats"
	"github.com/nereiddb/nereid/gql/symbols"
)

func newExplainCommand(rootOpts *rootOptions) *cobra.Command {
	var showTable bool

	cmd := &cobra.Command{
		Use:   "explain <query.yaml>",
		Short: "Plan a query and print the operator tree",
		Long: `Plan a YAML-described query graph against the statistics store and
print the chosen operator tree with row estimates.

Query file format:

  nodes:
    - var: a
      labels: [Person]
    - var: b
  relationships:
    - var: r
      start: a
      end: b
      types: [KNOWS]
  selections:
    - compare: {entity: a, property: name, op: eq, value: Ada}
  hints:
    - index: {var: a, label: Person, property: name}`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], showTable, cmd)
		},
	}

	cmd.Flags().BoolVar(&showTable, "table", false, "also print a flat operator table")
	return cmd
}

func runExplain(rootOpts *rootOptions, queryPath string, showTable bool, cmd *cobra.Command) error {
	qg, err := loadQueryFile(queryPath)
	if err != nil {
		return err
	}

	provider, closeProvider, err := openProvider(rootOpts.StatsPath)
	if err != nil {
		return err
	}
	defer closeProvider()

	opts := planner.DefaultOptions()
	if rootOpts.Config != "" {
		if opts, err = planner.LoadOptions(rootOpts.Config); err != nil {
			return err
		}
	}

	logger, err := rootOpts.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	monitor := planner.NewCollectingMonitor()
	pl, err := planner.New(planner.Config{
		Provider: provider,
		Monitor:  monitor,
		Logger:   logger,
		Options:  opts,
	})
	if err != nil {
		return err
	}

	p, err := pl.Plan(qg, symbols.NewTable())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.CyanString("Query: %s", qg))
	if len(monitor.Fallbacks()) > 0 {
		fmt.Fprintln(out, color.YellowString("Planned by the rule-based fallback strategy."))
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, p)

	if showTable {
		fmt.Fprintln(out)
		fmt.Fprint(out, operatorTable(p))
	}
	return nil
}

// openProvider opens a persistent statistics store when a path is
// given, otherwise a small in-memory default so explain works out of
// the box.
func openProvider(path string) (stats.Provider, func(), error) {
	if path == "" {
		return stats.NewInMemory(1000), func() {}, nil
	}
	store, err := stats.OpenBadgerStore(path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// operatorTable renders the plan's operators as a flat markdown table.
func operatorTable(p *plan.Plan) string {
	sb := &strings.Builder{}
	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Operator", "Details", "Est. Rows"})
	for _, op := range p.Operators() {
		table.Append([]string{
			op.Op.String(),
			op.Describe(),
			fmt.Sprintf("%.1f", op.EstimatedCardinality),
		})
	}
	table.Render()
	return sb.String()
}
