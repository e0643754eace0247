package commands

import (
	"fmt"

	"boxoffice-tracker/lib/summary"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <source> <partition>",
	Short: "Print the stored per-movie summary of a partition.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		aggregates, found, err := summary.NewStore(backend, args[0]).Load(ctx, args[1])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no summary for %s partition %s", args[0], args[1])
		}

		t := NewTable()
		t.SetTitle(fmt.Sprintf("%s %s", args[0], args[1]))
		t.AppendHeader(table.Row{"Movie", "Shows", "Venues", "Sold", "Total", "Gross", "Max Gross", "Occupancy"})
		for _, a := range aggregates {
			t.AppendRow(table.Row{
				a.Name,
				a.Sessions,
				a.Venues,
				a.Sold,
				a.Total,
				money(a.Gross),
				money(a.MaxGross),
				percent(a.Occupancy),
			})
		}
		totals := summary.Totals(aggregates)
		t.AppendFooter(table.Row{"Total", totals.Sessions, "", totals.Sold, totals.Total, money(totals.Gross), money(totals.MaxGross), percent(totals.Occupancy)})
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
