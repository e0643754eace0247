package commands

import (
	"boxoffice-tracker/lib/runlog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var logsLimit int

var logsCmd = &cobra.Command{
	Use:   "logs <source>",
	Short: "Print the run log of a source, newest last.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		backend, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer backend.Close()

		entries, err := runlog.Load(ctx, backend, runlog.Key(args[0]))
		if err != nil {
			return err
		}
		if logsLimit > 0 && len(entries) > logsLimit {
			entries = entries[len(entries)-logsLimit:]
		}

		t := NewTable()
		t.SetTitle(args[0])
		t.AppendHeader(table.Row{"Time", "Shows", "Venues", "Sold", "Gross", "Occupancy", "Errors"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.Time,
				e.TotalShows,
				e.UniqueVenues,
				e.TicketsSold,
				money(e.TotalGross),
				percent(e.Occupancy),
				e.Errors,
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 20, "only show the latest n runs, 0 shows all")
	rootCmd.AddCommand(logsCmd)
}
