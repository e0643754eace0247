package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/restyutil"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/services/tracker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dumpDir     string
	concurrency int
	perfStats   bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [source...]",
	Short: "Scrape the given sources, all enabled sources when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if concurrency > 0 {
			cfg.Concurrency = concurrency
		}
		names := args
		if len(names) == 0 {
			names = cfg.EnabledSources()
		}
		if len(names) == 0 {
			return fmt.Errorf("no sources enabled in %s", configPath)
		}
		return scrape(cmd.Context(), cfg, names)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&dumpDir, "dump-http", "", "write every http request and response into this directory")
	scrapeCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "maximum in-flight fetches, overrides the configuration")
	scrapeCmd.Flags().BoolVar(&perfStats, "perf-stats", false, "record process metrics while scraping")
	rootCmd.AddCommand(scrapeCmd)
}

func scrape(ctx context.Context, cfg Config, names []string) error {
	clock, err := cfg.Clock()
	if err != nil {
		return err
	}
	tel := telemetry.SlogAPI{}

	var dump restyutil.Output
	if dumpDir != "" {
		out, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			return err
		}
		slog.Info("dumping http messages", "dir", out.Dir())
		dump = out
	}

	sources := make([]tracker.Source, len(names))
	for i, name := range names {
		src, err := cfg.NewSource(name, clock, tel, dump)
		if err != nil {
			return err
		}
		sources[i] = src
	}

	backend, err := cfg.OpenStorage(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	if perfStats {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		telemetry.InstrumentPerfStats(ctx, 5*time.Second)
	}

	service, err := tracker.NewService(
		backend,
		tracker.WithConcurrency(cfg.Concurrency),
		tracker.WithClock(clock),
		tracker.WithTelemetryAPI(tel),
	)
	if err != nil {
		return err
	}

	var failed []string
	for _, src := range sources {
		report, err := service.Run(ctx, src)
		if err != nil {
			slog.Error("scrape failed", "source", src.Name(), "err", err)
			failed = append(failed, src.Name())
			continue
		}
		printReport(report)
	}
	if len(failed) > 0 {
		return fmt.Errorf("scrape failed for %v", failed)
	}
	return nil
}

func printReport(report tracker.Report) {
	t := NewTable()
	t.SetTitle(report.Source)
	t.AppendHeader(table.Row{"Partition", "Fetched", "Records", "Errors", "Missing", "Sold", "Total", "Gross", "Occupancy"})
	for _, p := range report.Partitions {
		totals := summary.Totals(p.Summary)
		t.AppendRow(table.Row{
			p.Name,
			p.Fetched,
			p.Records,
			p.Errors,
			p.Missing,
			totals.Sold,
			totals.Total,
			money(totals.Gross),
			percent(totals.Occupancy),
		})
	}
	t.AppendFooter(table.Row{"Run", report.Log.RunID, "", report.Log.Errors, "", report.Log.TicketsSold, "", money(report.Log.TotalGross), percent(report.Log.Occupancy)})
	t.Render()

	if report.LogErr != nil {
		slog.Warn("run log not updated", "source", report.Source, "err", report.LogErr)
	}
}

// openStorage is shared by the read-only commands.
func openStorage(ctx context.Context) (docstore.Backend, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	return cfg.OpenStorage(ctx)
}
