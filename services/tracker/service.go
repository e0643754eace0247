package tracker

import (
	"context"
	"fmt"
	"sort"

	"boxoffice-tracker/internal/assert"
	"boxoffice-tracker/lib/docstore"
	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/runlog"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/summary"
	"boxoffice-tracker/lib/telemetry"
	"boxoffice-tracker/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("boxoffice.services.tracker")
var meter = otel.Meter("boxoffice.services.tracker")
var partitionGauge, _ = meter.Int64Gauge(
	"boxoffice.partition.records",
	metric.WithDescription("records in a merged partition by status"),
)

const (
	report_run_catalog     = "run.catalog"
	report_run_movie_dates = "run.movie-dates"
	report_run_log         = "run.log"
	report_run_jobs        = "run.jobs"
)

type PartitionReport struct {
	Name string
	// Fetched is the number of records this run produced for the
	// partition, Records the size of the merged partition.
	Fetched int
	Records int
	Errors  int
	Missing int
	Summary []summary.Aggregate
}

type Report struct {
	Source     string
	Partitions []PartitionReport
	Log        runlog.Entry
	// LogErr is set when the run log could not be appended, the run
	// itself still succeeded.
	LogErr error
}

type Service struct {
	backend  docstore.Backend
	executor fetchpool.Executor
	clock    timezone.Clock
	tel      telemetry.API
}

type serviceConfig struct {
	concurrency int
	clock       timezone.Clock
	tel         telemetry.API
}

type Option func(cfg *serviceConfig)

func WithConcurrency(n int) Option {
	return func(cfg *serviceConfig) {
		cfg.concurrency = n
	}
}

func WithClock(clock timezone.Clock) Option {
	return func(cfg *serviceConfig) {
		cfg.clock = clock
	}
}

func WithTelemetryAPI(tel telemetry.API) Option {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func NewService(backend docstore.Backend, options ...Option) (Service, error) {
	assert.NotNil(backend, "backend")

	cfg := serviceConfig{tel: telemetry.SlogAPI{}}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.clock == nil {
		clock, err := timezone.NewStandardClock("")
		if err != nil {
			return Service{}, err
		}
		cfg.clock = clock
	}

	tel := telemetry.NewScopedAPI("tracker", cfg.tel)
	return Service{
		backend:  backend,
		executor: fetchpool.NewExecutor(cfg.concurrency, tel),
		clock:    cfg.clock,
		tel:      tel,
	}, nil
}

// Run performs one pull of src: every show is fetched, the results are
// merged into the stored partitions, summaries are recomputed from the
// merged partitions and a run log entry is appended.
//
// Run fails when the source cannot be enumerated, when a stored
// partition is corrupt or when a partition cannot be saved. Failures of
// single shows end up as error records.
func (s Service) Run(ctx context.Context, src Source) (Report, error) {
	assert.NotNil(src, "source")
	name := src.Name()
	assert.NotEmptyStr(name, "source name")

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.String("source", name))

	fail := func(err error) (Report, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Report{Source: name}, err
	}

	jobs, err := src.Enumerate(ctx)
	if err != nil {
		return fail(fmt.Errorf("enumerate %s: %w", name, err))
	}
	s.tel.ReportCount(report_run_jobs, int64(len(jobs)))

	// hard join: nothing below observes a partially fetched batch
	results := s.executor.Run(ctx, jobs)

	catalog, err := src.Catalog(ctx)
	if err != nil {
		s.tel.ReportWarning(report_run_catalog, name, err)
		catalog = nil
	}

	batches := map[string]showstore.Batch{}
	if exhaustive, ok := src.(ExhaustiveSource); ok {
		for _, partition := range exhaustive.ExhaustivePartitions() {
			batches[partition] = showstore.Batch{}
		}
	}
	for _, r := range results {
		partition := src.Partition(r)
		batch, ok := batches[partition]
		if !ok {
			batch = showstore.Batch{}
			batches[partition] = batch
		}
		batch.Add(r)
	}
	partitions := make([]string, 0, len(batches))
	for partition := range batches {
		partitions = append(partitions, partition)
	}
	sort.Strings(partitions)

	store := showstore.NewStore(s.backend, name)
	prior := make(map[string]showstore.Partition, len(partitions))
	for _, partition := range partitions {
		p, err := store.Load(ctx, partition)
		if err != nil {
			return fail(err)
		}
		prior[partition] = p
	}

	summaries := summary.NewStore(s.backend, name)
	report := Report{Source: name}
	var touched []showstore.Record
	for _, partition := range partitions {
		batch := batches[partition]
		merged := showstore.Merge(prior[partition], batch, src.MissingPolicy())
		err = store.Save(ctx, partition, merged)
		if err != nil {
			return fail(fmt.Errorf("save partition %s: %w", partition, err))
		}

		records := merged.Records()
		touched = append(touched, records...)

		aggregates := summary.Summarize(records, catalog)
		err = summaries.Save(ctx, partition, aggregates)
		if err != nil {
			return fail(fmt.Errorf("save summary %s: %w", partition, err))
		}
		_, err = summaries.UpdateMovieDates(ctx, partition, aggregates)
		if err != nil {
			s.tel.ReportBroken(report_run_movie_dates, name, partition, err)
		}

		for _, status := range []showstore.Status{showstore.StatusOK, showstore.StatusError, showstore.StatusMissing} {
			partitionGauge.Record(ctx, int64(merged.Count(status)), metric.WithAttributes(
				attribute.String("source", name),
				attribute.String("partition", partition),
				attribute.String("status", string(status)),
			))
		}

		report.Partitions = append(report.Partitions, PartitionReport{
			Name:    partition,
			Fetched: len(batch),
			Records: len(merged),
			Errors:  merged.Count(showstore.StatusError),
			Missing: merged.Count(showstore.StatusMissing),
			Summary: aggregates,
		})
	}

	report.Log = runlog.FromRecords(s.clock, name, touched)
	err = runlog.Append(ctx, s.backend, runlog.Key(name), report.Log)
	if err != nil {
		report.LogErr = err
		s.tel.ReportBroken(report_run_log, name, err)
	}

	span.SetAttributes(
		attribute.Int("jobs", len(jobs)),
		attribute.Int("partitions", len(partitions)),
	)
	return report, nil
}
