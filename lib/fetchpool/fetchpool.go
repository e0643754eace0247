package fetchpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"boxoffice-tracker/lib/fetcherr"
	"boxoffice-tracker/lib/sales"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("boxoffice.lib.fetchpool")
var meter = otel.Meter("boxoffice.lib.fetchpool")
var outcomeCounter, _ = meter.Int64Counter(
	"boxoffice.fetch.outcomes",
	metric.WithDescription("completed fetch chains by status"),
)
var durationHistogram, _ = meter.Float64Histogram(
	"boxoffice.fetch.duration",
	metric.WithDescription("wall time of one fetch chain"),
	metric.WithUnit("s"),
)

const (
	report_executor_fetch = "executor.fetch"
	report_executor_ok    = "executor.ok"
	report_executor_error = "executor.error"
)

const DefaultLimit = 10

// FetchFunc runs one fetch chain for a seed and returns the completed
// record. Every step of the chain runs inside the same admission slot.
type FetchFunc func(ctx context.Context, seed showstore.Record) (showstore.Record, error)

// Job pairs the identity known before fetching with the chain that
// completes it.
type Job struct {
	Seed  showstore.Record
	Fetch FetchFunc
}

// Executor runs jobs under a global concurrency ceiling. Jobs are
// admitted first come first served in the order given.
type Executor struct {
	limit int
	tel   telemetry.API
}

func NewExecutor(limit int, tel telemetry.API) Executor {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Executor{
		limit: limit,
		tel:   telemetry.NewScopedAPI("fetchpool", tel),
	}
}

func (e Executor) Limit() int {
	return e.limit
}

// Run executes every job and returns one record per job, in job order.
// A failing job yields an error record and never affects its siblings,
// Run itself cannot fail. It returns only after every job finished.
func (e Executor) Run(ctx context.Context, jobs []Job) []showstore.Record {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("jobs", len(jobs)),
		attribute.Int("limit", e.limit),
	)

	results := make([]showstore.Record, len(jobs))
	var failed int64

	var group errgroup.Group
	group.SetLimit(e.limit)
	for i, job := range jobs {
		group.Go(func() error {
			results[i] = e.runJob(ctx, job)
			if results[i].Status != showstore.StatusOK {
				atomic.AddInt64(&failed, 1)
			}
			return nil
		})
	}
	group.Wait()

	e.tel.ReportCount(report_executor_ok, int64(len(jobs))-failed)
	e.tel.ReportCount(report_executor_error, failed)
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d jobs failed", failed, len(jobs)))
	}
	return results
}

func (e Executor) runJob(ctx context.Context, job Job) showstore.Record {
	ctx, span := tracer.Start(ctx, "job")
	defer span.End()
	span.SetAttributes(attribute.String("id", string(job.Seed.ID)))

	start := time.Now()
	record, err := invoke(ctx, job)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(fetcherr.KindOf(err)))
		e.tel.ReportWarning(report_executor_fetch, string(job.Seed.ID), err.Error())
		record = showstore.Failed(job.Seed, err)
	} else {
		record = normalize(job.Seed, record)
	}

	attrs := metric.WithAttributes(attribute.String("status", string(record.Status)))
	outcomeCounter.Add(ctx, 1, attrs)
	durationHistogram.Record(ctx, elapsed, attrs)
	return record
}

// invoke runs the chain and turns a panic into a derivation error.
func invoke(ctx context.Context, job Job) (record showstore.Record, err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = fetcherr.Derivation(fmt.Errorf("panic: %v", recovered))
		}
	}()
	if job.Fetch == nil {
		return showstore.Record{}, fetcherr.Derivation(fmt.Errorf("job has no fetch chain"))
	}
	return job.Fetch(ctx, job.Seed)
}

// normalize fills what a chain may leave out: the identity of its seed,
// the ok status and zeroed metrics.
func normalize(seed showstore.Record, record showstore.Record) showstore.Record {
	if record.ID == "" {
		record.ID = seed.ID
	}
	if record.Status == "" {
		record.Status = showstore.StatusOK
	}
	if record.Status == showstore.StatusOK && record.Metrics == nil {
		record.Metrics = &sales.Metrics{}
	}
	return record
}
