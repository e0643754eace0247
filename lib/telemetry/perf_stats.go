package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var perfMeter = otel.Meter("boxoffice.lib.telemetry.perf")

type perfGauges struct {
	cpu        metric.Float64Gauge
	heap       metric.Int64Gauge
	objects    metric.Int64Gauge
	goroutines metric.Int64Gauge
	gcCycles   metric.Int64Gauge
}

func newPerfGauges() (perfGauges, error) {
	var g perfGauges
	var err error
	if g.cpu, err = perfMeter.Float64Gauge("boxoffice.process.cpu", metric.WithUnit("%")); err != nil {
		return g, err
	}
	if g.heap, err = perfMeter.Int64Gauge("boxoffice.process.heap", metric.WithUnit("MB")); err != nil {
		return g, err
	}
	if g.objects, err = perfMeter.Int64Gauge("boxoffice.process.live_objects"); err != nil {
		return g, err
	}
	if g.goroutines, err = perfMeter.Int64Gauge("boxoffice.process.goroutines"); err != nil {
		return g, err
	}
	g.gcCycles, err = perfMeter.Int64Gauge("boxoffice.process.gc_cycles")
	return g, err
}

func (g perfGauges) sample(ctx context.Context, mem *runtime.MemStats) {
	runtime.ReadMemStats(mem)
	g.heap.Record(ctx, int64(mem.HeapAlloc/1_000_000))
	g.objects.Record(ctx, int64(mem.Mallocs-mem.Frees))
	g.gcCycles.Record(ctx, int64(mem.NumGC))
	g.goroutines.Record(ctx, int64(runtime.NumGoroutine()))

	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		slog.Debug("cpu usage unavailable", "err", err)
		return
	}
	if len(usage) > 0 {
		g.cpu.Record(ctx, usage[0])
	}
}

// InstrumentPerfStats records process gauges every interval in the
// background until ctx is done.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	gauges, err := newPerfGauges()
	if err != nil {
		slog.Warn("perf stats disabled", "err", err)
		return
	}
	go func() {
		var mem runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gauges.sample(ctx, &mem)
			}
		}
	}()
}
