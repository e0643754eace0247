package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := &Recorder{}
	scoped := NewScopedAPI("tracker", NewScopedAPI("hoyts", recorder))

	scoped.ReportBroken("fetch-seats", errors.New("boom"))
	scoped.ReportCount("jobs", 12)

	reports := recorder.Reports()
	require.Len(t, reports, 2)
	require.Equal(t, "hoyts: tracker: fetch-seats", reports[0].ID)
	require.Equal(t, "broken", reports[0].Kind)
	require.Equal(t, []any{int64(12)}, reports[1].Params)
	require.Len(t, recorder.Find("broken", "fetch-seats"), 1)
}

func TestShutdownDisabled(t *testing.T) {
	require.NoError(t, Telemetry{}.Shutdown(context.Background()))
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	recorder := &Recorder{}
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, recorder, "test")

	_, err := client.R().Get("/seats")
	require.NoError(t, err)
	_, err = client.R().Get("/missing")
	require.NoError(t, err)

	require.Len(t, recorder.Find("debug", report_resty_request), 2)
	require.Len(t, recorder.Find("debug", report_resty_response), 2)

	server.Close()
	_, err = client.R().Get("/seats")
	require.Error(t, err)
	require.Len(t, recorder.Find("warning", report_resty_response), 1)
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "boxoffice-test", Config{Environment: "test"})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestOtlpConnEnabled(t *testing.T) {
	require.False(t, OtlpConnConfig{}.enabled())
	require.True(t, OtlpConnConfig{HttpEndpoint: "http://localhost:4318"}.enabled())
	require.True(t, OtlpConnConfig{GrpcEndpoint: "http://localhost:4317"}.enabled())
}

func TestPerfGauges(t *testing.T) {
	gauges, err := newPerfGauges()
	require.NoError(t, err)

	var mem runtime.MemStats
	gauges.sample(context.Background(), &mem)
	require.NotZero(t, mem.Mallocs)

	ctx, cancel := context.WithCancel(context.Background())
	InstrumentPerfStats(ctx, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	cancel()
}
