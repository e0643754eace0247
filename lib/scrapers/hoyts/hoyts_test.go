package hoyts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"boxoffice-tracker/lib/fetchpool"
	"boxoffice-tracker/lib/scrapers/identity"
	"boxoffice-tracker/lib/showstore"
	"boxoffice-tracker/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func seatRows(sold, free int) map[string]any {
	var seats []map[string]any
	for i := 0; i < sold; i++ {
		seats = append(seats, map[string]any{"sold": true})
	}
	for i := 0; i < free; i++ {
		seats = append(seats, map[string]any{"sold": false})
	}
	return map[string]any{"rows": []any{map[string]any{"seats": seats}}}
}

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/cinemaapi/api/cinemas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": "BRD"}, {"id": "CHA"}, {"id": "DOWN"}})
	})
	mux.HandleFunc("/cinemaapi/api/movies/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"vistaId": "HO1", "name": "Weapons", "duration": 128, "releaseDate": "2025-08-07T00:00:00", "posterImage": "https://img/ho1.jpg"},
			{"vistaId": "HO2", "name": "Tron: Ares"},
		})
	})
	mux.HandleFunc("/cinemaapi/api/sessions/BRD", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "1001", "movieId": "HO1", "showDate": "2025-09-24T19:00:00", "screenName": "Cinema 1", "operator": "HOYTS"},
			{"id": "1002", "movieId": "HO9", "showDate": "2025-09-24T21:00:00"},
		})
	})
	mux.HandleFunc("/cinemaapi/api/sessions/CHA", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "2001", "movieId": "HO1", "date": "2025-09-25T10:00:00"},
			{"id": "2002", "movieId": "HO2"},
		})
	})
	mux.HandleFunc("/cinemaapi/api/sessions/DOWN", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/ticketing/api/v1/ticket/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/ticketing/api/v1/ticket/"), "/")
		if parts[0] == "seats" {
			switch parts[2] {
			case "1001":
				writeJSON(w, seatRows(3, 7))
			case "2001":
				w.WriteHeader(http.StatusServiceUnavailable)
			default:
				writeJSON(w, map[string]any{})
			}
			return
		}
		switch parts[1] {
		case "1001":
			writeJSON(w, map[string]any{"ticketTypes": []map[string]any{
				{"name": "Child", "priceInCents": 1500},
				{"name": "Adult Standard", "priceInCents": 2200},
			}})
		default:
			writeJSON(w, map[string]any{"ticketTypes": []map[string]any{}})
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newSource(t *testing.T, config Config, tel telemetry.API) Source {
	source, err := NewSource(config, identity.Options{Tel: tel})
	require.NoError(t, err)
	return source
}

func TestEnumerateAndFetch(t *testing.T) {
	server := newServer(t)
	recorder := &telemetry.Recorder{}
	source := newSource(t, Config{
		BaseUrl:        server.URL,
		TargetMovieIDs: []string{"HO1", "HO2"},
	}, recorder)

	jobs, err := source.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Len(t, recorder.Find("broken", report_enumerate_sessions), 1)

	results := fetchpool.NewExecutor(2, recorder).Run(context.Background(), jobs)
	byId := map[showstore.Key]showstore.Record{}
	for _, r := range results {
		byId[r.ID] = r
	}

	ok := byId["1001"]
	require.Equal(t, showstore.StatusOK, ok.Status)
	require.Equal(t, "BRD", ok.VenueID)
	require.Equal(t, "2025-09-24", ok.Date)
	require.Equal(t, "19:00:00", ok.Time)
	require.Equal(t, "Cinema 1", ok.Screen)
	require.Equal(t, "HOYTS", ok.Attributes["operator"])
	require.Equal(t, 22.0, ok.Price)
	require.Equal(t, 10, ok.Total)
	require.Equal(t, 3, ok.Sold)
	require.Equal(t, 30.0, ok.Occupancy)
	require.Equal(t, 66.0, ok.Gross)
	require.Equal(t, 220.0, ok.MaxGross)
	require.Equal(t, "2025-09-24", source.Partition(ok))

	failed := byId["2001"]
	require.Equal(t, showstore.StatusError, failed.Status)
	require.Contains(t, failed.Error, "HTTP 503")
	require.Equal(t, "2025-09-25", source.Partition(failed))

	// no seat rows and no ticket types: zeroed counts at the default price
	empty := byId["2002"]
	require.Equal(t, showstore.StatusOK, empty.Status)
	require.Equal(t, 27.0, empty.Price)
	require.Zero(t, empty.Total)
	require.Equal(t, "unknown", source.Partition(empty))
}

func TestEnumerateAllMovies(t *testing.T) {
	server := newServer(t)
	source := newSource(t, Config{BaseUrl: server.URL, AllMovies: true, DefaultPrice: 20}, &telemetry.Recorder{})

	jobs, err := source.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	results := fetchpool.NewExecutor(4, &telemetry.Recorder{}).Run(context.Background(), jobs[1:2])
	require.Equal(t, 20.0, results[0].Price)
}

func TestEnumerateWithoutCinemas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	source := newSource(t, Config{BaseUrl: server.URL}, &telemetry.Recorder{})
	_, err := source.Enumerate(context.Background())
	require.ErrorContains(t, err, "list cinemas")
	require.ErrorContains(t, err, "decode error")
}

func TestCatalog(t *testing.T) {
	server := newServer(t)
	source := newSource(t, Config{BaseUrl: server.URL}, &telemetry.Recorder{})

	catalog, err := source.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	require.Equal(t, "Weapons", catalog["HO1"].Name)
	require.Equal(t, 128, catalog["HO1"].Duration)
	require.Equal(t, "https://img/ho1.jpg", catalog["HO1"].Poster)
}

func TestMissingPolicy(t *testing.T) {
	source := newSource(t, Config{BaseUrl: "https://example.com"}, &telemetry.Recorder{})
	require.Equal(t, showstore.RetainMissing, source.MissingPolicy())

	source = newSource(t, Config{BaseUrl: "https://example.com", MissingPolicy: "mark_missing"}, &telemetry.Recorder{})
	require.Equal(t, showstore.MarkMissing, source.MissingPolicy())

	_, err := NewSource(Config{MissingPolicy: "delete"}, identity.Options{})
	require.Error(t, err)
}
