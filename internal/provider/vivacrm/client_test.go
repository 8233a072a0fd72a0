package vivacrm

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelwatch/padelwatch/internal/config"
)

const timeslotsBody = `[
  {
    "timeslots": [
      {"timeFrom": "2026-09-05T10:00:00+03:00", "price": {"from": 3000}},
      {"timeFrom": "2026-09-05T10:30:00+03:00", "price": {"from": 1500}},
      {"timeFrom": "2026-09-05T19:00:00+03:00", "price": {"from": 4500}}
    ]
  }
]`

func testLocation(apiURL string) config.Location {
	return config.Location{
		Name:     "Тест",
		Provider: config.ProviderVivaCRM,
		Courts: map[string]config.CourtConfig{
			"Закрытый корт": {
				APIURL:        apiURL,
				StudioID:      "studio-1",
				SubServiceIDs: []string{"svc-1"},
			},
		},
	}
}

func newTestClient() *Client {
	return NewClient(&http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchParsesAndFiltersSlots(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"date":          r.URL.Query().Get("date"),
			"studioId":      r.URL.Query().Get("studioId"),
			"subServiceIds": r.URL.Query().Get("subServiceIds"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(timeslotsBody))
	}))
	defer srv.Close()

	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	prices, err := newTestClient().Fetch(context.Background(), testLocation(srv.URL), date, "Закрытый корт")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"date":          "2026-09-05",
		"studioId":      "studio-1",
		"subServiceIds": "svc-1",
	}, gotQuery)

	// The 10:30 slot is off the hourly grid and must be dropped.
	assert.Equal(t, map[string]float64{"10:00": 3000, "19:00": 4500}, prices)
}

func TestFetchHonorsFinerGranularity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(timeslotsBody))
	}))
	defer srv.Close()

	loc := testLocation(srv.URL)
	loc.SlotGranularityMinutes = 30

	prices, err := newTestClient().Fetch(context.Background(), loc, time.Now(), "Закрытый корт")

	require.NoError(t, err)
	assert.Len(t, prices, 3)
	assert.Equal(t, 1500.0, prices["10:30"])
}

func TestFetchUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient().Fetch(context.Background(), testLocation(srv.URL), time.Now(), "Закрытый корт")
	assert.Error(t, err)
}

func TestFetchEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	prices, err := newTestClient().Fetch(context.Background(), testLocation(srv.URL), time.Now(), "Закрытый корт")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchUnknownCourt(t *testing.T) {
	_, err := newTestClient().Fetch(context.Background(), testLocation("http://unused"), time.Now(), "Несуществующий")
	assert.Error(t, err)
}
