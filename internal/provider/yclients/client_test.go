package yclients

import (
	"context"
	"encoding/json"
	"fmt"
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

func yclientsLocation() config.Location {
	return config.Location{
		Name:       "Тест",
		Provider:   config.ProviderYClients,
		CompanyID:  "b000001",
		LocationID: "804153",
		Courts: map[string]config.CourtConfig{
			"Корт для 4-х": {ServiceID: "11654151"},
		},
	}
}

func newTestClient(token, platformURL, servicesURL string) *Client {
	c := NewClient(&http.Client{Timeout: time.Second}, token, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.platformURL = platformURL
	c.servicesURL = func(string) string { return servicesURL }
	return c
}

func timeslotsBody(datetimes ...string) string {
	type slot struct {
		Attributes struct {
			Datetime string `json:"datetime"`
		} `json:"attributes"`
	}
	slots := make([]slot, len(datetimes))
	for i, dt := range datetimes {
		slots[i].Attributes.Datetime = dt
	}
	b, _ := json.Marshal(map[string]interface{}{"data": slots})
	return string(b)
}

func TestFetchTwoPhase(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 804153, req.Context.LocationID)
		assert.Equal(t, "2026-09-05", req.Filter.Date)
		_, _ = w.Write([]byte(timeslotsBody(
			"2026-09-05T19:00:00+03:00",
			"2026-09-05T19:30:00+03:00",
			"2026-09-05T20:00:00+03:00",
		)))
	}))
	defer platform.Close()

	services := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Price depends on the requested slot, correlating the answer.
		price := 5000.0
		if req.Filter.Datetime == "2026-09-05T20:00:00+03:00" {
			price = 6000.0
		}
		fmt.Fprintf(w, `{"data": [
			{"id": 99, "attributes": {"price_min": 1}},
			{"id": 11654151, "attributes": {"price_min": %.0f}}
		]}`, price)
	}))
	defer services.Close()

	c := newTestClient("token-1", platform.URL, services.URL)
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	prices, err := c.Fetch(context.Background(), yclientsLocation(), date, "Корт для 4-х")

	require.NoError(t, err)
	// The 19:30 slot is off the hourly grid and skips the price phase.
	assert.Equal(t, map[string]float64{"19:00": 5000, "20:00": 6000}, prices)
}

func TestFetchWithoutTokenDegrades(t *testing.T) {
	c := newTestClient("", "http://unused", "http://unused")
	prices, err := c.Fetch(context.Background(), yclientsLocation(), time.Now(), "Корт для 4-х")

	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchUnauthorizedPriceLookup(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(timeslotsBody("2026-09-05T19:00:00+03:00")))
	}))
	defer platform.Close()

	services := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer services.Close()

	c := newTestClient("expired", platform.URL, services.URL)
	prices, err := c.Fetch(context.Background(), yclientsLocation(), time.Now(), "Корт для 4-х")

	// Expired token loses prices but never the whole fetch.
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestFetchTimeslotsFailureIsFatal(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer platform.Close()

	c := newTestClient("token", platform.URL, "http://unused")
	_, err := c.Fetch(context.Background(), yclientsLocation(), time.Now(), "Корт для 4-х")
	assert.Error(t, err)
}

func TestFetchServiceIDMismatchYieldsNothing(t *testing.T) {
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(timeslotsBody("2026-09-05T19:00:00+03:00")))
	}))
	defer platform.Close()

	services := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"id": 42, "attributes": {"price_min": 1000}}]}`))
	}))
	defer services.Close()

	c := newTestClient("token", platform.URL, services.URL)
	prices, err := c.Fetch(context.Background(), yclientsLocation(), time.Now(), "Корт для 4-х")

	require.NoError(t, err)
	assert.Empty(t, prices)
}
