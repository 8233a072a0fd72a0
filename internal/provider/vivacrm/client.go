// Package vivacrm adapts the VivaCRM end-user timeslot API.
//
// One GET per (court, date) returns every free slot with its price. No
// authentication is required.
package vivacrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/padelwatch/padelwatch/internal/config"
)

// Client queries the VivaCRM timeslots endpoint.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a VivaCRM adapter.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// timeslotsResponse is the upstream shape: an array with one entry per
// requested sub-service.
type timeslotsResponse []struct {
	Timeslots []struct {
		TimeFrom string `json:"timeFrom"`
		Price    struct {
			From float64 `json:"from"`
		} `json:"price"`
	} `json:"timeslots"`
}

// Fetch returns the free slots for one court type on one date, keyed by
// "HH:MM" label. Slots not aligned to the venue's booking granularity are
// dropped.
func (c *Client) Fetch(ctx context.Context, loc config.Location, date time.Time, courtName string) (map[string]float64, error) {
	court, ok := loc.Courts[courtName]
	if !ok {
		return nil, fmt.Errorf("location %q has no court %q", loc.Name, courtName)
	}
	if len(court.SubServiceIDs) == 0 {
		return nil, fmt.Errorf("court %q of %q has no sub-service ids", courtName, loc.Name)
	}

	params := url.Values{}
	params.Set("date", date.Format("2006-01-02"))
	params.Set("studioId", court.StudioID)
	params.Set("subServiceIds", court.SubServiceIDs[0])

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, court.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vivacrm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vivacrm returned %d for %s %s", resp.StatusCode, loc.Name, date.Format("2006-01-02"))
	}

	var payload timeslotsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode timeslots: %w", err)
	}
	if len(payload) == 0 {
		return map[string]float64{}, nil
	}

	gran := loc.Granularity()
	prices := make(map[string]float64)
	for _, slot := range payload[0].Timeslots {
		start, err := time.Parse(time.RFC3339, slot.TimeFrom)
		if err != nil {
			c.logger.Warn("vivacrm: unparseable slot time", "time_from", slot.TimeFrom, "location", loc.Name)
			continue
		}
		if start.Minute()%gran != 0 {
			continue
		}
		prices[start.Format("15:04")] = slot.Price.From
	}
	return prices, nil
}
