// Package yclients adapts the YCLIENTS booking platform API.
//
// Availability takes two phases: an unauthenticated timeslot search on the
// shared platform host, then one authenticated price lookup per slot against
// the venue's own subdomain. Price lookups run concurrently, each carrying
// its slot label so results never depend on response ordering.
package yclients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/padelwatch/padelwatch/internal/config"
)

const timeslotsURL = "https://platform.yclients.com/api/v1/b2c/booking/availability/search-timeslots"

// Client queries the YCLIENTS two-phase booking API.
type Client struct {
	httpClient *http.Client
	token      string
	logger     *slog.Logger

	platformURL string
	servicesURL func(companyID string) string
}

// NewClient creates a YCLIENTS adapter. An empty token disables price
// lookups: affected venues report no availability instead of failing.
func NewClient(httpClient *http.Client, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  httpClient,
		token:       token,
		logger:      logger,
		platformURL: timeslotsURL,
		servicesURL: func(companyID string) string {
			return fmt.Sprintf("https://%s.yclients.com/api/v1/booking/search/services/", companyID)
		},
	}
}

// searchRequest is the shared request shape of both phases.
type searchRequest struct {
	Context struct {
		LocationID int `json:"location_id"`
	} `json:"context"`
	Filter struct {
		Date     string         `json:"date,omitempty"`
		Datetime string         `json:"datetime,omitempty"`
		Records  []searchRecord `json:"records"`
	} `json:"filter"`
}

type searchRecord struct {
	AttendanceServiceItems []struct{} `json:"attendance_service_items"`
	StaffID                int        `json:"staff_id,omitempty"`
}

type timeslotsResponse struct {
	Data []struct {
		Attributes struct {
			Datetime string `json:"datetime"`
		} `json:"attributes"`
	} `json:"data"`
}

type servicesResponse struct {
	Data []struct {
		ID         json.Number `json:"id"`
		Attributes struct {
			PriceMin *float64 `json:"price_min"`
		} `json:"attributes"`
	} `json:"data"`
}

// Fetch returns the free slots for one court type on one date, keyed by
// "HH:MM" label.
func (c *Client) Fetch(ctx context.Context, loc config.Location, date time.Time, courtName string) (map[string]float64, error) {
	court, ok := loc.Courts[courtName]
	if !ok {
		return nil, fmt.Errorf("location %q has no court %q", loc.Name, courtName)
	}
	if court.ServiceID == "" {
		return nil, fmt.Errorf("court %q of %q has no service id", courtName, loc.Name)
	}
	if c.token == "" {
		c.logger.Warn("yclients: auth token not configured, skipping venue", "location", loc.Name)
		return map[string]float64{}, nil
	}

	locationID, err := strconv.Atoi(loc.LocationID)
	if err != nil {
		return nil, fmt.Errorf("location id %q is not a number: %w", loc.LocationID, err)
	}

	slots, err := c.searchTimeslots(ctx, locationID, court, date)
	if err != nil {
		return nil, err
	}

	gran := loc.Granularity()
	type task struct {
		label    string
		datetime string
	}
	var tasks []task
	for _, dt := range slots {
		start, err := time.Parse(time.RFC3339, dt)
		if err != nil {
			c.logger.Warn("yclients: unparseable slot time", "datetime", dt, "location", loc.Name)
			continue
		}
		if start.Minute()%gran != 0 {
			continue
		}
		tasks = append(tasks, task{label: start.Format("15:04"), datetime: dt})
	}
	if len(tasks) == 0 {
		return map[string]float64{}, nil
	}

	// Phase two: one price lookup per slot, concurrently. Each goroutine
	// keeps its own label, so results are correlated by construction.
	var (
		mu     sync.Mutex
		prices = make(map[string]float64)
		wg     sync.WaitGroup
	)
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			price, ok := c.lookupPrice(ctx, loc, locationID, court, t.datetime)
			if !ok {
				return
			}
			mu.Lock()
			prices[t.label] = price
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	return prices, nil
}

// searchTimeslots runs phase one and returns the raw slot datetimes.
func (c *Client) searchTimeslots(ctx context.Context, locationID int, court config.CourtConfig, date time.Time) ([]string, error) {
	var reqBody searchRequest
	reqBody.Context.LocationID = locationID
	reqBody.Filter.Date = date.Format("2006-01-02")
	reqBody.Filter.Records = []searchRecord{recordFor(court)}

	body, err := c.post(ctx, c.platformURL, reqBody, false)
	if err != nil {
		return nil, fmt.Errorf("search timeslots: %w", err)
	}

	var payload timeslotsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode timeslots: %w", err)
	}

	datetimes := make([]string, 0, len(payload.Data))
	for _, slot := range payload.Data {
		if slot.Attributes.Datetime != "" {
			datetimes = append(datetimes, slot.Attributes.Datetime)
		}
	}
	return datetimes, nil
}

// lookupPrice runs one phase-two request. Failures are logged, never fatal:
// one bad slot must not discard the rest of the date.
func (c *Client) lookupPrice(ctx context.Context, loc config.Location, locationID int, court config.CourtConfig, datetime string) (float64, bool) {
	var reqBody searchRequest
	reqBody.Context.LocationID = locationID
	reqBody.Filter.Datetime = datetime
	reqBody.Filter.Records = []searchRecord{recordFor(court)}

	body, err := c.post(ctx, c.servicesURL(loc.CompanyID), reqBody, true)
	if err != nil {
		c.logger.Warn("yclients: price lookup failed", "location", loc.Name, "datetime", datetime, "error", err)
		return 0, false
	}

	var payload servicesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("yclients: undecodable price response", "location", loc.Name, "datetime", datetime, "error", err)
		return 0, false
	}

	for _, svc := range payload.Data {
		if svc.ID.String() == court.ServiceID {
			if svc.Attributes.PriceMin == nil {
				return 0, false
			}
			return *svc.Attributes.PriceMin, true
		}
	}
	return 0, false
}

// post sends a JSON request and returns the body of a 200 response. A 401 on
// an authenticated call almost always means the token expired; it gets its
// own log line so operators spot it.
func (c *Client) post(ctx context.Context, url string, reqBody any, authed bool) ([]byte, error) {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Error("yclients: unauthorized, auth token likely expired")
		return nil, fmt.Errorf("yclients returned 401")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yclients returned %d", resp.StatusCode)
	}
	return body, nil
}

// recordFor builds the filter record for a court, scoping the search to the
// court's staff member when the venue books by staff.
func recordFor(court config.CourtConfig) searchRecord {
	rec := searchRecord{AttendanceServiceItems: []struct{}{}}
	if court.StaffID != "" {
		if id, err := strconv.Atoi(court.StaffID); err == nil {
			rec.StaffID = id
		}
	}
	return rec
}
