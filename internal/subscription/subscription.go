// Package subscription defines user watch preferences and their persistence.
//
// A subscription binds one user to (location, hour selector, court-type set,
// date predicate). Subscriptions are immutable: created and deleted, never
// updated in place. Duplicate (user, location, hour, courts, predicate)
// tuples are rejected idempotently at the store level.
package subscription

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire/storage format for calendar dates.
const DateLayout = "2006-01-02"

// AnyHour is the hour-selector wildcard ("any operating hour").
const AnyHour = -1

// Operating hours: wildcard subscriptions are evaluated against every
// on-the-hour label in [FirstHour, LastHour].
const (
	FirstHour = 7
	LastHour  = 23
)

// HourLabel formats an hour-of-day as the canonical "HH:00" time label.
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// OperatingHourLabels returns every canonical time label the system tracks.
func OperatingHourLabels() []string {
	labels := make([]string, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		labels = append(labels, HourLabel(h))
	}
	return labels
}

// --------------------------------------------------------------------------
// Date predicate: tagged union with two variants
// --------------------------------------------------------------------------

// DatePredicate selects the calendar dates a subscription watches.
// Exactly two implementations exist: RollingWindow and SpecificDate.
type DatePredicate interface {
	// Expand resolves the predicate into concrete dates relative to
	// today (midnight, venue timezone). A specific date already in the
	// past expands to nothing.
	Expand(today time.Time) []time.Time

	// Describe renders a short human label for lists and confirmations.
	Describe() string

	datePredicate()
}

// RollingWindow watches the next Days days starting today, re-evaluated
// fresh each cycle.
type RollingWindow struct {
	Days int
}

func (p RollingWindow) Expand(today time.Time) []time.Time {
	dates := make([]time.Time, 0, p.Days)
	for i := 0; i < p.Days; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

func (p RollingWindow) Describe() string { return fmt.Sprintf("на %d дн.", p.Days) }

func (RollingWindow) datePredicate() {}

// SpecificDate watches one calendar date.
type SpecificDate struct {
	Date time.Time // midnight, venue timezone
}

func (p SpecificDate) Expand(today time.Time) []time.Time {
	if p.Date.Before(today) {
		return nil
	}
	return []time.Time{p.Date}
}

func (p SpecificDate) Describe() string { return "на " + p.Date.Format("02.01") }

func (SpecificDate) datePredicate() {}

// predicateJSON is the storage encoding, shared with the Mini-App frontend:
// {"type":"range","value":10} or {"type":"specific","value":"2024-06-10"}.
type predicateJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalPredicate encodes a predicate into its canonical JSON form. The
// encoding is deterministic, so it doubles as part of the uniqueness key.
func MarshalPredicate(p DatePredicate) ([]byte, error) {
	switch v := p.(type) {
	case RollingWindow:
		return json.Marshal(predicateJSON{Type: "range", Value: json.RawMessage(fmt.Sprintf("%d", v.Days))})
	case SpecificDate:
		return json.Marshal(predicateJSON{Type: "specific", Value: json.RawMessage(`"` + v.Date.Format(DateLayout) + `"`)})
	default:
		return nil, fmt.Errorf("unknown date predicate %T", p)
	}
}

// UnmarshalPredicate decodes the canonical JSON form. Dates are anchored to
// midnight in the given location.
func UnmarshalPredicate(data []byte, loc *time.Location) (DatePredicate, error) {
	var raw predicateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode predicate: %w", err)
	}
	switch raw.Type {
	case "range":
		var days int
		if err := json.Unmarshal(raw.Value, &days); err != nil {
			return nil, fmt.Errorf("decode range days: %w", err)
		}
		if days <= 0 {
			return nil, fmt.Errorf("range days must be positive, got %d", days)
		}
		return RollingWindow{Days: days}, nil
	case "specific":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return nil, fmt.Errorf("decode specific date: %w", err)
		}
		d, err := time.ParseInLocation(DateLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("parse specific date %q: %w", s, err)
		}
		return SpecificDate{Date: d}, nil
	default:
		return nil, fmt.Errorf("unknown predicate type %q", raw.Type)
	}
}

// --------------------------------------------------------------------------
// Subscription
// --------------------------------------------------------------------------

// Subscription is one user's watch rule for a location.
type Subscription struct {
	ID         int64
	UserID     int64
	Location   string
	Hour       int // AnyHour or a specific hour-of-day
	CourtTypes []string
	Predicate  DatePredicate
	CreatedAt  time.Time
}

// HourLabels expands the hour selector into the time labels to test.
func (s Subscription) HourLabels() []string {
	if s.Hour == AnyHour {
		return OperatingHourLabels()
	}
	return []string{HourLabel(s.Hour)}
}

// HourDescribe renders the hour selector for display.
func (s Subscription) HourDescribe() string {
	if s.Hour == AnyHour {
		return "Любое время"
	}
	return HourLabel(s.Hour)
}

// SortedCourtTypes returns the court-type set in canonical order.
func SortedCourtTypes(types []string) []string {
	out := make([]string, len(types))
	copy(out, types)
	sort.Strings(out)
	return out
}

// UserRecord groups a user's chat id with all their subscriptions, as
// returned by the store for a monitoring pass.
type UserRecord struct {
	ChatID        int64
	Subscriptions []Subscription
}
