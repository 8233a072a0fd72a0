package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/padelwatch/padelwatch/internal/api/respond"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

// availabilityTTL bounds how stale the Mini-App may see provider data.
const availabilityTTL = 60 * time.Second

// GetLocations lists the venues for the Mini-App picker.
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	type locationInfo struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		CourtTypes  []string `json:"court_types"`
	}

	locations := make([]locationInfo, 0, len(config.LocationOrder))
	for _, name := range config.LocationOrder {
		loc, ok := config.GetLocation(name)
		if !ok {
			continue
		}
		courts := loc.CourtNames()
		sort.Strings(courts)
		locations = append(locations, locationInfo{
			ID:          name,
			Name:        name,
			Description: loc.Description,
			CourtTypes:  courts,
		})
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"locations": locations})
}

// GetSessions returns availability for one location and date:
// {"19:00": {"Корт": {"price": 1500}}}.
func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	locName := r.URL.Query().Get("location")
	dateStr := r.URL.Query().Get("date")
	if locName == "" || dateStr == "" {
		respond.WriteError(w, http.StatusBadRequest, "location and date are required")
		return
	}
	loc, ok := config.GetLocation(locName)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "unknown location")
		return
	}
	date, err := time.ParseInLocation(subscription.DateLayout, dateStr, h.tz)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	cacheKey := "sessions:" + locName + ":" + dateStr
	if cached, ok := h.cache.Get(cacheKey); ok {
		w.Header().Set("X-Cache", "HIT")
		respond.WriteRaw(w, http.StatusOK, cached)
		return
	}

	snapshot := h.aggregator.Fetch(r.Context(), loc, date)

	// Wire shape wraps each price so the frontend can grow fields later.
	out := make(map[string]map[string]map[string]float64, len(snapshot))
	for label, courts := range snapshot {
		out[label] = make(map[string]map[string]float64, len(courts))
		for court, price := range courts {
			out[label][court] = map[string]float64{"price": price}
		}
	}

	body, err := json.Marshal(out)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.cache.Set(cacheKey, body, availabilityTTL)
	w.Header().Set("X-Cache", "MISS")
	respond.WriteRaw(w, http.StatusOK, body)
}

// GetCalendar returns the dates with any availability over the next
// MaxSpecificDays days, for the Mini-App date picker.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	locName := r.URL.Query().Get("location")
	if locName == "" {
		respond.WriteError(w, http.StatusBadRequest, "location is required")
		return
	}
	loc, ok := config.GetLocation(locName)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "unknown location")
		return
	}

	cacheKey := "calendar:" + locName
	if cached, ok := h.cache.Get(cacheKey); ok {
		w.Header().Set("X-Cache", "HIT")
		respond.WriteRaw(w, http.StatusOK, cached)
		return
	}

	today := midnight(h.now().In(h.tz))

	var (
		mu        sync.Mutex
		available = make([]string, 0, config.MaxSpecificDays)
		wg        sync.WaitGroup
	)
	for i := 0; i < config.MaxSpecificDays; i++ {
		date := today.AddDate(0, 0, i)
		wg.Add(1)
		go func(date time.Time) {
			defer wg.Done()
			snap := h.aggregator.Fetch(r.Context(), loc, date)
			if len(snap) == 0 {
				return
			}
			mu.Lock()
			available = append(available, date.Format(subscription.DateLayout))
			mu.Unlock()
		}(date)
	}
	wg.Wait()
	sort.Strings(available)

	body, err := json.Marshal(map[string][]string{"available_dates": available})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.cache.Set(cacheKey, body, availabilityTTL)
	w.Header().Set("X-Cache", "MISS")
	respond.WriteRaw(w, http.StatusOK, body)
}

// subscribeRequest is the Mini-App subscribe payload.
type subscribeRequest struct {
	InitData     string `json:"initData"`
	Subscription struct {
		Location   string          `json:"location"`
		Hour       int             `json:"hour"`
		CourtTypes []string        `json:"court_types"`
		MonitorData json.RawMessage `json:"monitor_data"`
	} `json:"subscription"`
}

// Subscribe creates a subscription on behalf of the Mini-App user. The user
// identity comes from validated init data, never from the request body.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := ValidateInitData(req.InitData, h.cfg.BotToken)
	if err != nil {
		h.logger.Warn("rejected mini-app request", "error", err)
		respond.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub := req.Subscription
	loc, ok := config.GetLocation(sub.Location)
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "unknown location")
		return
	}
	if sub.Hour != subscription.AnyHour && (sub.Hour < subscription.FirstHour || sub.Hour > subscription.LastHour) {
		respond.WriteError(w, http.StatusBadRequest, "hour out of range")
		return
	}
	for _, ct := range sub.CourtTypes {
		if _, ok := loc.Courts[ct]; !ok {
			respond.WriteError(w, http.StatusBadRequest, "unknown court type")
			return
		}
	}
	pred, err := subscription.UnmarshalPredicate(sub.MonitorData, h.tz)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "invalid monitor data")
		return
	}

	// Private chats share the user's id as chat id.
	if err := h.store.EnsureUser(r.Context(), user.ID, user.ID, user.Username, user.FirstName); err != nil {
		h.logger.Error("mini-app user upsert failed", "user_id", user.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "failed to add subscription")
		return
	}
	if err := h.store.Add(r.Context(), user.ID, sub.Location, sub.Hour, sub.CourtTypes, pred); err != nil {
		h.logger.Error("mini-app subscribe failed", "user_id", user.ID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "failed to add subscription")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
