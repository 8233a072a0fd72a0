package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelwatch/padelwatch/internal/cache"
	"github.com/padelwatch/padelwatch/internal/config"
)

func newTestHandler() *Handler {
	cfg := &config.Config{BotToken: testBotToken}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(nil, nil, nil, cache.New(false), cfg, time.UTC, logger)
}

func TestGetLocations(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	h.GetLocations(rec, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Locations []struct {
			ID         string   `json:"id"`
			Name       string   `json:"name"`
			CourtTypes []string `json:"court_types"`
		} `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Locations, len(config.LocationOrder))
	assert.Equal(t, config.LocationOrder[0], body.Locations[0].ID)
	for _, loc := range body.Locations {
		assert.NotEmpty(t, loc.CourtTypes, "location %s", loc.Name)
	}
}

func TestGetSessionsRequiresParams(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.GetSessions(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.GetSessions(rec, httptest.NewRequest(http.MethodGet, "/api/sessions?location=Нигде&date=2026-09-05", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeRejectsInvalidInitData(t *testing.T) {
	h := newTestHandler()
	payload := `{"initData":"auth_date=1&hash=deadbeef","subscription":{"location":"Лужники","hour":19,"court_types":["Открытый корт"],"monitor_data":{"type":"range","value":10}}}`

	rec := httptest.NewRecorder()
	h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(payload)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubscribeRejectsBadSubscription(t *testing.T) {
	h := newTestHandler()
	initData := signInitData(t, map[string]string{
		"auth_date": "1756500000",
		"user":      `{"id":42,"first_name":"Анна"}`,
	})

	tests := []struct {
		name string
		sub  string
	}{
		{"unknown location", `{"location":"Нигде","hour":19,"court_types":["Корт"],"monitor_data":{"type":"range","value":10}}`},
		{"hour out of range", `{"location":"Лужники","hour":3,"court_types":["Открытый корт"],"monitor_data":{"type":"range","value":10}}`},
		{"unknown court", `{"location":"Лужники","hour":19,"court_types":["Корт X"],"monitor_data":{"type":"range","value":10}}`},
		{"bad predicate", `{"location":"Лужники","hour":19,"court_types":["Открытый корт"],"monitor_data":{"type":"range","value":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(map[string]json.RawMessage{
				"initData":     json.RawMessage(`"` + initData + `"`),
				"subscription": json.RawMessage(tt.sub),
			})
			rec := httptest.NewRecorder()
			h.Subscribe(rec, httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(string(body))))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
