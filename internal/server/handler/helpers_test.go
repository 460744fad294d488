package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListOpts_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/scans/recent", nil)
	opts := parseListOpts(r)

	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)
	assert.Nil(t, opts.Since)
	assert.Nil(t, opts.Until)
}

func TestParseListOpts_LimitCappedAt500(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/scans/recent?limit=9999", nil)
	assert.Equal(t, 500, parseListOpts(r).Limit)
}

func TestParseListOpts_InvalidValuesFallBack(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/scans/recent?limit=abc&offset=-5&since=yesterday", nil)
	opts := parseListOpts(r)

	assert.Equal(t, 50, opts.Limit)
	assert.Zero(t, opts.Offset)
	assert.Nil(t, opts.Since)
}

func TestParseListOpts_TimeRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/funding/BTC-USDT?since=2026-08-01T00:00:00Z&until=2026-08-15T00:00:00Z&offset=10", nil)
	opts := parseListOpts(r)

	require.NotNil(t, opts.Since)
	require.NotNil(t, opts.Until)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), *opts.Since)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *opts.Until)
	assert.Equal(t, 10, opts.Offset)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, 200, map[string]int{"count": 3})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, 404, "not found")

	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}
