package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
)

type fakeProvider struct {
	deviceReady bool
}

func (f *fakeProvider) Status() *StatusSnapshot {
	return &StatusSnapshot{
		StartedAt:   time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		LastAction:  time.Date(2026, 3, 14, 11, 55, 0, 0, time.UTC),
		NextDelay:   "25s",
		QueueLength: 2,
		Running:     []stream.RunningCommand{{RunID: "r-1", ID: 7, Code: 200}},
		DeviceReady: f.deviceReady,
	}
}

func (f *fakeProvider) DeviceReady() bool {
	return f.deviceReady
}

func (f *fakeProvider) Catalog() []catalog.Entry {
	return []catalog.Entry{
		{Code: catalog.StopCapture, Name: "stop-capture", Template: "killall ffmpeg", Instant: true},
	}
}

func serve(t *testing.T, r *Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.GetEngine().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewRouter(nil, &fakeProvider{deviceReady: true}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = serve(t, NewRouter(nil, &fakeProvider{}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
}

func TestPingAndVersion(t *testing.T) {
	r := NewRouter(nil, nil)
	assert.Contains(t, serve(t, r, "/ping").Body.String(), "pong")
	assert.Contains(t, serve(t, r, "/version").Body.String(), serviceName)
}

func TestStatus(t *testing.T) {
	rec := serve(t, NewRouter(nil, &fakeProvider{deviceReady: true}), "/api/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap StatusSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.QueueLength)
	assert.Equal(t, "25s", snap.NextDelay)
	require.Len(t, snap.Running, 1)
	assert.Equal(t, 7, snap.Running[0].ID)
}

func TestStatus_NoProvider(t *testing.T) {
	rec := serve(t, NewRouter(nil, nil), "/api/v1/status")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCommands(t *testing.T) {
	rec := serve(t, NewRouter(nil, &fakeProvider{}), "/api/v1/commands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":2`)
	assert.Contains(t, rec.Body.String(), `"instant":true`)
}

func TestMetrics(t *testing.T) {
	rec := serve(t, NewRouter(nil, nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}
