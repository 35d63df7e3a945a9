package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(Config{ServiceName: "sharpline", Version: "1.0.0"})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "sharpline", status.Service)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestHandleReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "sharpline", DB: stubPinger{}})

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadyDatabaseDown(t *testing.T) {
	s := NewServer(Config{ServiceName: "sharpline", DB: stubPinger{err: errors.New("connection refused")}})
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest("GET", "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var readiness Readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &readiness))
	assert.Contains(t, readiness.Checks["database"], "error")
}
