package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
)

type stubOpportunityRepo struct {
	opportunities []*models.Opportunity
}

func (s *stubOpportunityRepo) CreateBatchTx(ctx context.Context, tx pgx.Tx, opportunities []*models.Opportunity) error {
	return nil
}

func (s *stubOpportunityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return nil, models.ErrNotFound
}

func (s *stubOpportunityRepo) GetByRunDate(ctx context.Context, runDate time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error) {
	var out []*models.Opportunity
	for _, o := range s.opportunities {
		if o.Confidence >= minConfidence && (sport == "" || o.Sport == sport) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOpportunityRepo) GetByDateRange(ctx context.Context, start, end time.Time, sport string, minConfidence float64) ([]*models.Opportunity, error) {
	return s.opportunities, nil
}

type stubParlayRepo struct {
	parlays []*models.Parlay
}

func (s *stubParlayRepo) CreateBatchTx(ctx context.Context, tx pgx.Tx, parlays []*models.Parlay) error {
	return nil
}

func (s *stubParlayRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Parlay, error) {
	for _, p := range s.parlays {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *stubParlayRepo) GetProposed(ctx context.Context, asOf time.Time) ([]*models.Parlay, error) {
	return s.parlays, nil
}

func (s *stubParlayRepo) GetByRunDate(ctx context.Context, runDate time.Time, pendingOnly bool) ([]*models.Parlay, error) {
	return s.parlays, nil
}

func (s *stubParlayRepo) GetSettled(ctx context.Context, limit int) ([]*models.Parlay, error) {
	var out []*models.Parlay
	for _, p := range s.parlays {
		if p.IsSettled() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubParlayRepo) UpdateSettlement(ctx context.Context, parlay *models.Parlay) error {
	return nil
}

type stubRunner struct {
	updateErr     error
	settlementErr error
	updates       int
}

func (s *stubRunner) RunUpdate(ctx context.Context, runDate time.Time) error {
	s.updates++
	return s.updateErr
}

func (s *stubRunner) RunSettlement(ctx context.Context, now time.Time) error {
	return s.settlementErr
}

func testServer(oppRepo *stubOpportunityRepo, parlayRepo *stubParlayRepo, runner *stubRunner) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		DataSources: config.DataSourcesConfig{Sports: []string{"basketball_nba", "soccer_epl"}},
		API:         config.APIConfig{Port: 8081, ShutdownSeconds: 5},
	}

	repos := &repository.Repositories{Opportunity: oppRepo, Parlay: parlayRepo}
	handlers := NewHandlers(repos, runner, nil, cfg, logger)
	return NewServer(cfg.API, handlers, logger)
}

func doRequest(t *testing.T, server *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestListOpportunities(t *testing.T) {
	oppRepo := &stubOpportunityRepo{opportunities: []*models.Opportunity{
		{Sport: "basketball_nba", Subject: "A", Confidence: 0.80},
		{Sport: "soccer_epl", Subject: "B", Confidence: 0.70},
	}}
	server := testServer(oppRepo, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/opportunities?sport=basketball_nba")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count         int                   `json:"count"`
		Opportunities []*models.Opportunity `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "A", body.Opportunities[0].Subject)
}

func TestListOpportunitiesRejectsBadParams(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/opportunities?date=15-03-2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, "GET", "/api/v1/opportunities?min_confidence=1.5")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetParlay(t *testing.T) {
	parlay := &models.Parlay{
		ID:     uuid.New(),
		Status: models.ParlayStatusProposed,
		Legs: []models.ParlayLeg{
			{Sport: "basketball_nba", Subject: "A"},
			{Sport: "basketball_nba", Subject: "B"},
		},
	}
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{parlays: []*models.Parlay{parlay}}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/parlays/"+parlay.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Parlay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, parlay.ID, got.ID)
	assert.Len(t, got.Legs, 2)
}

func TestGetParlayNotFound(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/parlays/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, server, "GET", "/api/v1/parlays/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPerformance(t *testing.T) {
	settledAt := time.Now()
	parlays := []*models.Parlay{
		{Status: models.ParlayStatusSettledWon, StakeFraction: 0.02, CombinedPrice: 2.0, SettledAt: &settledAt},
		{Status: models.ParlayStatusSettledLost, StakeFraction: 0.02, CombinedPrice: 2.0, SettledAt: &settledAt},
	}
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{parlays: parlays}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/performance")
	require.Equal(t, http.StatusOK, rec.Code)

	var perf models.PerformanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perf))
	assert.Equal(t, 2, perf.TotalParlays)
	assert.Equal(t, 1, perf.Wins)
	assert.InDelta(t, 0.5, perf.WinRate, 1e-9)
}

func TestListSports(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/sports")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "basketball_nba")
}

func TestTriggerUpdate(t *testing.T) {
	runner := &stubRunner{}
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, runner)

	rec := doRequest(t, server, "POST", "/api/v1/runs/update?date=2024-03-15")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.updates)
}

func TestTriggerUpdateConflict(t *testing.T) {
	runner := &stubRunner{updateErr: models.ErrRunInProgress}
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, runner)

	rec := doRequest(t, server, "POST", "/api/v1/runs/update")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerUpdateDataUnavailable(t *testing.T) {
	runner := &stubRunner{updateErr: models.ErrDataUnavailable}
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, runner)

	rec := doRequest(t, server, "POST", "/api/v1/runs/update")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTriggerSettlement(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "POST", "/api/v1/runs/settlement")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFoundRoute(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	server := testServer(&stubOpportunityRepo{}, &stubParlayRepo{}, &stubRunner{})

	rec := doRequest(t, server, "GET", "/api/v1/sports")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
