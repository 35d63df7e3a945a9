package datasource

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestMockSourceDeterministic(t *testing.T) {
	src := NewMockSource()
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	first, err := src.FetchOpportunities(ctx, "basketball_nba", date)
	require.NoError(t, err)
	second, err := src.FetchOpportunities(ctx, "basketball_nba", date)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestMockSourceGameRecordsCarryEventPrices(t *testing.T) {
	src := NewMockSource()
	records, err := src.FetchOpportunities(context.Background(), "basketball_nba", time.Now())
	require.NoError(t, err)

	var games, props int
	for _, r := range records {
		switch r.Kind {
		case models.OpportunityKindGame:
			games++
			assert.Len(t, r.EventPrices, 2)
		case models.OpportunityKindProp:
			props++
			assert.Empty(t, r.EventPrices)
			assert.Greater(t, r.Line, 0.0)
		}
	}
	assert.Greater(t, games, 0)
	assert.Greater(t, props, 0)
}

func TestMockSourceObservations(t *testing.T) {
	src := NewMockSource()
	ctx := context.Background()

	values, err := src.FetchObservations(ctx, "basketball_nba", "LeBron James points", "points")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(values), 10)

	missing, err := src.FetchObservations(ctx, "basketball_nba", "Unknown Player", "points")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMockSourceOutcomesStable(t *testing.T) {
	src := NewMockSource()
	ctx := context.Background()
	date := time.Now()

	first, err := src.FetchOutcomes(ctx, "basketball_nba", date)
	require.NoError(t, err)
	second, err := src.FetchOutcomes(ctx, "basketball_nba", date)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	celtics, ok := first[OutcomeKey("basketball_nba", "Boston Celtics", "h2h")]
	require.True(t, ok)
	assert.Equal(t, OutcomeStatusCompleted, celtics.Status)
	assert.Equal(t, 1.0, celtics.Value)

	pistons := first[OutcomeKey("basketball_nba", "Detroit Pistons", "h2h")]
	assert.Equal(t, 0.0, pistons.Value)
}

type countingStatsSource struct {
	calls int
}

func (s *countingStatsSource) FetchObservations(ctx context.Context, sport, subject, market string) ([]float64, error) {
	s.calls++
	return []float64{1, 2, 3}, nil
}

func TestCachedStatsSource(t *testing.T) {
	backend := &countingStatsSource{}
	cached := NewCachedStatsSource(backend, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		values, err := cached.FetchObservations(ctx, "basketball_nba", "Player A", "points")
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, values)
	}
	assert.Equal(t, 1, backend.calls)

	_, err := cached.FetchObservations(ctx, "basketball_nba", "Player B", "points")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
}

func TestOddsAPIFetchOpportunities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/basketball_nba/odds", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"id": "ev1",
			"sport_key": "basketball_nba",
			"commence_time": "2024-03-15T23:00:00Z",
			"home_team": "Boston Celtics",
			"away_team": "Miami Heat",
			"bookmakers": [{
				"key": "pinnacle",
				"markets": [{
					"key": "h2h",
					"outcomes": [
						{"name": "Boston Celtics", "price": 1.40},
						{"name": "Miami Heat", "price": 3.10}
					]
				}]
			}]
		}]`))
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), testLogger())
	src := NewOddsAPISource(server.URL, "test-key", client, testLogger())

	records, err := src.FetchOpportunities(context.Background(), "basketball_nba", time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Boston Celtics", records[0].Subject)
	assert.Equal(t, models.OpportunityKindGame, records[0].Kind)
	assert.True(t, records[0].HomeSide)
	assert.Equal(t, 1.40, records[0].Price)
	assert.Equal(t, []float64{1.40, 3.10}, records[0].EventPrices)

	assert.Equal(t, "Miami Heat", records[1].Subject)
	assert.False(t, records[1].HomeSide)
}

func TestOddsAPIFetchOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/sports/basketball_nba/scores", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": "ev1",
				"completed": true,
				"home_team": "Boston Celtics",
				"away_team": "Miami Heat",
				"scores": [
					{"name": "Boston Celtics", "score": "112"},
					{"name": "Miami Heat", "score": "98"}
				]
			},
			{
				"id": "ev2",
				"completed": false,
				"home_team": "Denver Nuggets",
				"away_team": "Phoenix Suns",
				"scores": null
			}
		]`))
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), testLogger())
	src := NewOddsAPISource(server.URL, "test-key", client, testLogger())

	outcomes, err := src.FetchOutcomes(context.Background(), "basketball_nba", time.Now())
	require.NoError(t, err)

	won := outcomes[OutcomeKey("basketball_nba", "Boston Celtics", "h2h")]
	assert.Equal(t, OutcomeStatusCompleted, won.Status)
	assert.Equal(t, 1.0, won.Value)

	lost := outcomes[OutcomeKey("basketball_nba", "Miami Heat", "h2h")]
	assert.Equal(t, 0.0, lost.Value)

	pending := outcomes[OutcomeKey("basketball_nba", "Denver Nuggets", "h2h")]
	assert.Equal(t, OutcomeStatusPending, pending.Status)
}

func TestOddsAPIAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), testLogger())
	src := NewOddsAPISource(server.URL, "bad-key", client, testLogger())

	_, err := src.FetchOpportunities(context.Background(), "basketball_nba", time.Now())
	require.Error(t, err)

	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeAuthenticationFailed, dsErr.Code)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestOutcomeKey(t *testing.T) {
	assert.Equal(t, "nba|LeBron James points|points", OutcomeKey("nba", "LeBron James points", "points"))
}
