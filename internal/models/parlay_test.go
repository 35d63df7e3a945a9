package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLegs() []ParlayLeg {
	return []ParlayLeg{
		{OpportunityID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("leg-a")), Subject: "Jalen Brunson points", Price: 1.25, Confidence: 0.95, Result: LegResultPending},
		{OpportunityID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("leg-b")), Subject: "Man City corners", Price: 1.30, Confidence: 0.92, Result: LegResultPending},
	}
}

func TestNewParlayIDDeterministic(t *testing.T) {
	runDate := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	legs := testLegs()

	first := NewParlayID(runDate, legs)
	second := NewParlayID(runDate, legs)
	assert.Equal(t, first, second, "same date and legs must derive the same ID")

	otherDay := NewParlayID(runDate.AddDate(0, 0, 1), legs)
	assert.NotEqual(t, first, otherDay)
}

func TestParlayStatusTransitions(t *testing.T) {
	p := &Parlay{Status: ParlayStatusProposed}
	assert.False(t, p.IsSettled())

	for _, status := range []ParlayStatus{ParlayStatusSettledWon, ParlayStatusSettledLost, ParlayStatusVoid} {
		p.Status = status
		assert.True(t, p.IsSettled(), "status %s should be terminal", status)
	}
}

func TestParlayHasSubject(t *testing.T) {
	p := &Parlay{Legs: testLegs()}
	assert.True(t, p.HasSubject("Man City corners"))
	assert.False(t, p.HasSubject("Lakers h2h"))
}

func TestRealizedReturn(t *testing.T) {
	p := &Parlay{StakeFraction: 0.02, CombinedPrice: 2.5, Status: ParlayStatusSettledWon}
	won, _ := p.RealizedReturn().Float64()
	assert.InDelta(t, 0.05, won, 1e-12)

	p.Status = ParlayStatusSettledLost
	assert.True(t, p.RealizedReturn().IsZero())

	p.Status = ParlayStatusVoid
	refunded, _ := p.RealizedReturn().Float64()
	assert.InDelta(t, 0.02, refunded, 1e-12, "void refunds the stake")
}

func TestComputePerformance(t *testing.T) {
	parlays := []*Parlay{
		{Status: ParlayStatusSettledWon, StakeFraction: 0.02, CombinedPrice: 3.0},
		{Status: ParlayStatusSettledLost, StakeFraction: 0.02, CombinedPrice: 2.0},
		{Status: ParlayStatusVoid, StakeFraction: 0.02, CombinedPrice: 2.5},
		{Status: ParlayStatusProposed, StakeFraction: 0.02, CombinedPrice: 4.0}, // ignored
	}

	rec := ComputePerformance(parlays)
	require.Equal(t, 3, rec.TotalParlays)
	assert.Equal(t, 1, rec.Wins)
	assert.Equal(t, 1, rec.Losses)
	assert.Equal(t, 1, rec.Voided)
	assert.InDelta(t, 0.5, rec.WinRate, 1e-12, "void parlays do not count toward win rate")
	assert.InDelta(t, 2.5, rec.AverageOdds, 1e-12)

	// staked 0.06, returned 0.06 (win) + 0.02 (void refund) = 0.08
	staked, _ := rec.TotalStaked.Float64()
	returned, _ := rec.TotalReturned.Float64()
	assert.InDelta(t, 0.06, staked, 1e-12)
	assert.InDelta(t, 0.08, returned, 1e-12)
	assert.InDelta(t, (0.08-0.06)/0.06, rec.ROI, 1e-9)
}

func TestOpportunityIDDeterministic(t *testing.T) {
	runDate := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	a := NewOpportunityID(runDate, "basketball_nba", "Jalen Brunson", "points", 20.5, LineOver)
	b := NewOpportunityID(runDate, "basketball_nba", "Jalen Brunson", "points", 20.5, LineOver)
	assert.Equal(t, a, b)

	under := NewOpportunityID(runDate, "basketball_nba", "Jalen Brunson", "points", 20.5, LineUnder)
	assert.NotEqual(t, a, under)
}
