package scanner_test

import (
	"testing"

	"github.com/alejandrodnm/ictbot/internal/domain"
	"github.com/alejandrodnm/ictbot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sig(inst string, score int) domain.Signal {
	return domain.Signal{Instrument: domain.Instrument(inst), Score: score, Direction: domain.DirectionCall}
}

func TestSelector_BelowThresholdRejected(t *testing.T) {
	sel := scanner.NewSelector(scanner.DefaultMinPublishScore)
	assert.False(t, sel.Offer(sig("A", 80)))

	_, ok := sel.Best()
	assert.False(t, ok)
}

func TestSelector_StrongestWins(t *testing.T) {
	best, ok := scanner.SelectStrongest([]domain.Signal{sig("A", 85), sig("B", 90), sig("C", 70)}, 85)
	require.True(t, ok)
	assert.Equal(t, domain.Instrument("B"), best.Instrument)
}

func TestSelector_TieKeepsFirst(t *testing.T) {
	sel := scanner.NewSelector(85)
	assert.True(t, sel.Offer(sig("A", 85)))
	assert.False(t, sel.Offer(sig("B", 85)))

	best, ok := sel.Best()
	require.True(t, ok)
	assert.Equal(t, domain.Instrument("A"), best.Instrument)
}

func TestSelectStrongest_Empty(t *testing.T) {
	_, ok := scanner.SelectStrongest(nil, 85)
	assert.False(t, ok)
}
