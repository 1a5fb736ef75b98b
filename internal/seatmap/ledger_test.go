package seatmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoByTwo(t *testing.T, occupied OccupancyFunc) (*Map, *Ledger) {
	t.Helper()
	m, err := Generate(2, 2, func(row int) (Class, uint32) {
		if row == 0 {
			return ClassStandard, 12000
		}
		return ClassPremium, 18000
	}, occupied)
	require.NoError(t, err)
	return m, NewLedger(m)
}

func TestSelectDeselectRoundTrip(t *testing.T) {
	_, l := twoByTwo(t, nil)

	before := l.TotalCents()
	require.NoError(t, l.Select("A1"))
	assert.Equal(t, uint32(12000), l.TotalCents())

	require.NoError(t, l.Deselect("A1"))
	assert.Equal(t, before, l.TotalCents())
	assert.Empty(t, l.Selected())
}

func TestSelectIsIdempotent(t *testing.T) {
	_, l := twoByTwo(t, nil)

	require.NoError(t, l.Select("B2"))
	require.NoError(t, l.Select("B2"))
	assert.Len(t, l.Selected(), 1)
	assert.Equal(t, uint32(18000), l.TotalCents())
}

func TestSelectUnknownSeat(t *testing.T) {
	_, l := twoByTwo(t, nil)
	assert.ErrorIs(t, l.Select("Z9"), ErrSeatNotFound)
	assert.ErrorIs(t, l.Deselect("Z9"), ErrSeatNotFound)
}

func TestSelectOccupiedSeatIsRejected(t *testing.T) {
	m, l := twoByTwo(t, OccupiedSet([]string{"A2"}))

	assert.ErrorIs(t, l.Select("A2"), ErrSeatOccupied)
	s, ok := m.Get("A2")
	require.True(t, ok)
	assert.Equal(t, StatusOccupied, s.Status)
	assert.Zero(t, l.TotalCents())
}

func TestTotalIsRecomputedNotCached(t *testing.T) {
	_, l := twoByTwo(t, nil)

	// Arbitrary interleaving of selects and deselects; the total must
	// always equal the sum over currently selected seats.
	require.NoError(t, l.Select("A1"))
	require.NoError(t, l.Select("B1"))
	assert.Equal(t, uint32(30000), l.TotalCents())

	require.NoError(t, l.Deselect("A1"))
	require.NoError(t, l.Select("B2"))
	assert.Equal(t, uint32(36000), l.TotalCents())

	require.NoError(t, l.Deselect("B1"))
	require.NoError(t, l.Deselect("B2"))
	assert.Zero(t, l.TotalCents())
}

func TestSelectedPreservesMapOrder(t *testing.T) {
	_, l := twoByTwo(t, nil)

	require.NoError(t, l.Select("B1"))
	require.NoError(t, l.Select("A2"))
	require.NoError(t, l.Select("A1"))

	var ids []string
	for _, s := range l.Selected() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"A1", "A2", "B1"}, ids)
}

func TestReleaseSelected(t *testing.T) {
	m, l := twoByTwo(t, OccupiedSet([]string{"B1"}))

	require.NoError(t, l.Select("A1"))
	require.NoError(t, l.Select("A2"))
	l.ReleaseSelected()

	assert.Empty(t, l.Selected())
	for _, id := range []string{"A1", "A2"} {
		s, _ := m.Get(id)
		assert.Equal(t, StatusAvailable, s.Status)
	}
	s, _ := m.Get("B1")
	assert.Equal(t, StatusOccupied, s.Status)
}
