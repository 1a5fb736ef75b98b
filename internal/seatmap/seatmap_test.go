package seatmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDimensions(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{1, 1},
		{2, 2},
		{10, 12},
		{26, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.rows, tt.cols), func(t *testing.T) {
			m, err := Generate(tt.rows, tt.cols, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.rows*tt.cols, m.Len())

			seen := make(map[string]struct{})
			for _, s := range m.Seats() {
				_, dup := seen[s.ID]
				assert.False(t, dup, "duplicate id %s", s.ID)
				seen[s.ID] = struct{}{}
			}
		})
	}
}

func TestGenerateInvalidDimensions(t *testing.T) {
	for _, tt := range []struct{ rows, cols int }{{0, 5}, {5, 0}, {-1, 3}, {27, 1}} {
		_, err := Generate(tt.rows, tt.cols, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}
}

func TestGenerateRowMajorOrder(t *testing.T) {
	m, err := Generate(2, 3, nil, nil)
	require.NoError(t, err)
	var ids []string
	for _, s := range m.Seats() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, ids)
}

func TestDefaultClassifyTenRows(t *testing.T) {
	classify := DefaultClassify(10)

	class, price := classify(0)
	assert.Equal(t, ClassPremium, class)
	assert.Equal(t, uint32(18000), price)

	class, price = classify(3)
	assert.Equal(t, ClassStandard, class)
	assert.Equal(t, uint32(12000), price)

	class, price = classify(7)
	assert.Equal(t, ClassVIP, class)
	assert.Equal(t, uint32(25000), price)
}

func TestOccupiedSet(t *testing.T) {
	m, err := Generate(2, 2, nil, OccupiedSet([]string{"A2", "B1"}))
	require.NoError(t, err)

	want := map[string]Status{
		"A1": StatusAvailable,
		"A2": StatusOccupied,
		"B1": StatusOccupied,
		"B2": StatusAvailable,
	}
	for id, status := range want {
		s, ok := m.Get(id)
		require.True(t, ok)
		assert.Equal(t, status, s.Status, "seat %s", id)
	}
}

func TestRandomOccupancyIsStablePerMap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m, err := Generate(10, 12, nil, RandomOccupancy(0.3, rng))
	require.NoError(t, err)

	// Re-reading the map must not re-draw occupancy.
	first := m.Seats()
	second := m.Seats()
	assert.Equal(t, first, second)
}
