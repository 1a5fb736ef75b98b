package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/payment"
	"github.com/Sofoniyastekalegn/Addis-Ticket/internal/seatmap"
)

func newDraft(t *testing.T) *Session {
	t.Helper()
	m, err := seatmap.Generate(2, 2, testClassify, nil)
	require.NoError(t, err)
	return NewSession(1, 5, m)
}

func TestNewSessionStartsEmpty(t *testing.T) {
	s := newDraft(t)
	assert.Empty(t, s.SelectedSeats())
	assert.Zero(t, s.TotalCents())
}

func TestSelectionIsAViewNotACopy(t *testing.T) {
	s := newDraft(t)
	require.NoError(t, s.Ledger.Select("A1"))
	assert.Len(t, s.SelectedSeats(), 1)
	assert.Equal(t, uint32(12000), s.TotalCents())

	// Ledger mutations are immediately visible through the session.
	require.NoError(t, s.Ledger.Deselect("A1"))
	assert.Empty(t, s.SelectedSeats())
	assert.Zero(t, s.TotalCents())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(s *Session)
		wantErr bool
	}{
		{
			name: "complete draft",
			prepare: func(s *Session) {
				_ = s.Ledger.Select("A1")
				s.Buyer = BuyerInfo{Name: "Sara", Email: "sara@example.com", Phone: "0911"}
				s.PaymentMethod = payment.MethodTelebirr
			},
		},
		{
			name: "no seats",
			prepare: func(s *Session) {
				s.Buyer = BuyerInfo{Name: "Sara", Email: "sara@example.com", Phone: "0911"}
				s.PaymentMethod = payment.MethodTelebirr
			},
			wantErr: true,
		},
		{
			name: "bad email",
			prepare: func(s *Session) {
				_ = s.Ledger.Select("A1")
				s.Buyer = BuyerInfo{Name: "Sara", Email: "sara", Phone: "0911"}
				s.PaymentMethod = payment.MethodTelebirr
			},
			wantErr: true,
		},
		{
			name: "missing payment method",
			prepare: func(s *Session) {
				_ = s.Ledger.Select("A1")
				s.Buyer = BuyerInfo{Name: "Sara", Email: "sara@example.com", Phone: "0911"}
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newDraft(t)
			tt.prepare(s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewReference(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		ref, err := NewReference()
		require.NoError(t, err)
		assert.Len(t, ref, 9)
		assert.Regexp(t, `^[A-Z0-9]+$`, ref)
		seen[ref] = struct{}{}
	}
	assert.Greater(t, len(seen), 90, "references should be effectively unique")
}
