package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMethod(t *testing.T) {
	assert.True(t, ValidMethod(MethodChapa))
	assert.True(t, ValidMethod(MethodTelebirr))
	assert.True(t, ValidMethod(MethodMpesa))
	assert.False(t, ValidMethod(Method("paypal")))
	assert.False(t, ValidMethod(Method("")))
}

func TestSimulatorCharge(t *testing.T) {
	sim := &Simulator{}
	res, err := sim.Charge(context.Background(), Request{AmountCents: 30000, TxRef: "tx-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TransactionID)
}

func TestSimulatorDeclines(t *testing.T) {
	sim := &Simulator{Fail: true}
	_, err := sim.Charge(context.Background(), Request{AmountCents: 30000})
	assert.ErrorIs(t, err, ErrDeclined)
}

func TestSimulatorHonoursContext(t *testing.T) {
	sim := &Simulator{Delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sim.Charge(ctx, Request{AmountCents: 100})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChapaChargeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chapaInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "300.00", body.Amount)
		assert.Equal(t, "ETB", body.Currency)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "ok",
			"data": map[string]string{
				"checkout_url": "https://checkout.chapa.co/tx-77",
				"reference":    "tx-77",
			},
		})
	}))
	defer srv.Close()

	p := &ChapaProvider{SecretKey: "sk-test", BaseURL: srv.URL}
	res, err := p.Charge(context.Background(), Request{
		AmountCents: 30000,
		Currency:    "ETB",
		Email:       "abebe@example.com",
		FullName:    "Abebe Bikila",
		TxRef:       "tx-77",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-77", res.TransactionID)
	assert.Equal(t, "https://checkout.chapa.co/tx-77", res.CheckoutURL)
}

func TestChapaVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/tx-42", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"amount":   300.00,
				"currency": "ETB",
				"status":   "success",
				"tx_ref":   "tx-42",
			},
		})
	}))
	defer srv.Close()

	p := &ChapaProvider{SecretKey: "sk-test", BaseURL: srv.URL}
	res, err := p.Verify(context.Background(), "tx-42")
	require.NoError(t, err)
	assert.Equal(t, "tx-42", res.TxRef)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, uint32(30000), res.AmountCents)
}

func TestChapaChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "failed",
			"message": "insufficient funds",
		})
	}))
	defer srv.Close()

	p := &ChapaProvider{SecretKey: "sk-test", BaseURL: srv.URL}
	_, err := p.Charge(context.Background(), Request{AmountCents: 100, Currency: "ETB"})
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")
}
