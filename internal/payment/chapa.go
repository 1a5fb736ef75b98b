package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const chapaBaseURL = "https://api.chapa.co/v1"

// ChapaProvider charges through the Chapa transaction API.  Amounts are
// sent in birr (Chapa does not accept cents), so AmountCents is converted
// with two decimal places.
type ChapaProvider struct {
	SecretKey   string
	CallbackURL string
	ReturnURL   string
	BaseURL     string // overridable for tests; defaults to the live API
	HTTPClient  *http.Client
}

type chapaInitRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
}

type chapaResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		Reference   string `json:"reference"`
	} `json:"data"`
}

// Charge initializes a Chapa transaction and returns its checkout URL and
// reference.  A non-"success" status from Chapa maps to ErrDeclined with
// the provider message attached.
func (p *ChapaProvider) Charge(ctx context.Context, req Request) (Result, error) {
	base := p.BaseURL
	if base == "" {
		base = chapaBaseURL
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	body := chapaInitRequest{
		Amount:      strconv.FormatFloat(float64(req.AmountCents)/100, 'f', 2, 64),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FullName,
		TxRef:       req.TxRef,
		CallbackURL: p.CallbackURL,
		ReturnURL:   p.ReturnURL,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("chapa: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("chapa: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("chapa: initialize: %w", err)
	}
	defer resp.Body.Close()

	var out chapaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("chapa: decode response: %w", err)
	}
	if out.Status != "success" {
		return Result{}, fmt.Errorf("%w: %s", ErrDeclined, out.Message)
	}
	return Result{
		TransactionID: out.Data.Reference,
		CheckoutURL:   out.Data.CheckoutURL,
	}, nil
}

type chapaVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Amount   json.Number `json:"amount"`
		Currency string      `json:"currency"`
		Status   string      `json:"status"`
		TxRef    string      `json:"tx_ref"`
	} `json:"data"`
}

// Verify asks Chapa for the settlement state of a transaction.  The
// returned status is Chapa's own ("success", "failed", "pending"); the
// birr amount is converted back to cents.
func (p *ChapaProvider) Verify(ctx context.Context, txRef string) (VerifyResult, error) {
	base := p.BaseURL
	if base == "" {
		base = chapaBaseURL
	}
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("chapa: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.SecretKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("chapa: verify: %w", err)
	}
	defer resp.Body.Close()

	var out chapaVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return VerifyResult{}, fmt.Errorf("chapa: decode response: %w", err)
	}
	if out.Status != "success" {
		return VerifyResult{}, fmt.Errorf("chapa: verify %s: status %q", txRef, out.Status)
	}
	var cents uint32
	if birr, err := out.Data.Amount.Float64(); err == nil {
		cents = uint32(birr*100 + 0.5)
	}
	return VerifyResult{
		TxRef:       out.Data.TxRef,
		Status:      out.Data.Status,
		AmountCents: cents,
	}, nil
}
