package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*RestGateway)(nil)

// RestGateway implements adapter.PaymentGateway against a hosted processor
// exposing JSON charge/refund endpoints. Transport failures surface as
// domain.ErrGatewayUnavailable so callers can retry; a decline comes back as
// a normal result with Approved=false.
type RestGateway struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRestGateway(name, baseURL, apiKey string, timeout time.Duration) (*RestGateway, error) {
	if name == "" {
		return nil, errors.New("gateway name empty")
	}
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RestGateway{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (g *RestGateway) Name() string { return g.name }

func (g *RestGateway) Charge(ctx context.Context, req adapter.ChargeRequest) (adapter.ChargeResult, error) {
	payload := map[string]any{
		"reference": req.PaymentID,
		"user":      req.UserID,
		"amount":    req.Amount.String(),
		"currency":  req.Currency,
		"method":    req.Method,
	}
	if req.TransactionID != "" {
		payload["transaction_id"] = req.TransactionID
	}
	var out struct {
		Approved      bool   `json:"approved"`
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
		ErrorMessage  string `json:"error_message"`
	}
	if err := g.post(ctx, "/v1/charges", payload, &out); err != nil {
		return adapter.ChargeResult{}, err
	}
	return adapter.ChargeResult{
		Approved:      out.Approved,
		TransactionID: out.TransactionID,
		Status:        out.Status,
		ErrorMessage:  out.ErrorMessage,
	}, nil
}

func (g *RestGateway) Refund(ctx context.Context, req adapter.RefundRequest) (adapter.RefundResult, error) {
	payload := map[string]any{
		"reference":      req.PaymentID,
		"transaction_id": req.TransactionID,
		"amount":         req.Amount.String(),
		"reason":         req.Reason,
	}
	var out struct {
		Approved bool   `json:"approved"`
		RefundID string `json:"refund_id"`
		Status   string `json:"status"`
	}
	if err := g.post(ctx, "/v1/refunds", payload, &out); err != nil {
		return adapter.RefundResult{}, err
	}
	return adapter.RefundResult{Approved: out.Approved, RefundID: out.RefundID, Status: out.Status}, nil
}

func (g *RestGateway) post(ctx context.Context, path string, payload any, out any) error {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%s: %w", path, domain.ErrGatewayUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, domain.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: http %d: %w", path, resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, domain.ErrGatewayUnavailable)
	}
	return nil
}
