package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"stayhub/internal/app/policies"
	"stayhub/internal/domain/shared/money"
)

var (
	ErrChargeDeclined = errors.New("payments: charge declined")
	ErrUnavailable    = errors.New("payments: provider unavailable")
)

// platformFeePercent is the share of each charge kept by the platform. The
// remainder is routed to the host's connected account.
const platformFeePercent = 5

// Client charges stays through the payment provider's HTTP API and routes
// the payout to the host's connected account.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Source         string `json:"source"`
	Destination    string `json:"destination"`
	ApplicationFee int64  `json:"application_fee_amount"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Charge(ctx context.Context, amount money.Money, sourceToken, destinationAccount string) error {
	body, err := json.Marshal(chargeRequest{
		Amount:         amount.Amount,
		Currency:       amount.Currency,
		Source:         sourceToken,
		Destination:    destinationAccount,
		ApplicationFee: amount.Amount * platformFeePercent / 100,
	})
	if err != nil {
		return fmt.Errorf("payments: encode charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payments: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out chargeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: malformed response (status %d)", ErrUnavailable, resp.StatusCode)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s", ErrChargeDeclined, out.Error.Message)
	}
	if out.Status != "succeeded" {
		return fmt.Errorf("%w: status %q", ErrChargeDeclined, out.Status)
	}
	return nil
}

var _ policies.PaymentGateway = (*Client)(nil)
