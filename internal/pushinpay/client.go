package pushinpay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pix-attribution-service/internal/config"

	"github.com/pkg/errors"
)

const defaultTimeoutMs = 10_000

// CashIn is the provider's response to a PIX cash-in creation.
type CashIn struct {
	ID           string `json:"id"`
	QRCodeBase64 string `json:"qr_code_base64"`
	QRCode       string `json:"qr_code"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(cfg config.Provider, token string, logger *slog.Logger) *Client {
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   token,
		client:  &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		logger:  logger,
	}
}

type cashInRequest struct {
	Value      int    `json:"value"`
	WebhookURL string `json:"webhook_url"`
}

type cashInResponse struct {
	ID           string `json:"id"`
	QRCodeBase64 string `json:"qr_code_base64"`
	QRCode       string `json:"qr_code"`
	Message      string `json:"message"`
}

// CreateCashIn creates a PIX payment of amountCents. The provider will call
// webhookURL when the payment status changes.
func (c *Client) CreateCashIn(ctx context.Context, amountCents int, webhookURL string) (*CashIn, error) {
	body, err := json.Marshal(cashInRequest{
		Value:      amountCents,
		WebhookURL: webhookURL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshalling cash-in request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pix/cashIn", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating cash-in request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calling PushinPay")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading PushinPay response")
	}

	var parsed cashInResponse
	// Tolerate an unparseable body: the status code and missing id checks
	// below produce the meaningful error.
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Message != "" {
			return nil, errors.Errorf("PushinPay returned %s: %s", resp.Status, parsed.Message)
		}
		return nil, errors.Errorf("PushinPay returned %s", resp.Status)
	}

	if parsed.ID == "" {
		return nil, errors.New("PushinPay response missing payment id")
	}

	c.logger.InfoContext(ctx, "Created PIX cash-in", "paymentId", parsed.ID)

	return &CashIn{
		ID:           parsed.ID,
		QRCodeBase64: parsed.QRCodeBase64,
		QRCode:       parsed.QRCode,
	}, nil
}
