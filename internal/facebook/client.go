package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pix-attribution-service/internal/config"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultTimeoutMs = 10_000

// PurchaseEvent is the conversion to report against the configured pixel.
// FBP and FBC are optional; empty values are omitted from the payload.
type PurchaseEvent struct {
	FBP           string
	FBC           string
	Currency      string
	Value         float64
	TransactionID string
}

type Client struct {
	graphBaseURL string
	pixelID      string
	accessToken  string
	client       *http.Client
	logger       *slog.Logger
}

func NewClient(cfg config.Facebook, accessToken string, logger *slog.Logger) *Client {
	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}
	return &Client{
		graphBaseURL: cfg.GraphBaseURL,
		pixelID:      cfg.PixelID,
		accessToken:  accessToken,
		client:       &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		logger:       logger,
	}
}

type userData struct {
	FBP string `json:"fbp,omitempty"`
	FBC string `json:"fbc,omitempty"`
}

type customData struct {
	Currency      string  `json:"currency"`
	Value         float64 `json:"value"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

type event struct {
	EventName    string     `json:"event_name"`
	EventTime    int64      `json:"event_time"`
	EventID      string     `json:"event_id"`
	ActionSource string     `json:"action_source"`
	UserData     userData   `json:"user_data"`
	CustomData   customData `json:"custom_data"`
}

type eventsRequest struct {
	Data        []event `json:"data"`
	AccessToken string  `json:"access_token"`
}

// ReportPurchase sends a Purchase event to the Conversions API. The event_id
// is a fresh UUID so Facebook can deduplicate against any browser-side pixel
// firing for the same purchase.
func (c *Client) ReportPurchase(ctx context.Context, ev PurchaseEvent) error {
	payload := eventsRequest{
		Data: []event{{
			EventName:    "Purchase",
			EventTime:    time.Now().Unix(),
			EventID:      uuid.New().String(),
			ActionSource: "website",
			UserData: userData{
				FBP: ev.FBP,
				FBC: ev.FBC,
			},
			CustomData: customData{
				Currency:      ev.Currency,
				Value:         ev.Value,
				TransactionID: ev.TransactionID,
			},
		}},
		AccessToken: c.accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshalling events request")
	}

	url := fmt.Sprintf("%s/%s/events", c.graphBaseURL, c.pixelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating events request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling Conversions API")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		return errors.Errorf("Conversions API returned %s: %s", resp.Status, string(respBody))
	}

	c.logger.InfoContext(ctx, "Reported Purchase event", "transactionId", ev.TransactionID)
	return nil
}
