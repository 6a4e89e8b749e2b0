package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"pix-attribution-service/internal/config"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
)

func newTestClient() *Client {
	return NewClient(config.Facebook{
		GraphBaseURL: "https://graph.facebook.com/v17.0",
		PixelID:      "25903937665861280",
	}, "test-access-token", slog.Default())
}

// captureBody intercepts the request body while letting the mock match.
func captureBody(captured *[]byte) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		*captured = body
		return true, nil
	}
}

func TestReportPurchase_Success(t *testing.T) {
	defer gock.Off()

	var captured []byte
	gock.New("https://graph.facebook.com").
		Post("/v17.0/25903937665861280/events").
		AddMatcher(captureBody(&captured)).
		Reply(200).
		JSON(map[string]int{"events_received": 1})

	sut := newTestClient()
	err := sut.ReportPurchase(context.Background(), PurchaseEvent{
		FBP:           "fbp.1",
		FBC:           "fbc.1",
		Currency:      "BRL",
		Value:         19.99,
		TransactionID: "abc123",
	})

	assert.NoError(t, err)
	assert.True(t, gock.IsDone())

	var payload struct {
		Data []struct {
			EventName    string `json:"event_name"`
			EventTime    int64  `json:"event_time"`
			EventID      string `json:"event_id"`
			ActionSource string `json:"action_source"`
			UserData     struct {
				FBP string `json:"fbp"`
				FBC string `json:"fbc"`
			} `json:"user_data"`
			CustomData struct {
				Currency      string  `json:"currency"`
				Value         float64 `json:"value"`
				TransactionID string  `json:"transaction_id"`
			} `json:"custom_data"`
		} `json:"data"`
		AccessToken string `json:"access_token"`
	}
	assert.NoError(t, json.Unmarshal(captured, &payload))
	assert.Len(t, payload.Data, 1)

	ev := payload.Data[0]
	assert.Equal(t, "Purchase", ev.EventName)
	assert.NotZero(t, ev.EventTime)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "website", ev.ActionSource)
	assert.Equal(t, "fbp.1", ev.UserData.FBP)
	assert.Equal(t, "fbc.1", ev.UserData.FBC)
	assert.Equal(t, "BRL", ev.CustomData.Currency)
	assert.InDelta(t, 19.99, ev.CustomData.Value, 0.001)
	assert.Equal(t, "abc123", ev.CustomData.TransactionID)
	assert.Equal(t, "test-access-token", payload.AccessToken)
}

func TestReportPurchase_EmptyAttributionOmitted(t *testing.T) {
	defer gock.Off()

	var captured []byte
	gock.New("https://graph.facebook.com").
		Post("/v17.0/25903937665861280/events").
		AddMatcher(captureBody(&captured)).
		Reply(200).
		JSON(map[string]int{"events_received": 1})

	sut := newTestClient()
	err := sut.ReportPurchase(context.Background(), PurchaseEvent{
		Currency:      "BRL",
		Value:         19.99,
		TransactionID: "abc123",
	})

	assert.NoError(t, err)
	assert.NotContains(t, string(captured), `"fbp"`)
	assert.NotContains(t, string(captured), `"fbc"`)
}

func TestReportPurchase_APIError(t *testing.T) {
	defer gock.Off()

	gock.New("https://graph.facebook.com").
		Post("/v17.0/25903937665861280/events").
		Reply(400).
		JSON(map[string]interface{}{
			"error": map[string]string{"message": "Invalid OAuth access token"},
		})

	sut := newTestClient()
	err := sut.ReportPurchase(context.Background(), PurchaseEvent{TransactionID: "abc123"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Conversions API returned")
}
