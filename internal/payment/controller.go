package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"pix-attribution-service/internal/attribution"
	"pix-attribution-service/internal/facebook"
	"pix-attribution-service/internal/ledger"
	"pix-attribution-service/internal/logcontext"
	"pix-attribution-service/internal/pushinpay"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const defaultReporterParallelism = 100

var (
	createSuccessCounter = metrics.GetOrCreateCounter(`pix_payment_create_total{result="success"}`)
	createErrorCounter   = metrics.GetOrCreateCounter(`pix_payment_create_total{result="provider_error"}`)

	webhookPaidCounter      = metrics.GetOrCreateCounter(`pix_webhook_total{result="paid"}`)
	webhookStatusCounter    = metrics.GetOrCreateCounter(`pix_webhook_total{result="status_update"}`)
	webhookMalformedCounter = metrics.GetOrCreateCounter(`pix_webhook_total{result="malformed"}`)
	webhookMissingIDCounter = metrics.GetOrCreateCounter(`pix_webhook_total{result="missing_id"}`)

	reportSuccessCounter = metrics.GetOrCreateCounter(`pix_conversion_report_total{result="success"}`)
	reportErrorCounter   = metrics.GetOrCreateCounter(`pix_conversion_report_total{result="error"}`)
	reportSkippedCounter = metrics.GetOrCreateCounter(`pix_conversion_report_total{result="no_attribution"}`)

	reportDurationHistogram = metrics.GetOrCreateHistogram(`pix_conversion_report_duration_milliseconds`)
)

// ProviderClient creates payments with the external PIX provider.
type ProviderClient interface {
	CreateCashIn(ctx context.Context, amountCents int, webhookURL string) (*pushinpay.CashIn, error)
}

// ConversionReporter delivers Purchase conversions to the advertising API.
type ConversionReporter interface {
	ReportPurchase(ctx context.Context, ev facebook.PurchaseEvent) error
}

type Config struct {
	AmountCents         int
	Currency            string
	WebhookURL          string
	ReporterParallelism int
}

// Controller owns the payment lifecycle: creation against the provider,
// webhook ingestion, and the single conversion report per paid payment.
type Controller struct {
	ledger   *ledger.Ledger
	attrs    *attribution.Store
	provider ProviderClient
	reporter ConversionReporter
	cfg      Config
	logger   *slog.Logger
	sem      chan struct{}
}

func NewController(l *ledger.Ledger, attrs *attribution.Store, provider ProviderClient, reporter ConversionReporter, cfg Config, logger *slog.Logger) *Controller {
	parallelism := cfg.ReporterParallelism
	if parallelism <= 0 {
		parallelism = defaultReporterParallelism
	}
	return &Controller{
		ledger:   l,
		attrs:    attrs,
		provider: provider,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger,
		sem:      make(chan struct{}, parallelism),
	}
}

type CreateResult struct {
	PaymentID    string
	QRCodeBase64 string
	QRCode       string
}

// CreatePayment creates a PIX payment of the configured amount and registers
// it, together with the caller's attribution metadata, under the normalized
// provider identifier. On provider failure no state is written and a
// *ProviderError is returned.
func (c *Controller) CreatePayment(ctx context.Context, md attribution.Metadata) (CreateResult, error) {
	cashIn, err := c.provider.CreateCashIn(ctx, c.cfg.AmountCents, c.cfg.WebhookURL)
	if err != nil {
		createErrorCounter.Inc()
		c.logger.ErrorContext(ctx, "Error creating PIX payment", "error", err)
		return CreateResult{}, &ProviderError{Err: err}
	}

	id := ledger.NormalizeID(cashIn.ID)
	c.ledger.SetStatus(id, ledger.StatusCreated)
	// The record is stored even when both fields are empty, so the join key
	// is present when the paid webhook arrives.
	c.attrs.Put(id, md)

	createSuccessCounter.Inc()
	c.logger.InfoContext(ctx, "PIX payment created", "paymentId", id, "hasAttribution", !md.IsEmpty())

	return CreateResult{
		PaymentID:    id,
		QRCodeBase64: cashIn.QRCodeBase64,
		QRCode:       cashIn.QRCode,
	}, nil
}

type webhookPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// parseWebhook accepts either a JSON object or a JSON string containing a
// JSON object, which is how the provider sometimes delivers the body.
func parseWebhook(raw []byte) (webhookPayload, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		return payload, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &payload); err == nil {
			return payload, nil
		}
	}

	return webhookPayload{}, errors.New("unparseable webhook body")
}

// IngestWebhook processes a provider status notification. It never reports
// failure to the caller: the provider expects an acknowledgement no matter
// what, and retries aggressively otherwise.
func (c *Controller) IngestWebhook(ctx context.Context, raw []byte) {
	payload, err := parseWebhook(raw)
	if err != nil {
		webhookMalformedCounter.Inc()
		c.logger.ErrorContext(ctx, "Discarding malformed webhook", "error", err, "body", string(raw))
		return
	}

	if payload.ID == "" {
		webhookMissingIDCounter.Inc()
		c.logger.WarnContext(ctx, "Webhook payload has no payment id")
		return
	}

	id := ledger.NormalizeID(payload.ID)
	ctx = logcontext.AppendCtx(ctx, slog.String("paymentId", id))

	c.ledger.SetStatus(id, payload.Status)
	c.logger.InfoContext(ctx, "Payment status updated", "status", payload.Status)

	// The paid literal is matched case-sensitively; only this transition has
	// a side effect.
	if payload.Status != ledger.StatusPaid {
		webhookStatusCounter.Inc()
		return
	}
	webhookPaidCounter.Inc()

	// TakeAndClear consumes the attribution record atomically, so a retried
	// paid webhook finds nothing and the conversion fires at most once.
	md, ok := c.attrs.TakeAndClear(id)
	if !ok {
		reportSkippedCounter.Inc()
		c.logger.WarnContext(ctx, "No attribution record for paid payment, skipping conversion report")
		return
	}

	c.dispatchReport(ctx, id, md)
}

// dispatchReport fires the conversion in the background so the webhook
// acknowledgement never waits on the advertising API. In-flight reports are
// bounded by the semaphore.
func (c *Controller) dispatchReport(ctx context.Context, id string, md attribution.Metadata) {
	// Detach from the request context: the acknowledgement returning must
	// not cancel the report.
	reportCtx := context.WithoutCancel(ctx)

	c.sem <- struct{}{}
	go func() {
		defer func() { <-c.sem }()

		start := time.Now()
		err := c.reporter.ReportPurchase(reportCtx, facebook.PurchaseEvent{
			FBP:           md.FBP,
			FBC:           md.FBC,
			Currency:      c.cfg.Currency,
			Value:         float64(c.cfg.AmountCents) / 100,
			TransactionID: id,
		})
		reportDurationHistogram.Update(float64(time.Since(start).Milliseconds()))

		if err != nil {
			reportErrorCounter.Inc()
			c.logger.ErrorContext(reportCtx, "Error reporting conversion", "error", err)
			return
		}
		reportSuccessCounter.Inc()
		c.logger.InfoContext(reportCtx, "Conversion reported")
	}()
}

type StatusResult struct {
	PaymentID string
	Status    string
	Message   string
}

// CheckStatus is a pure ledger read.
func (c *Controller) CheckStatus(id string) StatusResult {
	normalized := ledger.NormalizeID(id)
	status := c.ledger.GetStatus(normalized)

	return StatusResult{
		PaymentID: normalized,
		Status:    status,
		Message:   statusMessage(status),
	}
}

func statusMessage(status string) string {
	switch status {
	case ledger.StatusPaid:
		return "Pagamento confirmado!"
	case ledger.StatusNotFound:
		return "Pagamento não encontrado"
	default:
		return "Aguardando pagamento"
	}
}

type Overview struct {
	TotalPayments       int
	Payments            map[string]string
	PendingAttributions int
}

// ListPayments returns a debug snapshot of the ledger and the number of
// attribution records still awaiting their paid webhook.
func (c *Controller) ListPayments() Overview {
	return Overview{
		TotalPayments:       c.ledger.Count(),
		Payments:            c.ledger.Snapshot(),
		PendingAttributions: c.attrs.Count(),
	}
}
