package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"pix-attribution-service/internal/attribution"
	"pix-attribution-service/internal/logcontext"
	"pix-attribution-service/internal/metrics"
	"pix-attribution-service/internal/payload"
	"pix-attribution-service/internal/payment"

	"github.com/google/uuid"
)

// Webhook bodies larger than this are cut off; real provider payloads are a
// few hundred bytes.
const maxWebhookBodyBytes = 1 << 20

type Handler struct {
	controller *payment.Controller
	logger     *slog.Logger
}

func NewHandler(controller *payment.Controller, logger *slog.Logger) *Handler {
	return &Handler{
		controller: controller,
		logger:     logger,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /gerar-pix", h.generatePix)
	mux.HandleFunc("POST /webhook-pushinpay", h.webhook)
	mux.HandleFunc("GET /check-status/{paymentId}", h.checkStatus)
	mux.HandleFunc("GET /payments", h.listPayments)
	mux.HandleFunc("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /liveness", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /{$}", h.info)

	return withRequestID(mux)
}

// withRequestID tags each request context with a correlation id picked up by
// the logging handler.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logcontext.AppendCtx(r.Context(), slog.String("requestId", uuid.New().String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) generatePix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req payload.GeneratePixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Attribution is optional; an unreadable body just means none.
		h.logger.WarnContext(ctx, "Ignoring unreadable gerar-pix body", "error", err)
	}

	result, err := h.controller.CreatePayment(ctx, attribution.Metadata{
		FBP: req.FBP,
		FBC: req.FBC,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{
			Error: "Não foi possível gerar o PIX.",
		})
		return
	}

	writeJSON(w, http.StatusOK, payload.GeneratePixResponse{
		PaymentID:    result.PaymentID,
		QRCodeBase64: result.QRCodeBase64,
		CopiaECola:   result.QRCode,
	})
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.ErrorContext(ctx, "Error reading webhook body", "error", err)
	} else {
		h.controller.IngestWebhook(ctx, body)
	}

	// The provider treats anything other than a 2xx as a delivery failure
	// and retries, so the acknowledgement is unconditional.
	writeJSON(w, http.StatusOK, payload.WebhookAck{
		Success: true,
		Message: "Webhook processado",
	})
}

func (h *Handler) checkStatus(w http.ResponseWriter, r *http.Request) {
	result := h.controller.CheckStatus(r.PathValue("paymentId"))

	writeJSON(w, http.StatusOK, payload.StatusResponse{
		PaymentID: result.PaymentID,
		Status:    result.Status,
		Message:   result.Message,
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	overview := h.controller.ListPayments()

	writeJSON(w, http.StatusOK, payload.PaymentsResponse{
		TotalPayments:       overview.TotalPayments,
		Payments:            overview.Payments,
		PendingAttributions: overview.PendingAttributions,
	})
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, payload.ServiceInfo{
		Message: "Sistema de PIX com atribuição funcionando!",
		Endpoints: map[string]string{
			"gerarPix":     "POST /gerar-pix",
			"webhook":      "POST /webhook-pushinpay",
			"checkStatus":  "GET /check-status/:paymentId",
			"listPayments": "GET /payments",
			"metrics":      "GET /metrics",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
