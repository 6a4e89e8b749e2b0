package main

import (
	"log"
	"net/http"

	"pix-attribution-service/internal/attribution"
	"pix-attribution-service/internal/config"
	"pix-attribution-service/internal/facebook"
	"pix-attribution-service/internal/httpapi"
	"pix-attribution-service/internal/ledger"
	"pix-attribution-service/internal/logging"
	"pix-attribution-service/internal/metrics"
	"pix-attribution-service/internal/payment"
	"pix-attribution-service/internal/pushinpay"
)

func main() {
	config.LoadEnv()
	cfg := config.MustLoadConfig(".")

	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics)

	paymentLedger := ledger.New()
	attributionStore := attribution.New()

	provider := pushinpay.NewClient(cfg.Provider, config.GetRequired("PUSHIN_TOKEN"), logger)
	reporter := facebook.NewClient(cfg.Facebook, config.GetRequired("FACEBOOK_ACCESS_TOKEN"), logger)

	controller := payment.NewController(paymentLedger, attributionStore, provider, reporter, payment.Config{
		AmountCents:         cfg.Pricing.AmountCents,
		Currency:            cfg.Pricing.Currency,
		WebhookURL:          cfg.Provider.CallbackURL,
		ReporterParallelism: cfg.Reporter.Parallelism,
	}, logger)

	handler := httpapi.NewHandler(controller, logger)

	logger.Info("Starting PIX attribution service", "port", cfg.Server.Port, "pixelId", cfg.Facebook.PixelID)

	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, handler.Routes()))
}
