package payload

// GeneratePixRequest carries the optional browser attribution cookies.
type GeneratePixRequest struct {
	FBP string `json:"fbp"`
	FBC string `json:"fbc"`
}

type GeneratePixResponse struct {
	PaymentID    string `json:"paymentId"`
	QRCodeBase64 string `json:"qrCodeBase64"`
	CopiaECola   string `json:"copiaECola"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookAck is returned for every webhook delivery, including ones the
// service could not process.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StatusResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type PaymentsResponse struct {
	TotalPayments       int               `json:"totalPayments"`
	Payments            map[string]string `json:"payments"`
	PendingAttributions int               `json:"pendingAttributions"`
}

type ServiceInfo struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}
