package payment

import "fmt"

// ProviderError wraps a payment-provider failure during creation. It is the
// only error category surfaced to HTTP callers; everything else the
// controller absorbs and logs.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
