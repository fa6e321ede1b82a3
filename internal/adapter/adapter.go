// Package adapter defines the normalized shapes shared by payment gateway
// adapters and the interfaces the host dispatches through.
// Adapters handle all processor-specific API calls, serialization and error
// mapping, normalizing raw processor responses into a Response.
package adapter

import (
	"context"

	"github.com/yourorg/nexio-gateway/internal/transaction"
)

// Well-known ErrorCode values produced by adapters themselves rather than the processor.
const (
	ErrorCodeNetwork         = "network_error"
	ErrorCodeInvalidResponse = "invalid_response"
)

// AVSResult is the address verification outcome reported by the processor.
type AVSResult struct {
	StreetMatch string `json:"street_match,omitempty"`
	PostalMatch string `json:"postal_match,omitempty"`
}

// CVVResult is the card security code check reported by the processor.
type CVVResult struct {
	Code string `json:"code,omitempty"`
}

// Response holds the normalized outcome of one gateway call.
type Response struct {
	Success              bool           `json:"success"`
	Message              string         `json:"message,omitempty"`
	Params               map[string]any `json:"params"`                  // Raw processor payload; empty on failure
	Authorization        string         `json:"authorization,omitempty"` // Processor transaction id
	AVSResult            *AVSResult     `json:"avs_result,omitempty"`
	CVVResult            *CVVResult     `json:"cvv_result,omitempty"`
	Test                 bool           `json:"test"`
	NetworkTransactionID string         `json:"network_transaction_id,omitempty"`
	ErrorCode            string         `json:"error_code,omitempty"`
}

// PaymentSource is anything that can pay: a processor token, a stored card
// profile or an encrypted card.
type PaymentSource interface {
	SourceType() string
}

// Token is an opaque processor-issued payment token.
type Token string

// SourceType implements PaymentSource.
func (Token) SourceType() string { return "token" }

// StoredCard is a card previously saved with the processor.
type StoredCard struct {
	ProfileID  string `json:"profile_id"` // Processor token for the saved card
	LastDigits string `json:"last_digits,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Name       string `json:"name,omitempty"`
}

// SourceType implements PaymentSource.
func (StoredCard) SourceType() string { return "stored_card" }

// Webhooks maps processor events to callback URLs. Empty URLs are not registered.
type Webhooks struct {
	Authorized string `json:"authorized,omitempty"`
	Captured   string `json:"captured,omitempty"`
	Settled    string `json:"settled,omitempty"`
}

// AllWebhooks registers the same URL for every event.
func AllWebhooks(url string) Webhooks {
	return Webhooks{Authorized: url, Captured: url, Settled: url}
}

// Gateway is the set of operations every adapter supports.
type Gateway interface {
	// Name returns the registry name of the gateway (e.g., "nexio").
	Name() string
	Purchase(ctx context.Context, money int64, source PaymentSource, opts Options) (*Response, error)
	Capture(ctx context.Context, money int64, authorization string) (*Response, error)
	Refund(ctx context.Context, money int64, authorization string) (*Response, error)
	Void(ctx context.Context, authorization string) (*Response, error)
	SetWebhooks(ctx context.Context, hooks Webhooks) (*Response, error)
	Secret(ctx context.Context) (*SecretResult, error)
}

// Authorizer places a hold without capturing funds.
type Authorizer interface {
	Authorize(ctx context.Context, money int64, source PaymentSource, opts Options) (*Response, error)
}

// Verifier checks a card with an authorization that is voided right away.
type Verifier interface {
	Verify(ctx context.Context, source PaymentSource, opts Options) (*Response, error)
}

// CardStorer saves a card with the processor for later use.
type CardStorer interface {
	Store(ctx context.Context, source PaymentSource, opts Options) (*StoreResult, error)
}

// CardTokenizer issues one-time tokens for the card capture form.
type CardTokenizer interface {
	GenerateToken(ctx context.Context, opts Options) (*TokenResult, error)
}

// APMTokenizer issues one-time tokens for alternative payment methods.
type APMTokenizer interface {
	GenerateToken(ctx context.Context, money int64, opts Options) (*APMTokenResult, error)
}

// TransactionFetcher looks transactions up by processor id. Lookups are best
// effort: a nil Transaction means the lookup failed.
type TransactionFetcher interface {
	Transaction(ctx context.Context, id string) *transaction.Transaction
}
