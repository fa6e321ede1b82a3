package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/transaction"
)

// MockGateway is a test double implementing adapter.Gateway and the card
// capability interfaces. Each method calls its Func field when set and
// otherwise succeeds with a fresh authorization id.
type MockGateway struct {
	GatewayName string

	PurchaseFunc      func(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error)
	AuthorizeFunc     func(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error)
	CaptureFunc       func(ctx context.Context, money int64, authorization string) (*adapter.Response, error)
	RefundFunc        func(ctx context.Context, money int64, authorization string) (*adapter.Response, error)
	VoidFunc          func(ctx context.Context, authorization string) (*adapter.Response, error)
	VerifyFunc        func(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error)
	StoreFunc         func(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.StoreResult, error)
	GenerateTokenFunc func(ctx context.Context, opts adapter.Options) (*adapter.TokenResult, error)
	SetWebhooksFunc   func(ctx context.Context, hooks adapter.Webhooks) (*adapter.Response, error)
	SecretFunc        func(ctx context.Context) (*adapter.SecretResult, error)
	TransactionFunc   func(ctx context.Context, id string) *transaction.Transaction

	mu    sync.Mutex
	calls []string
}

var (
	_ adapter.Gateway            = (*MockGateway)(nil)
	_ adapter.Authorizer         = (*MockGateway)(nil)
	_ adapter.Verifier           = (*MockGateway)(nil)
	_ adapter.CardStorer         = (*MockGateway)(nil)
	_ adapter.CardTokenizer      = (*MockGateway)(nil)
	_ adapter.TransactionFetcher = (*MockGateway)(nil)
)

// NewMockGateway creates a new MockGateway.
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{GatewayName: name}
}

// Name implements adapter.Gateway.
func (m *MockGateway) Name() string {
	return m.GatewayName
}

// Calls returns the names of the methods invoked so far, in order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockGateway) record(method string) {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()
}

// success is the default response: accepted, with a new authorization id.
func success(authorization string) *adapter.Response {
	if authorization == "" {
		authorization = uuid.NewString()
	}
	return &adapter.Response{
		Success:              true,
		Params:               map[string]any{"id": authorization, "mock_processed": true},
		Authorization:        authorization,
		NetworkTransactionID: authorization,
		Test:                 true,
	}
}

func (m *MockGateway) Purchase(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	m.record("Purchase")
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, money, source, opts)
	}
	return success(""), nil
}

func (m *MockGateway) Authorize(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	m.record("Authorize")
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, money, source, opts)
	}
	return success(""), nil
}

func (m *MockGateway) Capture(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
	m.record("Capture")
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, money, authorization)
	}
	return success(authorization), nil
}

func (m *MockGateway) Refund(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
	m.record("Refund")
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, money, authorization)
	}
	return success(authorization), nil
}

func (m *MockGateway) Void(ctx context.Context, authorization string) (*adapter.Response, error) {
	m.record("Void")
	if m.VoidFunc != nil {
		return m.VoidFunc(ctx, authorization)
	}
	return success(authorization), nil
}

func (m *MockGateway) Verify(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	m.record("Verify")
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, source, opts)
	}
	return success(""), nil
}

func (m *MockGateway) Store(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.StoreResult, error) {
	m.record("Store")
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, source, opts)
	}
	return &adapter.StoreResult{Response: success(""), Token: "card_" + uuid.NewString()}, nil
}

func (m *MockGateway) GenerateToken(ctx context.Context, opts adapter.Options) (*adapter.TokenResult, error) {
	m.record("GenerateToken")
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(ctx, opts)
	}
	return &adapter.TokenResult{
		Response: success(""),
		Token:    &adapter.OneTimeToken{Token: "ott_" + uuid.NewString()},
	}, nil
}

func (m *MockGateway) SetWebhooks(ctx context.Context, hooks adapter.Webhooks) (*adapter.Response, error) {
	m.record("SetWebhooks")
	if m.SetWebhooksFunc != nil {
		return m.SetWebhooksFunc(ctx, hooks)
	}
	return success(""), nil
}

func (m *MockGateway) Secret(ctx context.Context) (*adapter.SecretResult, error) {
	m.record("Secret")
	if m.SecretFunc != nil {
		return m.SecretFunc(ctx)
	}
	return &adapter.SecretResult{Response: success(""), Secret: "mock_secret"}, nil
}

// Transaction returns nil unless TransactionFunc is set, like a failed lookup.
func (m *MockGateway) Transaction(ctx context.Context, id string) *transaction.Transaction {
	m.record("Transaction")
	if m.TransactionFunc != nil {
		return m.TransactionFunc(ctx, id)
	}
	return nil
}
