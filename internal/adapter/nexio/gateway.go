package nexio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/card"
	"github.com/yourorg/nexio-gateway/internal/transaction"
)

const (
	// GatewayName is the registry name of the card gateway.
	GatewayName = "nexio"

	cardBasePath = "/pay/v3"

	// verifyAmount is the nominal authorization placed by Verify, in minor units.
	verifyAmount = 100
)

// Gateway is the Nexio card gateway.
type Gateway struct {
	*base
}

var (
	_ adapter.Gateway            = (*Gateway)(nil)
	_ adapter.Authorizer         = (*Gateway)(nil)
	_ adapter.Verifier           = (*Gateway)(nil)
	_ adapter.CardStorer         = (*Gateway)(nil)
	_ adapter.CardTokenizer      = (*Gateway)(nil)
	_ adapter.TransactionFetcher = (*Gateway)(nil)
)

// NewGateway creates a card gateway. Merchant id and auth token are required.
func NewGateway(cfg Config, opts ...Option) (*Gateway, error) {
	b, err := newBase(GatewayName, cardBasePath, addPayment, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &Gateway{base: b}, nil
}

// GenerateToken requests a one-time token for the card capture form. The
// token is nil when the processor did not accept the request.
func (g *Gateway) GenerateToken(ctx context.Context, opts adapter.Options) (*adapter.TokenResult, error) {
	post := g.buildPayload(opts)
	brands := make([]string, len(card.AllowedBrands))
	copy(brands, card.AllowedBrands)
	section(post, "data")["allowedCardTypes"] = brands
	addCurrency(post, opts)
	addOrderData(post, opts)
	addCardData(post, opts)

	resp, err := g.commit(ctx, "token", post)
	if resp == nil || !resp.Success {
		return &adapter.TokenResult{Response: resp}, err
	}

	token := &adapter.OneTimeToken{
		Token:    stringValue(resp.Params["token"]),
		FraudURL: stringValue(resp.Params["fraudUrl"]),
	}
	if exp := stringValue(resp.Params["expiration"]); exp != "" {
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return &adapter.TokenResult{Response: resp}, fmt.Errorf("nexio: invalid token expiration %q: %w", exp, err)
		}
		token.Expiration = t
	}
	return &adapter.TokenResult{Response: resp, Token: token}, nil
}

// Purchase authorizes and captures money in one call.
func (g *Gateway) Purchase(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	return g.purchase(ctx, money, source, opts)
}

// Authorize places a hold for money without capturing it.
func (g *Gateway) Authorize(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	payload := make(map[string]any, len(opts.Payload)+1)
	for k, v := range opts.Payload {
		payload[k] = v
	}
	payload["isAuthOnly"] = true
	opts.Payload = payload
	return g.purchase(ctx, money, source, opts)
}

// Verify authorizes a nominal amount and voids it right away. The result is
// the authorization's; the void outcome is only logged.
func (g *Gateway) Verify(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	auth, authErr := g.Authorize(ctx, verifyAmount, source, opts)
	if auth == nil {
		return nil, authErr
	}

	void, err := g.Void(ctx, auth.Authorization)
	switch {
	case err != nil:
		g.logger.Warn("verify void failed", slog.String("authorization", auth.Authorization), slog.Any("error", err))
	case !void.Success:
		g.logger.Warn("verify void was not accepted",
			slog.String("authorization", auth.Authorization),
			slog.String("error_code", void.ErrorCode),
		)
	}
	return auth, authErr
}

// Store saves an encrypted card and returns its processor token. Other
// source types and invalid cards fail before any request is made.
func (g *Gateway) Store(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.StoreResult, error) {
	post := g.buildPayload(opts)
	if opts.MerchantID != "" {
		setIfAbsent(post, "merchantId", opts.MerchantID)
	}
	if err := addCardDetails(post, source); err != nil {
		return nil, err
	}
	addCurrency(post, opts)
	addOrderData(post, opts)

	resp, err := g.commit(ctx, "saveCard", post)
	if resp == nil {
		return nil, err
	}
	result := &adapter.StoreResult{Response: resp}
	if resp.Success {
		if tok, ok := resp.Params["token"].(map[string]any); ok {
			result.Token = stringValue(tok["token"])
		}
	}
	return result, err
}

// Transaction looks a transaction up by id. Transport and HTTP failures are
// logged and yield nil; a 2xx body that cannot be parsed yields an empty record.
func (g *Gateway) Transaction(ctx context.Context, id string) *transaction.Transaction {
	data, err := g.get(ctx, transactionPath+url.PathEscape(id))
	if err != nil {
		g.logger.Warn("transaction lookup failed", slog.String("id", id), slog.Any("error", err))
		return nil
	}
	return transaction.New(data)
}
