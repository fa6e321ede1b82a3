package nexio

import (
	"context"

	"github.com/yourorg/nexio-gateway/internal/adapter"
)

const (
	// APMGatewayName is the registry name of the alternative payment method gateway.
	APMGatewayName = "nexio_apm"

	apmBasePath = "/apm/v3"
)

// APMGateway is the Nexio alternative payment method gateway (PayPal, etc.).
type APMGateway struct {
	*base
}

var (
	_ adapter.Gateway      = (*APMGateway)(nil)
	_ adapter.APMTokenizer = (*APMGateway)(nil)
)

// NewAPMGateway creates an APM gateway. Merchant id and auth token are required.
func NewAPMGateway(cfg Config, opts ...Option) (*APMGateway, error) {
	b, err := newBase(APMGatewayName, apmBasePath, addAPMPayment, cfg, opts)
	if err != nil {
		return nil, err
	}
	return &APMGateway{base: b}, nil
}

// GenerateToken requests a one-time APM token with the iframe, redirect and
// button URLs for each available payment method.
func (g *APMGateway) GenerateToken(ctx context.Context, money int64, opts adapter.Options) (*adapter.APMTokenResult, error) {
	post := g.buildPayload(opts)
	addInvoice(post, money, opts)
	if opts.PaymentMethod != "" {
		section(post, "data")["paymentMethod"] = opts.PaymentMethod
	}
	addOrderData(post, opts)
	if opts.CallbackURL != "" {
		post["customerRedirectUrl"] = opts.CallbackURL
	}
	if opts.SaveToken {
		section(post, "processingOptions")["saveRecurringToken"] = true
	}

	resp, err := g.commit(ctx, "token", post)
	if resp == nil || !resp.Success {
		return &adapter.APMTokenResult{Response: resp}, err
	}
	return &adapter.APMTokenResult{
		Response: resp,
		Token: &adapter.APMToken{
			Token:        stringValue(resp.Params["token"]),
			IFrameURL:    stringValue(resp.Params["expressIFrameUrl"]),
			RedirectURLs: mapURLs(resp.Params["redirectUrls"]),
			ButtonURLs:   mapURLs(resp.Params["buttonIFrameUrls"]),
		},
	}, nil
}

// Purchase charges an APM token.
func (g *APMGateway) Purchase(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	return g.purchase(ctx, money, source, opts)
}

// mapURLs turns [{paymentMethod, url}] into a map keyed by payment method.
func mapURLs(v any) map[string]string {
	out := map[string]string{}
	list, _ := v.([]any)
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out[stringValue(entry["paymentMethod"])] = stringValue(entry["url"])
	}
	return out
}
