// Package nexio implements the Nexio card and alternative payment method
// gateways. Both gateways share one transport and response normalizer and
// differ only in their base path and how a payment source is written into
// the request.
package nexio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/exp/slog"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/policy"
)

const (
	TestURL = "https://api.nexiopaysandbox.com"
	LiveURL = "https://api.nexiopay.com"

	webhookConfigPath = "/webhook/v3/config"
	webhookSecretPath = "/webhook/v3/secret"
	transactionPath   = "/transaction/v3/paymentId/"

	defaultTimeout = 30 * time.Second
)

var (
	// ErrMissingCredentials is returned by the constructors when the merchant id
	// or auth token is empty.
	ErrMissingCredentials = errors.New("nexio: merchant id and auth token are required")
	// ErrUnsupportedPaymentSource means the action cannot use the given source type.
	ErrUnsupportedPaymentSource = errors.New("nexio: unsupported payment source")
	// ErrInvalidCard wraps the card's validation errors.
	ErrInvalidCard = errors.New("nexio: the provided card is invalid")
)

// Config holds the credentials issued by Nexio. Test selects the sandbox host.
type Config struct {
	MerchantID string
	AuthToken  string
	Test       bool
}

// Option customizes a gateway.
type Option func(*base)

// WithHTTPClient sets the client used for every request. Timeouts are the client's concern.
func WithHTTPClient(c *http.Client) Option {
	return func(b *base) {
		if c != nil {
			b.httpClient = c
		}
	}
}

// WithLogger sets the logger. The gateway name is attached to every record.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBaseURL replaces the environment-selected host, e.g. for a proxy.
func WithBaseURL(u string) Option {
	return func(b *base) {
		b.baseURL = strings.TrimRight(u, "/")
	}
}

// WithStatusPolicy replaces the default success rules.
func WithStatusPolicy(p *policy.StatusPolicy) Option {
	return func(b *base) {
		if p != nil {
			b.policy = p
		}
	}
}

// paymentHook writes a payment source into a process request.
type paymentHook func(post map[string]any, source adapter.PaymentSource, opts adapter.Options) error

// base carries everything the two gateways share. The per-gateway parts are
// the base path and the payment hook.
type base struct {
	name       string
	basePath   string
	addPayment paymentHook

	cfg        Config
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	policy     *policy.StatusPolicy
	tracer     trace.Tracer
}

func newBase(name, basePath string, hook paymentHook, cfg Config, opts []Option) (*base, error) {
	if cfg.MerchantID == "" || cfg.AuthToken == "" {
		return nil, ErrMissingCredentials
	}
	b := &base{
		name:       name,
		basePath:   basePath,
		addPayment: hook,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    LiveURL,
		logger:     slog.Default(),
		policy:     policy.Default(),
		tracer:     otel.Tracer("nexio"),
	}
	if cfg.Test {
		b.baseURL = TestURL
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String("gateway", name))
	return b, nil
}

// Name returns the registry name of the gateway.
func (b *base) Name() string { return b.name }

// Test reports whether the gateway talks to the sandbox.
func (b *base) Test() bool { return b.cfg.Test }

// purchase is shared by both gateways; only the payment hook differs.
func (b *base) purchase(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
	post := b.buildPayload(opts)
	addInvoice(post, money, opts)
	if err := b.addPayment(post, source, opts); err != nil {
		return nil, err
	}
	addOrderData(post, opts)
	return b.commit(ctx, "process", post)
}

// Capture settles a prior authorization.
func (b *base) Capture(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
	return b.commit(ctx, "capture", map[string]any{
		"id":   authorization,
		"data": map[string]any{"amount": formatAmount(money)},
	})
}

// Refund returns money for a captured transaction.
func (b *base) Refund(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
	return b.commit(ctx, "refund", map[string]any{
		"id":   authorization,
		"data": map[string]any{"amount": formatAmount(money)},
	})
}

// Credit is Refund.
func (b *base) Credit(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
	return b.Refund(ctx, money, authorization)
}

// Void cancels a pending authorization.
func (b *base) Void(ctx context.Context, authorization string) (*adapter.Response, error) {
	return b.commit(ctx, "void", map[string]any{"id": authorization})
}

// SetWebhooks registers callback URLs for transaction events.
func (b *base) SetWebhooks(ctx context.Context, hooks adapter.Webhooks) (*adapter.Response, error) {
	events := map[string]any{}
	for event, url := range map[string]string{
		"TRANSACTION_AUTHORIZED": hooks.Authorized,
		"TRANSACTION_CAPTURED":   hooks.Captured,
		"TRANSACTION_SETTLED":    hooks.Settled,
	} {
		if url != "" {
			events[event] = map[string]any{"url": url}
		}
	}
	return b.commit(ctx, "webhook", map[string]any{
		"merchantId": b.cfg.MerchantID,
		"webhooks":   events,
	})
}

// Secret fetches the webhook signing secret.
func (b *base) Secret(ctx context.Context) (*adapter.SecretResult, error) {
	resp, err := b.commit(ctx, "secret", map[string]any{"merchantId": b.cfg.MerchantID})
	if resp == nil {
		return nil, err
	}
	result := &adapter.SecretResult{Response: resp}
	if resp.Success {
		result.Secret = stringValue(resp.Params["secret"])
	}
	return result, err
}

func (b *base) commitURL(action string) string {
	switch action {
	case "webhook":
		return b.baseURL + webhookConfigPath
	case "secret":
		return b.baseURL + webhookSecretPath
	default:
		return b.baseURL + b.basePath + "/" + action
	}
}

// commit posts one action and normalizes the answer. Processor failures come
// back as a failed Response with a nil error; a transport failure yields a
// failed Response and the wrapped error.
func (b *base) commit(ctx context.Context, action string, post map[string]any) (*adapter.Response, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("nexio: failed to encode %s request: %w", action, err)
	}

	ctx, span := b.tracer.Start(ctx, "nexio."+action, trace.WithAttributes(
		attribute.String("nexio.gateway", b.name),
		attribute.String("nexio.action", action),
	))
	defer span.End()

	start := time.Now()
	status, raw, err := b.send(ctx, http.MethodPost, b.commitURL(action), body)
	requestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	if err != nil {
		b.logger.Error("nexio request failed", slog.String("action", action), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		requestsTotal.WithLabelValues(action, outcomeNetworkError).Inc()
		return b.failure(adapter.ErrorCodeNetwork, err.Error()), fmt.Errorf("nexio: %s request failed: %w", action, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		b.logger.Error("nexio request rejected",
			slog.String("action", action),
			slog.Int("status", status),
			slog.String("body", string(raw)),
		)
		span.SetStatus(codes.Error, http.StatusText(status))
		requestsTotal.WithLabelValues(action, outcomeHTTPError).Inc()
		return b.errorResponse(status, raw), nil
	}

	payload, err := parse(raw)
	if err != nil {
		b.logger.Warn("nexio response is not a JSON object", slog.String("action", action), slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid response")
		requestsTotal.WithLabelValues(action, outcomeInvalidResponse).Inc()
		return b.failure(adapter.ErrorCodeInvalidResponse, ""), nil
	}

	success, err := b.policy.Success(action, payload)
	if err != nil {
		b.logger.Warn("nexio status rule failed", slog.String("action", action), slog.Any("error", err))
	}
	resp := b.normalize(payload, success)
	span.SetAttributes(attribute.Bool("nexio.success", success))
	if success {
		requestsTotal.WithLabelValues(action, outcomeSuccess).Inc()
	} else {
		requestsTotal.WithLabelValues(action, outcomeFailure).Inc()
	}
	return resp, nil
}

// get issues a read-only lookup and parses the body. Transport failures and
// non-2xx answers are errors; an unparseable 2xx body reads as an empty object.
func (b *base) get(ctx context.Context, path string) (map[string]any, error) {
	ctx, span := b.tracer.Start(ctx, "nexio.transaction", trace.WithAttributes(
		attribute.String("nexio.gateway", b.name),
	))
	defer span.End()

	status, raw, err := b.send(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("nexio: lookup returned HTTP %d: %s", status, string(raw))
	}
	payload, err := parse(raw)
	if err != nil {
		b.logger.Warn("nexio lookup body is not a JSON object", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid response")
		return map[string]any{}, nil
	}
	return payload, nil
}

func (b *base) send(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+b.cfg.AuthToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}
