// Package processor dispatches host requests to the registered gateways.
package processor

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/transaction"
)

var (
	ErrUnknownGateway    = errors.New("processor: unknown gateway")
	ErrUnsupportedAction = errors.New("processor: unsupported action")
	ErrInvalidSource     = errors.New("processor: invalid payment source")
	ErrMissingParameter  = errors.New("processor: missing required parameter")
)

// Action names accepted by Execute.
type Action string

const (
	ActionPurchase      Action = "purchase"
	ActionAuthorize     Action = "authorize"
	ActionCapture       Action = "capture"
	ActionRefund        Action = "refund"
	ActionCredit        Action = "credit"
	ActionVoid          Action = "void"
	ActionVerify        Action = "verify"
	ActionStore         Action = "store"
	ActionGenerateToken Action = "generate_token"
	ActionSetWebhooks   Action = "set_webhooks"
	ActionSecret        Action = "secret"
)

var knownActions = []Action{
	ActionPurchase, ActionAuthorize, ActionCapture, ActionRefund, ActionCredit, ActionVoid,
	ActionVerify, ActionStore, ActionGenerateToken, ActionSetWebhooks, ActionSecret,
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !slices.Contains(knownActions, a) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAction, s)
	}
	return a, nil
}

// ActionRequest is one host call. Which fields matter depends on Action.
type ActionRequest struct {
	Gateway       string            `json:"-"`
	Action        Action            `json:"-"`
	Amount        int64             `json:"amount,omitempty"` // Minor units
	Authorization string            `json:"authorization,omitempty"`
	Source        *SourceSpec       `json:"source,omitempty"`
	Options       adapter.Options   `json:"options"`
	Webhooks      *adapter.Webhooks `json:"webhooks,omitempty"`
	WebhookURL    string            `json:"webhook_url,omitempty"` // Same URL for every event
}

// Result is the outcome of Execute. Response is always set when err is nil;
// the other fields depend on the action.
type Result struct {
	Gateway      string                `json:"gateway"`
	Action       Action                `json:"action"`
	Response     *adapter.Response     `json:"response"`
	Token        string                `json:"token,omitempty"`
	OneTimeToken *adapter.OneTimeToken `json:"one_time_token,omitempty"`
	APMToken     *adapter.APMToken     `json:"apm_token,omitempty"`
	Secret       string                `json:"secret,omitempty"`
}

// Processor selects the gateway for a request and calls the matching operation.
type Processor struct {
	registry map[string]adapter.Gateway
}

// NewProcessor creates a new Processor with a given gateway registry.
func NewProcessor(registry map[string]adapter.Gateway) *Processor {
	if registry == nil {
		panic("gateway registry cannot be nil")
	}
	return &Processor{registry: registry}
}

// Gateways returns the registered gateway names, sorted.
func (p *Processor) Gateways() []string {
	names := maps.Keys(p.registry)
	slices.Sort(names)
	return names
}

func (p *Processor) gateway(name string) (adapter.Gateway, error) {
	gw, ok := p.registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return gw, nil
}

// Execute runs req against its gateway. Errors from the gateway are returned
// with whatever partial result it produced.
func (p *Processor) Execute(ctx context.Context, req ActionRequest) (*Result, error) {
	gw, err := p.gateway(req.Gateway)
	if err != nil {
		return nil, err
	}
	source, err := req.Source.PaymentSource()
	if err != nil {
		return nil, err
	}

	res := &Result{Gateway: gw.Name(), Action: req.Action}
	unsupported := fmt.Errorf("%w: %s does not support %s", ErrUnsupportedAction, req.Gateway, req.Action)

	switch req.Action {
	case ActionPurchase:
		if source == nil {
			return nil, missing("source")
		}
		res.Response, err = gw.Purchase(ctx, req.Amount, source, req.Options)

	case ActionAuthorize:
		a, ok := gw.(adapter.Authorizer)
		if !ok {
			return nil, unsupported
		}
		if source == nil {
			return nil, missing("source")
		}
		res.Response, err = a.Authorize(ctx, req.Amount, source, req.Options)

	case ActionCapture, ActionRefund, ActionCredit, ActionVoid:
		if req.Authorization == "" {
			return nil, missing("authorization")
		}
		switch req.Action {
		case ActionCapture:
			res.Response, err = gw.Capture(ctx, req.Amount, req.Authorization)
		case ActionVoid:
			res.Response, err = gw.Void(ctx, req.Authorization)
		default:
			res.Response, err = gw.Refund(ctx, req.Amount, req.Authorization)
		}

	case ActionVerify:
		v, ok := gw.(adapter.Verifier)
		if !ok {
			return nil, unsupported
		}
		if source == nil {
			return nil, missing("source")
		}
		res.Response, err = v.Verify(ctx, source, req.Options)

	case ActionStore:
		s, ok := gw.(adapter.CardStorer)
		if !ok {
			return nil, unsupported
		}
		var stored *adapter.StoreResult
		stored, err = s.Store(ctx, source, req.Options)
		if stored != nil {
			res.Response, res.Token = stored.Response, stored.Token
		}

	case ActionGenerateToken:
		switch t := gw.(type) {
		case adapter.CardTokenizer:
			var tok *adapter.TokenResult
			tok, err = t.GenerateToken(ctx, req.Options)
			if tok != nil {
				res.Response, res.OneTimeToken = tok.Response, tok.Token
			}
		case adapter.APMTokenizer:
			var tok *adapter.APMTokenResult
			tok, err = t.GenerateToken(ctx, req.Amount, req.Options)
			if tok != nil {
				res.Response, res.APMToken = tok.Response, tok.Token
			}
		default:
			return nil, unsupported
		}

	case ActionSetWebhooks:
		hooks := adapter.AllWebhooks(req.WebhookURL)
		if req.Webhooks != nil {
			hooks = *req.Webhooks
		} else if req.WebhookURL == "" {
			return nil, missing("webhooks")
		}
		res.Response, err = gw.SetWebhooks(ctx, hooks)

	case ActionSecret:
		var sec *adapter.SecretResult
		sec, err = gw.Secret(ctx)
		if sec != nil {
			res.Response, res.Secret = sec.Response, sec.Secret
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, req.Action)
	}

	if res.Response == nil {
		return nil, err
	}
	return res, err
}

// Transaction looks a transaction up. A nil Transaction with a nil error
// means the gateway could not find or fetch it.
func (p *Processor) Transaction(ctx context.Context, gateway, id string) (*transaction.Transaction, error) {
	gw, err := p.gateway(gateway)
	if err != nil {
		return nil, err
	}
	f, ok := gw.(adapter.TransactionFetcher)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support transaction lookups", ErrUnsupportedAction, gateway)
	}
	return f.Transaction(ctx, id), nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingParameter, field)
}
