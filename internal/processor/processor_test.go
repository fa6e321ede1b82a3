package processor_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	adaptermock "github.com/yourorg/nexio-gateway/internal/adapter/mock"
	"github.com/yourorg/nexio-gateway/internal/adapter/nexio"
	"github.com/yourorg/nexio-gateway/internal/card"
	"github.com/yourorg/nexio-gateway/internal/processor"
	"github.com/yourorg/nexio-gateway/internal/transaction"
)

func newProcessor(gateways ...adapter.Gateway) *processor.Processor {
	registry := map[string]adapter.Gateway{}
	for _, g := range gateways {
		registry[g.Name()] = g
	}
	return processor.NewProcessor(registry)
}

func TestNewProcessor_NilRegistryPanics(t *testing.T) {
	assert.Panics(t, func() { processor.NewProcessor(nil) })
}

func TestProcessor_Gateways(t *testing.T) {
	proc := newProcessor(adaptermock.NewMockGateway("nexio_apm"), adaptermock.NewMockGateway("nexio"))
	assert.Equal(t, []string{"nexio", "nexio_apm"}, proc.Gateways())
}

func TestParseAction(t *testing.T) {
	a, err := processor.ParseAction("generate_token")
	require.NoError(t, err)
	assert.Equal(t, processor.ActionGenerateToken, a)

	_, err = processor.ParseAction("teleport")
	assert.ErrorIs(t, err, processor.ErrUnsupportedAction)
}

func TestProcessor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownGateway", func(t *testing.T) {
		proc := newProcessor(adaptermock.NewMockGateway("nexio"))
		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "stripe", Action: processor.ActionVoid, Authorization: "x"})
		assert.ErrorIs(t, err, processor.ErrUnknownGateway)
	})

	t.Run("Purchase", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		var gotMoney int64
		var gotSource adapter.PaymentSource
		mockGateway.PurchaseFunc = func(ctx context.Context, money int64, source adapter.PaymentSource, opts adapter.Options) (*adapter.Response, error) {
			gotMoney, gotSource = money, source
			assert.Equal(t, "USD", opts.Currency)
			return &adapter.Response{Success: true, Authorization: "tx_1", Params: map[string]any{}}, nil
		}
		proc := newProcessor(mockGateway)

		res, err := proc.Execute(ctx, processor.ActionRequest{
			Gateway: "nexio",
			Action:  processor.ActionPurchase,
			Amount:  1050,
			Source:  &processor.SourceSpec{Type: processor.SourceToken, Token: "tok_1"},
			Options: adapter.Options{Currency: "USD"},
		})
		require.NoError(t, err)
		assert.Equal(t, "nexio", res.Gateway)
		assert.Equal(t, processor.ActionPurchase, res.Action)
		assert.Equal(t, "tx_1", res.Response.Authorization)
		assert.Equal(t, int64(1050), gotMoney)
		assert.Equal(t, adapter.Token("tok_1"), gotSource)
	})

	t.Run("PurchaseWithoutSource", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		proc := newProcessor(mockGateway)
		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionPurchase, Amount: 100})
		assert.ErrorIs(t, err, processor.ErrMissingParameter)
		assert.Empty(t, mockGateway.Calls())
	})

	t.Run("InvalidSource", func(t *testing.T) {
		proc := newProcessor(adaptermock.NewMockGateway("nexio"))
		_, err := proc.Execute(ctx, processor.ActionRequest{
			Gateway: "nexio", Action: processor.ActionPurchase, Amount: 100,
			Source: &processor.SourceSpec{Type: "bitcoin"},
		})
		assert.ErrorIs(t, err, processor.ErrInvalidSource)
	})

	t.Run("FollowUpActionsNeedAuthorization", func(t *testing.T) {
		proc := newProcessor(adaptermock.NewMockGateway("nexio"))
		for _, action := range []processor.Action{processor.ActionCapture, processor.ActionRefund, processor.ActionCredit, processor.ActionVoid} {
			_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: action, Amount: 100})
			assert.ErrorIs(t, err, processor.ErrMissingParameter, action)
		}
	})

	t.Run("FollowUpActionsDispatch", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		proc := newProcessor(mockGateway)
		for _, action := range []processor.Action{processor.ActionCapture, processor.ActionRefund, processor.ActionCredit, processor.ActionVoid} {
			res, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: action, Amount: 100, Authorization: "tx_1"})
			require.NoError(t, err, action)
			assert.Equal(t, "tx_1", res.Response.Authorization)
		}
		assert.Equal(t, []string{"Capture", "Refund", "Refund", "Void"}, mockGateway.Calls())
	})

	t.Run("AuthorizeVerifyStore", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		proc := newProcessor(mockGateway)
		source := &processor.SourceSpec{Type: processor.SourceStoredCard, StoredCard: &adapter.StoredCard{ProfileID: "prof_1"}}

		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionAuthorize, Amount: 100, Source: source})
		require.NoError(t, err)
		_, err = proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionVerify, Source: source})
		require.NoError(t, err)
		res, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionStore, Source: source})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)

		assert.Equal(t, []string{"Authorize", "Verify", "Store"}, mockGateway.Calls())
	})

	t.Run("GatewayErrorWithoutResponse", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		boom := errors.New("boom")
		mockGateway.StoreFunc = func(ctx context.Context, source adapter.PaymentSource, opts adapter.Options) (*adapter.StoreResult, error) {
			return nil, boom
		}
		proc := newProcessor(mockGateway)

		res, err := proc.Execute(ctx, processor.ActionRequest{
			Gateway: "nexio", Action: processor.ActionStore,
			Source: &processor.SourceSpec{Type: processor.SourceEncryptedCard, EncryptedCard: &card.EncryptedCard{}},
		})
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, res)
	})

	t.Run("GatewayErrorWithResponse", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		netErr := errors.New("connection reset")
		mockGateway.CaptureFunc = func(ctx context.Context, money int64, authorization string) (*adapter.Response, error) {
			return &adapter.Response{ErrorCode: adapter.ErrorCodeNetwork, Params: map[string]any{}}, netErr
		}
		proc := newProcessor(mockGateway)

		res, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionCapture, Authorization: "tx_1"})
		assert.ErrorIs(t, err, netErr)
		require.NotNil(t, res)
		assert.Equal(t, adapter.ErrorCodeNetwork, res.Response.ErrorCode)
	})

	t.Run("Webhooks", func(t *testing.T) {
		mockGateway := adaptermock.NewMockGateway("nexio")
		var got []adapter.Webhooks
		mockGateway.SetWebhooksFunc = func(ctx context.Context, hooks adapter.Webhooks) (*adapter.Response, error) {
			got = append(got, hooks)
			return &adapter.Response{Success: true, Params: map[string]any{}}, nil
		}
		proc := newProcessor(mockGateway)

		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionSetWebhooks, WebhookURL: "https://shop/h"})
		require.NoError(t, err)
		_, err = proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionSetWebhooks, Webhooks: &adapter.Webhooks{Settled: "https://shop/s"}})
		require.NoError(t, err)
		_, err = proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionSetWebhooks})
		assert.ErrorIs(t, err, processor.ErrMissingParameter)

		require.Len(t, got, 2)
		assert.Equal(t, adapter.AllWebhooks("https://shop/h"), got[0])
		assert.Equal(t, adapter.Webhooks{Settled: "https://shop/s"}, got[1])
	})

	t.Run("SecretAndCardToken", func(t *testing.T) {
		proc := newProcessor(adaptermock.NewMockGateway("nexio"))

		res, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionSecret})
		require.NoError(t, err)
		assert.Equal(t, "mock_secret", res.Secret)

		res, err = proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: processor.ActionGenerateToken})
		require.NoError(t, err)
		require.NotNil(t, res.OneTimeToken)
		assert.Nil(t, res.APMToken)
	})

	t.Run("UnknownAction", func(t *testing.T) {
		proc := newProcessor(adaptermock.NewMockGateway("nexio"))
		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio", Action: "teleport"})
		assert.ErrorIs(t, err, processor.ErrUnsupportedAction)
	})
}

// The APM gateway has no authorize, verify or store; token requests carry the amount.
func TestProcessor_Execute_APMGateway(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		assert.Equal(t, "/apm/v3/token", r.URL.Path)
		_, _ = io.WriteString(w, `{"token":"apm_1","expressIFrameUrl":"https://iframe"}`)
	}))
	defer server.Close()

	apm, err := nexio.NewAPMGateway(nexio.Config{MerchantID: "m", AuthToken: "a", Test: true},
		nexio.WithHTTPClient(server.Client()),
		nexio.WithBaseURL(server.URL),
		nexio.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	proc := newProcessor(apm)
	ctx := context.Background()

	res, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio_apm", Action: processor.ActionGenerateToken, Amount: 1999})
	require.NoError(t, err)
	require.NotNil(t, res.APMToken)
	assert.Equal(t, "apm_1", res.APMToken.Token)
	assert.Equal(t, "https://iframe", res.APMToken.IFrameURL)
	assert.Nil(t, res.OneTimeToken)
	assert.Equal(t, 19.99, body["data"].(map[string]any)["amount"])

	source := &processor.SourceSpec{Type: processor.SourceToken, Token: "apm_1"}
	for _, action := range []processor.Action{processor.ActionAuthorize, processor.ActionVerify, processor.ActionStore} {
		_, err := proc.Execute(ctx, processor.ActionRequest{Gateway: "nexio_apm", Action: action, Amount: 100, Source: source})
		assert.ErrorIs(t, err, processor.ErrUnsupportedAction, action)
	}

	_, err = proc.Transaction(ctx, "nexio_apm", "tx_1")
	assert.ErrorIs(t, err, processor.ErrUnsupportedAction)
}

func TestProcessor_Transaction(t *testing.T) {
	mockGateway := adaptermock.NewMockGateway("nexio")
	mockGateway.TransactionFunc = func(ctx context.Context, id string) *transaction.Transaction {
		if id == "tx_1" {
			return transaction.New(map[string]any{"id": id, "transactionStatus": "authOnly"})
		}
		return nil
	}
	proc := newProcessor(mockGateway)
	ctx := context.Background()

	tx, err := proc.Transaction(ctx, "nexio", "tx_1")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, transaction.StatusAuthOnly, tx.Status())

	tx, err = proc.Transaction(ctx, "nexio", "tx_missing")
	require.NoError(t, err)
	assert.Nil(t, tx)

	_, err = proc.Transaction(ctx, "unknown", "tx_1")
	assert.ErrorIs(t, err, processor.ErrUnknownGateway)
}
