package adapter

import (
	"time"
)

// OneTimeToken is a short-lived card token issued for the capture form.
type OneTimeToken struct {
	Token      string    `json:"token"`
	Expiration time.Time `json:"expiration"`
	FraudURL   string    `json:"fraud_url,omitempty"`
}

// TokenResult pairs the token call's Response with the decoded token.
// Token is nil unless Response.Success.
type TokenResult struct {
	Response *Response     `json:"response"`
	Token    *OneTimeToken `json:"token,omitempty"`
}

// APMToken is a one-time token for alternative payment methods. URL maps are
// keyed by payment method name.
type APMToken struct {
	Token        string            `json:"token"`
	IFrameURL    string            `json:"iframe_url,omitempty"`
	RedirectURLs map[string]string `json:"redirect_urls,omitempty"`
	ButtonURLs   map[string]string `json:"button_urls,omitempty"`
}

// APMTokenResult pairs the token call's Response with the decoded APM token.
type APMTokenResult struct {
	Response *Response `json:"response"`
	Token    *APMToken `json:"token,omitempty"`
}

// StoreResult pairs the saveCard Response with the stored card token.
// Token is empty unless Response.Success.
type StoreResult struct {
	Response *Response `json:"response"`
	Token    string    `json:"token,omitempty"`
}

// SecretResult pairs the secret Response with the webhook signing secret.
type SecretResult struct {
	Response *Response `json:"response"`
	Secret   string    `json:"secret,omitempty"`
}
