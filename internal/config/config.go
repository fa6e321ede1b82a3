// Package config loads the server settings from the environment, with an
// optional .env file layered underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/yourorg/nexio-gateway/internal/adapter/nexio"
)

const (
	EnvMerchantID  = "NEXIO_MERCHANT_ID"
	EnvAuthToken   = "NEXIO_AUTH_TOKEN"
	EnvTestMode    = "NEXIO_TEST_MODE"
	EnvBaseURL     = "NEXIO_BASE_URL"
	EnvHTTPTimeout = "NEXIO_HTTP_TIMEOUT"
	EnvServerPort  = "SERVER_PORT"
	EnvTraceStdout = "TRACE_STDOUT"
	EnvSchemaPath  = "REQUEST_SCHEMA_PATH"

	defaultPort        = "8080"
	defaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	Nexio  NexioConfig
	Server ServerConfig
}

type NexioConfig struct {
	MerchantID  string        `validate:"required"`
	AuthToken   string        `validate:"required"`
	Test        bool
	BaseURL     string        `validate:"omitempty,url"`
	HTTPTimeout time.Duration `validate:"gt=0"`
}

type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	TraceStdout bool
	SchemaPath  string `validate:"omitempty,file"` // Replaces the built-in request schema
}

var validate = validator.New()

// Load reads the given .env files (".env" when none are named) and then the
// process environment. Missing files are ignored. Variables already set in
// the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to load %s: %w", f, err)
		}
	}

	test, err := boolEnv(EnvTestMode, true)
	if err != nil {
		return nil, err
	}
	trace, err := boolEnv(EnvTraceStdout, false)
	if err != nil {
		return nil, err
	}
	timeout := defaultHTTPTimeout
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		if timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("config: invalid %s %q: %w", EnvHTTPTimeout, v, err)
		}
	}
	port := os.Getenv(EnvServerPort)
	if port == "" {
		port = defaultPort
	}

	return &Config{
		Nexio: NexioConfig{
			MerchantID:  os.Getenv(EnvMerchantID),
			AuthToken:   os.Getenv(EnvAuthToken),
			Test:        test,
			BaseURL:     os.Getenv(EnvBaseURL),
			HTTPTimeout: timeout,
		},
		Server: ServerConfig{
			Port:        port,
			TraceStdout: trace,
			SchemaPath:  os.Getenv(EnvSchemaPath),
		},
	}, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid configuration: %w", errors.Join(msgs...))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Credentials returns the gateway credentials.
func (n NexioConfig) Credentials() nexio.Config {
	return nexio.Config{MerchantID: n.MerchantID, AuthToken: n.AuthToken, Test: n.Test}
}

// GatewayOptions returns the transport options shared by both gateways.
func (n NexioConfig) GatewayOptions() []nexio.Option {
	opts := []nexio.Option{nexio.WithHTTPClient(&http.Client{Timeout: n.HTTPTimeout})}
	if n.BaseURL != "" {
		opts = append(opts, nexio.WithBaseURL(n.BaseURL))
	}
	return opts
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
