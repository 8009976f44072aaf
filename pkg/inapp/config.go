package inapp

import (
	"context"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

// Config holds the collaborators and settings shared by every vendor
// adapter.
type Config struct {
	// Store persists the product cache and the ciphered stock snapshot.
	// Required.
	Store KeyValueStore

	// Device supplies key material for the stock cipher. If nil, a fixed
	// identity is used; stock snapshots are then portable between devices.
	Device DeviceIdentity

	// BundleID is the application identifier reported to remote receipt
	// validation.
	BundleID string

	// APIKey authenticates remote receipt validation calls. If empty, the
	// verification service's public demo key is used.
	APIKey string

	// Debug is forwarded to the remote verification service.
	Debug bool

	// VerifyURL overrides the remote verification endpoint. Defaults to
	// the hosted service.
	VerifyURL string

	// HTTPClient is used for remote receipt validation. If nil, a default
	// client with a 10s timeout is used. Allows custom timeouts, proxies,
	// or instrumentation.
	HTTPClient *http.Client

	// Context is the base context for vendor and network calls. Defaults
	// to context.Background().
	Context context.Context

	// Logger is used for structured logging (default: NoopLogger).
	Logger Logger

	// Metrics is used for tracking store operations (default: NoopMetrics).
	Metrics Metrics
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Device == nil {
		out.Device = defaultDeviceIdentity()
	}
	if out.VerifyURL == "" {
		out.VerifyURL = defaultVerifyURL
	}
	if out.APIKey == "" {
		out.APIKey = defaultAPIKey
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if out.Context == nil {
		out.Context = context.Background()
	}
	if out.Logger == nil {
		out.Logger = &NoopLogger{}
	}
	if out.Metrics == nil {
		out.Metrics = &NoopMetrics{}
	}
	return out
}
