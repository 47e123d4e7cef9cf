package azuread

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/confcred/confcred/azuread/clientassertion"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultScopes are requested of the token endpoint ahead of any
	// scopes from the config. This is deliberate client policy, not a
	// pass-through of caller input; WithBaseScopes overrides it.
	DefaultScopes = "openid profile offline_access"

	grantType = "client_credentials"
)

// Provider performs the client credentials token exchange for one
// confidential client. It holds no state across calls; concurrent
// AcquireToken calls are independent.
type Provider struct {
	config *Config
	client *http.Client
	logger hclog.Logger

	// lifetime is the validity window of each assertion
	lifetime time.Duration

	// baseScopes are requested ahead of the config's scopes
	baseScopes string
}

// NewProvider creates and initializes a Provider for the client credentials
// flow. Unlike an authorization code provider there is no discovery request;
// the token endpoint is derived from the config's authority and tenant.
//
// Supported options:
//
//	WithLogger
//	WithHTTPClient
//	WithAssertionLifetime
func NewProvider(c *Config, opt ...Option) (*Provider, error) {
	const op = "azuread.NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: provider config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: provider config is invalid: %w", op, err)
	}
	opts := getProviderOpts(opt...)

	client := opts.withHTTPClient
	if client == nil {
		var err error
		client, err = c.HTTPClient()
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
		}
	}
	logger := opts.withLogger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Provider{
		config:     c,
		client:     client,
		logger:     logger,
		lifetime:   opts.withAssertionLifetime,
		baseScopes: opts.withBaseScopes,
	}, nil
}

// ClientAssertion builds and signs a fresh client assertion bound to the
// provider's token endpoint. No network I/O is performed. Each call produces
// a new jti and validity window.
func (p *Provider) ClientAssertion() (string, error) {
	const op = "Provider.ClientAssertion"
	j, err := clientassertion.NewJWT(
		p.config.ClientID,
		p.config.TokenEndpoint(),
		p.config.Certificate,
		p.config.PrivateKey,
		clientassertion.WithLifetime(p.lifetime),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	assertion, err := j.Serialize()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return assertion, nil
}

// AcquireToken requests an access token from the tenant's token endpoint,
// authenticating with a freshly built client assertion. Certificate and key
// failures are returned before any network call is made. The single POST is
// issued with ctx, so cancellation aborts the in-flight request; there is no
// retry and the response is not cached.
//
// A response body that doesn't parse as a token response - including
// provider error payloads - is returned as a *ResponseDecodeError carrying
// the raw body, so callers can diagnose the failure.
func (p *Provider) AcquireToken(ctx context.Context) (*TokenResponse, error) {
	const op = "Provider.AcquireToken"
	assertion, err := p.ClientAssertion()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	form := url.Values{
		"client_assertion_type": {clientassertion.JWTTypeParam},
		"grant_type":            {grantType},
		"scope":                 {p.scope()},
		"client_assertion":      {assertion},
		"client_id":             {p.config.ClientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create token request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: token request failed: %w", op, err)
	}
	defer resp.Body.Close()

	// read the whole body regardless of status; error payloads are
	// diagnosed from the body, not the status code
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read token response: %w", op, err)
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		p.logger.Error("failed to decode token response", "status", resp.StatusCode, "error", err, "response", string(body))
		return nil, fmt.Errorf("%s: %w", op, &ResponseDecodeError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			err:        err,
		})
	}
	if tr.AccessToken == "" {
		// a provider error payload like {"error": ..., "error_description":
		// ...} unmarshals cleanly into TokenResponse with every field zero,
		// so an empty access_token is a decode failure too
		p.logger.Error("token response missing access_token", "status", resp.StatusCode, "response", string(body))
		return nil, fmt.Errorf("%s: %w", op, &ResponseDecodeError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			err:        ErrMissingAccessToken,
		})
	}
	tr.receivedAt = time.Now()
	return &tr, nil
}

// scope returns the space-delimited scope parameter: the provider's base
// scopes followed by the config's scopes.
func (p *Provider) scope() string {
	scopes := make([]string, 0, len(p.config.Scopes)+1)
	if p.baseScopes != "" {
		scopes = append(scopes, p.baseScopes)
	}
	scopes = append(scopes, p.config.Scopes...)
	return strings.Join(scopes, " ")
}

// providerOptions is the set of available options
type providerOptions struct {
	withLogger            hclog.Logger
	withHTTPClient        *http.Client
	withAssertionLifetime time.Duration
	withBaseScopes        string
}

// providerDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func providerDefaults() providerOptions {
	return providerOptions{
		withAssertionLifetime: clientassertion.DefaultLifetime,
		withBaseScopes:        DefaultScopes,
	}
}

// getProviderOpts gets the defaults and applies the opt overrides passed in.
func getProviderOpts(opt ...Option) providerOptions {
	opts := providerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger used to emit a diagnostic trace
// when a token response fails to decode
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withLogger = l
		}
	}
}

// WithHTTPClient provides an optional http client, overriding the one the
// config would build
func WithHTTPClient(c *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withHTTPClient = c
		}
	}
}

// WithBaseScopes provides an optional replacement for the fixed
// DefaultScopes requested ahead of the config's scopes. An empty string
// drops the base scopes entirely.
func WithBaseScopes(scopes string) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withBaseScopes = scopes
		}
	}
}

// WithAssertionLifetime provides an optional validity window for the
// provider's assertions, overriding clientassertion.DefaultLifetime
func WithAssertionLifetime(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*providerOptions); ok {
			o.withAssertionLifetime = d
		}
	}
}
