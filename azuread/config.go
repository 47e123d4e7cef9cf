package azuread

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultAuthority is the public Azure AD authority host. Sovereign clouds
// (government, China) use a different one, set with WithAuthority.
const DefaultAuthority = "https://login.microsoftonline.com"

// Config represents the configuration for one confidential client
// authenticating with certificate credentials.
type Config struct {
	// TenantID is the directory (tenant) the client belongs to. It selects
	// the token endpoint the assertion is bound to.
	TenantID string

	// ClientID is the application (client) ID. It becomes both the issuer
	// and the subject of every assertion.
	ClientID string

	// Scopes is a list of scopes to request of the token endpoint, e.g.
	// "https://graph.microsoft.com/.default". The fixed DefaultScopes are
	// always requested in addition to this list.
	Scopes []string

	// Certificate is the PEM-encoded x509 certificate registered with the
	// application. Its thumbprint and body are embedded in every assertion.
	Certificate []byte

	// PrivateKey is the PEM-encoded RSA private key matching Certificate.
	// It is used only for signing and is never transmitted.
	PrivateKey []byte

	// Authority is the authority base URL; DefaultAuthority if empty.
	Authority string

	// ProviderCA is an optional CA cert to use when sending requests to the
	// token endpoint.
	ProviderCA string
}

// NewConfig composes a new config for a provider.
// Supported options:
//
//	WithScopes
//	WithAuthority
//	WithProviderCA
func NewConfig(tenantID string, clientID string, certificate []byte, privateKey []byte, opt ...Option) (*Config, error) {
	const op = "azuread.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		TenantID:    tenantID,
		ClientID:    clientID,
		Certificate: certificate,
		PrivateKey:  privateKey,
		Scopes:      opts.withScopes,
		Authority:   opts.withAuthority,
		ProviderCA:  opts.withProviderCA,
	}
	if c.Authority == "" {
		c.Authority = DefaultAuthority
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the config. It verifies the identity and key material are
// present and the authority parses as an http(s) URL; it does not verify
// the certificate or key themselves, which happens when an assertion is
// built.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil: %w", ErrNilParameter)
	}
	if c.TenantID == "" {
		return fmt.Errorf("tenant id is empty: %w", ErrInvalidParameter)
	}
	if c.ClientID == "" {
		return fmt.Errorf("client id is empty: %w", ErrInvalidParameter)
	}
	if len(c.Certificate) == 0 {
		return fmt.Errorf("certificate is empty: %w", ErrInvalidParameter)
	}
	if len(c.PrivateKey) == 0 {
		return fmt.Errorf("private key is empty: %w", ErrInvalidParameter)
	}
	u, err := url.Parse(c.Authority)
	if err != nil {
		return fmt.Errorf("authority %s is invalid: %w", c.Authority, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("authority %s schema is not http or https: %w", c.Authority, ErrInvalidParameter)
	}
	return nil
}

// TokenEndpoint returns the v2.0 token endpoint URL for the configured
// tenant. The same URL is the audience claim of every assertion sent to it,
// which prevents replaying an assertion against a different endpoint.
func (c *Config) TokenEndpoint() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(c.Authority, "/"), c.TenantID)
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured, using the optional ProviderCA if provided, otherwise
// the installed system CA chain.
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	tr := cleanhttp.DefaultPooledTransport()

	if c.ProviderCA != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(c.ProviderCA)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs: certPool,
		}
	}

	return &http.Client{
		Transport: tr,
	}, nil
}

// configOptions is the set of available options
type configOptions struct {
	withScopes     []string
	withAuthority  string
	withProviderCA string
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithScopes provides an optional list of scopes for the config
func WithScopes(scopes []string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithAuthority provides an optional authority base URL for the config,
// overriding DefaultAuthority
func WithAuthority(authority string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAuthority = authority
		}
	}
}

// WithProviderCA provides an optional CA cert for the config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}
