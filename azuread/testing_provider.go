package azuread

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTokenResponse is the default body a TestProvider replies with.
const TestTokenResponse = `{"token_type":"Bearer","expires_in":3599,"ext_expires_in":3599,"access_token":"test-access-token"}`

// TestProvider is a local HTTP server that stands in for a tenant's token
// endpoint in tests. It records every request it receives and replies with a
// settable canned response.
type TestProvider struct {
	httpServer *httptest.Server
	t          *testing.T

	mu           sync.Mutex
	responseCode int
	responseBody string
	requestCount int
	lastForm     url.Values
	lastPath     string
}

// StartTestProvider starts a TestProvider which responds to every POST with
// a successful token response until SetResponse overrides it. The server is
// stopped via t.Cleanup.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	p := &TestProvider{
		t:            t,
		responseCode: http.StatusOK,
		responseBody: TestTokenResponse,
	}
	p.httpServer = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.Stop)
	return p
}

// Addr returns the provider's base URL, suitable as a Config's Authority.
func (p *TestProvider) Addr() string {
	return p.httpServer.URL
}

// SetResponse sets the status code and body returned for subsequent token
// requests.
func (p *TestProvider) SetResponse(statusCode int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseCode = statusCode
	p.responseBody = body
}

// RequestCount returns the number of token requests received.
func (p *TestProvider) RequestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestCount
}

// LastForm returns the form fields of the most recent token request.
func (p *TestProvider) LastForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastForm
}

// LastPath returns the URL path of the most recent token request.
func (p *TestProvider) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPath
}

// Stop stops the provider's http server.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

func (p *TestProvider) handle(w http.ResponseWriter, req *http.Request) {
	p.t.Helper()
	require := require.New(p.t)

	require.Equal(http.MethodPost, req.Method)
	require.NoError(req.ParseForm())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestCount++
	p.lastForm = req.PostForm
	p.lastPath = req.URL.Path

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.responseCode)
	_, _ = w.Write([]byte(p.responseBody))
}
