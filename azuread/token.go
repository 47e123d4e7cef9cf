package azuread

import (
	"encoding/json"
	"time"

	"golang.org/x/oauth2"
)

const expirySkew = 10 * time.Second

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// TokenResponse is the token endpoint's response to a successful client
// credentials exchange.
type TokenResponse struct {
	// TokenType is how the token may be presented, normally "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the token's remaining lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`

	// ExtExpiresIn supports Azure AD's resilience extension of the token
	// lifetime during provider outages
	ExtExpiresIn int64 `json:"ext_expires_in"`

	// AccessToken is the opaque bearer token
	AccessToken AccessToken `json:"access_token"`

	// receivedAt anchors ExpiresIn to the wall clock; set by the provider
	// when the response is decoded
	receivedAt time.Time
}

// Expiry returns the wall-clock time the access token expires, or the zero
// time for a response not produced by a Provider.
func (r *TokenResponse) Expiry() time.Time {
	if r.receivedAt.IsZero() {
		return time.Time{}
	}
	return r.receivedAt.Add(time.Duration(r.ExpiresIn) * time.Second)
}

func (r *TokenResponse) Expired() bool {
	expiry := r.Expiry()
	if expiry.IsZero() {
		return false
	}
	return expiry.Round(0).Before(time.Now().Add(expirySkew))
}

func (r *TokenResponse) Valid() bool {
	if r == nil {
		return false
	}
	if r.AccessToken == "" {
		return false
	}
	return !r.Expired()
}

// Token converts the response to an oauth2.Token for use with
// golang.org/x/oauth2 consumers.
func (r *TokenResponse) Token() *oauth2.Token {
	return &oauth2.Token{
		TokenType:   r.TokenType,
		AccessToken: string(r.AccessToken),
		Expiry:      r.Expiry(),
	}
}

// StaticTokenSource returns an oauth2.TokenSource that always returns this
// response's token. It performs no refresh; callers wanting a fresh token
// make another AcquireToken call.
func (r *TokenResponse) StaticTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(r.Token())
}
