package clientassertion

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
)

const (
	// JWTTypeParam is the proper value for client_assertion_type.
	// https://www.rfc-editor.org/rfc/rfc7523.html#section-2.2
	JWTTypeParam = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// DefaultLifetime is the default validity window of an assertion,
	// exp - nbf.
	DefaultLifetime = 10 * time.Minute
)

// NewJWT creates a new JWT bound to one client certificate and one audience,
// which must be the token endpoint the assertion will be presented to.
//
// Supported Options:
// * WithAlgorithm
// * WithLifetime
//
// The certificate and private key are PEM encoded, and the key must be the
// RSA key matching the certificate.
func NewJWT(clientID string, audience string, certificate []byte, privateKey []byte, opt ...Option) (*JWT, error) {
	const op = "clientassertion.NewJWT"
	j := &JWT{
		clientID: clientID,
		audience: audience,
		alg:      RS256,
		lifetime: DefaultLifetime,
		genID:    uuid.GenerateUUID,
		now:      time.Now,
	}

	var errs *multierror.Error
	for _, o := range opt {
		if err := o(j); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	thumbprint, err := Thumbprint(certificate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	normalized, err := NormalizeCertificate(certificate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	key, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	j.thumbprint = thumbprint
	j.certificate = normalized
	j.key = key

	if err := j.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return j, nil
}

// JWT is used to create a client assertion JWT, a special JWT an OAuth 2.0
// confidential client signs with its certificate's private key to
// authenticate itself to an authorization server.
type JWT struct {
	// for JWT claims
	clientID string
	audience string
	lifetime time.Duration

	// for the JWT header
	thumbprint  string // x5t
	certificate string // the single x5c entry

	// for the signature
	alg RSAlgorithm
	key *rsa.PrivateKey

	// these are overwritten for testing
	genID func() (string, error)
	now   func() time.Time
}

// header is the JWT protected header. Azure AD looks up the client's
// registered certificate via x5t/x5c, so there is no kid.
type header struct {
	Alg string   `json:"alg"`
	X5t string   `json:"x5t"`
	X5c []string `json:"x5c"`
}

type claims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	Audience  string `json:"aud"`
	NotBefore int64  `json:"nbf"`
	Expiry    int64  `json:"exp"`
	ID        string `json:"jti"`
}

// Serialize returns the compact three-segment client assertion:
// base64url(header).base64url(claims).base64url(signature). Each call
// produces a fresh jti and validity window, so repeated assertions never
// replay one another.
func (j *JWT) Serialize() (string, error) {
	const op = "JWT.Serialize"
	if err := j.validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := j.genID()
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate token id: %w", op, err)
	}

	headerJSON, err := json.Marshal(j.header())
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize header: %w", op, err)
	}
	claimsJSON, err := json.Marshal(j.claims(id))
	if err != nil {
		return "", fmt.Errorf("%s: failed to serialize claims: %w", op, err)
	}

	signingInput := encodeSegment(headerJSON) + "." + encodeSegment(claimsJSON)

	hash := j.alg.hash()
	hasher := hash.New()
	hasher.Write([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, j.key, hash, hasher.Sum(nil))
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrSigningFailed, err)
	}

	return signingInput + "." + encodeSegment(signature), nil
}

func (j *JWT) validate() error {
	const op = "JWT.validate"
	var errs *multierror.Error
	if j.genID == nil {
		errs = multierror.Append(errs, ErrMissingFuncIDGenerator)
	}
	if j.now == nil {
		errs = multierror.Append(errs, ErrMissingFuncNow)
	}
	// bail early if any internal func errors
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if j.clientID == "" {
		errs = multierror.Append(errs, ErrMissingClientID)
	}
	if j.audience == "" {
		errs = multierror.Append(errs, ErrMissingAudience)
	}
	if err := j.alg.Validate(j.key); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (j *JWT) header() header {
	return header{
		Alg: string(j.alg),
		X5t: j.thumbprint,
		X5c: []string{j.certificate},
	}
}

func (j *JWT) claims(id string) claims {
	nbf := j.now().UTC().Unix()
	return claims{
		Issuer:    j.clientID,
		Subject:   j.clientID,
		Audience:  j.audience,
		NotBefore: nbf,
		Expiry:    nbf + int64(j.lifetime/time.Second),
		ID:        id,
	}
}

// encodeSegment encodes one compact serialization segment as unpadded
// base64url, per RFC 7515 § 3.1.
func encodeSegment(seg []byte) string {
	return base64.RawURLEncoding.EncodeToString(seg)
}

// parsePrivateKey accepts a PKCS#1 or PKCS#8 PEM-encoded RSA private key.
func parsePrivateKey(keyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block in private key input", ErrInvalidPrivateKey)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return rsaKey, nil
}

// serializer is the primary interface implemented by JWT.
type serializer interface {
	Serialize() (string, error)
}

var _ serializer = &JWT{}
