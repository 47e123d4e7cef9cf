package clientassertion

import (
	"crypto"
	"crypto/rsa"
	"fmt"

	// register the digests RSAlgorithm.hash can return
	_ "crypto/sha256"
	_ "crypto/sha512"
)

// RSAlgorithm is an RSA signature algorithm
type RSAlgorithm string

// JOSE asymmetric signing algorithm values as defined by RFC 7518.
// See: https://tools.ietf.org/html/rfc7518#section-3.1
const (
	RS256 RSAlgorithm = "RS256" // RSASSA-PKCS-v1.5 using SHA-256
	RS384 RSAlgorithm = "RS384" // RSASSA-PKCS-v1.5 using SHA-384
	RS512 RSAlgorithm = "RS512" // RSASSA-PKCS-v1.5 using SHA-512
)

// Validate checks that the key is a supported algorithm and is valid per
// rsa.PrivateKey's Validate() method.
func (a RSAlgorithm) Validate(key *rsa.PrivateKey) error {
	const op = "RSAlgorithm.Validate"
	if key == nil {
		return fmt.Errorf("%s: %w", op, ErrNilPrivateKey)
	}
	switch a {
	case RS256, RS384, RS512:
		if err := key.Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	default:
		return fmt.Errorf("%s: %w %q for RSA key", op, ErrUnsupportedAlgorithm, a)
	}
}

// hash returns the digest the algorithm signs over.
func (a RSAlgorithm) hash() crypto.Hash {
	switch a {
	case RS384:
		return crypto.SHA384
	case RS512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}
