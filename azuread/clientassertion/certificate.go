package clientassertion

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// Thumbprint computes the x5t header value for a PEM-encoded x509
// certificate: the base64url-encoded SHA-1 digest of the certificate's DER
// bytes. It is not a secret; the identity provider uses it to select which
// registered certificate to validate the assertion's signature against.
//
// Thumbprint is a pure function: the same certificate always yields the
// same thumbprint.
func Thumbprint(certPEM []byte) (string, error) {
	const op = "clientassertion.Thumbprint"
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sum := sha1.Sum(cert.Raw)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// NormalizeCertificate returns the x5c entry for a PEM-encoded x509
// certificate: the bare base64 DER payload with the PEM armor and all line
// breaks stripped, per RFC 7515 § 4.1.6.
func NormalizeCertificate(certPEM []byte) (string, error) {
	const op = "clientassertion.NormalizeCertificate"
	cert, err := parseCertificate(certPEM)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.StdEncoding.EncodeToString(cert.Raw), nil
}

func parseCertificate(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: no CERTIFICATE block in PEM input", ErrInvalidCertificate)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return cert, nil
}
