package clientassertion

import "errors"

var (
	// these may happen due to user error

	ErrMissingClientID    = errors.New("missing client ID")
	ErrMissingAudience    = errors.New("missing audience")
	ErrInvalidCertificate = errors.New("invalid certificate")
	ErrInvalidPrivateKey  = errors.New("invalid private key")
	ErrUnsupportedKeyType = errors.New("unsupported private key type")
	ErrInvalidLifetime    = errors.New("invalid assertion lifetime")

	// if these happen, either the user directly instantiated &JWT{}
	// or there's a bug somewhere.

	ErrMissingFuncIDGenerator = errors.New("missing IDgen func; please use NewJWT()")
	ErrMissingFuncNow         = errors.New("missing now func; please use NewJWT()")

	// algorithm errors

	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrNilPrivateKey        = errors.New("nil private key")

	// signing primitive failure; the underlying cause is attached

	ErrSigningFailed = errors.New("signing failed")
)
