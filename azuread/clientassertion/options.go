package clientassertion

import (
	"fmt"
	"time"
)

// Option configures the JWT
type Option func(*JWT) error

// WithAlgorithm sets the RSA signing algorithm. The default is RS256.
func WithAlgorithm(alg RSAlgorithm) Option {
	return func(j *JWT) error {
		switch alg {
		case RS256, RS384, RS512:
			j.alg = alg
			return nil
		default:
			return fmt.Errorf("%w %q", ErrUnsupportedAlgorithm, alg)
		}
	}
}

// WithLifetime sets the assertion's validity window (exp - nbf). The
// default is DefaultLifetime.
func WithLifetime(d time.Duration) Option {
	return func(j *JWT) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidLifetime, d)
		}
		j.lifetime = d
		return nil
	}
}
