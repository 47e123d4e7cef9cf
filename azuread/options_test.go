package azuread

import (
	"testing"
)

func TestApplyOpts(t *testing.T) {
	// ApplyOpts testing is covered by other tests but we do have just more
	// more test to add here.
	// Let's make sure we don't panic on nil options
	anonymousOpts := struct {
		Names []string
	}{
		nil,
	}
	ApplyOpts(anonymousOpts, nil)

	// a nil Option mixed in must not drop the real ones
	opts := providerDefaults()
	ApplyOpts(&opts, nil, WithBaseScopes("openid"))
	if opts.withBaseScopes != "openid" {
		t.Fatalf("ApplyOpts() withBaseScopes = %q, want %q", opts.withBaseScopes, "openid")
	}
}
