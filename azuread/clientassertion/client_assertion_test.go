package clientassertion

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2/jwt"
)

// testGenerateCertKey generates an RSA key pair of the given bit size and a
// matching self-signed certificate, PEM encoded.
func testGenerateCertKey(t *testing.T, bits int) (certPEM, keyPEM []byte, key *rsa.PrivateKey) {
	t.Helper()
	require := require.New(t)

	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(err)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	require.NoError(err)

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"Acme Co"},
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(2 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, key
}

func testDecodeSegment(t *testing.T, seg string, into interface{}) {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, into))
}

const (
	testClientID = "064b969a-ed15-42fa-9044-f08081163a67"
	testAudience = "https://login.microsoftonline.com/72f988bf-86f1-41af-91ab-2d7cd011db47/oauth2/v2.0/token"
)

// TestJWTBare tests what errors we expect if &JWT{} is instantiated
// directly, rather than using the constructor NewJWT().
func TestJWTBare(t *testing.T) {
	j := &JWT{}
	tokenStr, err := j.Serialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFuncIDGenerator))
	assert.True(t, errors.Is(err, ErrMissingFuncNow))
	assert.Equal(t, "", tokenStr)
}

func TestNewJWT(t *testing.T) {
	certPEM, keyPEM, _ := testGenerateCertKey(t, 2048)

	t.Run("defaults", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)
		require.NotNil(j)
		assert.Equal(testClientID, j.clientID)
		assert.Equal(testAudience, j.audience)
		assert.Equal(RS256, j.alg)
		assert.Equal(DefaultLifetime, j.lifetime)

		thumbprint, err := Thumbprint(certPEM)
		require.NoError(err)
		assert.Equal(thumbprint, j.thumbprint)

		normalized, err := NormalizeCertificate(certPEM)
		require.NoError(err)
		assert.Equal(normalized, j.certificate)
	})

	t.Run("with options", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM,
			WithAlgorithm(RS384),
			WithLifetime(5*time.Minute),
		)
		require.NoError(err)
		assert.Equal(RS384, j.alg)
		assert.Equal(5*time.Minute, j.lifetime)
	})

	cases := []struct {
		name string
		cid  string
		aud  string
		cert []byte
		key  []byte
		opts []Option
		err  error
	}{
		{
			name: "missing client id",
			aud:  testAudience, cert: certPEM, key: keyPEM,
			err: ErrMissingClientID,
		},
		{
			name: "missing audience",
			cid:  testClientID, cert: certPEM, key: keyPEM,
			err: ErrMissingAudience,
		},
		{
			name: "malformed certificate",
			cid:  testClientID, aud: testAudience,
			cert: []byte("not a certificate"), key: keyPEM,
			err: ErrInvalidCertificate,
		},
		{
			name: "malformed private key",
			cid:  testClientID, aud: testAudience,
			cert: certPEM, key: []byte("not a key"),
			err: ErrInvalidPrivateKey,
		},
		{
			name: "unsupported algorithm option",
			cid:  testClientID, aud: testAudience,
			cert: certPEM, key: keyPEM,
			opts: []Option{WithAlgorithm("ES256")},
			err:  ErrUnsupportedAlgorithm,
		},
		{
			name: "non-positive lifetime",
			cid:  testClientID, aud: testAudience,
			cert: certPEM, key: keyPEM,
			opts: []Option{WithLifetime(0)},
			err:  ErrInvalidLifetime,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j, err := NewJWT(tc.cid, tc.aud, tc.cert, tc.key, tc.opts...)
			require.Error(t, err)
			assert.Truef(t, errors.Is(err, tc.err), "wanted \"%s\" but got \"%s\"", tc.err, err)
			assert.Nil(t, j)
		})
	}

	t.Run("non-rsa private key", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(err)
		der, err := x509.MarshalPKCS8PrivateKey(ecKey)
		require.NoError(err)
		ecPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

		j, err := NewJWT(testClientID, testAudience, certPEM, ecPEM)
		require.Error(err)
		assert.True(errors.Is(err, ErrUnsupportedKeyType))
		assert.Nil(j)
	})
}

func TestSerialize(t *testing.T) {
	certPEM, keyPEM, key := testGenerateCertKey(t, 2048)

	t.Run("compact form and header", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)

		now := time.Now()
		j.now = func() time.Time { return now }
		j.genID = func() (string, error) { return "test-claim-id", nil }

		token, err := j.Serialize()
		require.NoError(err)

		segments := strings.Split(token, ".")
		require.Len(segments, 3)
		for _, seg := range segments {
			assert.NotEmpty(seg)
		}

		var hdr struct {
			Alg string   `json:"alg"`
			X5t string   `json:"x5t"`
			X5c []string `json:"x5c"`
		}
		testDecodeSegment(t, segments[0], &hdr)
		assert.Equal("RS256", hdr.Alg)
		assert.NotEmpty(hdr.X5t)
		require.Len(hdr.X5c, 1)

		thumbprint, err := Thumbprint(certPEM)
		require.NoError(err)
		assert.Equal(thumbprint, hdr.X5t)

		normalized, err := NormalizeCertificate(certPEM)
		require.NoError(err)
		assert.Equal(normalized, hdr.X5c[0])
	})

	t.Run("claims", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)

		now := time.Now()
		j.now = func() time.Time { return now }
		j.genID = func() (string, error) { return "test-claim-id", nil }

		token, err := j.Serialize()
		require.NoError(err)

		var cl struct {
			Issuer    string `json:"iss"`
			Subject   string `json:"sub"`
			Audience  string `json:"aud"`
			NotBefore int64  `json:"nbf"`
			Expiry    int64  `json:"exp"`
			ID        string `json:"jti"`
		}
		testDecodeSegment(t, strings.Split(token, ".")[1], &cl)
		assert.Equal(testClientID, cl.Issuer)
		assert.Equal(testClientID, cl.Subject)
		assert.Equal(testAudience, cl.Audience)
		assert.Equal(now.UTC().Unix(), cl.NotBefore)
		assert.Equal(int64(DefaultLifetime/time.Second), cl.Expiry-cl.NotBefore)
		assert.Equal("test-claim-id", cl.ID)
	})

	t.Run("signature verifies", func(t *testing.T) {
		require := require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)

		now := time.Now()
		j.now = func() time.Time { return now }
		j.genID = func() (string, error) { return "test-claim-id", nil }

		tokenStr, err := j.Serialize()
		require.NoError(err)

		token, err := jwt.ParseSigned(tokenStr)
		require.NoError(err)

		var actualClaims jwt.Claims
		require.NoError(token.Claims(&key.PublicKey, &actualClaims))
		require.NoError(actualClaims.Validate(jwt.Expected{
			Issuer:   testClientID,
			Subject:  testClientID,
			Audience: jwt.Audience{testAudience},
			ID:       "test-claim-id",
			Time:     now,
		}))
	})

	t.Run("unique jti per call", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)

		first, err := j.Serialize()
		require.NoError(err)
		second, err := j.Serialize()
		require.NoError(err)

		var cl1, cl2 struct {
			ID string `json:"jti"`
		}
		testDecodeSegment(t, strings.Split(first, ".")[1], &cl1)
		testDecodeSegment(t, strings.Split(second, ".")[1], &cl2)
		assert.NotEmpty(cl1.ID)
		assert.NotEmpty(cl2.ID)
		assert.NotEqual(cl1.ID, cl2.ID)
	})

	t.Run("error generating token id", func(t *testing.T) {
		require := require.New(t)
		genIDErr := errors.New("failed to generate test id")
		j, err := NewJWT(testClientID, testAudience, certPEM, keyPEM)
		require.NoError(err)
		j.genID = func() (string, error) { return "", genIDErr }

		tokenStr, err := j.Serialize()
		require.ErrorIs(err, genIDErr)
		require.Equal("", tokenStr)
	})

	t.Run("key too small to sign", func(t *testing.T) {
		require := require.New(t)
		smallCert, smallKey, _ := testGenerateCertKey(t, 512)
		j, err := NewJWT(testClientID, testAudience, smallCert, smallKey,
			WithAlgorithm(RS512))
		require.NoError(err)

		tokenStr, err := j.Serialize()
		require.ErrorIs(err, ErrSigningFailed)
		require.Equal("", tokenStr)
	})
}
