package bot

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestKey generates a signing key pair and the PEM encoding of its
// public half.
func newTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	return key, pemText
}

// signBody produces the signature header value the platform would send
// for the given body and secret.
func signBody(t *testing.T, key *rsa.PrivateKey, body []byte, secret string) string {
	t.Helper()
	signed := url.Values{
		"body":   {strings.TrimRight(string(body), "\n")},
		"secret": {secret},
	}.Encode()
	digest := sha256.Sum256([]byte(signed))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func newTestIdentity(t *testing.T, pemText string) *Identity {
	t.Helper()
	identity, err := NewIdentity("bot_test_1", "test-secret", pemText, "/callback/test")
	require.NoError(t, err)
	return identity
}

func TestVerifySignature(t *testing.T) {
	key, pemText := newTestKey(t)
	identity := newTestIdentity(t, pemText)
	body := []byte(`{"event":{"type":2,"content":"hi"}}`)
	goodSign := signBody(t, key, body, identity.Secret)

	t.Run("valid signature passes", func(t *testing.T) {
		assert.NoError(t, identity.VerifySignature(body, goodSign))
	})

	t.Run("trailing newline is ignored", func(t *testing.T) {
		assert.NoError(t, identity.VerifySignature(append(body, '\n'), goodSign))
	})

	t.Run("mutated body fails", func(t *testing.T) {
		mutated := append([]byte(nil), body...)
		mutated[10] ^= 0x01
		err := identity.VerifySignature(mutated, goodSign)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("mutated signature fails", func(t *testing.T) {
		raw, err := base64.StdEncoding.DecodeString(goodSign)
		require.NoError(t, err)
		raw[0] ^= 0x01
		err = identity.VerifySignature(body, base64.StdEncoding.EncodeToString(raw))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("signature for other secret fails", func(t *testing.T) {
		otherSign := signBody(t, key, body, "other-secret")
		err := identity.VerifySignature(body, otherSign)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header is malformed", func(t *testing.T) {
		err := identity.VerifySignature(body, "")
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("undecodable header is malformed", func(t *testing.T) {
		err := identity.VerifySignature(body, "not-base64!!!")
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}

func TestParsePublicKey(t *testing.T) {
	_, pemText := newTestKey(t)

	t.Run("well formed PEM", func(t *testing.T) {
		key, err := ParsePublicKey(pemText)
		require.NoError(t, err)
		assert.NotNil(t, key)
	})

	t.Run("newlines collapsed to spaces", func(t *testing.T) {
		mangled := strings.ReplaceAll(strings.TrimSpace(pemText), "\n", " ")
		key, err := ParsePublicKey(mangled)
		require.NoError(t, err)
		assert.NotNil(t, key)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := ParsePublicKey("definitely not a key")
		assert.Error(t, err)
	})
}

func TestNewIdentity(t *testing.T) {
	_, pemText := newTestKey(t)

	tests := []struct {
		name         string
		botID        string
		secret       string
		pubKey       string
		callbackPath string
		wantErr      bool
		wantPath     string
	}{
		{
			name:         "complete identity",
			botID:        "bot_1",
			secret:       "s3cret",
			pubKey:       pemText,
			callbackPath: "/cb/bot1",
			wantPath:     "/cb/bot1",
		},
		{
			name:    "missing bot id",
			secret:  "s3cret",
			pubKey:  pemText,
			wantErr: true,
		},
		{
			name:    "missing secret",
			botID:   "bot_1",
			pubKey:  pemText,
			wantErr: true,
		},
		{
			name:    "bad key",
			botID:   "bot_1",
			secret:  "s3cret",
			pubKey:  "nope",
			wantErr: true,
		},
		{
			name:         "path gets leading slash",
			botID:        "bot_1",
			secret:       "s3cret",
			pubKey:       pemText,
			callbackPath: "cb",
			wantPath:     "/cb",
		},
		{
			name:     "empty path defaults to root",
			botID:    "bot_1",
			secret:   "s3cret",
			pubKey:   pemText,
			wantPath: "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := NewIdentity(tt.botID, tt.secret, tt.pubKey, tt.callbackPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, identity.CallbackPath)
		})
	}
}
