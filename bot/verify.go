package bot

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Authentication failures. The dispatcher maps all of them to the same
// generic rejection so callers cannot probe which bot IDs exist.
var (
	// ErrUnknownBot reports a bot ID with no registration.
	ErrUnknownBot = errors.New("bot: unknown bot id")
	// ErrInvalidSignature reports a signature that does not verify.
	ErrInvalidSignature = errors.New("bot: invalid signature")
	// ErrMalformedHeader reports a missing or undecodable signature header.
	ErrMalformedHeader = errors.New("bot: malformed signature header")
)

// VerifySignature checks that body was signed by the platform for this
// bot. The platform signs SHA-256 over the urlencoded pair
// body=<body without trailing newlines>&secret=<bot secret> with the
// bot's RSA key, PKCS#1 v1.5 padding, and sends the signature base64
// encoded in the x-rpc-bot_sign header.
//
// rsa.VerifyPKCS1v15 compares the recovered digest in constant time,
// so verification leaks no information about how much of the
// signature matched.
func (id *Identity) VerifySignature(body []byte, signHeader string) error {
	if id.PubKey == nil {
		return ErrInvalidSignature
	}
	if strings.TrimSpace(signHeader) == "" {
		return fmt.Errorf("%w: empty header", ErrMalformedHeader)
	}
	sig, err := base64.StdEncoding.DecodeString(signHeader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	signed := url.Values{
		"body":   {strings.TrimRight(string(body), "\n")},
		"secret": {id.Secret},
	}.Encode()
	digest := sha256.Sum256([]byte(signed))

	if err := rsa.VerifyPKCS1v15(id.PubKey, crypto.SHA256, digest[:], sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
