// Package bot is the event ingestion and dispatch core of villabot.
//
// It receives raw webhook payloads for registered bot identities,
// verifies the platform signature, decodes the payload into a typed
// event, matches the bot's handlers against it and runs the matched
// handlers concurrently, each under its own timeout and error
// boundary.
//
// The pieces compose explicitly: an Identity plus its handlers go into
// a Registry, a Dispatcher drives requests through verification,
// decoding and matching, and Server exposes the callback routes over
// HTTP. Nothing is process-global, so one process can host any number
// of independent bots.
package bot

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// Identity is the credential set of one registered bot. It is
// immutable after registration.
type Identity struct {
	// BotID is the platform-assigned bot template ID.
	BotID string
	// Secret is the bot secret issued with the template.
	Secret string
	// PubKey verifies webhook signatures for this bot.
	PubKey *rsa.PublicKey
	// CallbackPath is the webhook route this bot listens on, e.g.
	// "/callback/mybot".
	CallbackPath string
	// WaitUntilComplete makes the dispatcher run handlers before
	// acknowledging the webhook instead of in the background. Handler
	// timeouts still bound the response time.
	WaitUntilComplete bool
}

// NewIdentity builds an Identity from PEM public key material. The
// platform console displays keys with newlines collapsed to spaces,
// so the key is repaired before parsing.
func NewIdentity(botID, secret, pubKeyPEM, callbackPath string) (*Identity, error) {
	if botID == "" {
		return nil, errors.New("bot: bot id is required")
	}
	if secret == "" {
		return nil, errors.New("bot: bot secret is required")
	}
	key, err := ParsePublicKey(pubKeyPEM)
	if err != nil {
		return nil, err
	}
	if callbackPath == "" {
		callbackPath = "/"
	}
	if !strings.HasPrefix(callbackPath, "/") {
		callbackPath = "/" + callbackPath
	}
	return &Identity{
		BotID:        botID,
		Secret:       secret,
		PubKey:       key,
		CallbackPath: callbackPath,
	}, nil
}

// ParsePublicKey parses an RSA public key from SPKI PEM text,
// tolerating keys whose newlines were replaced by spaces in transit.
func ParsePublicKey(pubKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(formatPubKey(pubKeyPEM)))
	if block == nil {
		return nil, errors.New("bot: public key is not valid PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("bot: parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("bot: public key is %T, want RSA", parsed)
	}
	return key, nil
}

// formatPubKey restores the PEM line structure of a key whose
// newlines were collapsed to spaces.
func formatPubKey(raw string) string {
	const (
		header = "-----BEGIN PUBLIC KEY-----"
		footer = "-----END PUBLIC KEY-----"
	)
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, header)
	body = strings.TrimSuffix(strings.TrimSpace(body), footer)
	body = strings.ReplaceAll(strings.TrimSpace(body), " ", "\n")
	return header + "\n" + body + "\n" + footer + "\n"
}
