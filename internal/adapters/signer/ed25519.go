// Package signer produces detached ed25519 signatures from base58 wallet secrets.
package signer

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mr-tron/base58/base58"

	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/ports/secondary"
)

// Ed25519 implements secondary.Signer.
type Ed25519 struct{}

// New creates an ed25519 signer.
func New() *Ed25519 {
	return &Ed25519{}
}

// Sign signs message with the base58 secret and returns the base64 signature.
// The secret is either a 64-byte keypair (seed followed by public key) or a 32-byte seed.
func (s *Ed25519) Sign(secret, message string) (string, error) {
	key, err := privateKey(secret)
	if err != nil {
		return "", &errs.SigningError{Err: err}
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(key, []byte(message))), nil
}

// Address returns the base58 public key of secret.
func (s *Ed25519) Address(secret string) (string, error) {
	key, err := privateKey(secret)
	if err != nil {
		return "", &errs.SigningError{Err: err}
	}
	return base58.Encode(key.Public().(ed25519.PublicKey)), nil
}

func privateKey(secret string) (ed25519.PrivateKey, error) {
	if secret == "" {
		return nil, errors.New("empty secret")
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		// The decoder error echoes input characters; keep the secret out of messages.
		return nil, errors.New("secret is not valid base58")
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
		if !bytes.Equal(key[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
			return nil, errors.New("secret keypair public half does not match its seed")
		}
		return key, nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, fmt.Errorf("secret decodes to %d bytes, want %d or %d", len(raw), ed25519.PrivateKeySize, ed25519.SeedSize)
	}
}

// Ensure Ed25519 implements the interface
var _ secondary.Signer = (*Ed25519)(nil)
