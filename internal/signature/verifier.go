package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

// Header names carrying the signature of an inbound interaction.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// ErrInvalidSignature is returned when a request is not signed by the application key.
var ErrInvalidSignature = errors.New("invalid signature")

// Verifier checks ed25519 signatures over timestamp||body.
// The key is fixed for the lifetime of the process.
type Verifier struct {
	publicKey ed25519.PublicKey
}

// NewVerifier parses a hex encoded ed25519 public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &Verifier{publicKey: ed25519.PublicKey(key)}, nil
}

// Verify returns ErrInvalidSignature unless signatureHex is a valid signature of
// timestamp followed by body.
func (v *Verifier) Verify(timestamp string, body []byte, signatureHex string) error {
	if timestamp == "" || signatureHex == "" {
		return ErrInvalidSignature
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return ErrInvalidSignature
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)

	if !ed25519.Verify(v.publicKey, msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}
