package signature

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// Ed25519Scheme verifies hex-encoded Ed25519 signatures.
type Ed25519Scheme struct {
	publicKey ed25519.PublicKey
}

// NewEd25519Scheme parses a hex-encoded public key.
func NewEd25519Scheme(publicKeyHex string) (*Ed25519Scheme, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ed25519 public key is not hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &Ed25519Scheme{publicKey: ed25519.PublicKey(raw)}, nil
}

func (s *Ed25519Scheme) Name() string   { return SchemeEd25519 }
func (s *Ed25519Scheme) Header() string { return HeaderEd25519Signature }

func (s *Ed25519Scheme) Verify(message []byte, signature string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return errVerificationFailed
	}
	if !ed25519.Verify(s.publicKey, message, sig) {
		return errVerificationFailed
	}
	return nil
}

// Ed25519Signer signs with an Ed25519 private key.
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
}

// NewEd25519Signer accepts a hex-encoded 32-byte seed or 64-byte private key.
func NewEd25519Signer(privateKeyHex string) (*Ed25519Signer, error) {
	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ed25519 private key is not hex: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return &Ed25519Signer{privateKey: ed25519.NewKeyFromSeed(raw)}, nil
	case ed25519.PrivateKeySize:
		return &Ed25519Signer{privateKey: ed25519.PrivateKey(raw)}, nil
	default:
		return nil, fmt.Errorf("ed25519 private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func (s *Ed25519Signer) Name() string   { return SchemeEd25519 }
func (s *Ed25519Signer) Header() string { return HeaderEd25519Signature }

func (s *Ed25519Signer) Sign(message []byte) (string, error) {
	return hex.EncodeToString(ed25519.Sign(s.privateKey, message)), nil
}

// PublicKeyHex returns the hex-encoded public half of the signing key.
func (s *Ed25519Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.privateKey.Public().(ed25519.PublicKey))
}
