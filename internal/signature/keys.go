package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyPair holds scheme-tagged signing and verification key strings.
type KeyPair struct {
	Signing      string `json:"signing_key"`
	Verification string `json:"verification_key"`
}

// SplitKey separates "<scheme>:<material>".
func SplitKey(keyString string) (scheme, material string, err error) {
	scheme, material, ok := strings.Cut(strings.TrimSpace(keyString), ":")
	if !ok || material == "" {
		return "", "", fmt.Errorf("key must have the form <scheme>:<material>")
	}
	scheme = strings.ToLower(scheme)
	switch scheme {
	case SchemeHMAC, SchemeEd25519, SchemeECDSA:
		return scheme, material, nil
	default:
		return "", "", fmt.Errorf("unknown signature scheme %q", scheme)
	}
}

// ParseVerificationKey builds the Scheme selected by keyString. named holds
// additional shared secrets by key id and is only valid with hmac.
func ParseVerificationKey(keyString string, named map[string]string) (Scheme, error) {
	scheme, material, err := SplitKey(keyString)
	if err != nil {
		return nil, err
	}
	if len(named) > 0 && scheme != SchemeHMAC {
		return nil, fmt.Errorf("named keys are only supported by the %s scheme", SchemeHMAC)
	}

	switch scheme {
	case SchemeHMAC:
		return NewHMACScheme(material, named)
	case SchemeEd25519:
		return NewEd25519Scheme(material)
	default:
		return NewECDSAScheme(material)
	}
}

// ParseSigningKey builds the Signer selected by keyString. For hmac the material may
// be "<key-id>=<secret>" to sign with a named key.
func ParseSigningKey(keyString string) (Signer, error) {
	scheme, material, err := SplitKey(keyString)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeHMAC:
		if id, secret, ok := strings.Cut(material, "="); ok && id != "" {
			return NewHMACSigner(secret, id, AlgSHA256)
		}
		return NewHMACSigner(material, "", AlgSHA256)
	case SchemeEd25519:
		return NewEd25519Signer(material)
	default:
		return NewECDSASigner(material)
	}
}

// GenerateKeyPair creates a fresh key pair for scheme.
func GenerateKeyPair(scheme string) (KeyPair, error) {
	switch strings.ToLower(scheme) {
	case SchemeHMAC:
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return KeyPair{}, err
		}
		s := SchemeHMAC + ":" + hex.EncodeToString(secret)
		return KeyPair{Signing: s, Verification: s}, nil
	case SchemeEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return KeyPair{}, err
		}
		return KeyPair{
			Signing:      SchemeEd25519 + ":" + hex.EncodeToString(priv.Seed()),
			Verification: SchemeEd25519 + ":" + hex.EncodeToString(pub),
		}, nil
	case SchemeECDSA:
		key, err := crypto.GenerateKey()
		if err != nil {
			return KeyPair{}, err
		}
		return KeyPair{
			Signing:      SchemeECDSA + ":" + hex.EncodeToString(crypto.FromECDSA(key)),
			Verification: SchemeECDSA + ":" + crypto.PubkeyToAddress(key.PublicKey).Hex(),
		}, nil
	default:
		return KeyPair{}, fmt.Errorf("unknown signature scheme %q", scheme)
	}
}
