package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/zeebo/blake3"
)

// MAC algorithm tags accepted in shared-secret signatures.
const (
	AlgSHA256 = "sha256"
	AlgSHA512 = "sha512"
	AlgBLAKE3 = "blake3"
)

const blake3KeyContext = "niftyapes-action 2023-06 shared-secret signature key"

var errVerificationFailed = errors.New("verification failed")

// HMACScheme verifies shared-secret signatures of the form
// "[<key-id>:]<alg>=<hex>". Signatures without a key id use the default secret.
type HMACScheme struct {
	secret []byte
	keys   map[string][]byte
}

// NewHMACScheme creates a shared-secret scheme. At least one of secret or
// named must be non-empty.
func NewHMACScheme(secret string, named map[string]string) (*HMACScheme, error) {
	s := &HMACScheme{keys: make(map[string][]byte, len(named))}
	if secret != "" {
		s.secret = []byte(secret)
	}
	for id, key := range named {
		if id == "" || key == "" {
			return nil, fmt.Errorf("hmac key id and secret must be non-empty")
		}
		s.keys[id] = []byte(key)
	}
	if s.secret == nil && len(s.keys) == 0 {
		return nil, fmt.Errorf("hmac scheme requires a secret")
	}
	return s, nil
}

func (s *HMACScheme) Name() string   { return SchemeHMAC }
func (s *HMACScheme) Header() string { return HeaderEcdsaSignature }

// Verify recomputes the MAC over message and compares it in constant time.
// All failures return the same generic error.
func (s *HMACScheme) Verify(message []byte, signature string) error {
	keyID, alg, actualMAC, err := parseTaggedSignature(signature)
	if err != nil {
		return errVerificationFailed
	}

	key := s.secret
	if id, ok := keyID.Get(); ok {
		key = s.keys[id]
	}
	if len(key) == 0 {
		return errVerificationFailed
	}

	expectedMAC, err := computeMAC(alg, key, message)
	if err != nil {
		return errVerificationFailed
	}

	if subtle.ConstantTimeCompare(expectedMAC, actualMAC) != 1 {
		return errVerificationFailed
	}
	return nil
}

// HMACSigner produces shared-secret signatures.
type HMACSigner struct {
	keyID  string
	alg    string
	secret []byte
}

// NewHMACSigner creates a signer. keyID may be empty for the default secret.
func NewHMACSigner(secret, keyID, alg string) (*HMACSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("hmac signer requires a secret")
	}
	if alg == "" {
		alg = AlgSHA256
	}
	if _, err := computeMAC(alg, []byte(secret), nil); err != nil {
		return nil, err
	}
	return &HMACSigner{keyID: keyID, alg: alg, secret: []byte(secret)}, nil
}

func (s *HMACSigner) Name() string   { return SchemeHMAC }
func (s *HMACSigner) Header() string { return HeaderEcdsaSignature }

// Sign returns "[<key-id>:]<alg>=<hex>".
func (s *HMACSigner) Sign(message []byte) (string, error) {
	mac, err := computeMAC(s.alg, s.secret, message)
	if err != nil {
		return "", err
	}
	tagged := s.alg + "=" + hex.EncodeToString(mac)
	if s.keyID != "" {
		tagged = s.keyID + ":" + tagged
	}
	return tagged, nil
}

func computeMAC(alg string, key, message []byte) ([]byte, error) {
	switch alg {
	case AlgSHA256:
		mac := hmac.New(sha256.New, key)
		mac.Write(message)
		return mac.Sum(nil), nil
	case AlgSHA512:
		mac := hmac.New(sha512.New, key)
		mac.Write(message)
		return mac.Sum(nil), nil
	case AlgBLAKE3:
		derived := make([]byte, 32)
		blake3.DeriveKey(blake3KeyContext, key, derived)
		h, err := blake3.NewKeyed(derived)
		if err != nil {
			return nil, err
		}
		_, _ = h.Write(message)
		return h.Sum(nil), nil
	default:
		return nil, fmt.Errorf("unsupported mac algorithm %q", alg)
	}
}

// parseTaggedSignature splits "[<key-id>:]<alg>=<hex>".
func parseTaggedSignature(signature string) (mo.Option[string], string, []byte, error) {
	keyID := mo.None[string]()
	rest := signature
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		if i == 0 {
			return keyID, "", nil, fmt.Errorf("empty key id")
		}
		keyID = mo.Some(rest[:i])
		rest = rest[i+1:]
	}

	alg, hexMAC, ok := strings.Cut(rest, "=")
	if !ok || alg == "" || hexMAC == "" {
		return keyID, "", nil, fmt.Errorf("signature is not algorithm-tagged")
	}

	mac, err := hex.DecodeString(hexMAC)
	if err != nil {
		return keyID, "", nil, err
	}
	return keyID, strings.ToLower(alg), mac, nil
}
