package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ECDSAScheme verifies Ethereum personal-message signatures (EIP-191) and
// accepts them when the recovered signer equals the configured address.
type ECDSAScheme struct {
	address common.Address
}

// NewECDSAScheme parses a hex signer address.
func NewECDSAScheme(address string) (*ECDSAScheme, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("ecdsa signer %q is not a hex address", address)
	}
	return &ECDSAScheme{address: common.HexToAddress(address)}, nil
}

func (s *ECDSAScheme) Name() string   { return SchemeECDSA }
func (s *ECDSAScheme) Header() string { return HeaderEcdsaSignature }

func (s *ECDSAScheme) Verify(message []byte, signature string) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return errVerificationFailed
	}

	// Transform yellow paper V from 27/28 to 0/1
	if sig[crypto.RecoveryIDOffset] == 27 || sig[crypto.RecoveryIDOffset] == 28 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	recovered, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return errVerificationFailed
	}
	if crypto.PubkeyToAddress(*recovered) != s.address {
		return errVerificationFailed
	}
	return nil
}

// ECDSASigner signs personal messages with a secp256k1 private key.
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
}

// NewECDSASigner parses a hex-encoded secp256k1 private key.
func NewECDSASigner(privateKeyHex string) (*ECDSASigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid ecdsa private key: %w", err)
	}
	return &ECDSASigner{privateKey: key}, nil
}

func (s *ECDSASigner) Name() string   { return SchemeECDSA }
func (s *ECDSASigner) Header() string { return HeaderEcdsaSignature }

// Sign returns a 0x-prefixed signature with V in 27/28 form.
func (s *ECDSASigner) Sign(message []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), s.privateKey)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Address returns the signer's address.
func (s *ECDSASigner) Address() string {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey).Hex()
}
