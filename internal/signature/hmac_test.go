package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSchemeVerify(t *testing.T) {
	secret := "test-secret-key"
	message := Message("1686000000000", []byte(`{"interaction":{"type":2}}`))

	scheme, err := NewHMACScheme(secret, map[string]string{"k2": "rotated-secret"})
	require.NoError(t, err)

	sign := func(secret, keyID, alg string, msg []byte) string {
		s, err := NewHMACSigner(secret, keyID, alg)
		require.NoError(t, err)
		sig, err := s.Sign(msg)
		require.NoError(t, err)
		return sig
	}

	tests := []struct {
		name      string
		message   []byte
		signature string
		wantErr   bool
	}{
		{name: "valid sha256", message: message, signature: sign(secret, "", AlgSHA256, message)},
		{name: "valid sha512", message: message, signature: sign(secret, "", AlgSHA512, message)},
		{name: "valid blake3", message: message, signature: sign(secret, "", AlgBLAKE3, message)},
		{name: "valid named key", message: message, signature: sign("rotated-secret", "k2", AlgSHA256, message)},
		{name: "unknown key id", message: message, signature: sign(secret, "k9", AlgSHA256, message), wantErr: true},
		{name: "named key with default secret", message: message, signature: sign(secret, "k2", AlgSHA256, message), wantErr: true},
		{name: "tampered body", message: Message("1686000000000", []byte(`{"hacked":true}`)), signature: sign(secret, "", AlgSHA256, message), wantErr: true},
		{name: "wrong secret", message: message, signature: sign("wrong-secret", "", AlgSHA256, message), wantErr: true},
		{name: "untagged hex", message: message, signature: "00ff", wantErr: true},
		{name: "unknown algorithm", message: message, signature: "md5=00ff", wantErr: true},
		{name: "not hex", message: message, signature: "sha256=zzzz", wantErr: true},
		{name: "dummy signature", message: message, signature: "dummy-signature", wantErr: true},
		{name: "empty key id", message: message, signature: ":sha256=00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scheme.Verify(tt.message, tt.signature)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, "verification failed", err.Error(), "errors must stay generic")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewHMACScheme_RequiresSecret(t *testing.T) {
	_, err := NewHMACScheme("", nil)
	assert.Error(t, err)

	_, err = NewHMACScheme("", map[string]string{"": "x"})
	assert.Error(t, err)

	s, err := NewHMACScheme("", map[string]string{"only": "named"})
	require.NoError(t, err)
	assert.Error(t, s.Verify([]byte("m"), "sha256=00"), "no default secret configured")
}

func TestHMACSigner_Format(t *testing.T) {
	s, err := NewHMACSigner("secret", "kid", "")
	require.NoError(t, err)

	sig, err := s.Sign([]byte("msg"))
	require.NoError(t, err)
	assert.Regexp(t, `^kid:sha256=[0-9a-f]{64}$`, sig)

	_, err = NewHMACSigner("secret", "", "md5")
	assert.Error(t, err)
}
