package signature

import (
	"net/http"
	"time"
)

// Header names are protocol constants; net/http canonicalizes lookups.
const (
	HeaderEcdsaSignature   = "X-Signature-Ecdsa"
	HeaderEd25519Signature = "X-Signature-Ed25519"
	HeaderTimestamp        = "X-Signature-Timestamp"
)

// Scheme names used as key prefixes.
const (
	SchemeHMAC    = "hmac"
	SchemeEd25519 = "ed25519"
	SchemeECDSA   = "ecdsa"
)

// Scheme verifies a signature over an already assembled message.
type Scheme interface {
	Name() string
	// Header is the request header carrying this scheme's signature.
	Header() string
	Verify(message []byte, signature string) error
}

// Signer produces signatures a matching Scheme accepts.
type Signer interface {
	Name() string
	Header() string
	Sign(message []byte) (string, error)
}

// Envelope is the out-of-band authentication data of one request.
type Envelope struct {
	Signature string
	Timestamp string
}

// Complete reports whether both credential headers were present.
func (e Envelope) Complete() bool {
	return e.Signature != "" && e.Timestamp != ""
}

// Message builds the signed byte sequence: timestamp || body.
func Message(timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	return append(msg, body...)
}

// FormatTimestamp renders t the way the platform does: milliseconds since epoch.
func FormatTimestamp(t time.Time) string {
	return formatInt(t.UnixMilli())
}

// SignRequest signs body with signer and sets both authentication headers on h.
func SignRequest(h http.Header, signer Signer, body []byte, at time.Time) error {
	ts := FormatTimestamp(at)
	sig, err := signer.Sign(Message(ts, body))
	if err != nil {
		return err
	}
	h.Set(signer.Header(), sig)
	h.Set(HeaderTimestamp, ts)
	return nil
}
