package signature

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Verifier checks request envelopes against a single configured scheme.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	scheme Scheme
	maxAge time.Duration
	now    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithMaxAge rejects timestamps further than d from the current time.
// Zero disables the check.
func WithMaxAge(d time.Duration) Option {
	return func(v *Verifier) {
		v.maxAge = d
	}
}

// WithClock overrides the time source used by the freshness check.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a verifier for scheme.
func NewVerifier(scheme Scheme, opts ...Option) *Verifier {
	v := &Verifier{
		scheme: scheme,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Scheme returns the configured scheme.
func (v *Verifier) Scheme() Scheme {
	return v.scheme
}

// ReadEnvelope extracts the scheme's signature header and the timestamp header.
func (v *Verifier) ReadEnvelope(h http.Header) Envelope {
	return Envelope{
		Signature: h.Get(v.scheme.Header()),
		Timestamp: h.Get(HeaderTimestamp),
	}
}

// Verify decides whether body was signed by the configured key at env.Timestamp.
// Errors wrap ErrMissingCredential or ErrInvalidSignature.
func (v *Verifier) Verify(body []byte, env Envelope) error {
	if env.Signature == "" {
		return fmt.Errorf("%w: %s header is required", ErrMissingCredential, v.scheme.Header())
	}
	if env.Timestamp == "" {
		return fmt.Errorf("%w: %s header is required", ErrMissingCredential, HeaderTimestamp)
	}

	if v.maxAge > 0 {
		if err := v.checkFreshness(env.Timestamp); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
		}
	}

	if err := v.scheme.Verify(Message(env.Timestamp, body), env.Signature); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return nil
}

func (v *Verifier) checkFreshness(timestamp string) error {
	ms, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp is not an integer")
	}

	age := v.now().Sub(time.UnixMilli(ms))
	if age < 0 {
		age = -age
	}
	if age > v.maxAge {
		return fmt.Errorf("timestamp outside the %s window", v.maxAge)
	}
	return nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
