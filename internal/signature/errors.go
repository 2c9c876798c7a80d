package signature

import "errors"

var (
	// ErrMissingCredential means the signature or timestamp header is absent.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidSignature means the credentials are present but do not verify.
	ErrInvalidSignature = errors.New("invalid signature")
)
