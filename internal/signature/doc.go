// Package signature authenticates inbound action requests.
//
// Every request carries two headers: a signature and a timestamp. The signed
// message is always the timestamp string immediately followed by the raw
// request body. Three interchangeable schemes are supported; a deployment
// selects exactly one of them through a scheme-tagged key string:
//
//	hmac:<secret>        shared secret, X-Signature-Ecdsa: [<key-id>:]<alg>=<hex>
//	ed25519:<hex-pubkey> Ed25519 public key, X-Signature-Ed25519: <hex>
//	ecdsa:<0x-address>   secp256k1 signer address, X-Signature-Ecdsa: 0x<hex>
//
// # Error Model
//
//   - ErrMissingCredential: signature or timestamp header absent (HTTP 400)
//   - ErrInvalidSignature: anything else that prevents verification (HTTP 401)
//
// Scheme errors never include key material. By default no freshness window is
// enforced beyond the timestamp being part of the signed message; WithMaxAge
// enables a replay window.
//
// # Example Usage
//
//	scheme, err := signature.ParseVerificationKey(os.Getenv("ACTION_SIGNING_KEY"), nil)
//	if err != nil {
//		return err
//	}
//	verifier := signature.NewVerifier(scheme, signature.WithMaxAge(5*time.Minute))
//	if err := verifier.Verify(body, verifier.ReadEnvelope(r.Header)); err != nil {
//		// errors.Is(err, signature.ErrMissingCredential) -> 400
//		// errors.Is(err, signature.ErrInvalidSignature)  -> 401
//	}
package signature
