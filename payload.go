package authgate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
)

// SignPayload serializes fields as a query string, base64-encodes it and
// signs the encoded form with HMAC-SHA256. The signature is a full
// lowercase hex digest over the base64 payload bytes exactly as they will
// travel on the wire.
func SignPayload(fields url.Values, secret string) (payload string, sig string) {
	payload = base64.StdEncoding.EncodeToString([]byte(fields.Encode()))
	return payload, signHex(payload, secret)
}

// VerifyPayload recomputes the HMAC over the received payload bytes and,
// only if the signature matches, decodes the inner query string. Nothing
// is decoded from an unauthenticated payload.
func VerifyPayload(payload, sig, secret string) (url.Values, error) {
	expected := signHex(payload, secret)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, NewCallbackError(ErrCodeBadSignature, "payload signature mismatch")
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeBadSignature, fmt.Errorf("decoding signed payload: %w", err))
	}
	fields, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, wrapCallbackError(ErrCodeBadSignature, fmt.Errorf("parsing signed payload: %w", err))
	}
	return fields, nil
}

func signHex(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
