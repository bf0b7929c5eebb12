package authgate

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// IssueNonce generates a one-time nonce for an SSO initiation along with
// its binding hash. The nonce travels inside the signed payload; the
// binding is stored client-side (a short-lived cookie) and proves at
// callback time that this process issued the nonce.
func IssueNonce(secret string) (nonce string, binding string, err error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce = hex.EncodeToString(b)
	return nonce, signHex(nonce, secret), nil
}

// ConsumeNonce checks a nonce presented on a callback against the stored
// binding hash. Callers must erase the stored binding as part of the same
// request whether or not this returns true - a nonce is spent the moment
// anyone tries to use it. An absent nonce or binding never matches.
func ConsumeNonce(presented, storedBinding, secret string) bool {
	if presented == "" || storedBinding == "" {
		return false
	}
	expected := signHex(presented, secret)
	return hmac.Equal([]byte(expected), []byte(storedBinding))
}
