package authgate

import (
	"net/http"
	"net/url"
	"time"
)

// Initiation is the result of starting a remote sign-on round trip: where
// to send the browser and the nonce-binding cookie to set on the way out.
type Initiation struct {
	RedirectURL string
	Cookie      *http.Cookie
}

// InitiateSSO starts a signed round trip with the provider's remote site.
// It mints a fresh nonce, signs a payload carrying the nonce and our
// return URL, and binds the nonce to this browser via a short-lived
// cookie. returnTo is carried through the round trip so the eventual
// callback can land the user where they started.
func (c *Completer) InitiateSSO(providerID string, returnTo string) (*Initiation, error) {
	p := c.cfg.Provider(providerID)
	if p == nil || p.Kind != KindSSO {
		return nil, NewCallbackError(ErrCodeConfigurationError, "no sso provider "+providerID)
	}
	if p.RemoteURL == "" {
		return nil, NewCallbackError(ErrCodeConfigurationError, "provider "+providerID+" has no remote url")
	}

	nonce, binding, err := IssueNonce(p.Secret)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeInternalError, err)
	}

	returnURL := c.cfg.BaseURL + "/auth/" + url.PathEscape(providerID) + "/callback"
	if returnTo != "" {
		returnURL += "?callbackURL=" + url.QueryEscape(returnTo)
	}
	fields := url.Values{}
	fields.Set("nonce", nonce)
	fields.Set("return_sso_url", returnURL)
	payload, sig := SignPayload(fields, p.Secret)

	q := url.Values{}
	q.Set("sso", payload)
	q.Set("sig", sig)

	return &Initiation{
		RedirectURL: p.RemoteURL + "/session/sso_provider?" + q.Encode(),
		Cookie: &http.Cookie{
			Name:     c.cfg.NonceCookieName,
			Value:    binding,
			Path:     "/",
			MaxAge:   int(c.cfg.NonceMaxAge / time.Second),
			Expires:  time.Now().Add(c.cfg.NonceMaxAge),
			HttpOnly: true,
		},
	}, nil
}
