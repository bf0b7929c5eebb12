package authgate

import (
	"context"
	"net/url"
)

// StartEmailSignIn creates a single-use verification token for the address
// and mails a sign-in link pointing at the provider's callback. The token
// is consumed by the callback pipeline; re-using the link fails.
func (c *Completer) StartEmailSignIn(ctx context.Context, providerID string, email string, returnTo string) error {
	p := c.cfg.Provider(providerID)
	if p == nil || p.Kind != KindEmail {
		return NewCallbackError(ErrCodeConfigurationError, "no email provider "+providerID)
	}
	if c.cfg.Adapter == nil {
		return NewCallbackError(ErrCodeConfigurationError, "email sign-in requires an adapter")
	}
	if c.cfg.EmailSender == nil {
		return NewCallbackError(ErrCodeConfigurationError, "email sign-in requires an email sender")
	}
	if email == "" {
		return NewCallbackError(ErrCodeMissingParameters, "email address required")
	}

	vr, err := c.cfg.Adapter.CreateVerificationRequest(ctx, email, c.cfg.VerificationMaxAge)
	if err != nil {
		return wrapCallbackError(ErrCodeInternalError, err)
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("token", vr.Token)
	if returnTo != "" {
		q.Set("callbackURL", returnTo)
	}
	link := c.cfg.BaseURL + "/auth/" + url.PathEscape(providerID) + "/callback?" + q.Encode()

	if err := c.cfg.EmailSender.SendSignInEmail(email, link); err != nil {
		return wrapCallbackError(ErrCodeInternalError, err)
	}
	return nil
}
