package authgate

import (
	"context"
	"fmt"
	"net/http"
)

// verify dispatches to the verification branch for the provider's kind.
// Every branch returns a normalized AuthProof or a coded error; nothing
// downstream runs unless the proof checks out.
func (c *Completer) verify(ctx context.Context, p *Provider, req *CallbackRequest) (*AuthProof, error) {
	switch p.Kind {
	case KindSSO:
		return c.verifySSO(p, req)
	case KindOAuth:
		return c.verifyOAuth(ctx, p, req)
	case KindEmail:
		return c.verifyEmail(ctx, p, req)
	case KindCredentials:
		return c.verifyCredentials(ctx, p, req)
	default:
		return nil, NewCallbackError(ErrCodeConfigurationError, fmt.Sprintf("unknown provider kind %q", p.Kind))
	}
}

// verifySSO checks an HMAC-signed payload callback: signature first, then
// the one-time nonce binding, then the required identity fields.
func (c *Completer) verifySSO(p *Provider, req *CallbackRequest) (*AuthProof, error) {
	payload := req.Query.Get("sso")
	sig := req.Query.Get("sig")
	if payload == "" || sig == "" {
		return nil, NewCallbackError(ErrCodeMissingParameters, "sso and sig query parameters are required")
	}

	fields, err := VerifyPayload(payload, sig, p.Secret)
	if err != nil {
		return nil, err
	}

	// The binding cookie is cleared by the orchestrator no matter what
	// happens from here on; a presented nonce is spent.
	if !ConsumeNonce(fields.Get("nonce"), req.NonceBinding, p.Secret) {
		return nil, NewCallbackError(ErrCodeNonceMismatch, "nonce binding absent or non-matching")
	}

	externalID := fields.Get("external_id")
	email := fields.Get("email")
	username := fields.Get("username")
	if externalID == "" || email == "" || username == "" {
		return nil, NewCallbackError(ErrCodeIncompleteProfile, "external_id, email and username are required")
	}

	profile := Profile{
		ID:        externalID,
		Email:     email,
		Username:  username,
		Name:      fields.Get("name"),
		Image:     fields.Get("avatar_url"),
		Admin:     fields.Get("admin") == "true",
		Moderator: fields.Get("moderator") == "true",
	}
	account := Account{ID: externalID, ProviderID: p.ID, Kind: KindSSO}
	return &AuthProof{Profile: profile, Account: account}, nil
}

// verifyOAuth delegates the code exchange and profile fetch to the
// provider's Exchanger. A transport failure is a ProviderError; a clean
// exchange that yields no profile is the ambiguous cancel-vs-error case
// and routes back to signin rather than the error page.
func (c *Completer) verifyOAuth(ctx context.Context, p *Provider, req *CallbackRequest) (*AuthProof, error) {
	if p.Exchanger == nil {
		return nil, NewCallbackError(ErrCodeConfigurationError, "oauth provider has no exchanger")
	}

	token, err := p.Exchanger.Exchange(ctx, req.Query.Get("code"))
	if err != nil {
		return nil, wrapCallbackError(ErrCodeProviderError, fmt.Errorf("code exchange: %w", err))
	}
	raw, err := p.Exchanger.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeProviderError, fmt.Errorf("profile fetch: %w", err))
	}
	if len(raw) == 0 {
		return nil, NewCallbackError(ErrCodeNoProfile, "provider returned no profile")
	}

	normalize := p.Normalize
	if normalize == nil {
		normalize = DefaultNormalize
	}
	profile := normalize(raw)
	account := Account{ID: profile.ID, ProviderID: p.ID, Kind: KindOAuth}
	return &AuthProof{Profile: profile, Account: account, RawProfile: raw}, nil
}

// verifyEmail consumes a magic-link token. The pending record is deleted
// before anything else proceeds, so a token stays single-use even when a
// later step fails.
func (c *Completer) verifyEmail(ctx context.Context, p *Provider, req *CallbackRequest) (*AuthProof, error) {
	if c.cfg.Adapter == nil {
		return nil, NewCallbackError(ErrCodeConfigurationError, "email provider requires an adapter")
	}

	email := req.Query.Get("email")
	token := req.Query.Get("token")
	if email == "" || token == "" {
		return nil, NewCallbackError(ErrCodeVerificationFailed, "email and token query parameters are required")
	}

	vr, err := c.cfg.Adapter.GetVerificationRequest(ctx, email, token)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("looking up verification request: %w", err))
	}
	if vr == nil || vr.IsExpired() {
		return nil, NewCallbackError(ErrCodeVerificationFailed, "verification token absent or expired")
	}
	if err := c.cfg.Adapter.DeleteVerificationRequest(ctx, email, token); err != nil {
		return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("consuming verification request: %w", err))
	}

	profile := Profile{Email: email}
	user, err := c.cfg.Adapter.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("resolving user by email: %w", err))
	}
	if user != nil {
		profile = profileFromUser(user)
	}
	account := Account{ID: email, ProviderID: p.ID, Kind: KindEmail}
	return &AuthProof{Profile: profile, Account: account}, nil
}

// verifyCredentials runs the provider's authorize capability. Authorize
// blowing up is a configuration problem, never InvalidCredentials - an
// implementation bug must not look like a wrong password.
func (c *Completer) verifyCredentials(ctx context.Context, p *Provider, req *CallbackRequest) (*AuthProof, error) {
	if req.Method != http.MethodPost {
		return nil, NewCallbackError(ErrCodeConfigurationError, "credentials callbacks must POST a body")
	}
	if c.cfg.SessionMode != SessionJWT {
		return nil, NewCallbackError(ErrCodeConfigurationError, "credentials providers require jwt session mode")
	}
	if p.Authorize == nil {
		return nil, NewCallbackError(ErrCodeConfigurationError, "credentials provider has no authorize capability")
	}

	credentials := make(map[string]string, len(req.Body))
	for k := range req.Body {
		credentials[k] = req.Body.Get(k)
	}

	user, err := p.Authorize(ctx, credentials)
	if err != nil {
		return nil, wrapCallbackError(ErrCodeConfigurationError, fmt.Errorf("authorize failed: %w", err))
	}
	if user == nil {
		return nil, NewCallbackError(ErrCodeInvalidCredentials, "authorize returned no user")
	}

	account := Account{ID: user.ID, ProviderID: p.ID, Kind: KindCredentials}
	return &AuthProof{Profile: profileFromUser(user), Account: account}, nil
}

func profileFromUser(u *User) Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Image: u.Image}
}
