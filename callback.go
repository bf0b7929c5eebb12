package authgate

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// CallbackRequest is everything the orchestrator needs from an inbound
// callback, extracted once by the boundary layer. The orchestrator never
// touches transport state directly.
type CallbackRequest struct {
	ProviderID string
	Method     string
	Query      url.Values

	// Body carries credential fields for credentials-kind providers.
	Body url.Values

	// NonceBinding is the stored nonce-binding cookie value (sso kind).
	NonceBinding string

	// CallbackURL is where the client asked to land after sign-in.
	CallbackURL string
}

// CallbackOutcome is the single terminal result of a callback: a redirect
// target plus the cookie directives to apply. The boundary layer consumes
// it exactly once; nothing mid-pipeline writes headers.
type CallbackOutcome struct {
	RedirectURL string
	Cookies     []*http.Cookie

	// Code is empty on success; on failure it holds the precise internal
	// code (the redirect target is already sanitized).
	Code ErrorCode

	Artifact  *SessionArtifact
	User      *User
	IsNewUser bool
}

// Failed reports whether the callback ended in an error redirect.
func (o *CallbackOutcome) Failed() bool { return o.Code != "" }

// Completer is the callback orchestrator. It is stateless across
// requests; all configuration is carried by the immutable Config.
type Completer struct {
	cfg *Config
}

// NewCompleter builds a Completer over the given configuration.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{cfg: cfg.EnsureDefaults()}
}

// Config returns the completer's configuration.
func (c *Completer) Config() *Config { return c.cfg }

// Complete runs the full completion pipeline for one callback:
// verification, the sign-in decision hook, user resolution, session
// issuance, event emission and the redirect decision. Every failure path
// ends in a redirect outcome; nothing propagates to the transport layer.
func (c *Completer) Complete(ctx context.Context, req *CallbackRequest) *CallbackOutcome {
	outcome := &CallbackOutcome{}

	p := c.cfg.Provider(req.ProviderID)
	if p == nil {
		return c.fail(outcome, "", NewCallbackError(ErrCodeConfigurationError, "unknown provider "+req.ProviderID))
	}

	// A presented nonce is consumed whether or not anything below
	// succeeds, so the clear directive goes on the outcome first.
	if p.Kind == KindSSO {
		outcome.Cookies = append(outcome.Cookies, c.clearNonceCookie())
	}

	proof, err := c.verify(ctx, p, req)
	if err != nil {
		return c.fail(outcome, p.ID, err)
	}

	if c.cfg.Hooks.SignIn != nil {
		allowed, err := c.cfg.Hooks.SignIn(ctx, proof.Profile, proof.Account, proof.RawProfile)
		if err != nil {
			return c.fail(outcome, p.ID, wrapCallbackError(ErrCodeInternalError, err))
		}
		if !allowed {
			return c.fail(outcome, p.ID, NewCallbackError(ErrCodeAccessDenied, "sign-in hook rejected the identity"))
		}
	}

	user, isNewUser, err := c.resolveUser(ctx, proof)
	if err != nil {
		return c.fail(outcome, p.ID, err)
	}

	artifact, err := c.issueSession(ctx, user, proof.Account, isNewUser, proof.RawProfile)
	if err != nil {
		return c.fail(outcome, p.ID, err)
	}

	outcome.User = user
	outcome.IsNewUser = isNewUser
	outcome.Artifact = artifact
	outcome.Cookies = append(outcome.Cookies, c.sessionCookie(artifact))

	// Fire-and-forget; a misbehaving event sink must not block the redirect.
	if err := c.cfg.Events.Dispatch(ctx, EventSignIn, SignInEvent{User: user, Account: proof.Account, IsNewUser: isNewUser}); err != nil {
		slog.Warn("event dispatch failed", "event", EventSignIn, "err", err)
	}

	outcome.RedirectURL = c.successRedirect(req, isNewUser)
	return outcome
}

func (c *Completer) fail(outcome *CallbackOutcome, providerID string, err error) *CallbackOutcome {
	code := codeOf(err)
	slog.Warn("callback failed", "provider", providerID, "code", code, "err", err)
	outcome.Code = code
	outcome.RedirectURL = c.errorRedirect(code, providerID)
	return outcome
}

// errorRedirect maps an internal code to the outward redirect target.
// Signature and nonce failures deliberately collapse into the generic
// Callback page so a caller probing the endpoint cannot tell which check
// tripped.
func (c *Completer) errorRedirect(code ErrorCode, providerID string) string {
	switch code {
	case ErrCodeNoProfile:
		return c.cfg.SignInURL
	case ErrCodeInvalidCredentials:
		return c.cfg.ErrorURL + "?error=CredentialsSignin&provider=" + url.QueryEscape(providerID)
	case ErrCodeVerificationFailed:
		return c.cfg.ErrorURL + "?error=Verification"
	case ErrCodeBadSignature, ErrCodeNonceMismatch:
		return c.cfg.ErrorURL + "?error=Callback"
	default:
		return c.cfg.ErrorURL + "?error=" + url.QueryEscape(string(code))
	}
}

// successRedirect picks the landing page: the configured new-user page
// for first-time users, then the (validated) requested callback URL, then
// the site root. The session cookie is already on the outcome before this
// decision is made.
func (c *Completer) successRedirect(req *CallbackRequest, isNewUser bool) string {
	if isNewUser && c.cfg.NewUserURL != "" {
		return c.cfg.NewUserURL
	}
	if target := c.resolveCallbackURL(req.CallbackURL); target != "" {
		return target
	}
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return "/"
}

// resolveCallbackURL accepts relative callback URLs (resolved against
// BaseURL) and absolute ones on the same host as BaseURL. Anything else
// is discarded rather than followed off-site.
func (c *Completer) resolveCallbackURL(callbackURL string) string {
	if callbackURL == "" {
		return ""
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "" && u.Host == "" {
		return c.cfg.BaseURL + u.String()
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil || base.Host == "" || u.Host != base.Host {
		return ""
	}
	return callbackURL
}

func (c *Completer) clearNonceCookie() *http.Cookie {
	return &http.Cookie{
		Name:    c.cfg.NonceCookieName,
		Value:   "",
		Path:    "/",
		MaxAge:  -1,
		Expires: time.Now(),
	}
}
