package authgate

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// SessionMode selects how issued sessions are represented. It is a
// process-wide setting, never a per-request or per-provider choice.
type SessionMode string

const (
	// SessionJWT issues self-contained signed tokens; no persistence
	// lookup is needed to resolve them.
	SessionJWT SessionMode = "jwt"

	// SessionDatabase issues opaque tokens resolved through the Adapter.
	SessionDatabase SessionMode = "database"
)

// Config is the immutable process-wide configuration. Build it once,
// call EnsureDefaults, and pass it by reference; nothing mutates it at
// request time.
type Config struct {
	// Optional name used as a prefix for defaulted cookie names.
	AppName string

	// BaseURL is the public root of this application, e.g.
	// "https://app.example.com". Error and signin redirects hang off it.
	BaseURL string

	// Secret signs session tokens and nonce bindings. Falls back to
	// AUTHGATE_SECRET when empty.
	Secret string

	SessionMode SessionMode

	// SessionMaxAge bounds issued sessions. Defaults to 1 day.
	SessionMaxAge time.Duration

	// NonceMaxAge bounds the SSO nonce-binding cookie. Defaults to 10 minutes.
	NonceMaxAge time.Duration

	// VerificationMaxAge bounds email magic-link tokens. Defaults to 24 hours.
	VerificationMaxAge time.Duration

	// NewUserURL, when set, is where first-time users land after sign-in.
	NewUserURL string

	// SignInURL overrides the sign-in retry page. Defaults to BaseURL + "/signin".
	SignInURL string

	// ErrorURL overrides the error page. Defaults to BaseURL + "/error".
	ErrorURL string

	JwtIssuer string

	SessionCookieName string
	NonceCookieName   string

	Providers []*Provider

	// Adapter is required for email providers and for database sessions.
	Adapter Adapter

	Hooks Hooks

	// Events receives sign-in notifications. Defaults to LogEvents.
	Events Events

	// EmailSender delivers magic-link emails (initiation only).
	EmailSender SendEmail
}

// EnsureDefaults fills in reasonable defaults and returns the config for
// chaining.
func (c *Config) EnsureDefaults() *Config {
	if c.AppName == "" {
		c.AppName = "AuthGate"
	}
	if c.Secret == "" {
		c.Secret = strings.TrimSpace(os.Getenv("AUTHGATE_SECRET"))
	}
	if c.SessionMode == "" {
		c.SessionMode = SessionJWT
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 24 * time.Hour
	}
	if c.NonceMaxAge <= 0 {
		c.NonceMaxAge = 10 * time.Minute
	}
	if c.VerificationMaxAge <= 0 {
		c.VerificationMaxAge = 24 * time.Hour
	}
	if c.JwtIssuer == "" {
		c.JwtIssuer = fmt.Sprintf("%s-Issuer", c.AppName)
	}
	if c.SignInURL == "" {
		c.SignInURL = c.BaseURL + "/signin"
	}
	if c.ErrorURL == "" {
		c.ErrorURL = c.BaseURL + "/error"
	}
	if c.SessionCookieName == "" {
		c.SessionCookieName = fmt.Sprintf("%sSession", c.AppName)
	}
	if c.NonceCookieName == "" {
		c.NonceCookieName = fmt.Sprintf("%sSSONonce", c.AppName)
	}
	if c.Events == nil {
		c.Events = LogEvents{}
	}
	return c
}

// Provider returns the configured provider with the given id, or nil.
func (c *Config) Provider(id string) *Provider {
	for _, p := range c.Providers {
		if p.ID == id {
			return p
		}
	}
	return nil
}
