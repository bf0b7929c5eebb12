package authgate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionArtifact is the issued session in either representation. Exactly
// one representation is produced per request, chosen by the process-wide
// session mode.
type SessionArtifact struct {
	// Token is the cookie value: a signed JWT or an opaque session token.
	Token string

	ExpiresAt time.Time

	// JWT reports which representation this is.
	JWT bool
}

// resolveUser creates or resolves the user record for an accepted proof.
// Without an adapter (jwt mode only) the profile itself stands in for the
// user record.
func (c *Completer) resolveUser(ctx context.Context, proof *AuthProof) (*User, bool, error) {
	if c.cfg.Adapter == nil {
		user := &User{
			ID:    proof.Profile.ID,
			Email: proof.Profile.Email,
			Name:  proof.Profile.Name,
			Image: proof.Profile.Image,
		}
		return user, false, nil
	}

	user, isNewUser, err := c.cfg.Adapter.EnsureUser(ctx, proof.Profile, proof.Account)
	if err != nil {
		return nil, false, wrapCallbackError(codeOf(err), fmt.Errorf("resolving user: %w", err))
	}
	return user, isNewUser, nil
}

// issueSession builds the session artifact for a resolved user. In jwt
// mode the claims pass through the JWT hook before signing; in database
// mode the adapter owns the record and its expiry.
func (c *Completer) issueSession(ctx context.Context, user *User, account Account, isNewUser bool, raw map[string]any) (*SessionArtifact, error) {
	if c.cfg.SessionMode == SessionDatabase {
		if c.cfg.Adapter == nil {
			return nil, NewCallbackError(ErrCodeConfigurationError, "database sessions require an adapter")
		}
		rec, err := c.cfg.Adapter.CreateSession(ctx, user.ID, c.cfg.SessionMaxAge)
		if err != nil {
			return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("creating session: %w", err))
		}
		return &SessionArtifact{Token: rec.Token, ExpiresAt: rec.ExpiresAt}, nil
	}

	now := time.Now()
	expiresAt := now.Add(c.cfg.SessionMaxAge)
	claims := map[string]any{
		"sub":       user.ID,
		"iss":       c.cfg.JwtIssuer,
		"email":     user.Email,
		"name":      user.Name,
		"picture":   user.Image,
		"provider":  account.ProviderID,
		"isNewUser": isNewUser,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	if c.cfg.Hooks.JWT != nil {
		transformed, err := c.cfg.Hooks.JWT(ctx, claims, raw)
		if err != nil {
			return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("jwt hook: %w", err))
		}
		claims = transformed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return nil, wrapCallbackError(ErrCodeInternalError, fmt.Errorf("signing session token: %w", err))
	}
	return &SessionArtifact{Token: signed, ExpiresAt: expiresAt, JWT: true}, nil
}

// sessionCookie renders the artifact into its cookie directive. Both
// representations carry their own expiry through to the cookie.
func (c *Completer) sessionCookie(artifact *SessionArtifact) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.SessionCookieName,
		Value:    artifact.Token,
		Path:     "/",
		Expires:  artifact.ExpiresAt,
		MaxAge:   int(time.Until(artifact.ExpiresAt).Seconds()),
		HttpOnly: true,
	}
}

// VerifySessionToken parses and validates a jwt-mode session token using
// the configured secret, returning the subject (user id) on success.
func VerifySessionToken(tokenString, secret string) (userID string, claims jwt.MapClaims, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", nil, err
	}
	if !token.Valid {
		return "", nil, fmt.Errorf("invalid token")
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || mapClaims == nil {
		return "", nil, fmt.Errorf("claims is not a map")
	}
	sub, err := mapClaims.GetSubject()
	if err != nil {
		return "", nil, err
	}
	if sub == "" {
		return "", nil, fmt.Errorf("subject not found")
	}
	return sub, mapClaims, nil
}
