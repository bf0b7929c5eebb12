package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type loggedInUserKey struct{}

// Middleware resolves the logged-in user for downstream handlers from the
// session cookie issued by the callback pipeline. In token mode the cookie
// holds a signed token; in database mode it holds an opaque session id
// resolved through the adapter.
type Middleware struct {
	cfg *Config

	// AuthTokenHeaderName also accepts the token via a header for API
	// clients. Defaults to Authorization (with optional Bearer prefix).
	AuthTokenHeaderName string

	// GetRedirURL, when set, makes EnsureUser redirect anonymous requests
	// there instead of returning a 401.
	GetRedirURL      func(r *http.Request) string
	CallbackURLParam string
}

// NewMiddleware builds a Middleware over the same configuration the
// Handler uses.
func NewMiddleware(cfg *Config) *Middleware {
	return &Middleware{
		cfg:                 cfg.EnsureDefaults(),
		AuthTokenHeaderName: "Authorization",
		CallbackURLParam:    "callbackURL",
	}
}

// LoggedInUserId returns the user id previously extracted into the
// request context, or "".
func LoggedInUserId(r *http.Request) string {
	if v, ok := r.Context().Value(loggedInUserKey{}).(string); ok {
		return v
	}
	return ""
}

// ExtractUser resolves the current user (if any) and makes the id
// available via LoggedInUserId. It never blocks the request; use
// EnsureUser to require a login.
func (a *Middleware) ExtractUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId := a.resolveUserId(r)
		ctx := context.WithValue(r.Context(), loggedInUserKey{}, userId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// EnsureUser is ExtractUser plus enforcement: anonymous requests are
// redirected to the configured login URL (carrying the original path as
// the callback) or rejected with a 401.
func (a *Middleware) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId := a.resolveUserId(r)
		if userId == "" {
			redirUrl := ""
			if a.GetRedirURL != nil {
				redirUrl = a.GetRedirURL(r)
			}
			if redirUrl != "" {
				encodedUrl := strings.Replace(url.QueryEscape(r.URL.Path), "+", "%20", -1)
				http.Redirect(w, r, fmt.Sprintf("%s?%s=%s", redirUrl, a.CallbackURLParam, encodedUrl), http.StatusFound)
			} else {
				http.Error(w, "Login Failed", http.StatusUnauthorized)
			}
			return
		}
		ctx := context.WithValue(r.Context(), loggedInUserKey{}, userId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Middleware) resolveUserId(r *http.Request) string {
	for _, candidate := range a.candidateTokens(r) {
		userId, err := a.verify(r.Context(), candidate)
		if err != nil {
			slog.Warn("error verifying session token", "err", err)
			continue
		}
		if userId != "" {
			return userId
		}
	}
	return ""
}

func (a *Middleware) candidateTokens(r *http.Request) (out []string) {
	for _, h := range r.Header.Values(a.AuthTokenHeaderName) {
		out = append(out, strings.TrimPrefix(h, "Bearer "))
	}
	for _, cookie := range r.CookiesNamed(a.cfg.SessionCookieName) {
		if len(cookie.Value) > 0 {
			out = append(out, cookie.Value)
		}
	}
	return
}

func (a *Middleware) verify(ctx context.Context, token string) (string, error) {
	if a.cfg.SessionMode == SessionDatabase {
		if a.cfg.Adapter == nil {
			return "", fmt.Errorf("database sessions need an adapter")
		}
		rec, err := a.cfg.Adapter.GetSession(ctx, token)
		if errors.Is(err, ErrSessionNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if rec == nil || rec.IsExpired() {
			return "", nil
		}
		return rec.UserID, nil
	}
	userId, _, err := VerifySessionToken(token, a.cfg.Secret)
	return userId, err
}
