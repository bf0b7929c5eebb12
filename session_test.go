package authgate

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTHookTransformsClaims(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Hooks.JWT = func(ctx context.Context, claims map[string]any, raw map[string]any) (map[string]any, error) {
		claims["role"] = "admin"
		delete(claims, "picture")
		return claims, nil
	}
	completer := NewCompleter(cfg)

	artifact, err := completer.issueSession(context.Background(), &User{ID: "user-1", Email: "joe@example.com"},
		Account{ProviderID: "forum", Kind: KindSSO}, false, nil)
	if err != nil {
		t.Fatalf("issueSession failed: %v", err)
	}
	_, claims, err := VerifySessionToken(artifact.Token, cfg.Secret)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["role"] != "admin" {
		t.Errorf("expected hook-added claim, got %v", claims["role"])
	}
	if _, ok := claims["picture"]; ok {
		t.Error("expected hook-removed claim to be absent")
	}
	if claims["iss"] != cfg.JwtIssuer {
		t.Errorf("expected issuer claim %q, got %v", cfg.JwtIssuer, claims["iss"])
	}
}

func TestVerifySessionToken(t *testing.T) {
	const secret = "session-test-secret"

	sign := func(claims jwt.MapClaims, key string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, err := token.SignedString([]byte(key))
		if err != nil {
			t.Fatalf("signing test token: %v", err)
		}
		return s
	}

	t.Run("valid token", func(t *testing.T) {
		s := sign(jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}, secret)
		userID, _, err := VerifySessionToken(s, secret)
		if err != nil || userID != "user-1" {
			t.Errorf("expected user-1, got %q err %v", userID, err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		s := sign(jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()}, secret)
		if _, _, err := VerifySessionToken(s, secret); err == nil {
			t.Error("expected expired token to fail")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		s := sign(jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}, "other")
		if _, _, err := VerifySessionToken(s, secret); err == nil {
			t.Error("expected wrong-key token to fail")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		s := sign(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, secret)
		if _, _, err := VerifySessionToken(s, secret); err == nil {
			t.Error("expected subject-less token to fail")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, _, err := VerifySessionToken("not-a-token", secret); err == nil {
			t.Error("expected parse failure")
		}
	})
}

func TestInitiateSSO(t *testing.T) {
	cfg := testConfig(nil)
	completer := NewCompleter(cfg)

	t.Run("builds signed redirect and binding cookie", func(t *testing.T) {
		init, err := completer.InitiateSSO("forum", "/dashboard")
		if err != nil {
			t.Fatalf("InitiateSSO failed: %v", err)
		}
		if !strings.HasPrefix(init.RedirectURL, "https://forum.example.com/session/sso_provider?") {
			t.Fatalf("unexpected redirect %q", init.RedirectURL)
		}
		u, err := url.Parse(init.RedirectURL)
		if err != nil {
			t.Fatalf("parsing redirect: %v", err)
		}
		fields, err := VerifyPayload(u.Query().Get("sso"), u.Query().Get("sig"), ssoSecret)
		if err != nil {
			t.Fatalf("outbound payload does not verify: %v", err)
		}
		nonce := fields.Get("nonce")
		if nonce == "" {
			t.Fatal("expected a nonce in the payload")
		}
		if !strings.Contains(fields.Get("return_sso_url"), "/auth/forum/callback") {
			t.Errorf("expected return url at our callback, got %q", fields.Get("return_sso_url"))
		}
		if !strings.Contains(fields.Get("return_sso_url"), url.QueryEscape("/dashboard")) {
			t.Errorf("expected return url to carry the landing page, got %q", fields.Get("return_sso_url"))
		}

		if init.Cookie.Name != cfg.NonceCookieName || init.Cookie.Value == "" {
			t.Fatalf("expected nonce binding cookie, got %+v", init.Cookie)
		}
		if init.Cookie.MaxAge != int(cfg.NonceMaxAge/time.Second) {
			t.Errorf("expected bounded cookie lifetime, got %d", init.Cookie.MaxAge)
		}
		if !ConsumeNonce(nonce, init.Cookie.Value, ssoSecret) {
			t.Error("expected cookie binding to match the payload nonce")
		}
	})

	t.Run("unknown or non-sso provider", func(t *testing.T) {
		if _, err := completer.InitiateSSO("nope", ""); err == nil {
			t.Error("expected unknown provider to fail")
		}
		if _, err := completer.InitiateSSO("email", ""); err == nil {
			t.Error("expected non-sso provider to fail")
		}
	})
}

type recordingSender struct {
	to   string
	link string
}

func (r *recordingSender) SendSignInEmail(to string, signInLink string) error {
	r.to = to
	r.link = signInLink
	return nil
}

func TestStartEmailSignIn(t *testing.T) {
	t.Run("creates token and mails callback link", func(t *testing.T) {
		adapter := newFakeAdapter()
		sender := &recordingSender{}
		cfg := testConfig(adapter)
		cfg.EmailSender = sender
		completer := NewCompleter(cfg)

		if err := completer.StartEmailSignIn(context.Background(), "email", "jane@example.com", "/dashboard"); err != nil {
			t.Fatalf("StartEmailSignIn failed: %v", err)
		}
		if sender.to != "jane@example.com" {
			t.Errorf("expected mail to the address, got %q", sender.to)
		}
		u, err := url.Parse(sender.link)
		if err != nil {
			t.Fatalf("parsing mailed link: %v", err)
		}
		if u.Path != "/auth/email/callback" {
			t.Errorf("expected callback path, got %q", u.Path)
		}
		token := u.Query().Get("token")
		if token == "" {
			t.Fatal("expected token in link")
		}
		vr, err := adapter.GetVerificationRequest(context.Background(), "jane@example.com", token)
		if err != nil || vr == nil {
			t.Errorf("expected pending verification request for the link, got %v err %v", vr, err)
		}

		outcome := completer.Complete(context.Background(), &CallbackRequest{
			ProviderID: "email", Method: "GET", Query: u.Query(),
		})
		if outcome.Failed() {
			t.Fatalf("expected mailed link to sign in, got %v", outcome.Code)
		}
	})

	t.Run("requires adapter and sender", func(t *testing.T) {
		cfg := testConfig(nil)
		cfg.EmailSender = &recordingSender{}
		if err := NewCompleter(cfg).StartEmailSignIn(context.Background(), "email", "jane@example.com", ""); err == nil {
			t.Error("expected missing adapter to fail")
		}

		cfg2 := testConfig(newFakeAdapter())
		if err := NewCompleter(cfg2).StartEmailSignIn(context.Background(), "email", "jane@example.com", ""); err == nil {
			t.Error("expected missing sender to fail")
		}
	})

	t.Run("requires an address", func(t *testing.T) {
		cfg := testConfig(newFakeAdapter())
		cfg.EmailSender = &recordingSender{}
		if err := NewCompleter(cfg).StartEmailSignIn(context.Background(), "email", "", ""); err == nil {
			t.Error("expected empty address to fail")
		}
	})
}
