package authgate

import (
	"testing"
	"time"
)

func TestEnsureDefaults(t *testing.T) {
	cfg := (&Config{BaseURL: "https://app.example.com", Secret: "s"}).EnsureDefaults()

	if cfg.SessionMode != SessionJWT {
		t.Errorf("expected jwt session mode, got %q", cfg.SessionMode)
	}
	if cfg.SessionMaxAge != 24*time.Hour {
		t.Errorf("unexpected session max age: %v", cfg.SessionMaxAge)
	}
	if cfg.NonceMaxAge != 10*time.Minute {
		t.Errorf("unexpected nonce max age: %v", cfg.NonceMaxAge)
	}
	if cfg.SignInURL != "https://app.example.com/signin" {
		t.Errorf("unexpected signin url: %q", cfg.SignInURL)
	}
	if cfg.ErrorURL != "https://app.example.com/error" {
		t.Errorf("unexpected error url: %q", cfg.ErrorURL)
	}
	if cfg.SessionCookieName != "AuthGateSession" || cfg.NonceCookieName != "AuthGateSSONonce" {
		t.Errorf("unexpected cookie names: %q %q", cfg.SessionCookieName, cfg.NonceCookieName)
	}
	if cfg.Events == nil {
		t.Error("expected default events sink")
	}
}

func TestEnsureDefaultsKeepsOverrides(t *testing.T) {
	cfg := (&Config{
		AppName:           "My",
		BaseURL:           "https://app.example.com",
		Secret:            "s",
		SessionMode:       SessionDatabase,
		SessionMaxAge:     time.Hour,
		SessionCookieName: "sid",
	}).EnsureDefaults()

	if cfg.SessionMode != SessionDatabase {
		t.Errorf("expected database session mode, got %q", cfg.SessionMode)
	}
	if cfg.SessionMaxAge != time.Hour {
		t.Errorf("unexpected session max age: %v", cfg.SessionMaxAge)
	}
	if cfg.SessionCookieName != "sid" {
		t.Errorf("unexpected session cookie name: %q", cfg.SessionCookieName)
	}
	if cfg.NonceCookieName != "MySSONonce" {
		t.Errorf("unexpected nonce cookie name: %q", cfg.NonceCookieName)
	}
}

func TestProviderLookup(t *testing.T) {
	cfg := testConfig(newFakeAdapter())
	if p := cfg.Provider("forum"); p == nil || p.Kind != KindSSO {
		t.Errorf("expected sso provider forum, got %v", p)
	}
	if p := cfg.Provider("nope"); p != nil {
		t.Errorf("expected nil for unknown provider, got %v", p)
	}
}
