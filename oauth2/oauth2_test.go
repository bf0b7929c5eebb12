package oauth2_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/panyam/authgate/oauth2"
	oauth2lib "golang.org/x/oauth2"
)

// mockOAuthServer is a stand-in provider that serves both the token
// exchange and the user info endpoints.
type mockOAuthServer struct {
	server *httptest.Server

	tokenResponse    map[string]any
	userInfoResponse map[string]any
	tokenError       bool
	userInfoError    bool
}

func newMockOAuthServer() *mockOAuthServer {
	mock := &mockOAuthServer{
		tokenResponse: map[string]any{
			"access_token":  "mock_access_token",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "mock_refresh_token",
		},
		userInfoResponse: map[string]any{
			"id":    "12345",
			"email": "testuser@example.com",
			"name":  "Test User",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if mock.tokenError {
			http.Error(w, "token exchange failed", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.tokenResponse)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if mock.userInfoError {
			http.Error(w, "user info failed", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mock.userInfoResponse)
	})

	mock.server = httptest.NewServer(mux)
	return mock
}

func (m *mockOAuthServer) Close() {
	m.server.Close()
}

func (m *mockOAuthServer) exchanger() *oauth2.BaseExchanger {
	return &oauth2.BaseExchanger{
		Config: &oauth2lib.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURL:  "http://localhost:8080/callback",
			Scopes:       []string{"email", "profile"},
			Endpoint: oauth2lib.Endpoint{
				AuthURL:  m.server.URL + "/auth",
				TokenURL: m.server.URL + "/token",
			},
		},
		UserInfoURL: m.server.URL + "/userinfo",
		Client:      m.server.Client(),
	}
}

func TestAuthCodeURL(t *testing.T) {
	mock := newMockOAuthServer()
	defer mock.Close()

	location := mock.exchanger().AuthCodeURL("some-state")
	if !strings.HasPrefix(location, mock.server.URL+"/auth") {
		t.Errorf("Expected auth URL at provider, got: %s", location)
	}

	parsedURL, err := url.Parse(location)
	if err != nil {
		t.Fatalf("Failed to parse auth URL: %v", err)
	}
	query := parsedURL.Query()
	if query.Get("client_id") != "test-client-id" {
		t.Errorf("Expected client_id in URL, got %q", query.Get("client_id"))
	}
	if query.Get("redirect_uri") != "http://localhost:8080/callback" {
		t.Errorf("Expected redirect_uri in URL, got %q", query.Get("redirect_uri"))
	}
	if query.Get("state") != "some-state" {
		t.Errorf("Expected state in URL, got %q", query.Get("state"))
	}
}

func TestExchange(t *testing.T) {
	t.Run("successful exchange", func(t *testing.T) {
		mock := newMockOAuthServer()
		defer mock.Close()

		token, err := mock.exchanger().Exchange(context.Background(), "valid-code")
		if err != nil {
			t.Fatalf("Exchange failed: %v", err)
		}
		if token.AccessToken != "mock_access_token" {
			t.Errorf("Expected mock access token, got %q", token.AccessToken)
		}
	})

	t.Run("failed exchange", func(t *testing.T) {
		mock := newMockOAuthServer()
		defer mock.Close()
		mock.tokenError = true

		if _, err := mock.exchanger().Exchange(context.Background(), "bad-code"); err == nil {
			t.Error("Expected error from failed exchange")
		}
	})
}

func TestUserInfo(t *testing.T) {
	t.Run("query parameter token", func(t *testing.T) {
		mock := newMockOAuthServer()
		defer mock.Close()

		info, err := mock.exchanger().UserInfo(context.Background(), &oauth2lib.Token{AccessToken: "tok"})
		if err != nil {
			t.Fatalf("UserInfo failed: %v", err)
		}
		if info["email"] != "testuser@example.com" {
			t.Errorf("Expected profile email, got %v", info["email"])
		}
	})

	t.Run("authorization header token", func(t *testing.T) {
		mock := newMockOAuthServer()
		defer mock.Close()

		var gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "1"})
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		ex := mock.exchanger()
		ex.UserInfoURL = server.URL + "/userinfo"
		ex.AuthHeader = true
		ex.Client = server.Client()

		if _, err := ex.UserInfo(context.Background(), &oauth2lib.Token{AccessToken: "tok"}); err != nil {
			t.Fatalf("UserInfo failed: %v", err)
		}
		if gotAuth != "Bearer tok" {
			t.Errorf("Expected bearer header, got %q", gotAuth)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		mock := newMockOAuthServer()
		defer mock.Close()
		mock.userInfoError = true

		if _, err := mock.exchanger().UserInfo(context.Background(), &oauth2lib.Token{AccessToken: "tok"}); err == nil {
			t.Error("Expected error from failing user info endpoint")
		}
	})
}
