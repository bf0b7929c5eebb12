// Package authgate completes sign-in for Go applications. It takes the
// callback leg of an authentication flow, verifies the presented proof of
// identity, resolves the user, issues a session, and always answers with
// a redirect.
//
// # Architecture
//
// Provider: a way of proving identity. Four kinds are supported: a
// remote site that signs the user's identity with a shared HMAC secret,
// an OAuth authorization-code provider, email magic links, and local
// password credentials.
//
// Completer: the orchestrator. Every callback runs Verify, an optional
// sign-in decision hook, user resolution through the Adapter, session
// issuance, and a redirect decision. Failures never surface as HTTP
// errors; each failure maps to a sanitized error-page redirect while the
// precise internal code stays on the outcome for logging.
//
// Adapter: the persistence collaborator (users, account links, sessions,
// email verification tokens). File-backed, GORM and Cloud Datastore
// implementations live under stores/.
//
// # Basic Usage
//
// Configure providers and build the HTTP handler:
//
//	import (
//	    "github.com/panyam/authgate"
//	    "github.com/panyam/authgate/oauth2"
//	    "github.com/panyam/authgate/stores"
//	)
//
//	adapter := stores.NewFSAdapter("/path/to/storage")
//	cfg := &authgate.Config{
//	    BaseURL: "https://yourapp.com",
//	    Secret:  os.Getenv("AUTHGATE_SECRET"),
//	    Adapter: adapter,
//	    Providers: []*authgate.Provider{
//	        {ID: "google", Kind: authgate.KindOAuth,
//	         Exchanger: oauth2.NewGoogle(clientId, clientSecret, callbackUrl)},
//	        {ID: "forum", Kind: authgate.KindSSO,
//	         Secret: ssoSecret, RemoteURL: "https://forum.yourapp.com"},
//	        {ID: "email", Kind: authgate.KindEmail},
//	    },
//	    EmailSender: &authgate.ConsoleEmailSender{},
//	}
//	http.Handle("/auth/", authgate.NewHandler(cfg))
//
// Sessions default to signed tokens; set SessionMode to SessionDatabase
// for opaque adapter-backed sessions. Downstream handlers resolve the
// user with Middleware.ExtractUser or Middleware.EnsureUser, and gRPC
// services with the interceptors in the grpc subpackage.
//
// # Security
//
// Signed payloads are verified with a constant-time digest compare
// before decoding. Remote sign-on nonces are single use and bound to the
// initiating browser. Passwords are hashed with bcrypt. Email sign-in
// tokens are cryptographically random, expire, and are deleted before
// the sign-in proceeds so a replayed link cannot race the first use.
//
// # Testing
//
// Handlers are tested without a running server using httptest.NewRequest
// and httptest.ResponseRecorder, with file-backed stores in temporary
// directories for isolation.
package authgate
