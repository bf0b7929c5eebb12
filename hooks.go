package authgate

import (
	"context"
	"log/slog"
)

// Hooks are user-supplied decision and transform callbacks. Each is
// invoked at most once per callback, and only after protocol verification
// has succeeded.
type Hooks struct {
	// SignIn decides whether a verified identity may sign in. A false
	// return is terminal (AccessDenied) and distinct from any verification
	// failure. Nil means allow everyone.
	SignIn func(ctx context.Context, profile Profile, account Account, raw map[string]any) (bool, error)

	// JWT transforms the token claims before signing (JWT session mode
	// only). Nil means the claims pass through unchanged.
	JWT func(ctx context.Context, claims map[string]any, raw map[string]any) (map[string]any, error)
}

// SignInEvent is the payload dispatched after a completed sign-in.
type SignInEvent struct {
	User      *User
	Account   Account
	IsNewUser bool
}

// Events receives fire-and-forget notifications. Dispatch failures never
// block or alter the callback outcome.
type Events interface {
	Dispatch(ctx context.Context, name string, event SignInEvent) error
}

// EventSignIn is the name dispatched when a callback completes.
const EventSignIn = "signin"

// LogEvents is the default Events implementation; it just logs.
type LogEvents struct{}

func (LogEvents) Dispatch(ctx context.Context, name string, event SignInEvent) error {
	slog.Info("auth event", "name", name, "user", event.User.ID, "provider", event.Account.ProviderID, "newUser", event.IsNewUser)
	return nil
}
