package authgate

import (
	"context"
	"time"
)

// User is a resolved account in the host system.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name,omitempty"`
	Image     string         `json:"image,omitempty"`
	Profile   map[string]any `json:"profile,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SessionRecord is a server-side session (database session mode only).
type SessionRecord struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *SessionRecord) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// VerificationRequest is a pending email magic-link token. The Token field
// holds the value mailed to the user; lookups are by (email, token).
type VerificationRequest struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the verification request has expired.
func (v *VerificationRequest) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// Adapter is the persistence collaborator. Implementations live in the
// stores subpackages (fs for development/tests, gorm and gae for
// production). Every method may fail; none is retried by the caller.
type Adapter interface {
	// EnsureUser resolves or creates the user for a verified (profile,
	// account) pair and links the account. Returns the user and whether it
	// was newly created. When the profile's email belongs to an existing
	// user, adapters link the account and return that user if the profile
	// id is the user's own id (a returning user resolved by the email or
	// credentials branch), and wrap ErrAccountAlreadyLinked otherwise.
	// Creation failures wrap ErrUserCreateFailed.
	EnsureUser(ctx context.Context, profile Profile, account Account) (user *User, isNewUser bool, err error)

	// GetUserByEmail returns the user for an email, or nil when none exists.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateVerificationRequest stores a pending magic-link token.
	CreateVerificationRequest(ctx context.Context, email string, expiry time.Duration) (*VerificationRequest, error)

	// GetVerificationRequest returns the pending request for (email, token),
	// or nil when absent or expired.
	GetVerificationRequest(ctx context.Context, email, token string) (*VerificationRequest, error)

	// DeleteVerificationRequest removes a pending request. Deleting an
	// already-deleted request is not an error.
	DeleteVerificationRequest(ctx context.Context, email, token string) error

	// CreateSession creates a server-side session record (database mode).
	CreateSession(ctx context.Context, userID string, expiry time.Duration) (*SessionRecord, error)

	// GetSession resolves an opaque session token, or returns
	// ErrSessionNotFound when absent or expired.
	GetSession(ctx context.Context, token string) (*SessionRecord, error)

	// DeleteSession removes a session record (sign-out). Deleting an
	// absent session is not an error.
	DeleteSession(ctx context.Context, token string) error
}
