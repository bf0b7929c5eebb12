package authgate

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore looks up the stored password hash for an email address.
// Implementations typically sit next to the Adapter over the same backing
// store.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (user *User, passwordHash string, err error)
}

// NewPasswordAuthorizer builds an AuthorizeFunc over a credential store.
// The returned func reads "email" and "password" from the submitted
// fields and compares against the stored bcrypt hash. A bad email and a
// bad password both come back as a nil user so callers cannot probe which
// one was wrong.
func NewPasswordAuthorizer(store CredentialStore) AuthorizeFunc {
	return func(ctx context.Context, fields map[string]string) (*User, error) {
		email := fields["email"]
		password := fields["password"]
		if email == "" || password == "" {
			return nil, nil
		}

		user, hash, err := store.GetCredential(ctx, email)
		if err != nil || user == nil || hash == "" {
			// Burn a comparison so lookup misses cost the same as
			// hash mismatches.
			bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
			return nil, nil
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return nil, nil
		}
		return user, nil
	}
}

// HashPassword produces a bcrypt hash suitable for a CredentialStore.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}
