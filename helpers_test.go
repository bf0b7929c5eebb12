package authgate

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type mapCredentialStore struct {
	users  map[string]*User
	hashes map[string]string
}

func (s *mapCredentialStore) GetCredential(ctx context.Context, email string) (*User, string, error) {
	return s.users[email], s.hashes[email], nil
}

func TestPasswordAuthorizer(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	store := &mapCredentialStore{
		users:  map[string]*User{"jane@example.com": {ID: "user-1", Email: "jane@example.com"}},
		hashes: map[string]string{"jane@example.com": hash},
	}
	authorize := NewPasswordAuthorizer(store)
	ctx := context.Background()

	t.Run("correct password", func(t *testing.T) {
		user, err := authorize(ctx, map[string]string{"email": "jane@example.com", "password": "s3cret"})
		if err != nil {
			t.Fatalf("authorize failed: %v", err)
		}
		if user == nil || user.ID != "user-1" {
			t.Errorf("expected user-1, got %v", user)
		}
	})

	rejected := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "jane@example.com", "nope"},
		{"unknown email", "nobody@example.com", "s3cret"},
		{"empty email", "", "s3cret"},
		{"empty password", "jane@example.com", ""},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			user, err := authorize(ctx, map[string]string{"email": tc.email, "password": tc.password})
			if err != nil {
				t.Fatalf("authorize returned error: %v", err)
			}
			if user != nil {
				t.Errorf("expected nil user, got %v", user)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter3")); err == nil {
		t.Error("expected mismatch for wrong password")
	}
}
