//go:build !wasm
// +build !wasm

package gae

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/datastore"

	oa "github.com/panyam/authgate"
)

// UserEntity is the Datastore entity for users
type UserEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	Name      string         `datastore:"name,noindex"`
	Image     string         `datastore:"image,noindex"`
	Profile   []byte         `datastore:"profile,noindex"` // JSON encoded
	CreatedAt time.Time      `datastore:"created_at"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *oa.User {
	var profile map[string]any
	if len(e.Profile) > 0 {
		json.Unmarshal(e.Profile, &profile)
	}
	return &oa.User{
		ID:        e.Key.Name,
		Email:     e.Email,
		Name:      e.Name,
		Image:     e.Image,
		Profile:   profile,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// AccountLinkEntity ties a provider account to a user
// Key format: Provider + ":" + AccountID
type AccountLinkEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Provider  string         `datastore:"provider"`
	AccountID string         `datastore:"account_id"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// SessionEntity is the Datastore entity for server-side sessions
type SessionEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *SessionEntity) ToSession() *oa.SessionRecord {
	return &oa.SessionRecord{
		Token:     e.Key.Name,
		UserID:    e.UserID,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}

// VerificationRequestEntity is the Datastore entity for pending email tokens
// Key format: Email + ":" + Token
type VerificationRequestEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	Token     string         `datastore:"token"`
	CreatedAt time.Time      `datastore:"created_at"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *VerificationRequestEntity) ToVerificationRequest() *oa.VerificationRequest {
	return &oa.VerificationRequest{
		Email:     e.Email,
		Token:     e.Token,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}

// CredentialEntity stores a password hash per email
type CredentialEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	UserID       string         `datastore:"user_id"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}
