//go:build !wasm
// +build !wasm

package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// UserModel is the GORM model for users
type UserModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Email     string    `gorm:"size:255;uniqueIndex"`
	Name      string    `gorm:"size:255"`
	Image     string    `gorm:"size:1024"`
	Profile   JSONMap   `gorm:"type:jsonb"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// AccountLinkModel ties a provider account to a user
type AccountLinkModel struct {
	Provider  string    `gorm:"primaryKey;size:64"`
	AccountID string    `gorm:"primaryKey;size:255"`
	UserID    string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AccountLinkModel) TableName() string {
	return "account_links"
}

// SessionModel is the GORM model for server-side sessions
type SessionModel struct {
	Token     string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"size:64;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"index"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

// VerificationRequestModel is the GORM model for pending email tokens
type VerificationRequestModel struct {
	Email     string    `gorm:"primaryKey;size:255"`
	Token     string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"index"`
}

func (VerificationRequestModel) TableName() string {
	return "verification_requests"
}

// CredentialModel stores a password hash per email
type CredentialModel struct {
	Email        string    `gorm:"primaryKey;size:255"`
	UserID       string    `gorm:"size:64;index"`
	PasswordHash string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (CredentialModel) TableName() string {
	return "credentials"
}
