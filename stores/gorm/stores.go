//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	oa "github.com/panyam/authgate"
)

// AutoMigrate runs database migrations for all authgate tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&AccountLinkModel{},
		&SessionModel{},
		&VerificationRequestModel{},
		&CredentialModel{},
	)
}

// Adapter implements oa.Adapter and oa.CredentialStore over a GORM DB.
type Adapter struct {
	db *gorm.DB
}

func NewAdapter(db *gorm.DB) *Adapter {
	return &Adapter{db: db}
}

func (s *Adapter) EnsureUser(ctx context.Context, profile oa.Profile, account oa.Account) (*oa.User, bool, error) {
	db := s.db.WithContext(ctx)

	var link AccountLinkModel
	err := db.First(&link, "provider = ? AND account_id = ?", account.ProviderID, account.ID).Error
	if err == nil {
		var model UserModel
		if err := db.First(&model, "id = ?", link.UserID).Error; err != nil {
			return nil, false, err
		}
		return toUser(&model), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if profile.Email != "" {
		var existing UserModel
		err := db.First(&existing, "email = ?", profile.Email).Error
		if err == nil {
			// A returning user resolved by email or credentials carries
			// its own user id as the profile id; link the new account.
			// Anything else is a different identity claiming the address.
			if existing.ID != profile.ID {
				return nil, false, fmt.Errorf("email %s: %w", profile.Email, oa.ErrAccountAlreadyLinked)
			}
			err := db.Create(&AccountLinkModel{
				Provider:  account.ProviderID,
				AccountID: account.ID,
				UserID:    existing.ID,
			}).Error
			if err != nil {
				return nil, false, err
			}
			return toUser(&existing), false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	model := &UserModel{
		ID:    newId(),
		Email: profile.Email,
		Name:  profile.Name,
		Image: profile.Image,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return tx.Create(&AccountLinkModel{
			Provider:  account.ProviderID,
			AccountID: account.ID,
			UserID:    model.ID,
		}).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", oa.ErrUserCreateFailed, err)
	}
	return toUser(model), true, nil
}

func (s *Adapter) GetUserByEmail(ctx context.Context, email string) (*oa.User, error) {
	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toUser(&model), nil
}

func (s *Adapter) CreateVerificationRequest(ctx context.Context, email string, expiry time.Duration) (*oa.VerificationRequest, error) {
	model := &VerificationRequestModel{
		Email:     email,
		Token:     newId(),
		ExpiresAt: time.Now().Add(expiry),
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return &oa.VerificationRequest{
		Email:     model.Email,
		Token:     model.Token,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}, nil
}

func (s *Adapter) GetVerificationRequest(ctx context.Context, email, token string) (*oa.VerificationRequest, error) {
	var model VerificationRequestModel
	err := s.db.WithContext(ctx).First(&model, "email = ? AND token = ?", email, token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &oa.VerificationRequest{
		Email:     model.Email,
		Token:     model.Token,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}, nil
}

func (s *Adapter) DeleteVerificationRequest(ctx context.Context, email, token string) error {
	return s.db.WithContext(ctx).
		Delete(&VerificationRequestModel{}, "email = ? AND token = ?", email, token).Error
}

func (s *Adapter) CreateSession(ctx context.Context, userID string, expiry time.Duration) (*oa.SessionRecord, error) {
	model := &SessionModel{
		Token:     newId(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(expiry),
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, err
	}
	return &oa.SessionRecord{
		Token:     model.Token,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}, nil
}

func (s *Adapter) GetSession(ctx context.Context, token string) (*oa.SessionRecord, error) {
	var model SessionModel
	err := s.db.WithContext(ctx).First(&model, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, oa.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(model.ExpiresAt) {
		s.db.WithContext(ctx).Delete(&SessionModel{}, "token = ?", token)
		return nil, oa.ErrSessionNotFound
	}
	return &oa.SessionRecord{
		Token:     model.Token,
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		ExpiresAt: model.ExpiresAt,
	}, nil
}

func (s *Adapter) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&SessionModel{}, "token = ?", token).Error
}

// SetPassword stores a password hash for an email.
func (s *Adapter) SetPassword(ctx context.Context, email, userID, passwordHash string) error {
	return s.db.WithContext(ctx).Save(&CredentialModel{
		Email:        email,
		UserID:       userID,
		PasswordHash: passwordHash,
	}).Error
}

func (s *Adapter) GetCredential(ctx context.Context, email string) (*oa.User, string, error) {
	db := s.db.WithContext(ctx)
	var cred CredentialModel
	err := db.First(&cred, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var model UserModel
	if err := db.First(&model, "id = ?", cred.UserID).Error; err != nil {
		return nil, "", err
	}
	return toUser(&model), cred.PasswordHash, nil
}

func toUser(model *UserModel) *oa.User {
	return &oa.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		Image:     model.Image,
		Profile:   model.Profile,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func newId() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
