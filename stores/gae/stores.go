//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	oa "github.com/panyam/authgate"
)

// Kind constants for Datastore entities
const (
	KindUser                = "User"
	KindAccountLink         = "AccountLink"
	KindSession             = "Session"
	KindVerificationRequest = "VerificationRequest"
	KindCredential          = "Credential"
)

// Adapter implements oa.Adapter and oa.CredentialStore using Google
// Cloud Datastore.
type Adapter struct {
	client    *datastore.Client
	namespace string
}

// NewAdapter creates a Datastore-backed adapter. An empty namespace uses
// the default namespace.
func NewAdapter(client *datastore.Client, namespace string) *Adapter {
	return &Adapter{client: client, namespace: namespace}
}

func (s *Adapter) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *Adapter) query(kind string) *datastore.Query {
	query := datastore.NewQuery(kind)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}
	return query
}

func (s *Adapter) EnsureUser(ctx context.Context, profile oa.Profile, account oa.Account) (*oa.User, bool, error) {
	linkKey := s.namespacedKey(KindAccountLink, account.ProviderID+":"+account.ID)

	var link AccountLinkEntity
	err := s.client.Get(ctx, linkKey, &link)
	if err == nil {
		var entity UserEntity
		userKey := s.namespacedKey(KindUser, link.UserID)
		if err := s.client.Get(ctx, userKey, &entity); err != nil {
			return nil, false, err
		}
		return entity.ToUser(), false, nil
	}
	if err != datastore.ErrNoSuchEntity {
		return nil, false, err
	}

	if profile.Email != "" {
		existing, err := s.GetUserByEmail(ctx, profile.Email)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			// A returning user resolved by email or credentials carries
			// its own user id as the profile id; link the new account.
			// Anything else is a different identity claiming the address.
			if existing.ID != profile.ID {
				return nil, false, fmt.Errorf("email %s: %w", profile.Email, oa.ErrAccountAlreadyLinked)
			}
			linkEntity := &AccountLinkEntity{
				Key:       linkKey,
				Provider:  account.ProviderID,
				AccountID: account.ID,
				UserID:    existing.ID,
				CreatedAt: time.Now(),
			}
			if _, err := s.client.Put(ctx, linkKey, linkEntity); err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
	}

	now := time.Now()
	userId := newId()
	userKey := s.namespacedKey(KindUser, userId)
	entity := &UserEntity{
		Key:       userKey,
		Email:     profile.Email,
		Name:      profile.Name,
		Image:     profile.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}
	linkEntity := &AccountLinkEntity{
		Key:       linkKey,
		Provider:  account.ProviderID,
		AccountID: account.ID,
		UserID:    userId,
		CreatedAt: now,
	}
	_, err = s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if _, err := tx.Put(userKey, entity); err != nil {
			return err
		}
		_, err := tx.Put(linkKey, linkEntity)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", oa.ErrUserCreateFailed, err)
	}
	return entity.ToUser(), true, nil
}

func (s *Adapter) GetUserByEmail(ctx context.Context, email string) (*oa.User, error) {
	query := s.query(KindUser).FilterField("email", "=", email).Limit(1)
	it := s.client.Run(ctx, query)
	var entity UserEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *Adapter) CreateVerificationRequest(ctx context.Context, email string, expiry time.Duration) (*oa.VerificationRequest, error) {
	now := time.Now()
	entity := &VerificationRequestEntity{
		Email:     email,
		Token:     newId(),
		CreatedAt: now,
		ExpiresAt: now.Add(expiry),
	}
	key := s.namespacedKey(KindVerificationRequest, email+":"+entity.Token)
	entity.Key = key
	if _, err := s.client.Put(ctx, key, entity); err != nil {
		return nil, err
	}
	return entity.ToVerificationRequest(), nil
}

func (s *Adapter) GetVerificationRequest(ctx context.Context, email, token string) (*oa.VerificationRequest, error) {
	key := s.namespacedKey(KindVerificationRequest, email+":"+token)
	var entity VerificationRequestEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, nil
		}
		return nil, err
	}
	return entity.ToVerificationRequest(), nil
}

func (s *Adapter) DeleteVerificationRequest(ctx context.Context, email, token string) error {
	key := s.namespacedKey(KindVerificationRequest, email+":"+token)
	if err := s.client.Delete(ctx, key); err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}
	return nil
}

func (s *Adapter) CreateSession(ctx context.Context, userID string, expiry time.Duration) (*oa.SessionRecord, error) {
	now := time.Now()
	token := newId()
	key := s.namespacedKey(KindSession, token)
	entity := &SessionEntity{
		Key:       key,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(expiry),
	}
	if _, err := s.client.Put(ctx, key, entity); err != nil {
		return nil, err
	}
	return entity.ToSession(), nil
}

func (s *Adapter) GetSession(ctx context.Context, token string) (*oa.SessionRecord, error) {
	key := s.namespacedKey(KindSession, token)
	var entity SessionEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, oa.ErrSessionNotFound
		}
		return nil, err
	}
	if time.Now().After(entity.ExpiresAt) {
		s.client.Delete(ctx, key)
		return nil, oa.ErrSessionNotFound
	}
	return entity.ToSession(), nil
}

func (s *Adapter) DeleteSession(ctx context.Context, token string) error {
	key := s.namespacedKey(KindSession, token)
	if err := s.client.Delete(ctx, key); err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry. Intended to be
// run periodically (cron or a background worker).
func (s *Adapter) DeleteExpiredSessions(ctx context.Context) (int, error) {
	query := s.query(KindSession).FilterField("expires_at", "<", time.Now()).KeysOnly()
	it := s.client.Run(ctx, query)

	var keys []*datastore.Key
	for {
		key, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.DeleteMulti(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// SetPassword stores a password hash for an email.
func (s *Adapter) SetPassword(ctx context.Context, email, userID, passwordHash string) error {
	key := s.namespacedKey(KindCredential, email)
	now := time.Now()
	entity := &CredentialEntity{
		Key:          key,
		UserID:       userID,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.client.Put(ctx, key, entity)
	return err
}

func (s *Adapter) GetCredential(ctx context.Context, email string) (*oa.User, string, error) {
	key := s.namespacedKey(KindCredential, email)
	var cred CredentialEntity
	if err := s.client.Get(ctx, key, &cred); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, "", nil
		}
		return nil, "", err
	}
	var entity UserEntity
	userKey := s.namespacedKey(KindUser, cred.UserID)
	if err := s.client.Get(ctx, userKey, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, "", nil
		}
		return nil, "", err
	}
	return entity.ToUser(), cred.PasswordHash, nil
}

func newId() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
