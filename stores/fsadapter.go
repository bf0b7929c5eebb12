// Package stores provides a filesystem-backed Adapter. Each record is a
// JSON file under the storage path; writes are atomic. Meant for
// development and tests, not for multi-process deployments.
package stores

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	oa "github.com/panyam/authgate"
)

type FSAdapter struct {
	StoragePath string

	mu sync.Mutex
}

func NewFSAdapter(storagePath string) *FSAdapter {
	return &FSAdapter{StoragePath: storagePath}
}

// accountLink ties an external account to a local user.
type accountLink struct {
	Provider  string    `json:"provider"`
	AccountID string    `json:"account_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// credential is a locally stored password hash for an email.
type credential struct {
	UserID       string `json:"user_id"`
	PasswordHash string `json:"password_hash"`
}

func (s *FSAdapter) userPath(userId string) string {
	return filepath.Join(s.StoragePath, "users", userId+".json")
}

func (s *FSAdapter) emailPath(email string) string {
	return filepath.Join(s.StoragePath, "emails", hex.EncodeToString([]byte(email))+".json")
}

func (s *FSAdapter) accountPath(account oa.Account) string {
	key := account.ProviderID + "_" + hex.EncodeToString([]byte(account.ID))
	return filepath.Join(s.StoragePath, "accounts", key+".json")
}

func (s *FSAdapter) sessionPath(token string) string {
	return filepath.Join(s.StoragePath, "sessions", token+".json")
}

func (s *FSAdapter) verificationPath(email, token string) string {
	key := hex.EncodeToString([]byte(email)) + "_" + token
	return filepath.Join(s.StoragePath, "verifications", key+".json")
}

func (s *FSAdapter) credentialPath(email string) string {
	return filepath.Join(s.StoragePath, "credentials", hex.EncodeToString([]byte(email))+".json")
}

func (s *FSAdapter) EnsureUser(ctx context.Context, profile oa.Profile, account oa.Account) (*oa.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Known account: load its user.
	var link accountLink
	if ok, err := readJSON(s.accountPath(account), &link); err != nil {
		return nil, false, err
	} else if ok {
		var user oa.User
		if ok, err := readJSON(s.userPath(link.UserID), &user); err != nil {
			return nil, false, err
		} else if !ok {
			return nil, false, fmt.Errorf("account %s/%s points at missing user %s", account.ProviderID, account.ID, link.UserID)
		}
		return &user, false, nil
	}

	// New account. An email already on file is fine when the verified
	// identity is that user returning through another method (the email
	// and credentials branches resolve the user first, so profile.ID is
	// the user id); a different identity claiming the address conflicts.
	if profile.Email != "" {
		var userId string
		if ok, err := readJSON(s.emailPath(profile.Email), &userId); err != nil {
			return nil, false, err
		} else if ok {
			if userId != profile.ID {
				return nil, false, fmt.Errorf("email %s: %w", profile.Email, oa.ErrAccountAlreadyLinked)
			}
			var user oa.User
			if ok, err := readJSON(s.userPath(userId), &user); err != nil {
				return nil, false, err
			} else if !ok {
				return nil, false, fmt.Errorf("email %s points at missing user %s", profile.Email, userId)
			}
			link = accountLink{
				Provider:  account.ProviderID,
				AccountID: account.ID,
				UserID:    user.ID,
				CreatedAt: time.Now(),
			}
			if err := writeJSON(s.accountPath(account), link); err != nil {
				return nil, false, err
			}
			return &user, false, nil
		}
	}

	user := &oa.User{
		ID:        newToken(),
		Email:     profile.Email,
		Name:      profile.Name,
		Image:     profile.Image,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.saveUserLocked(user); err != nil {
		return nil, false, fmt.Errorf("%w: %v", oa.ErrUserCreateFailed, err)
	}
	link = accountLink{
		Provider:  account.ProviderID,
		AccountID: account.ID,
		UserID:    user.ID,
		CreatedAt: time.Now(),
	}
	if err := writeJSON(s.accountPath(account), link); err != nil {
		return nil, false, fmt.Errorf("%w: %v", oa.ErrUserCreateFailed, err)
	}
	return user, true, nil
}

func (s *FSAdapter) saveUserLocked(user *oa.User) error {
	if err := writeJSON(s.userPath(user.ID), user); err != nil {
		return err
	}
	if user.Email != "" {
		return writeJSON(s.emailPath(user.Email), user.ID)
	}
	return nil
}

func (s *FSAdapter) GetUserByEmail(ctx context.Context, email string) (*oa.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var userId string
	if ok, err := readJSON(s.emailPath(email), &userId); err != nil || !ok {
		return nil, err
	}
	var user oa.User
	if ok, err := readJSON(s.userPath(userId), &user); err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

func (s *FSAdapter) CreateVerificationRequest(ctx context.Context, email string, expiry time.Duration) (*oa.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vr := &oa.VerificationRequest{
		Email:     email,
		Token:     newToken(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiry),
	}
	if err := writeJSON(s.verificationPath(email, vr.Token), vr); err != nil {
		return nil, err
	}
	return vr, nil
}

func (s *FSAdapter) GetVerificationRequest(ctx context.Context, email, token string) (*oa.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var vr oa.VerificationRequest
	if ok, err := readJSON(s.verificationPath(email, token), &vr); err != nil || !ok {
		return nil, err
	}
	return &vr, nil
}

func (s *FSAdapter) DeleteVerificationRequest(ctx context.Context, email, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.verificationPath(email, token))
}

func (s *FSAdapter) CreateSession(ctx context.Context, userID string, expiry time.Duration) (*oa.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &oa.SessionRecord{
		Token:     newToken(),
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiry),
	}
	if err := writeJSON(s.sessionPath(rec.Token), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *FSAdapter) GetSession(ctx context.Context, token string) (*oa.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec oa.SessionRecord
	if ok, err := readJSON(s.sessionPath(token), &rec); err != nil {
		return nil, err
	} else if !ok {
		return nil, oa.ErrSessionNotFound
	}
	if rec.IsExpired() {
		removeFile(s.sessionPath(token))
		return nil, oa.ErrSessionNotFound
	}
	return &rec, nil
}

func (s *FSAdapter) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.sessionPath(token))
}

// SetPassword stores a bcrypt hash for an email, making the FSAdapter
// usable as a CredentialStore for password sign-in.
func (s *FSAdapter) SetPassword(ctx context.Context, email, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.credentialPath(email), credential{UserID: userID, PasswordHash: passwordHash})
}

func (s *FSAdapter) GetCredential(ctx context.Context, email string) (*oa.User, string, error) {
	s.mu.Lock()
	var cred credential
	ok, err := readJSON(s.credentialPath(email), &cred)
	s.mu.Unlock()
	if err != nil || !ok {
		return nil, "", err
	}

	var user oa.User
	s.mu.Lock()
	ok, err = readJSON(s.userPath(cred.UserID), &user)
	s.mu.Unlock()
	if err != nil || !ok {
		return nil, "", err
	}
	return &user, cred.PasswordHash, nil
}

func newToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, in any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeAtomicFile stages the record in a temp file and renames it into
// place so concurrent readers never observe a partial write.
func writeAtomicFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".authgate-*")
	if err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("staging %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
