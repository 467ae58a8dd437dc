package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvSESSDATA   = "BILIFOLLOW_SESSDATA"
	EnvBiliJCT    = "BILIFOLLOW_BILI_JCT"
	EnvDedeUserID = "BILIFOLLOW_DEDE_USER_ID"
	EnvUserAgent  = "BILIFOLLOW_USER_AGENT"
)

// EnvironmentStore implements a read-only CredentialStore over environment
// variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve builds an account from the environment. The name is only used
// as a label; an empty name becomes "env".
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	sessdata := os.Getenv(EnvSESSDATA)
	if sessdata == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = "env"
	}

	return &Account{
		Name:         name,
		SESSDATA:     sessdata,
		BiliJCT:      os.Getenv(EnvBiliJCT),
		DedeUserID:   os.Getenv(EnvDedeUserID),
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the environment carries one
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists reports whether SESSDATA is set in the environment
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvSESSDATA) != ""
}
