package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tagscraper"
	keyringPrefix  = "danbooru_"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Username
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	// Track usernames so List can enumerate them later
	return k.addToIndex(account.Username)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	key := keyringPrefix + username
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns all accounts recorded in the keyring index
func (k *KeyringStore) List() ([]*Account, error) {
	usernames, err := k.loadIndex()
	if err != nil {
		return []*Account{}, nil
	}

	var accounts []*Account
	for _, username := range usernames {
		if account, err := k.Retrieve(username); err == nil {
			accounts = append(accounts, account)
		}
	}

	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	key := keyringPrefix + username
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.removeFromIndex(username)
}

// Exists checks if credentials exist for a username
func (k *KeyringStore) Exists(username string) bool {
	account, err := k.Retrieve(username)
	return err == nil && account != nil
}

const keyringIndexKey = "account_index"

// loadIndex reads the stored username list
func (k *KeyringStore) loadIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndexKey)
	if err != nil {
		return nil, err
	}

	var usernames []string
	if err := json.Unmarshal([]byte(data), &usernames); err != nil {
		return nil, err
	}
	return usernames, nil
}

// addToIndex records a username in the index
func (k *KeyringStore) addToIndex(username string) error {
	usernames, _ := k.loadIndex()
	for _, existing := range usernames {
		if existing == username {
			return nil
		}
	}
	usernames = append(usernames, username)
	return k.saveIndex(usernames)
}

// removeFromIndex drops a username from the index
func (k *KeyringStore) removeFromIndex(username string) error {
	usernames, err := k.loadIndex()
	if err != nil {
		return nil
	}

	filtered := usernames[:0]
	for _, existing := range usernames {
		if existing != username {
			filtered = append(filtered, existing)
		}
	}
	return k.saveIndex(filtered)
}

func (k *KeyringStore) saveIndex(usernames []string) error {
	data, err := json.Marshal(usernames)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndexKey, string(data))
}
